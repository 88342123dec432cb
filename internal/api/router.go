// Package api provides the HTTP API for the movie locations service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/api/handler"
	"github.com/movielocations/movielocations/internal/api/middleware"
	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	// AdminAuth guards the routes that change config or run raw queries.
	AdminAuth middleware.AdminAuthConfig

	Store    config.Store
	Checker  handler.EndpointChecker
	Service  handler.LocationService
	Registry *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "movielocations-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON) // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Store, cfg.Registry)
	configHandler := handler.NewConfigHandler(cfg.Store, cfg.Checker, cfg.Logger)
	endpointHandler := handler.NewEndpointHandler(cfg.Store, cfg.Checker, cfg.Logger)
	queryHandler := handler.NewQueryHandler(cfg.Service, cfg.Logger)
	locationsHandler := handler.NewLocationsHandler(cfg.Service, cfg.Logger)

	adminAuth := middleware.AdminAuth(cfg.AdminAuth)

	// Every request that reaches the SPARQL endpoint is expensive
	adminRateLimit := middleware.RateLimitBySubject(middleware.AdminRateLimit)    // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status exposes endpoint URLs and errors
			r.With(adminAuth).Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/config", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", configHandler.GetConfig)
			r.With(adminAuth, adminRateLimit, middleware.RequireJSON).Put("/", configHandler.UpdateConfig)
		})

		r.With(expensiveRateLimit, middleware.RequireJSON).Post("/endpoint:verify", endpointHandler.VerifyEndpoint)

		r.With(adminAuth, expensiveRateLimit, middleware.RequireJSON).Post("/query", queryHandler.RunQuery)

		r.With(expensiveRateLimit).Get("/locations", locationsHandler.ListLocations)
	})

	return r
}
