// Package main provides the entrypoint for the movielocations API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/api"
	"github.com/movielocations/movielocations/internal/api/middleware"
	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/movielocations"
	"github.com/movielocations/movielocations/internal/provider/resilience"
	"github.com/movielocations/movielocations/internal/sparql"
	"github.com/movielocations/movielocations/internal/telemetry"
	"github.com/movielocations/movielocations/internal/verify"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "movielocations-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting movielocations API")

	settings := config.SettingsFromEnv()

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    settings.Environment,
		OTLPEndpoint:   settings.OTLPEndpoint,
		Enabled:        settings.OTelEnabled,
		SampleRatio:    settings.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if settings.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", settings.OTLPEndpoint).
			Float64("sample_ratio", settings.OTelSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	queryMetrics, err := sparql.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize query metrics")
		os.Exit(1)
	}

	// Open the config store
	store, closeStore, err := config.OpenStore(ctx, settings)
	if err != nil {
		log.Fatal().Err(err).Str("backend", settings.ConfigBackend).Msg("failed to open config store")
	}
	defer closeStore()
	log.Info().Str("backend", settings.ConfigBackend).Msg("config store opened")

	registry := resilience.NewRegistry()

	verifier := verify.New(verify.Config{
		Registry: registry,
		Metrics:  queryMetrics,
		Logger:   log,
	})

	service := movielocations.NewService(movielocations.ServiceConfig{
		Store: store,
		Factory: func(endpoint string) movielocations.Querier {
			return sparql.NewClient(sparql.ClientConfig{
				Endpoint: endpoint,
				Timeout:  settings.SPARQLTimeout,
				Registry: registry,
				Metrics:  queryMetrics,
				Logger:   log,
			})
		},
		Logger: log,
	})

	adminAuth := middleware.AdminAuthConfig{SigningKey: settings.AdminJWTKey}
	if !adminAuth.Enabled() {
		log.Warn().Msg("ADMIN_JWT_KEY not set - admin routes are unauthenticated")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		RequireTLS:  settings.RequireTLS,
		AdminAuth:   adminAuth,
		Store:       store,
		Checker:     verifier,
		Service:     service,
		Registry:    registry,
	})

	// Write timeout leaves room for a query that runs to SPARQLTimeout.
	server := &http.Server{
		Addr:         ":" + settings.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: settings.SPARQLTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
