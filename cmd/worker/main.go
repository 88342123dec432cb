// Package main provides the entrypoint for the movielocations endpoint watchdog.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/provider/resilience"
	"github.com/movielocations/movielocations/internal/sparql"
	"github.com/movielocations/movielocations/internal/telemetry"
	"github.com/movielocations/movielocations/internal/verify"
	"github.com/movielocations/movielocations/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "movielocations-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting movielocations worker")

	settings := config.SettingsFromEnv()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	queryMetrics, err := sparql.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize query metrics")
	}

	store, closeStore, err := config.OpenStore(ctx, settings)
	if err != nil {
		log.Fatal().Err(err).Str("backend", settings.ConfigBackend).Msg("failed to open config store")
	}
	defer closeStore()

	registry := resilience.NewRegistry()

	verifier := verify.New(verify.Config{
		Registry: registry,
		Metrics:  queryMetrics,
		Logger:   log,
	})

	job := worker.NewVerifyJob(worker.VerifyJobOptions{
		Config: worker.VerifyJobConfig{
			Interval: settings.WorkerInterval,
		},
		Store:   store,
		Checker: verifier,
		Logger:  log,
	})

	// Worker also exposes health endpoint for Cloud Run
	server := &http.Server{
		Addr:         ":" + settings.Port,
		Handler:      worker.NewHealthRouter(Version, job, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go job.Start(ctx)

	var pubsubHandler *worker.PubSubHandler
	if settings.PubSubProjectID != "" && settings.PubSubSubscription != "" {
		pubsubHandler, err = worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        settings.PubSubProjectID,
			SubscriptionName: settings.PubSubSubscription,
			VerifyJob:        job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}
	if pubsubHandler != nil {
		if err := pubsubHandler.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}

	log.Info().Msg("worker stopped")
}
