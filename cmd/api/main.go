// Package main provides the entrypoint for the trailcap API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/internal/api"
	"github.com/trailcap/trailcap/internal/api/middleware"
	"github.com/trailcap/trailcap/internal/database"
	"github.com/trailcap/trailcap/internal/elevation"
	"github.com/trailcap/trailcap/internal/elevation/openelevation"
	"github.com/trailcap/trailcap/internal/elevation/opentopodata"
	"github.com/trailcap/trailcap/internal/session"
	"github.com/trailcap/trailcap/internal/telemetry"
	"github.com/trailcap/trailcap/internal/trail"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "trailcap-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting trailcap API")

	// Get configuration from environment
	port := getEnvOrDefault("APP_PORT", "8080")
	otlpEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	env := getEnvOrDefault("APP_ENV", "development")

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
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

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize HTTP metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	captureMetrics, err := session.NewCaptureMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize capture metrics")
		os.Exit(1)
	}

	// Trail persistence: Postgres when configured, in-memory otherwise
	var trailRepo trail.Repository
	if os.Getenv("DB_ENABLED") == "true" {
		dbConfig := database.ConfigFromEnv()
		pool, connErr := database.Connect(ctx, dbConfig)
		if connErr != nil {
			log.Fatal().Err(connErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		trailRepo = trail.NewPostgresRepository(pool)
	} else {
		log.Warn().Msg("database disabled - trails are kept in memory")
		trailRepo = trail.NewInMemoryRepository()
	}

	// Trail publisher: Pub/Sub when configured
	var publisher trail.Publisher = trail.NoopPublisher{}
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		topic := getEnvOrDefault("PUBSUB_TOPIC", "finalized-trails")
		psPublisher, pubErr := trail.NewPubSubPublisher(ctx, trail.PubSubPublisherConfig{
			ProjectID: projectID,
			TopicName: topic,
			Logger:    log,
		})
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to create pubsub publisher")
		}
		defer psPublisher.Close()
		publisher = psPublisher
		log.Info().
			Str("project_id", projectID).
			Str("topic", topic).
			Msg("trail publisher initialized")
	} else {
		log.Warn().Msg("Pub/Sub not configured - finalized trails are not announced")
	}

	// Elevation provider for finalization enrichment
	var provider elevation.Provider
	switch name := getEnvOrDefault("ELEVATION_PROVIDER", "open-elevation"); name {
	case "open-elevation":
		provider = openelevation.NewClient(openelevation.ClientConfig{
			BaseURL: os.Getenv("OPEN_ELEVATION_BASE_URL"),
			Logger:  log,
		})
	case "opentopodata":
		provider = opentopodata.NewClient(opentopodata.ClientConfig{
			BaseURL: os.Getenv("OPENTOPODATA_BASE_URL"),
			Dataset: os.Getenv("OPENTOPODATA_DATASET"),
			Logger:  log,
		})
	case "off":
		log.Warn().Msg("elevation enrichment disabled")
	default:
		log.Fatal().Str("provider", name).Msg("unknown elevation provider")
	}

	var enricher *elevation.Enricher
	if provider != nil {
		enricher = elevation.NewEnricher(elevation.EnricherConfig{
			Provider: provider,
			Logger:   log,
		})
		log.Info().Str("provider", provider.Name()).Msg("elevation enricher initialized")
	}

	// Position feed and session manager
	feed := session.NewFeed()
	sessions := session.NewManager(session.ManagerConfig{
		Source:   feed,
		Enricher: enricher,
		Logger:   log,
		Metrics:  captureMetrics,
	})
	log.Info().Msg("session manager initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		Sessions:    sessions,
		Trails:      trailRepo,
		Publisher:   publisher,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
