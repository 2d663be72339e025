// Package api provides the HTTP API for trailcap.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/internal/api/handler"
	"github.com/trailcap/trailcap/internal/api/middleware"
	"github.com/trailcap/trailcap/internal/session"
	"github.com/trailcap/trailcap/internal/trail"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Sessions    *session.Manager
	Trails      trail.Repository
	Publisher   trail.Publisher
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "trailcap-api"
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = trail.NoopPublisher{}
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
	r.Use(middleware.ContentTypeJSON)      // JSON content type
	r.Use(middleware.RequireJSON)          // Reject non-JSON bodies

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime)
	sessionHandler := handler.NewSessionHandler(cfg.Sessions, cfg.Trails, publisher, cfg.Logger)
	trailHandler := handler.NewTrailHandler(cfg.Trails, cfg.Logger)

	// Create rate limit middleware for different endpoint categories
	ingestRateLimit := middleware.RateLimitByIP(middleware.IngestRateLimit)       // 600 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Capture sessions
		r.Route("/sessions", func(r chi.Router) {
			r.With(standardRateLimit).Post("/", sessionHandler.CreateSession)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.With(standardRateLimit).Get("/", sessionHandler.GetSession)
				r.With(standardRateLimit).Delete("/", sessionHandler.AbandonSession)

				// Sample ingestion runs at GPS cadence
				r.With(ingestRateLimit).Post("/samples", sessionHandler.IngestSample)

				r.With(standardRateLimit).Post("/pause", sessionHandler.PauseSession)
				r.With(standardRateLimit).Post("/resume", sessionHandler.ResumeSession)
				r.With(standardRateLimit).Delete("/waypoints/{index}", sessionHandler.RemoveWaypoint)

				// Finalization may call the elevation provider
				r.With(expensiveRateLimit).Post("/finalize", sessionHandler.FinalizeSession)
			})
		})

		// Finalized trails
		r.Route("/trails", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", trailHandler.ListTrails)
			r.Route("/{trailId}", func(r chi.Router) {
				r.Get("/", trailHandler.GetTrail)
				r.Get("/gpx", trailHandler.GetTrailGPX)
				r.Delete("/", trailHandler.DeleteTrail)
			})
		})
	})

	return r
}
