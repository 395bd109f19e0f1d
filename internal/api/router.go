// Package api provides the HTTP API of the trip planner itinerary service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tripplanner/tripplanner/internal/api/handler"
	"github.com/tripplanner/tripplanner/internal/api/middleware"
	"github.com/tripplanner/tripplanner/internal/provider/resilience"
	"github.com/tripplanner/tripplanner/internal/routing"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	BuildTime        string
	Logger           zerolog.Logger
	ServiceName      string
	Metrics          *middleware.Metrics
	ItineraryService handler.ItineraryService
	Estimator        *routing.Estimator
	Registry         *resilience.Registry
	DB               handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tripplanner-api"
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
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		DB:        cfg.DB,
		Estimator: cfg.Estimator,
		Registry:  cfg.Registry,
		Logger:    cfg.Logger,
	})
	itineraryHandler := handler.NewItineraryHandler(cfg.ItineraryService, cfg.Logger)

	// Itinerary views can fan out to the routing provider on a cold cache.
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops routes carry no authentication; serve them on an internal-only
		// ingress.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
			r.With(expensiveRateLimit).Delete("/route-cache", opsHandler.FlushRouteCache)
		})

		r.Route("/trips/{tripId}", func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Get("/itinerary", itineraryHandler.GetItinerary)
			r.Get("/days/{dayIndex}", itineraryHandler.GetDay)
		})
	})

	return r
}
