// Package main provides the entrypoint for the trip planner API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripplanner/tripplanner/internal/api"
	"github.com/tripplanner/tripplanner/internal/api/middleware"
	"github.com/tripplanner/tripplanner/internal/config"
	"github.com/tripplanner/tripplanner/internal/database"
	"github.com/tripplanner/tripplanner/internal/itinerary"
	"github.com/tripplanner/tripplanner/internal/provider/resilience"
	"github.com/tripplanner/tripplanner/internal/routing"
	"github.com/tripplanner/tripplanner/internal/routing/geoapify"
	"github.com/tripplanner/tripplanner/internal/stop"
	"github.com/tripplanner/tripplanner/internal/telemetry"
	"github.com/tripplanner/tripplanner/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tripplanner-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting trip planner API")

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
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

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.OTelSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	routeMetrics, err := routing.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize routing metrics")
	}

	dbConfig := database.ConfigFromEnv()
	dbConfig.Logger = log
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	if cfg.GeoapifyAPIKey == "" {
		log.Warn().Msg("GEOAPIFY_API_KEY not set - routing provider calls will be rejected")
	}

	registry := resilience.NewRegistry()
	provider := geoapify.NewClient(geoapify.ClientConfig{
		APIKey:  cfg.GeoapifyAPIKey,
		BaseURL: cfg.GeoapifyBaseURL,
		Timeout: cfg.RoutingTimeout,
		CircuitBreaker: &resilience.CircuitBreakerConfig{
			Timeout:      cfg.BreakerTimeout,
			MinRequests:  uint32(cfg.BreakerMinRequests), //nolint:gosec // validated positive by config
			FailureRatio: cfg.BreakerFailureRatio,
		},
		Registry: registry,
		Logger:   log,
	})

	routeCache := routing.NewCache(routing.CacheConfig{
		TTL:           cfg.RouteCacheTTL,
		SweepInterval: cfg.RouteCacheSweepInterval,
	})
	estimator := routing.NewEstimator(routing.EstimatorConfig{
		Provider:     provider,
		Cache:        routeCache,
		Mode:         cfg.RoutingMode,
		Logger:       log,
		Metrics:      routeMetrics,
		FetchTimeout: cfg.RoutingTimeout,
	})
	log.Info().
		Str("provider", provider.Name()).
		Str("mode", string(cfg.RoutingMode)).
		Dur("ttl", cfg.RouteCacheTTL).
		Msg("route estimator initialized")

	itineraryService := itinerary.NewService(itinerary.ServiceConfig{
		Store: stop.NewPostgresStore(pool),
		Builder: itinerary.NewBuilder(itinerary.BuilderConfig{
			Estimator:   estimator,
			Concurrency: cfg.ItineraryConcurrency,
			Logger:      log,
		}),
		Logger: log,
	})

	if cfg.PubSubEnabled() {
		warmJob := worker.NewWarmJob(worker.WarmJobConfig{
			Config: worker.WarmConfig{
				Concurrency: cfg.WarmConcurrency,
				Timeout:     worker.DefaultWarmConfig().Timeout,
			},
			Logger:  log,
			Service: itineraryService,
		})

		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			WarmJob:          warmJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := handler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			log.Info().
				Str("subscription", cfg.PubSubSubscription).
				Msg("cache warmer listening for trip events")
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("cache warmer stopped")
			}
		}()
	}

	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          httpMetrics,
		ItineraryService: itineraryService,
		Estimator:        estimator,
		Registry:         registry,
		DB:               pool,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
