// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tripplanner/tripplanner/internal/routing"
)

// Config holds the service configuration. Database settings are loaded
// separately by database.ConfigFromEnv.
type Config struct {
	Port string
	Env  string

	GeoapifyAPIKey  string
	GeoapifyBaseURL string
	RoutingMode     routing.TravelMode
	RoutingTimeout  time.Duration

	// Circuit breaker around the routing provider.
	BreakerTimeout      time.Duration
	BreakerMinRequests  int
	BreakerFailureRatio float64

	RouteCacheTTL           time.Duration
	RouteCacheSweepInterval time.Duration

	ItineraryConcurrency int

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	PubSubProjectID    string
	PubSubSubscription string
	WarmConcurrency    int
}

// PubSubEnabled reports whether the trip-change subscription is configured.
func (c Config) PubSubEnabled() bool {
	return c.PubSubProjectID != "" && c.PubSubSubscription != ""
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv creates a Config from environment variables.
func FromEnv() (Config, error) {
	var errs []error

	cfg := Config{
		Port:               getEnvOrDefault("APP_PORT", "8080"),
		Env:                getEnvOrDefault("APP_ENV", "development"),
		GeoapifyAPIKey:     os.Getenv("GEOAPIFY_API_KEY"),
		GeoapifyBaseURL:    getEnvOrDefault("GEOAPIFY_BASE_URL", "https://api.geoapify.com"),
		RoutingMode:        routing.TravelMode(getEnvOrDefault("ROUTING_MODE", string(routing.ModeDrive))),
		OTelEnabled:        os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: os.Getenv("PUBSUB_SUBSCRIPTION"),
	}

	cfg.RoutingTimeout = durationFromEnv("ROUTING_TIMEOUT", 10*time.Second, &errs)
	cfg.BreakerTimeout = durationFromEnv("ROUTING_BREAKER_TIMEOUT", 60*time.Second, &errs)
	cfg.BreakerMinRequests = intFromEnv("ROUTING_BREAKER_MIN_REQUESTS", 5, &errs)
	cfg.BreakerFailureRatio = ratioFromEnv("ROUTING_BREAKER_FAILURE_RATIO", 0.5, &errs)
	cfg.RouteCacheTTL = durationFromEnv("ROUTE_CACHE_TTL", routing.DefaultCacheTTL, &errs)
	cfg.RouteCacheSweepInterval = durationFromEnv("ROUTE_CACHE_SWEEP_INTERVAL", routing.DefaultSweepInterval, &errs)
	cfg.ItineraryConcurrency = intFromEnv("ITINERARY_CONCURRENCY", 1, &errs)
	cfg.WarmConcurrency = intFromEnv("WARM_CONCURRENCY", 3, &errs)

	cfg.OTelSampleRatio = ratioFromEnv("OTEL_TRACES_SAMPLE_RATIO", 1, &errs)

	if !cfg.RoutingMode.Valid() {
		errs = append(errs, fmt.Errorf("ROUTING_MODE: unsupported travel mode %q", cfg.RoutingMode))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func durationFromEnv(key string, def time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	if d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: must be positive, got %s", key, raw))
		return def
	}
	return d
}

func intFromEnv(key string, def int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	if n < 1 {
		*errs = append(*errs, fmt.Errorf("%s: must be at least 1, got %d", key, n))
		return def
	}
	return n
}

func ratioFromEnv(key string, def float64, errs *[]error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	if f < 0 || f > 1 {
		*errs = append(*errs, fmt.Errorf("%s: must be between 0 and 1, got %s", key, raw))
		return def
	}
	return f
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
