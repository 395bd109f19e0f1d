package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/tripplanner/internal/routing"
)

var envKeys = []string{
	"APP_PORT", "APP_ENV", "GEOAPIFY_API_KEY", "GEOAPIFY_BASE_URL", "ROUTING_MODE",
	"ROUTING_TIMEOUT", "ROUTE_CACHE_TTL", "ROUTE_CACHE_SWEEP_INTERVAL",
	"ITINERARY_CONCURRENCY", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_TRACES_SAMPLE_RATIO", "PUBSUB_PROJECT_ID", "PUBSUB_SUBSCRIPTION", "WARM_CONCURRENCY",
	"ROUTING_BREAKER_TIMEOUT", "ROUTING_BREAKER_MIN_REQUESTS", "ROUTING_BREAKER_FAILURE_RATIO",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "https://api.geoapify.com", cfg.GeoapifyBaseURL)
	assert.Equal(t, routing.ModeDrive, cfg.RoutingMode)
	assert.Equal(t, 10*time.Second, cfg.RoutingTimeout)
	assert.Equal(t, time.Hour, cfg.RouteCacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.RouteCacheSweepInterval)
	assert.Equal(t, 1, cfg.ItineraryConcurrency)
	assert.Equal(t, 3, cfg.WarmConcurrency)
	assert.Equal(t, 1.0, cfg.OTelSampleRatio)
	assert.Equal(t, time.Minute, cfg.BreakerTimeout)
	assert.Equal(t, 5, cfg.BreakerMinRequests)
	assert.Equal(t, 0.5, cfg.BreakerFailureRatio)
	assert.False(t, cfg.OTelEnabled)
	assert.False(t, cfg.PubSubEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("GEOAPIFY_API_KEY", "mock123")
	t.Setenv("ROUTING_MODE", "walk")
	t.Setenv("ROUTE_CACHE_TTL", "30m")
	t.Setenv("ITINERARY_CONCURRENCY", "4")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("PUBSUB_PROJECT_ID", "trips-prod")
	t.Setenv("PUBSUB_SUBSCRIPTION", "itinerary-warmer")
	t.Setenv("ROUTING_BREAKER_TIMEOUT", "2m")
	t.Setenv("ROUTING_BREAKER_MIN_REQUESTS", "10")
	t.Setenv("ROUTING_BREAKER_FAILURE_RATIO", "0.8")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "mock123", cfg.GeoapifyAPIKey)
	assert.Equal(t, routing.ModeWalk, cfg.RoutingMode)
	assert.Equal(t, 30*time.Minute, cfg.RouteCacheTTL)
	assert.Equal(t, 4, cfg.ItineraryConcurrency)
	assert.True(t, cfg.OTelEnabled)
	assert.True(t, cfg.PubSubEnabled())
	assert.Equal(t, 2*time.Minute, cfg.BreakerTimeout)
	assert.Equal(t, 10, cfg.BreakerMinRequests)
	assert.Equal(t, 0.8, cfg.BreakerFailureRatio)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "ROUTING_MODE", value: "teleport"},
		{key: "ROUTE_CACHE_TTL", value: "an hour"},
		{key: "ROUTE_CACHE_TTL", value: "-5m"},
		{key: "ITINERARY_CONCURRENCY", value: "0"},
		{key: "WARM_CONCURRENCY", value: "many"},
		{key: "OTEL_TRACES_SAMPLE_RATIO", value: "half"},
		{key: "ROUTING_BREAKER_FAILURE_RATIO", value: "1.5"},
		{key: "ROUTING_BREAKER_MIN_REQUESTS", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "staging")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=7070\nAPP_ENV=production\n"), 0o600))

	// APP_PORT is empty, not unset, so godotenv leaves it alone unless it is removed.
	require.NoError(t, os.Unsetenv("APP_PORT"))

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("APP_PORT") })

	assert.Equal(t, "7070", os.Getenv("APP_PORT"))
	assert.Equal(t, "staging", os.Getenv("APP_ENV"), "existing variables win over the file")
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	err := LoadDotEnv(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.NoError(t, err)
}
