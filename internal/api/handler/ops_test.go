package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/tripplanner/internal/api/handler"
	"github.com/tripplanner/tripplanner/internal/api/models"
	"github.com/tripplanner/tripplanner/internal/provider/resilience"
	"github.com/tripplanner/tripplanner/internal/routing"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type stubProvider struct{}

func (stubProvider) Route(_ context.Context, _ routing.RouteRequest) (*routing.RouteResult, error) {
	return &routing.RouteResult{DistanceMeters: 100, DurationSeconds: 60, Provider: "stub"}, nil
}

func (stubProvider) Name() string { return "stub" }

func newTestEstimator() *routing.Estimator {
	return routing.NewEstimator(routing.EstimatorConfig{
		Provider: stubProvider{},
		Cache:    routing.NewCache(routing.CacheConfig{}),
		Logger:   zerolog.Nop(),
	})
}

func waypoint(name string, lat, lon float64) routing.Waypoint {
	return routing.Waypoint{Name: name, Lat: ptr(lat), Lon: ptr(lon)}
}

func TestHealthCheck(t *testing.T) {
	h := handler.NewOpsHandler(handler.OpsHandlerConfig{Version: "1.2.3", BuildTime: "today"})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "1.2.3", health.Details["version"])
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name   string
		db     handler.Pinger
		status int
	}{
		{name: "no database configured", db: nil, status: http.StatusOK},
		{name: "database reachable", db: fakePinger{}, status: http.StatusOK},
		{name: "database down", db: fakePinger{err: errors.New("dial tcp: connection refused")}, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewOpsHandler(handler.OpsHandlerConfig{DB: tt.db, Logger: zerolog.Nop()})

			rec := httptest.NewRecorder()
			h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestSystemStatus_ReportsCacheAndProviders(t *testing.T) {
	estimator := newTestEstimator()
	from, to := waypoint("A", 1, 2), waypoint("B", 3, 4)
	estimator.Estimate(context.Background(), from, to)
	estimator.Estimate(context.Background(), from, to)

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("geoapify")
	cfg.Registry = registry
	resilience.NewClient(cfg)
	registry.RecordFailure("geoapify", errors.New("status 503"))

	h := handler.NewOpsHandler(handler.OpsHandlerConfig{
		DB:        fakePinger{},
		Estimator: estimator,
		Registry:  registry,
	})

	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 2)
	assert.Equal(t, "database", status.Subsystems[0].Name)
	assert.Equal(t, "route-cache", status.Subsystems[1].Name)

	assert.Equal(t, "stub", status.RouteCache.Provider)
	assert.Equal(t, "drive", status.RouteCache.Mode)
	assert.Equal(t, 3600.0, status.RouteCache.TTLSeconds)
	assert.Equal(t, 1, status.RouteCache.LiveEntries)
	assert.Equal(t, int64(1), status.RouteCache.Hits)
	assert.Equal(t, int64(1), status.RouteCache.Misses)

	require.Len(t, status.Providers, 1)
	assert.Equal(t, "geoapify", status.Providers[0].Provider)
	assert.Equal(t, models.HealthStatusOK, status.Providers[0].Status)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
	require.NotNil(t, status.Providers[0].Message)
	assert.Equal(t, "status 503", *status.Providers[0].Message)
}

func TestSystemStatus_DatabaseFailure(t *testing.T) {
	h := handler.NewOpsHandler(handler.OpsHandlerConfig{DB: fakePinger{err: errors.New("timeout")}})

	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusFail, status.Status)
	require.Len(t, status.Subsystems, 1)
	require.NotNil(t, status.Subsystems[0].Detail)
	assert.Equal(t, "timeout", *status.Subsystems[0].Detail)
}

func TestFlushRouteCache(t *testing.T) {
	estimator := newTestEstimator()
	estimator.Estimate(context.Background(), waypoint("A", 1, 2), waypoint("B", 3, 4))
	require.Equal(t, 1, estimator.Cache().Stats().TotalEntries)

	h := handler.NewOpsHandler(handler.OpsHandlerConfig{Estimator: estimator, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.FlushRouteCache(rec, httptest.NewRequest(http.MethodDelete, "/v1/ops/route-cache", http.NoBody))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, estimator.Cache().Stats().TotalEntries)
}

func TestFlushRouteCache_NotConfigured(t *testing.T) {
	h := handler.NewOpsHandler(handler.OpsHandlerConfig{})

	rec := httptest.NewRecorder()
	h.FlushRouteCache(rec, httptest.NewRequest(http.MethodDelete, "/v1/ops/route-cache", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
