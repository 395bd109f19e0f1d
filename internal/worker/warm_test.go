package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/tripplanner/internal/itinerary"
	"github.com/tripplanner/tripplanner/internal/routing"
	"github.com/tripplanner/tripplanner/internal/stop"
	"github.com/tripplanner/tripplanner/internal/worker"
)

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Route(_ context.Context, _ routing.RouteRequest) (*routing.RouteResult, error) {
	p.calls.Add(1)
	return &routing.RouteResult{DistanceMeters: 1000, DurationSeconds: 120, Provider: "counting"}, nil
}

func (p *countingProvider) Name() string { return "counting" }

func ptr(f float64) *float64 { return &f }

type fixture struct {
	store    *stop.InMemoryStore
	provider *countingProvider
	cache    *routing.Cache
	service  *itinerary.Service
}

func newFixture() *fixture {
	store := stop.NewInMemoryStore()
	provider := &countingProvider{}
	cache := routing.NewCache(routing.CacheConfig{})
	estimator := routing.NewEstimator(routing.EstimatorConfig{
		Provider: provider,
		Cache:    cache,
		Logger:   zerolog.Nop(),
	})

	store.Put("paris", []stop.Stop{
		{ID: "1", Name: "Louvre", DayIndex: 0, Position: 1, Lat: ptr(48.8606), Lon: ptr(2.3376)},
		{ID: "2", Name: "Orsay", DayIndex: 0, Position: 2, Lat: ptr(48.86), Lon: ptr(2.3266)},
		{ID: "3", Name: "Picnic", DayIndex: 0, Position: 3},
		{ID: "4", Name: "Versailles", DayIndex: 1, Position: 1, Lat: ptr(48.8049), Lon: ptr(2.1204)},
	})
	store.Put("rome", []stop.Stop{
		{ID: "5", Name: "Colosseum", DayIndex: 0, Position: 1, Lat: ptr(41.8902), Lon: ptr(12.4922)},
		{ID: "6", Name: "Pantheon", DayIndex: 0, Position: 2, Lat: ptr(41.8986), Lon: ptr(12.4769)},
	})

	return &fixture{
		store:    store,
		provider: provider,
		cache:    cache,
		service: itinerary.NewService(itinerary.ServiceConfig{
			Store:   store,
			Builder: itinerary.NewBuilder(itinerary.BuilderConfig{Estimator: estimator, Logger: zerolog.Nop()}),
			Logger:  zerolog.Nop(),
		}),
	}
}

func TestDefaultWarmConfig(t *testing.T) {
	cfg := worker.DefaultWarmConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestWarmJob_Run_PopulatesCache(t *testing.T) {
	f := newFixture()
	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config:  worker.WarmConfig{Concurrency: 2},
		Logger:  zerolog.Nop(),
		Service: f.service,
	})

	result := job.Run(context.Background(), []string{"paris", "rome", "paris"})

	assert.Equal(t, 2, result.Trips, "duplicate trip ids are warmed once")
	assert.Equal(t, 3, result.Legs)
	assert.Equal(t, 2, result.Estimated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	assert.False(t, result.EndTime.Before(result.StartTime))

	assert.Equal(t, int32(2), f.provider.calls.Load())
	assert.Equal(t, 2, f.cache.Stats().LiveEntries)

	// A user request after warming is served from the cache.
	_, err := f.service.ForTrip(context.Background(), "paris")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.provider.calls.Load())
}

func TestWarmJob_Run_RecordsStoreFailures(t *testing.T) {
	f := newFixture()
	f.store.FailWith(errors.New("connection refused"))

	job := worker.NewWarmJob(worker.WarmJobConfig{Logger: zerolog.Nop(), Service: f.service})

	result := job.Run(context.Background(), []string{"paris"})

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "paris", result.Errors[0].TripID)
	assert.Contains(t, result.Errors[0].Error, "connection refused")
	assert.Equal(t, int32(0), f.provider.calls.Load())
}

func TestWarmJob_Run_Empty(t *testing.T) {
	job := worker.NewWarmJob(worker.WarmJobConfig{Logger: zerolog.Nop(), Service: newFixture().service})

	result := job.Run(context.Background(), []string{"", ""})

	assert.Equal(t, 0, result.Trips)
	assert.Equal(t, 0, result.Legs)
}

func TestWarmJob_GetMetrics(t *testing.T) {
	f := newFixture()
	job := worker.NewWarmJob(worker.WarmJobConfig{Logger: zerolog.Nop(), Service: f.service})

	_ = job.Run(context.Background(), []string{"paris"})
	_ = job.Run(context.Background(), []string{"rome", "missing"})

	metrics := job.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalRuns)
	assert.Equal(t, int64(3), metrics.TripsWarmed)
	assert.Equal(t, int64(0), metrics.TripsFailed)
	assert.Equal(t, int64(2), metrics.LegsEstimated)
	assert.Equal(t, int64(1), metrics.LegsSkipped)
	assert.NotZero(t, metrics.LastRunAt)
}
