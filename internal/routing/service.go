package routing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// Provider call outcomes used in logs and metrics.
const (
	outcomeEstimate  = "estimate"
	outcomeTombstone = "tombstone"
	outcomeFailure   = "failure"
)

// DefaultFetchTimeout bounds a shared provider call when no timeout is set.
const DefaultFetchTimeout = 10 * time.Second

// EstimatorConfig holds configuration for the route estimator.
type EstimatorConfig struct {
	// Provider is the routing data provider.
	Provider Provider

	// Cache stores estimates across requests. Required; share one per process.
	Cache *Cache

	// Mode is the travel mode sent with every provider call (default: drive).
	Mode TravelMode

	// Logger for estimator operations.
	Logger zerolog.Logger

	// Metrics records cache and provider counters (optional).
	Metrics *Metrics

	// FetchTimeout bounds one provider call (default: 10 seconds). The call is
	// detached from the cancellation of the request that started it.
	FetchTimeout time.Duration
}

// Estimator resolves travel estimates for legs, reading through the cache and
// falling back to the provider on a miss.
type Estimator struct {
	provider Provider
	cache    *Cache
	mode     TravelMode
	logger   zerolog.Logger
	metrics  *Metrics
	timeout  time.Duration

	inflight singleflight.Group
}

// NewEstimator creates a new route estimator.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeDrive
	}

	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(CacheConfig{})
	}

	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	return &Estimator{
		provider: cfg.Provider,
		timeout:  timeout,
		cache:    cache,
		mode:     mode,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Estimate returns the travel estimate from one waypoint to the next, or nil
// when no estimate is available. It never fails: a missing coordinate skips the
// leg without touching the cache, a provider "no route" answer is cached as a
// tombstone, and any other provider failure is returned as nil uncached so the
// next request retries.
func (e *Estimator) Estimate(ctx context.Context, from, to Waypoint) *Estimate {
	origin, ok := from.Coordinate()
	if !ok {
		e.skip(ctx, from, to)
		return nil
	}
	destination, ok := to.Coordinate()
	if !ok {
		e.skip(ctx, from, to)
		return nil
	}

	key := CacheKey(origin, destination)

	if cached, hit := e.cache.Get(key); hit {
		e.metrics.recordHit(ctx)
		e.logger.Debug().
			Str("cache_key", key).
			Bool("tombstone", cached == nil).
			Msg("cache hit for route estimate")
		return cached
	}
	e.metrics.recordMiss(ctx)

	// Concurrent misses for one key share a single provider call. The call
	// runs detached from ctx; each caller stops waiting when its own ctx ends.
	ch := e.inflight.DoChan(key, func() (interface{}, error) {
		if cached, hit := e.cache.peek(key); hit {
			return cached, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		return e.fetch(fetchCtx, key, from.Name, to.Name, RouteRequest{
			Origin:      origin,
			Destination: destination,
			Mode:        e.mode,
		})
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil
		}
		estimate, _ := res.Val.(*Estimate)
		return estimate
	case <-ctx.Done():
		e.logger.Debug().
			Str("cache_key", key).
			Msg("request cancelled while waiting for route estimate")
		return nil
	}
}

// fetch calls the provider and records the outcome in the cache.
func (e *Estimator) fetch(ctx context.Context, key, fromName, toName string, req RouteRequest) (*Estimate, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "routing.Estimate")
	defer span.End()
	span.SetAttributes(
		attribute.String("routing.cache_key", key),
		attribute.String("routing.mode", string(req.Mode)),
		attribute.String("routing.provider", e.provider.Name()),
	)

	e.logger.Debug().
		Str("cache_key", key).
		Str("mode", string(req.Mode)).
		Str("provider", e.provider.Name()).
		Msg("fetching route estimate from provider")

	start := time.Now()
	result, err := e.provider.Route(ctx, req)
	elapsed := time.Since(start)

	switch {
	case err == nil && result != nil:
		estimate := &Estimate{
			From:            fromName,
			To:              toName,
			DistanceMeters:  result.DistanceMeters,
			DurationSeconds: result.DurationSeconds,
		}
		e.cache.Set(key, estimate)
		e.metrics.recordProviderCall(ctx, e.provider.Name(), outcomeEstimate, elapsed)
		e.logger.Debug().
			Str("cache_key", key).
			Float64("distance_m", estimate.DistanceMeters).
			Float64("duration_s", estimate.DurationSeconds).
			Msg("cached route estimate")
		return estimate, nil

	case err == nil || errors.Is(err, ErrNoRouteFound):
		e.cache.Set(key, nil)
		e.metrics.recordProviderCall(ctx, e.provider.Name(), outcomeTombstone, elapsed)
		e.logger.Info().
			Str("cache_key", key).
			Msg("provider has no route for leg, caching tombstone")
		return nil, nil

	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "route estimate failed")
		e.metrics.recordProviderCall(ctx, e.provider.Name(), outcomeFailure, elapsed)
		e.logger.Warn().Err(err).
			Str("cache_key", key).
			Str("provider", e.provider.Name()).
			Dur("elapsed", elapsed).
			Msg("route estimate failed, leaving leg uncached")
		return nil, err
	}
}

func (e *Estimator) skip(ctx context.Context, from, to Waypoint) {
	e.metrics.recordSkip(ctx)
	e.logger.Debug().
		Str("from", from.Name).
		Str("to", to.Name).
		Msg("skipping leg without coordinates")
}

// Cache returns the cache backing this estimator.
func (e *Estimator) Cache() *Cache {
	return e.cache
}

// ProviderName returns the name of the underlying provider.
func (e *Estimator) ProviderName() string {
	return e.provider.Name()
}

// Mode returns the travel mode used for provider calls.
func (e *Estimator) Mode() TravelMode {
	return e.mode
}
