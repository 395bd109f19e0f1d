package routing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tripplanner/tripplanner/internal/routing"

// Metrics holds the OpenTelemetry instruments for route estimation.
type Metrics struct {
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	skips           metric.Int64Counter
	providerCalls   metric.Int64Counter
	providerLatency metric.Float64Histogram
}

// NewMetrics creates route estimation metrics on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	cacheHits, err := meter.Int64Counter(
		"route_estimate.cache.hit",
		metric.WithDescription("Route estimate cache hits, tombstones included"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"route_estimate.cache.miss",
		metric.WithDescription("Route estimate cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	skips, err := meter.Int64Counter(
		"route_estimate.skipped",
		metric.WithDescription("Legs skipped because an endpoint has no usable coordinates"),
		metric.WithUnit("{leg}"),
	)
	if err != nil {
		return nil, err
	}

	providerCalls, err := meter.Int64Counter(
		"route_estimate.provider.request.total",
		metric.WithDescription("Routing provider requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	providerLatency, err := meter.Float64Histogram(
		"route_estimate.provider.request.duration",
		metric.WithDescription("Duration of routing provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		skips:           skips,
		providerCalls:   providerCalls,
		providerLatency: providerLatency,
	}, nil
}

func (m *Metrics) recordHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1)
}

func (m *Metrics) recordMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(ctx, 1)
}

func (m *Metrics) recordSkip(ctx context.Context) {
	if m == nil {
		return
	}
	m.skips.Add(ctx, 1)
}

func (m *Metrics) recordProviderCall(ctx context.Context, provider, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("outcome", outcome),
	)
	m.providerCalls.Add(ctx, 1, attrs)
	m.providerLatency.Record(ctx, duration.Seconds(), attrs)
}
