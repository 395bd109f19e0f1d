package itinerary

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/tripplanner/tripplanner/internal/routing"
	"github.com/tripplanner/tripplanner/internal/stop"
)

const instrumentationName = "github.com/tripplanner/tripplanner/internal/itinerary"

// LegEstimator returns the travel estimate for one leg, or nil when none is
// available. Implementations must not fail.
type LegEstimator interface {
	Estimate(ctx context.Context, from, to routing.Waypoint) *routing.Estimate
}

// Itinerary is a trip's stops grouped by day with one estimate slot per leg.
// Estimates[d][i] covers Days[d][i] -> Days[d][i+1]; a nil slot means no
// estimate is available for that leg.
type Itinerary struct {
	Days      [][]stop.Stop
	Estimates [][]*routing.Estimate
}

// LegCount returns the number of legs across all days.
func (it *Itinerary) LegCount() int {
	n := 0
	for _, day := range it.Estimates {
		n += len(day)
	}
	return n
}

// EstimatedCount returns the number of legs that have an estimate.
func (it *Itinerary) EstimatedCount() int {
	n := 0
	for _, day := range it.Estimates {
		for _, est := range day {
			if est != nil {
				n++
			}
		}
	}
	return n
}

// BuilderConfig holds configuration for the itinerary builder.
type BuilderConfig struct {
	// Estimator resolves each leg.
	Estimator LegEstimator

	// Concurrency bounds how many legs are estimated at once (default: 1,
	// strictly sequential in day then leg order).
	Concurrency int

	// Logger for builder operations.
	Logger zerolog.Logger
}

// Builder turns an ordered stop list into an Itinerary.
type Builder struct {
	estimator   LegEstimator
	concurrency int
	logger      zerolog.Logger
}

// NewBuilder creates a new itinerary builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Builder{
		estimator:   cfg.Estimator,
		concurrency: concurrency,
		logger:      cfg.Logger,
	}
}

// Build groups stops by day and estimates every consecutive leg within a day.
// It always succeeds; a leg whose estimate is unavailable gets a nil slot and
// the remaining legs are still estimated.
func (b *Builder) Build(ctx context.Context, stops []stop.Stop) *Itinerary {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "itinerary.Build")
	defer span.End()

	days := GroupByDay(stops)
	estimates := make([][]*routing.Estimate, len(days))
	for d, day := range days {
		legs := len(day) - 1
		if legs < 0 {
			legs = 0
		}
		estimates[d] = make([]*routing.Estimate, legs)
	}

	if b.concurrency == 1 {
		for d, day := range days {
			for i := range estimates[d] {
				estimates[d][i] = b.estimator.Estimate(ctx, waypointOf(day[i]), waypointOf(day[i+1]))
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(b.concurrency)
		for d, day := range days {
			for i := range estimates[d] {
				d, i, from, to := d, i, waypointOf(day[i]), waypointOf(day[i+1])
				g.Go(func() error {
					estimates[d][i] = b.estimator.Estimate(ctx, from, to)
					return nil
				})
			}
		}
		_ = g.Wait()
	}

	it := &Itinerary{Days: days, Estimates: estimates}

	span.SetAttributes(
		attribute.Int("itinerary.days", len(days)),
		attribute.Int("itinerary.legs", it.LegCount()),
		attribute.Int("itinerary.estimated", it.EstimatedCount()),
	)
	b.logger.Debug().
		Int("stops", len(stops)).
		Int("days", len(days)).
		Int("legs", it.LegCount()).
		Int("estimated", it.EstimatedCount()).
		Msg("built itinerary")

	return it
}

func waypointOf(s stop.Stop) routing.Waypoint {
	return routing.Waypoint{Name: s.Name, Lat: s.Lat, Lon: s.Lon}
}
