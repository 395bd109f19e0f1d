package itinerary

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tripplanner/tripplanner/internal/routing"
	"github.com/tripplanner/tripplanner/internal/stop"
)

func ptr(f float64) *float64 { return &f }

func located(name string, day, pos int, lat, lon float64) stop.Stop {
	return stop.Stop{ID: name, Name: name, DayIndex: day, Position: pos, Lat: ptr(lat), Lon: ptr(lon)}
}

// recordingEstimator returns a fixed estimate for every leg with coordinates.
type recordingEstimator struct {
	calls atomic.Int32

	mu   sync.Mutex
	legs []string
}

func (e *recordingEstimator) Estimate(_ context.Context, from, to routing.Waypoint) *routing.Estimate {
	e.calls.Add(1)
	e.mu.Lock()
	e.legs = append(e.legs, from.Name+"->"+to.Name)
	e.mu.Unlock()

	if from.Lat == nil || to.Lat == nil {
		return nil
	}
	return &routing.Estimate{From: from.Name, To: to.Name, DistanceMeters: 1000, DurationSeconds: 60}
}

// countingProvider is a routing provider with a call counter.
type countingProvider struct {
	calls  atomic.Int32
	result *routing.RouteResult
	err    error
}

func (p *countingProvider) Route(_ context.Context, _ routing.RouteRequest) (*routing.RouteResult, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func (p *countingProvider) Name() string { return "counting" }
