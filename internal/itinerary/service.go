package itinerary

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tripplanner/tripplanner/internal/routing"
	"github.com/tripplanner/tripplanner/internal/stop"
)

// Service errors.
var (
	ErrStopsUnavailable = errors.New("stops unavailable")
	ErrDayNotFound      = errors.New("day not found")
)

// ServiceConfig holds configuration for the itinerary service.
type ServiceConfig struct {
	// Store provides the trip's ordered stops.
	Store stop.Store

	// Builder assembles the itinerary.
	Builder *Builder

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service resolves itineraries for trips.
type Service struct {
	store   stop.Store
	builder *Builder
	logger  zerolog.Logger
}

// NewService creates a new itinerary service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		store:   cfg.Store,
		builder: cfg.Builder,
		logger:  cfg.Logger,
	}
}

// TripItinerary is an itinerary along with the rendered clock time of every
// stop. DisplayTimes[d][i] is empty when day d has no usable start time.
type TripItinerary struct {
	*Itinerary
	DisplayTimes [][]string
}

// DayPlan is a single day of a trip.
type DayPlan struct {
	DayIndex  int
	Stops     []TimedStop
	Estimates []*routing.Estimate
}

// ForTrip builds the itinerary of a trip. A store failure is returned wrapped
// in ErrStopsUnavailable; estimate failures never fail the call.
func (s *Service) ForTrip(ctx context.Context, tripID string) (*TripItinerary, error) {
	stops, err := s.store.ListByTrip(ctx, tripID)
	if err != nil {
		s.logger.Error().Err(err).Str("trip_id", tripID).Msg("failed to load trip stops")
		return nil, fmt.Errorf("%w: %w", ErrStopsUnavailable, err)
	}

	it := s.builder.Build(ctx, stops)

	return &TripItinerary{
		Itinerary:    it,
		DisplayTimes: s.displayTimes(tripID, it.Days),
	}, nil
}

// Day returns one day of a trip with rendered clock times and its legs.
func (s *Service) Day(ctx context.Context, tripID string, dayIndex int) (*DayPlan, error) {
	stops, err := s.store.ListByTrip(ctx, tripID)
	if err != nil {
		s.logger.Error().Err(err).Str("trip_id", tripID).Msg("failed to load trip stops")
		return nil, fmt.Errorf("%w: %w", ErrStopsUnavailable, err)
	}

	var day []stop.Stop
	for _, st := range stops {
		if st.DayIndex == dayIndex {
			day = append(day, st)
		}
	}
	if len(day) == 0 {
		return nil, ErrDayNotFound
	}

	it := s.builder.Build(ctx, day)

	timed, err := RenderTimes(day, day[0].StartTime)
	if err != nil {
		s.logger.Debug().Err(err).
			Str("trip_id", tripID).
			Int("day_index", dayIndex).
			Msg("rendering day without clock times")
		timed = untimed(day)
	}

	return &DayPlan{
		DayIndex:  dayIndex,
		Stops:     timed,
		Estimates: it.Estimates[0],
	}, nil
}

func (s *Service) displayTimes(tripID string, days [][]stop.Stop) [][]string {
	times := make([][]string, len(days))
	for d, day := range days {
		times[d] = make([]string, len(day))
		timed, err := RenderTimes(day, day[0].StartTime)
		if err != nil {
			s.logger.Debug().Err(err).
				Str("trip_id", tripID).
				Int("day_index", day[0].DayIndex).
				Msg("rendering day without clock times")
			continue
		}
		for i, ts := range timed {
			times[d][i] = ts.DisplayTime
		}
	}
	return times
}

func untimed(day []stop.Stop) []TimedStop {
	timed := make([]TimedStop, len(day))
	for i, s := range day {
		timed[i] = TimedStop{Stop: s}
	}
	return timed
}
