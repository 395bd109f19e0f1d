package itinerary

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/tripplanner/internal/stop"
)

func newTestService(store stop.Store) (*Service, *recordingEstimator) {
	estimator := &recordingEstimator{}
	return NewService(ServiceConfig{
		Store:   store,
		Builder: NewBuilder(BuilderConfig{Estimator: estimator, Logger: zerolog.Nop()}),
		Logger:  zerolog.Nop(),
	}), estimator
}

func parisTrip() []stop.Stop {
	eiffel := located("Eiffel Tower", 0, 0, 48.8584, 2.2945)
	eiffel.StartTime = "09:00"
	eiffel.Duration = stop.Duration{Hours: 1, Minutes: 30}
	louvre := located("Louvre Museum", 0, 1, 48.8606, 2.3376)
	louvre.Duration = stop.Duration{Hours: 2}
	notreDame := located("Notre Dame", 1, 0, 48.853, 2.3499)
	return []stop.Stop{eiffel, louvre, notreDame}
}

func TestService_ForTrip(t *testing.T) {
	store := stop.NewInMemoryStore()
	store.Put("42", parisTrip())
	svc, _ := newTestService(store)

	it, err := svc.ForTrip(context.Background(), "42")

	require.NoError(t, err)
	require.Len(t, it.Days, 2)
	require.Len(t, it.Estimates[0], 1)
	assert.Equal(t, "Eiffel Tower", it.Estimates[0][0].From)
	assert.Equal(t, [][]string{{"09:00", "10:30"}, {""}}, it.DisplayTimes)
}

func TestService_ForTripEmpty(t *testing.T) {
	svc, _ := newTestService(stop.NewInMemoryStore())

	it, err := svc.ForTrip(context.Background(), "unknown")

	require.NoError(t, err)
	assert.Empty(t, it.Days)
	assert.Empty(t, it.Estimates)
	assert.Empty(t, it.DisplayTimes)
}

func TestService_ForTripStoreFailure(t *testing.T) {
	store := stop.NewInMemoryStore()
	boom := errors.New("connection refused")
	store.FailWith(boom)
	svc, estimator := newTestService(store)

	_, err := svc.ForTrip(context.Background(), "42")

	assert.ErrorIs(t, err, ErrStopsUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(0), estimator.calls.Load())
}

func TestService_Day(t *testing.T) {
	store := stop.NewInMemoryStore()
	store.Put("42", parisTrip())
	svc, _ := newTestService(store)

	plan, err := svc.Day(context.Background(), "42", 0)

	require.NoError(t, err)
	assert.Equal(t, 0, plan.DayIndex)
	require.Len(t, plan.Stops, 2)
	assert.Equal(t, "09:00", plan.Stops[0].DisplayTime)
	assert.Equal(t, "10:30", plan.Stops[1].DisplayTime)
	require.Len(t, plan.Estimates, 1)
	assert.Equal(t, "Louvre Museum", plan.Estimates[0].To)
}

func TestService_DayWithoutStartTime(t *testing.T) {
	store := stop.NewInMemoryStore()
	store.Put("42", parisTrip())
	svc, _ := newTestService(store)

	plan, err := svc.Day(context.Background(), "42", 1)

	require.NoError(t, err)
	require.Len(t, plan.Stops, 1)
	assert.Empty(t, plan.Stops[0].DisplayTime)
	assert.NotNil(t, plan.Estimates)
	assert.Empty(t, plan.Estimates)
}

func TestService_DayNotFound(t *testing.T) {
	store := stop.NewInMemoryStore()
	store.Put("42", parisTrip())
	svc, _ := newTestService(store)

	_, err := svc.Day(context.Background(), "42", 7)
	assert.ErrorIs(t, err, ErrDayNotFound)
}

func TestService_DayStoreFailure(t *testing.T) {
	store := stop.NewInMemoryStore()
	store.FailWith(errors.New("timeout"))
	svc, _ := newTestService(store)

	_, err := svc.Day(context.Background(), "42", 0)
	assert.ErrorIs(t, err, ErrStopsUnavailable)
}
