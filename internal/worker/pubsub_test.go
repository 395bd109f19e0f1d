package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tripplanner/tripplanner/internal/itinerary"
	"github.com/tripplanner/tripplanner/internal/routing"
	"github.com/tripplanner/tripplanner/internal/stop"
)

type fakeAcker struct {
	acked  int
	nacked int
}

func (a *fakeAcker) Ack()  { a.acked++ }
func (a *fakeAcker) Nack() { a.nacked++ }

type fakeService struct {
	requested []string
	err       error
}

func (s *fakeService) ForTrip(_ context.Context, tripID string) (*itinerary.TripItinerary, error) {
	s.requested = append(s.requested, tripID)
	if s.err != nil {
		return nil, s.err
	}
	return &itinerary.TripItinerary{
		Itinerary: &itinerary.Itinerary{
			Days:      [][]stop.Stop{{{Name: "A"}, {Name: "B"}}},
			Estimates: [][]*routing.Estimate{{{From: "A", To: "B"}}},
		},
	}, nil
}

func newTestHandler(svc ItineraryService) *PubSubHandler {
	return &PubSubHandler{
		warmJob: NewWarmJob(WarmJobConfig{
			Config:  WarmConfig{Concurrency: 1},
			Logger:  zerolog.Nop(),
			Service: svc,
		}),
		logger: zerolog.Nop(),
	}
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		err       error
		requested []string
		acked     int
		nacked    int
	}{
		{
			name:      "stops changed warms the trip",
			data:      `{"event_type":"trip.stops_changed","trip_id":"42"}`,
			requested: []string{"42"},
			acked:     1,
		},
		{
			name:      "bulk warm",
			data:      `{"event_type":"trips.warm","trip_ids":["1","2","1"]}`,
			requested: []string{"1", "2"},
			acked:     1,
		},
		{
			name:   "malformed json is nacked",
			data:   `{"event_type":`,
			nacked: 1,
		},
		{
			name:   "missing trip id is nacked",
			data:   `{"event_type":"trip.stops_changed"}`,
			nacked: 1,
		},
		{
			name:  "unknown event type is acked",
			data:  `{"event_type":"trip.renamed","trip_id":"42"}`,
			acked: 1,
		},
		{
			name:      "store failure is nacked for redelivery",
			data:      `{"event_type":"trip.stops_changed","trip_id":"42"}`,
			err:       errors.New("stops unavailable"),
			requested: []string{"42"},
			nacked:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			h := newTestHandler(svc)
			msg := &fakeAcker{}

			h.handleMessage(context.Background(), zerolog.Nop(), []byte(tt.data), msg)

			assert.ElementsMatch(t, tt.requested, svc.requested)
			assert.Equal(t, tt.acked, msg.acked)
			assert.Equal(t, tt.nacked, msg.nacked)
		})
	}
}

func TestParseTripEvent(t *testing.T) {
	event, err := parseTripEvent([]byte(`{"event_type":"trip.stops_changed","trip_id":"7"}`))
	assert.NoError(t, err)
	assert.Equal(t, TripEvent{EventType: EventTripStopsChanged, TripID: "7"}, event)

	_, err = parseTripEvent([]byte(`{}`))
	assert.ErrorIs(t, err, errMalformedEvent)

	_, err = parseTripEvent([]byte(`{"event_type":"trips.warm","trip_ids":[]}`))
	assert.ErrorIs(t, err, errMalformedEvent)
}
