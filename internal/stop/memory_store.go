package stop

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is an in-memory implementation of Store.
// This is intended for testing. Production should use PostgresStore.
type InMemoryStore struct {
	mu    sync.RWMutex
	trips map[string][]Stop
	err   error
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory stop store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		trips: make(map[string][]Stop),
	}
}

// Put replaces the stops of a trip.
func (s *InMemoryStore) Put(tripID string, stops []Stop) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cpy := make([]Stop, len(stops))
	copy(cpy, stops)
	sort.SliceStable(cpy, func(i, j int) bool {
		if cpy[i].DayIndex != cpy[j].DayIndex {
			return cpy[i].DayIndex < cpy[j].DayIndex
		}
		return cpy[i].Position < cpy[j].Position
	})
	s.trips[tripID] = cpy
}

// FailWith makes every subsequent ListByTrip return err. Pass nil to reset.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ListByTrip returns a copy of the trip's stops.
func (s *InMemoryStore) ListByTrip(_ context.Context, tripID string) ([]Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}

	stops := s.trips[tripID]
	cpy := make([]Stop, len(stops))
	copy(cpy, stops)
	return cpy, nil
}
