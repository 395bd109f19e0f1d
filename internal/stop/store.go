package stop

import "context"

// Store defines read access to trip stops.
type Store interface {
	// ListByTrip returns every stop of a trip ordered by (DayIndex, Position).
	// A trip without stops yields an empty slice and no error.
	ListByTrip(ctx context.Context, tripID string) ([]Stop, error)
}
