package stop

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listByTripQuery = `
	SELECT
		tdp.id, tdp.trip_day_id, td.day_number, tdp.position,
		pois.id, pois.name, pois.kind, pois.lat, pois.lon,
		td.start_time, tdp.duration
	FROM pois
	JOIN trip_day_pois AS tdp ON pois.id = tdp.poi_id
	JOIN trip_days AS td ON td.id = tdp.trip_day_id
	WHERE td.trip_id = $1
	ORDER BY td.day_number ASC, tdp.position ASC
`

// PostgresStore is a PostgreSQL implementation of Store reading the trip
// planner's pois, trip_day_pois and trip_days tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL stop store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListByTrip retrieves all stops of a trip in (day, position) order.
func (s *PostgresStore) ListByTrip(ctx context.Context, tripID string) ([]Stop, error) {
	id, err := strconv.ParseInt(tripID, 10, 64)
	if err != nil {
		// Trip ids are serial integers; anything else cannot have stops.
		return []Stop{}, nil
	}

	rows, err := s.pool.Query(ctx, listByTripQuery, id)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []Stop{}
	for rows.Next() {
		var (
			stop      Stop
			stopID    int64
			tripDayID int64
			poiID     int64
			kind      pgtype.Text
			startTime pgtype.Time
			duration  pgtype.Interval
		)
		err := rows.Scan(
			&stopID,
			&tripDayID,
			&stop.DayIndex,
			&stop.Position,
			&poiID,
			&stop.Name,
			&kind,
			&stop.Lat,
			&stop.Lon,
			&startTime,
			&duration,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}

		stop.ID = strconv.FormatInt(stopID, 10)
		stop.TripDayID = strconv.FormatInt(tripDayID, 10)
		stop.POIID = strconv.FormatInt(poiID, 10)
		if kind.Valid {
			stop.Kind = kind.String
		}
		stop.StartTime = clockFromTime(startTime)
		stop.Duration = durationFromInterval(duration)

		stops = append(stops, stop)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stops: %w", err)
	}

	return stops, nil
}

// clockFromTime formats a TIME column as "HH:MM". NULL becomes "".
func clockFromTime(t pgtype.Time) string {
	if !t.Valid {
		return ""
	}
	minutes := t.Microseconds / 60_000_000
	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60)
}

// durationFromInterval converts an INTERVAL column to hours and minutes.
// Months are not meaningful for a stop and are ignored. NULL is zero.
func durationFromInterval(iv pgtype.Interval) Duration {
	if !iv.Valid {
		return Duration{}
	}
	minutes := int(iv.Microseconds/60_000_000) + int(iv.Days)*24*60
	return DurationFromMinutes(minutes)
}
