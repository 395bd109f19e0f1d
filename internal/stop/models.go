// Package stop provides read access to the ordered stops of a trip.
package stop

import "fmt"

// Stop is one scheduled visit within a trip day.
type Stop struct {
	// ID identifies the stop's slot in the day (trip_day_pois.id).
	ID string

	// TripDayID identifies the day the stop belongs to.
	TripDayID string

	// DayIndex is the 0-based day number within the trip.
	DayIndex int

	// Position orders stops within a day.
	Position int

	// POIID identifies the underlying point of interest.
	POIID string

	// Name is the display name of the point of interest.
	Name string

	// Kind is the point of interest category, e.g. "hotel" or "museum".
	Kind string

	// Lat and Lon are nil when the point of interest has no coordinates.
	Lat *float64
	Lon *float64

	// Duration is the planned time spent at the stop.
	Duration Duration

	// StartTime is the day's start clock ("HH:MM"). Only meaningful on the
	// first stop of a day; empty when unknown.
	StartTime string
}

// HasCoordinates reports whether both latitude and longitude are set.
func (s Stop) HasCoordinates() bool {
	return s.Lat != nil && s.Lon != nil
}

// Duration is an hours-and-minutes span.
type Duration struct {
	Hours   int
	Minutes int
}

// DurationFromMinutes normalizes a minute count into hours and minutes.
// Negative input yields the zero duration.
func DurationFromMinutes(total int) Duration {
	if total < 0 {
		return Duration{}
	}
	return Duration{Hours: total / 60, Minutes: total % 60}
}

// TotalMinutes returns the duration in minutes.
func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

// String renders the duration as "1h 30m".
func (d Duration) String() string {
	n := DurationFromMinutes(d.TotalMinutes())
	return fmt.Sprintf("%dh %dm", n.Hours, n.Minutes)
}
