// Package itinerary assembles per-day stop sequences and the travel
// estimates between consecutive stops.
package itinerary

import "github.com/tripplanner/tripplanner/internal/stop"

// GroupByDay partitions stops, already ordered by (DayIndex, Position), into
// one group per day in a single pass. A new group starts whenever a stop's
// DayIndex differs from the stop placed before it. The input is not re-sorted.
func GroupByDay(stops []stop.Stop) [][]stop.Stop {
	days := [][]stop.Stop{}
	for _, s := range stops {
		last := len(days) - 1
		if last < 0 || days[last][0].DayIndex != s.DayIndex {
			days = append(days, []stop.Stop{s})
			continue
		}
		days[last] = append(days[last], s)
	}
	return days
}
