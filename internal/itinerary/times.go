package itinerary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tripplanner/tripplanner/internal/stop"
)

// Time rendering errors.
var (
	ErrMissingStartTime = errors.New("day has no start time")
	ErrInvalidClockTime = errors.New("invalid clock time")
)

const minutesPerDay = 24 * 60

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

// ParseClockTime parses "HH:MM" or "HH:MM:SS". Seconds are truncated.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || len(p) == 0 || len(p) > 2 || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
		}
		values[i] = n
	}

	return ClockTime(values[0]*60 + values[1]), nil
}

// Add advances the clock by d, wrapping past midnight.
func (c ClockTime) Add(d stop.Duration) ClockTime {
	m := (int(c) + d.TotalMinutes()) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return ClockTime(m)
}

// String formats the clock as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// TimedStop pairs a stop with the clock time it begins.
type TimedStop struct {
	Stop        stop.Stop
	DisplayTime string
}

// RenderTimes assigns each stop of a day its starting clock time. The clock
// starts at start and advances by each stop's duration; it wraps at midnight
// without reporting the day change.
func RenderTimes(day []stop.Stop, start string) ([]TimedStop, error) {
	if len(day) == 0 {
		return []TimedStop{}, nil
	}
	if strings.TrimSpace(start) == "" {
		return nil, ErrMissingStartTime
	}

	clock, err := ParseClockTime(start)
	if err != nil {
		return nil, err
	}

	timed := make([]TimedStop, len(day))
	for i, s := range day {
		timed[i] = TimedStop{Stop: s, DisplayTime: clock.String()}
		clock = clock.Add(s.Duration)
	}
	return timed, nil
}
