package stop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuration_String(t *testing.T) {
	tests := []struct {
		duration Duration
		expected string
	}{
		{Duration{Hours: 1, Minutes: 30}, "1h 30m"},
		{Duration{Minutes: 45}, "0h 45m"},
		{Duration{}, "0h 0m"},
		{Duration{Minutes: 90}, "1h 30m"},
		{Duration{Hours: 2}, "2h 0m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.duration.String())
		})
	}
}

func TestDuration_TotalMinutes(t *testing.T) {
	assert.Equal(t, 90, Duration{Hours: 1, Minutes: 30}.TotalMinutes())
	assert.Equal(t, 0, Duration{}.TotalMinutes())
}

func TestDurationFromMinutes(t *testing.T) {
	assert.Equal(t, Duration{Hours: 1, Minutes: 30}, DurationFromMinutes(90))
	assert.Equal(t, Duration{Minutes: 59}, DurationFromMinutes(59))
	assert.Equal(t, Duration{}, DurationFromMinutes(-5))
}

func TestStop_HasCoordinates(t *testing.T) {
	lat, lon := 48.85, 2.29
	assert.True(t, Stop{Lat: &lat, Lon: &lon}.HasCoordinates())
	assert.False(t, Stop{Lat: &lat}.HasCoordinates())
	assert.False(t, Stop{}.HasCoordinates())
}
