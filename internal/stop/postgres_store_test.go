package stop

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestClockFromTime(t *testing.T) {
	tests := []struct {
		name     string
		input    pgtype.Time
		expected string
	}{
		{name: "null", input: pgtype.Time{}, expected: ""},
		{name: "nine", input: pgtype.Time{Microseconds: 9 * 3600 * 1e6, Valid: true}, expected: "09:00"},
		{name: "seconds dropped", input: pgtype.Time{Microseconds: (10*3600 + 30*60 + 59) * 1e6, Valid: true}, expected: "10:30"},
		{name: "midnight", input: pgtype.Time{Microseconds: 0, Valid: true}, expected: "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clockFromTime(tt.input))
		})
	}
}

func TestDurationFromInterval(t *testing.T) {
	tests := []struct {
		name     string
		input    pgtype.Interval
		expected Duration
	}{
		{name: "null", input: pgtype.Interval{}, expected: Duration{}},
		{name: "ninety minutes", input: pgtype.Interval{Microseconds: 90 * 60 * 1e6, Valid: true}, expected: Duration{Hours: 1, Minutes: 30}},
		{name: "with days", input: pgtype.Interval{Days: 1, Microseconds: 15 * 60 * 1e6, Valid: true}, expected: Duration{Hours: 24, Minutes: 15}},
		{name: "months ignored", input: pgtype.Interval{Months: 2, Microseconds: 45 * 60 * 1e6, Valid: true}, expected: Duration{Minutes: 45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, durationFromInterval(tt.input))
		})
	}
}
