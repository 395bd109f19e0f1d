// Package routing provides travel estimates between itinerary stops.
package routing

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates the provider answered but returned no usable route.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// Route computes distance and duration between two coordinates.
	// Returns an error wrapping ErrNoRouteFound when the provider responded
	// without usable route data.
	Route(ctx context.Context, req RouteRequest) (*RouteResult, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// TravelMode is the mode of transport requested from the provider.
type TravelMode string

const (
	// ModeDrive routes by car.
	ModeDrive TravelMode = "drive"
	// ModeWalk routes on foot.
	ModeWalk TravelMode = "walk"
	// ModeBicycle routes by bike.
	ModeBicycle TravelMode = "bicycle"
	// ModeTransit routes by public transport.
	ModeTransit TravelMode = "transit"
)

// Valid reports whether m is a supported travel mode.
func (m TravelMode) Valid() bool {
	switch m {
	case ModeDrive, ModeWalk, ModeBicycle, ModeTransit:
		return true
	}
	return false
}

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// String formats the coordinate as "lat,lon" using the shortest exact representation.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Waypoint is one end of a leg. Lat or Lon may be absent.
type Waypoint struct {
	Name string
	Lat  *float64
	Lon  *float64
}

// Coordinate returns the waypoint's coordinate, or false when either component
// is missing or not a finite number.
func (w Waypoint) Coordinate() (Coordinate, bool) {
	if w.Lat == nil || w.Lon == nil {
		return Coordinate{}, false
	}
	if !finite(*w.Lat) || !finite(*w.Lon) {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *w.Lat, Lon: *w.Lon}, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RouteRequest is the request sent to a provider for a single leg.
type RouteRequest struct {
	Origin      Coordinate
	Destination Coordinate
	Mode        TravelMode
}

// RouteResult is a provider's answer for a single leg.
type RouteResult struct {
	DistanceMeters  float64
	DurationSeconds float64
	Provider        string
	FetchedAt       time.Time
}

// Estimate is the travel estimate for one leg of an itinerary.
// Immutable once cached.
type Estimate struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
