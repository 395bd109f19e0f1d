// Package resilience wraps calls to external routing providers with a
// per-call timeout, a circuit breaker, and optional retry with backoff.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Circuit breaker defaults.
const (
	DefaultBreakerTimeout      = 60 * time.Second
	DefaultBreakerMinRequests  = 5
	DefaultBreakerFailureRatio = 0.5
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs and health reports.
	Name string

	// MaxRequests is the number of trial requests let through while half-open.
	// Default: 1
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	// Default: 60 seconds
	Timeout time.Duration

	// MinRequests and FailureRatio define when the breaker opens: once at
	// least MinRequests calls were made and the share of failures reaches
	// FailureRatio. Defaults: 5 and 0.5.
	MinRequests  uint32
	FailureRatio float64

	// ReadyToTrip overrides the MinRequests/FailureRatio rule when set.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// IsSuccessful decides whether a call outcome counts as a success.
	// Default: DefaultIsSuccessful.
	IsSuccessful func(err error) bool

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the breaker configuration used for
// routing providers.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Timeout:      DefaultBreakerTimeout,
		MinRequests:  DefaultBreakerMinRequests,
		FailureRatio: DefaultBreakerFailureRatio,
	}
}

// TripAfter returns a ReadyToTrip rule that opens the breaker once at least
// minRequests calls were made and failures make up ratio or more of them.
func TripAfter(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 || counts.Requests < minRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

// DefaultReadyToTrip opens the breaker after 5 calls with a 50% failure rate.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	return TripAfter(DefaultBreakerMinRequests, DefaultBreakerFailureRatio)(counts)
}

// DefaultIsSuccessful counts nil and caller cancellation as success.
func DefaultIsSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func (cfg CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreakerTimeout
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = DefaultBreakerMinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = DefaultBreakerFailureRatio
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = TripAfter(cfg.MinRequests, cfg.FailureRatio)
	}
	if cfg.IsSuccessful == nil {
		cfg.IsSuccessful = DefaultIsSuccessful
	}
	return cfg
}

// NewCircuitBreaker creates a circuit breaker from cfg, filling unset fields
// with defaults.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	cfg = cfg.withDefaults()
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		IsSuccessful:  cfg.IsSuccessful,
		OnStateChange: cfg.OnStateChange,
	})
}
