// Package worker warms the route estimate cache in the background.
package worker

import (
	"time"
)

// WarmConfig holds configuration for the cache warm job.
type WarmConfig struct {
	// Concurrency is the number of trips warmed at once.
	// Default: 3
	Concurrency int

	// Timeout bounds the warm-up of a single trip.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultWarmConfig returns the default warm configuration.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

func (c WarmConfig) withDefaults() WarmConfig {
	def := DefaultWarmConfig()
	if c.Concurrency < 1 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
