package routing

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultCacheTTL is how long an estimate or tombstone stays authoritative.
	DefaultCacheTTL = time.Hour

	// DefaultSweepInterval is how often expired entries are purged.
	DefaultSweepInterval = 10 * time.Minute
)

// CacheConfig holds configuration for the route estimate cache.
type CacheConfig struct {
	// TTL is the lifetime of an entry (default: 1 hour).
	TTL time.Duration

	// SweepInterval is the minimum time between sweeps of expired entries (default: 10 minutes).
	SweepInterval time.Duration

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Cache is a process-wide, TTL-bounded store of route estimates keyed by
// coordinate pair. A nil estimate stored under a key is a tombstone: the
// provider is known to have no route for that pair.
type Cache struct {
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu        sync.RWMutex
	entries   map[string]cacheEntry
	lastSweep time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	estimate  *Estimate
	expiresAt time.Time
}

// NewCache creates an empty route estimate cache.
func NewCache(cfg CacheConfig) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Cache{
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           now,
		entries:       make(map[string]cacheEntry),
		lastSweep:     now(),
	}
}

// CacheKey builds the canonical key for a directed leg: "lat1,lon1|lat2,lon2".
func CacheKey(from, to Coordinate) string {
	var b strings.Builder
	b.WriteString(from.String())
	b.WriteByte('|')
	b.WriteString(to.String())
	return b.String()
}

// Get returns the cached estimate for key. ok is false when there is no
// unexpired entry; a tombstone returns (nil, true).
func (c *Cache) Get(key string) (estimate *Estimate, ok bool) {
	estimate, ok = c.peek(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return estimate, ok
}

// peek is Get without touching the hit/miss counters.
func (c *Cache) peek(key string) (*Estimate, bool) {
	now := c.now()

	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if !found || !now.Before(entry.expiresAt) {
		return nil, false
	}
	return entry.estimate, true
}

// Set stores an estimate (or a tombstone when estimate is nil) with a fresh TTL.
func (c *Cache) Set(key string, estimate *Estimate) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		estimate:  estimate,
		expiresAt: now.Add(c.ttl),
	}
	c.sweepIfNeeded(now)
}

// sweepIfNeeded removes expired entries if the sweep interval has passed.
// Callers must hold the write lock.
func (c *Cache) sweepIfNeeded(now time.Time) int {
	if now.Sub(c.lastSweep) < c.sweepInterval {
		return 0
	}
	c.lastSweep = now
	return c.removeExpired(now)
}

func (c *Cache) removeExpired(now time.Time) int {
	expired := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			expired++
		}
	}
	return expired
}

// Sweep removes all expired entries now and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSweep = now
	return c.removeExpired(now)
}

// Flush clears all cached entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		TotalEntries: len(c.entries),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
	}
	for _, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			stats.ExpiredEntries++
			continue
		}
		if entry.estimate == nil {
			stats.Tombstones++
		} else {
			stats.LiveEntries++
		}
	}
	return stats
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries   int
	LiveEntries    int
	Tombstones     int
	ExpiredEntries int
	Hits           int64
	Misses         int64
}
