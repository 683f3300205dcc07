// Package cache provides an in-memory cache of computed bodygraphs.
//
// Charts are deterministic for a given birth instant, so cached results
// never go stale; the TTL exists only to bound memory. A background worker
// sweeps expired entries; reads are served under a shared lock.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nneibaue/human-design/internal/chart"
	"github.com/nneibaue/human-design/internal/metrics"
)

// Config holds cache configuration loaded from environment variables.
type Config struct {
	TTL           time.Duration // entry lifetime (default: 1h)
	SweepInterval time.Duration // eviction sweep period (default: 1m)
	MaxEntries    int           // hard size cap, oldest evicted first (default: 10000)
}

// entry wraps a graph with generation metadata for TTL eviction.
type entry struct {
	graph       *chart.RawBodyGraph
	generatedAt time.Time
}

// ChartCache is an in-memory bodygraph cache keyed by UTC birth instant.
// Safe for concurrent use by multiple goroutines.
type ChartCache struct {
	mu      sync.RWMutex
	entries map[time.Time]*entry

	config Config
	logger *slog.Logger

	// Counters (lock-free).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a chart cache. Zero config fields take defaults.
func New(config Config, logger *slog.Logger) *ChartCache {
	if config.TTL <= 0 {
		config.TTL = time.Hour
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 10000
	}

	logger.Info("chart cache initialized",
		"ttl_seconds", config.TTL.Seconds(),
		"sweep_interval_seconds", config.SweepInterval.Seconds(),
		"max_entries", config.MaxEntries,
	)

	return &ChartCache{
		entries: make(map[time.Time]*entry),
		config:  config,
		logger:  logger,
	}
}

// key normalizes a birth instant for use as a map key. Stripping the
// monotonic reading keeps parsed and computed times comparable.
func key(birth time.Time) time.Time {
	return birth.Round(0).UTC()
}

// Get returns the cached graph for a birth instant, or nil.
func (c *ChartCache) Get(birth time.Time) *chart.RawBodyGraph {
	c.mu.RLock()
	e, ok := c.entries[key(birth)]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		metrics.IncCacheHits()
		return e.graph
	}

	c.misses.Add(1)
	metrics.IncCacheMisses()
	return nil
}

// Put stores a computed graph under its birth instant.
func (c *ChartCache) Put(g *chart.RawBodyGraph) {
	c.mu.Lock()
	c.entries[key(g.BirthInstant)] = &entry{graph: g, generatedAt: time.Now()}
	count := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheEntries(count)
}

// Start runs the eviction loop until ctx is cancelled. Meant to be run in
// its own goroutine from the composition root.
func (c *ChartCache) Start(ctx context.Context) {
	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evict()
		case <-ctx.Done():
			return
		}
	}
}

// evict removes expired entries, then trims oldest-first down to the size
// cap if still over it.
func (c *ChartCache) evict() {
	cutoff := time.Now().Add(-c.config.TTL)
	var removed int

	c.mu.Lock()
	for k, e := range c.entries {
		if e.generatedAt.Before(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	for len(c.entries) > c.config.MaxEntries {
		var oldestKey time.Time
		var oldest *entry
		for k, e := range c.entries {
			if oldest == nil || e.generatedAt.Before(oldest.generatedAt) {
				oldestKey, oldest = k, e
			}
		}
		delete(c.entries, oldestKey)
		removed++
	}
	count := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddCacheEvictions(removed)
		metrics.SetCacheEntries(count)
		c.logger.Debug("chart cache eviction", "entries_removed", removed, "entries_left", count)
	}
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// Snapshot returns current cache statistics.
func (c *ChartCache) Snapshot() Stats {
	c.mu.RLock()
	count := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Entries:   count,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
