package cache

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nneibaue/human-design/internal/chart"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testGraph(birth time.Time) *chart.RawBodyGraph {
	return &chart.RawBodyGraph{
		BirthInstant:  birth,
		DesignInstant: birth.Add(-88 * 24 * time.Hour),
	}
}

// TestGetPut tests the basic hit/miss cycle and counter accounting.
func TestGetPut(t *testing.T) {
	c := New(Config{}, testLogger())
	birth := time.Date(1990, 6, 15, 12, 30, 0, 0, time.UTC)

	if got := c.Get(birth); got != nil {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(testGraph(birth))

	got := c.Get(birth)
	if got == nil {
		t.Fatal("expected hit after Put")
	}
	if !got.BirthInstant.Equal(birth) {
		t.Errorf("birth instant: got %v, want %v", got.BirthInstant, birth)
	}

	stats := c.Snapshot()
	if stats.Entries != 1 {
		t.Errorf("entries: got %d, want 1", stats.Entries)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses: got %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}

// TestKeyNormalization verifies the same instant expressed in different
// zones hits the same entry.
func TestKeyNormalization(t *testing.T) {
	c := New(Config{}, testLogger())

	utc := time.Date(1990, 6, 15, 12, 30, 0, 0, time.UTC)
	offset := utc.In(time.FixedZone("CEST", 2*3600))

	c.Put(testGraph(utc))
	if c.Get(offset) == nil {
		t.Error("expected hit for same instant in another zone")
	}
}

// TestEvictExpired verifies TTL eviction removes only stale entries.
func TestEvictExpired(t *testing.T) {
	c := New(Config{TTL: time.Minute}, testLogger())

	stale := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Put(testGraph(stale))
	// Backdate the stale entry past the TTL.
	c.mu.Lock()
	c.entries[key(stale)].generatedAt = time.Now().Add(-2 * time.Minute)
	c.mu.Unlock()
	c.Put(testGraph(fresh))

	c.evict()

	if c.Get(stale) != nil {
		t.Error("expected stale entry to be evicted")
	}
	if c.Get(fresh) == nil {
		t.Error("expected fresh entry to remain")
	}
	if got := c.Snapshot().Evictions; got != 1 {
		t.Errorf("evictions: got %d, want 1", got)
	}
}

// TestEvictOverCap verifies oldest-first trimming down to MaxEntries.
func TestEvictOverCap(t *testing.T) {
	c := New(Config{TTL: time.Hour, MaxEntries: 3}, testLogger())

	births := make([]time.Time, 5)
	for i := range births {
		births[i] = time.Date(1990, 1, 1+i, 0, 0, 0, 0, time.UTC)
		c.Put(testGraph(births[i]))
		// Stagger generation times so the eviction order is deterministic.
		c.mu.Lock()
		c.entries[key(births[i])].generatedAt = time.Now().Add(time.Duration(i-10) * time.Second)
		c.mu.Unlock()
	}

	c.evict()

	if got := c.Snapshot().Entries; got != 3 {
		t.Fatalf("entries after evict: got %d, want 3", got)
	}
	// The two oldest must be gone, the three newest kept.
	for _, b := range births[:2] {
		if c.Get(b) != nil {
			t.Errorf("expected %v evicted", b)
		}
	}
	for _, b := range births[2:] {
		if c.Get(b) == nil {
			t.Errorf("expected %v kept", b)
		}
	}
}

// TestConcurrentAccess verifies the cache is safe under parallel reads and
// writes.
func TestConcurrentAccess(t *testing.T) {
	c := New(Config{}, testLogger())

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			for j := 0; j < 200; j++ {
				birth := time.Date(1990, 1, 1, n, j%60, 0, 0, time.UTC)
				c.Put(testGraph(birth))
				c.Get(birth)
				c.Snapshot()
			}
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

// TestConfigDefaults verifies zero config fields take documented defaults.
func TestConfigDefaults(t *testing.T) {
	c := New(Config{}, testLogger())

	if c.config.TTL != time.Hour {
		t.Errorf("TTL default: got %v", c.config.TTL)
	}
	if c.config.SweepInterval != time.Minute {
		t.Errorf("SweepInterval default: got %v", c.config.SweepInterval)
	}
	if c.config.MaxEntries != 10000 {
		t.Errorf("MaxEntries default: got %d", c.config.MaxEntries)
	}
}
