package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// cacheFileName is the single JSON document holding all cached places.
const cacheFileName = "geocode.json"

// cachedPlace is one persisted geocode result.
type cachedPlace struct {
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache persists geocode results to disk so restarts don't re-query the
// upstream service. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]cachedPlace
	loaded  bool
}

// NewCache creates a cache rooted at dir. The directory is created lazily
// on first write.
func NewCache(dir string) *Cache {
	return &Cache{
		path:    filepath.Join(dir, cacheFileName),
		entries: make(map[string]cachedPlace),
	}
}

// Get returns the cached coordinates for a place, if present.
func (c *Cache) Get(place string) (Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.load()
	e, ok := c.entries[place]
	if !ok {
		return Coordinates{}, false
	}
	return Coordinates{Lat: e.Lat, Lon: e.Lon}, true
}

// Put stores coordinates for a place and persists the cache file.
func (c *Cache) Put(place string, coords Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.load()
	c.entries[place] = cachedPlace{Lat: coords.Lat, Lon: coords.Lon, CachedAt: time.Now().UTC()}
	return c.save()
}

// load reads the cache file once. A missing or unreadable file starts an
// empty cache rather than failing lookups.
func (c *Cache) load() {
	if c.loaded {
		return
	}
	c.loaded = true

	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var entries map[string]cachedPlace
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	c.entries = entries
}

// save writes the cache file atomically via rename.
func (c *Cache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}
