package geo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache(t.TempDir())

	if _, ok := c.Get("Berlin"); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := Coordinates{Lat: 52.52, Lon: 13.405}
	if err := c.Put("Berlin", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := c.Get("Berlin")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestCachePersistence verifies a new cache instance over the same
// directory sees previously stored entries.
func TestCachePersistence(t *testing.T) {
	dir := t.TempDir()
	want := Coordinates{Lat: -33.8688, Lon: 151.2093}

	if err := NewCache(dir).Put("Sydney", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := NewCache(dir).Get("Sydney")
	if !ok {
		t.Fatal("expected hit from fresh instance")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestCacheCorruptFile verifies a corrupt cache file degrades to an empty
// cache instead of failing lookups.
func TestCacheCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, cacheFileName), []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	c := NewCache(dir)
	if _, ok := c.Get("anything"); ok {
		t.Error("expected miss on corrupt cache")
	}
	// Writes must still work, replacing the corrupt file.
	if err := c.Put("Berlin", Coordinates{Lat: 52.52, Lon: 13.405}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, ok := NewCache(dir).Get("Berlin"); !ok {
		t.Error("expected hit after rewrite")
	}
}

func TestCacheCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "geo")
	c := NewCache(dir)
	if err := c.Put("Berlin", Coordinates{Lat: 52.52, Lon: 13.405}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, cacheFileName)); err != nil {
		t.Errorf("cache file not created: %v", err)
	}
}
