package geo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// geocodeStub serves canned candidate responses and counts upstream hits.
func geocodeStub(t *testing.T, body string, status int, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if got := r.URL.Query().Get("f"); got != "json" {
			t.Errorf("f param: got %q, want json", got)
		}
		if r.URL.Query().Get("singleLine") == "" {
			t.Error("singleLine param missing")
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

const berlinCandidate = `{"candidates":[{"location":{"x":13.4050,"y":52.5200}}]}`

func TestGeocode(t *testing.T) {
	srv := geocodeStub(t, berlinCandidate, http.StatusOK, nil)
	defer srv.Close()

	g := NewGeocoder(srv.URL, nil, testLogger())
	coords, err := g.Geocode(context.Background(), "Berlin, Germany")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if coords.Lat != 52.52 || coords.Lon != 13.405 {
		t.Errorf("coords: got %+v, want 52.52/13.405", coords)
	}
}

// TestGeocodeUsesCache verifies the second lookup is served from disk
// without touching the upstream service.
func TestGeocodeUsesCache(t *testing.T) {
	var hits atomic.Int64
	srv := geocodeStub(t, berlinCandidate, http.StatusOK, &hits)
	defer srv.Close()

	g := NewGeocoder(srv.URL, NewCache(t.TempDir()), testLogger())
	ctx := context.Background()

	if _, err := g.Geocode(ctx, "Berlin, Germany"); err != nil {
		t.Fatalf("first Geocode failed: %v", err)
	}
	if _, err := g.Geocode(ctx, "Berlin, Germany"); err != nil {
		t.Fatalf("second Geocode failed: %v", err)
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits: got %d, want 1", got)
	}
}

func TestGeocodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"upstream 500", "boom", http.StatusInternalServerError},
		{"bad json", "{not json", http.StatusOK},
		{"no candidates", `{"candidates":[]}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := geocodeStub(t, tt.body, tt.status, nil)
			defer srv.Close()

			g := NewGeocoder(srv.URL, nil, testLogger())
			if _, err := g.Geocode(context.Background(), "Nowhere"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGeocodeEmptyPlace(t *testing.T) {
	g := NewGeocoder("http://invalid.invalid", nil, testLogger())
	if _, err := g.Geocode(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty place")
	}
}
