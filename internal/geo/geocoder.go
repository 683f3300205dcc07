// Package geo resolves free-text birthplaces to coordinates, timezones,
// and finally UTC birth instants. The chart core never sees any of this;
// it consumes only the resolved instant.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nneibaue/human-design/internal/metrics"
)

// defaultGeocodeURL is the ArcGIS single-line geocoder. Free, no API key.
const defaultGeocodeURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"

// Coordinates is a geodetic position in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves place strings to coordinates over HTTP, with a disk
// cache in front so repeat lookups never leave the process.
type Geocoder struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
	logger     *slog.Logger
}

// NewGeocoder creates a Geocoder for the given endpoint. An empty baseURL
// selects the default ArcGIS endpoint. cache may be nil to disable caching.
func NewGeocoder(baseURL string, cache *Cache, logger *slog.Logger) *Geocoder {
	if baseURL == "" {
		baseURL = defaultGeocodeURL
	}
	return &Geocoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		cache:  cache,
		logger: logger,
	}
}

// arcgisResponse is the subset of the candidate response we consume.
type arcgisResponse struct {
	Candidates []struct {
		Location struct {
			X float64 `json:"x"` // longitude
			Y float64 `json:"y"` // latitude
		} `json:"location"`
	} `json:"candidates"`
}

// Geocode resolves a place string to coordinates.
func (g *Geocoder) Geocode(ctx context.Context, place string) (Coordinates, error) {
	if place == "" {
		return Coordinates{}, fmt.Errorf("empty place")
	}

	if g.cache != nil {
		if c, ok := g.cache.Get(place); ok {
			metrics.IncGeocode("cache_hit")
			return c, nil
		}
	}

	q := url.Values{}
	q.Set("f", "json")
	q.Set("singleLine", place)
	q.Set("maxLocations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		metrics.IncGeocode("error")
		return Coordinates{}, fmt.Errorf("geocoding %q: %w", place, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.IncGeocode("error")
		return Coordinates{}, fmt.Errorf("unexpected status code %d geocoding %q", resp.StatusCode, place)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncGeocode("error")
		return Coordinates{}, fmt.Errorf("reading geocode response: %w", err)
	}

	var parsed arcgisResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.IncGeocode("error")
		return Coordinates{}, fmt.Errorf("decoding geocode response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		metrics.IncGeocode("error")
		return Coordinates{}, fmt.Errorf("no geocode result for %q", place)
	}

	coords := Coordinates{
		Lat: parsed.Candidates[0].Location.Y,
		Lon: parsed.Candidates[0].Location.X,
	}
	metrics.IncGeocode("ok")

	if g.cache != nil {
		if err := g.cache.Put(place, coords); err != nil {
			g.logger.Warn("geocode cache write failed", "place", place, "error", err)
		}
	}

	return coords, nil
}
