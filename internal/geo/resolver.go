package geo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ringsaturn/tzf"
)

// Location describes a resolved birthplace.
type Location struct {
	Place       string      `json:"place"`
	Coordinates Coordinates `json:"coordinates"`
	Timezone    string      `json:"timezone"`
}

// TimezoneFinder maps coordinates to an IANA timezone name.
// Satisfied by tzf finders; tests substitute fixed-zone fakes.
type TimezoneFinder interface {
	GetTimezoneName(lng, lat float64) string
}

// NewTimezoneFinder builds the embedded-data tzf finder. The polygon data
// loads once and is reused for every lookup.
func NewTimezoneFinder() (TimezoneFinder, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("initializing timezone finder: %w", err)
	}
	return finder, nil
}

// Resolver turns (local wall-clock time, place) pairs into UTC instants.
type Resolver struct {
	geocoder *Geocoder
	finder   TimezoneFinder
	logger   *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(geocoder *Geocoder, finder TimezoneFinder, logger *slog.Logger) *Resolver {
	return &Resolver{geocoder: geocoder, finder: finder, logger: logger}
}

// ResolveBirth geocodes the place, finds its timezone, and interprets the
// wall-clock components of local in that zone. The returned instant is the
// UTC birth moment. The wall clock's own location/offset is ignored: only
// place determines the zone.
func (r *Resolver) ResolveBirth(ctx context.Context, local time.Time, place string) (time.Time, Location, error) {
	coords, err := r.geocoder.Geocode(ctx, place)
	if err != nil {
		return time.Time{}, Location{}, fmt.Errorf("geocoding birthplace: %w", err)
	}

	tzName := r.finder.GetTimezoneName(coords.Lon, coords.Lat)
	if tzName == "" {
		return time.Time{}, Location{}, fmt.Errorf("no timezone found for %.4f, %.4f", coords.Lat, coords.Lon)
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return time.Time{}, Location{}, fmt.Errorf("loading timezone %q: %w", tzName, err)
	}

	instant := time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc).UTC()

	r.logger.Debug("birth instant resolved",
		"place", place,
		"lat", coords.Lat,
		"lon", coords.Lon,
		"timezone", tzName,
		"utc", instant.Format(time.RFC3339),
	)

	return instant, Location{Place: place, Coordinates: coords, Timezone: tzName}, nil
}
