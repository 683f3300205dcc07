// Package ephemeris provides ecliptic longitudes for the bodies used in
// chart calculation. The Source interface is the boundary the rest of the
// system consumes; Analytic is the built-in implementation.
package ephemeris

import (
	"context"
	"fmt"
	"time"
)

// Source yields a body's geocentric ecliptic longitude in degrees [0, 360)
// at the given instant. The instant must carry an explicit offset; it is
// converted to UTC internally, never inferred. Implementations must be safe
// for concurrent use.
type Source interface {
	Longitude(ctx context.Context, body Body, t time.Time) (float64, error)
}

// Error reports a failed ephemeris query for a specific body and instant.
type Error struct {
	Body    Body
	Instant time.Time
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ephemeris: %s at %s: %s", e.Body, e.Instant.UTC().Format(time.RFC3339Nano), e.Reason)
}
