package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nneibaue/human-design/internal/metrics"
	"github.com/nneibaue/human-design/internal/zodiac"
)

// Analytic is a self-contained, moderate-precision ephemeris.
//
// Models used:
//   - Sun: Meeus "Astronomical Algorithms" ch. 25 (apparent longitude,
//     equation of center + nutation/aberration correction), ~1" accuracy.
//   - Moon: Meeus ch. 47 principal terms, ~0.05° accuracy.
//   - Lunar node: mean node polynomial (the true node oscillates up to
//     ~1.7° around it).
//   - Planets: JPL/Standish mean Keplerian elements (1800-2050 AD) with a
//     Kepler solve, precessed from J2000 to the equinox of date; accuracy
//     on the order of arcminutes.
//
// That is ample for gate resolution (a line arc is 56'15" wide) except
// within a few arcminutes of a boundary; a higher-precision Source can be
// swapped in behind the same interface.
//
// The zero value is ready to use and safe for concurrent calls.
type Analytic struct{}

func degSin(d float64) float64 { return math.Sin(d * math.Pi / 180) }
func degCos(d float64) float64 { return math.Cos(d * math.Pi / 180) }

// Longitude implements Source.
func (a Analytic) Longitude(ctx context.Context, body Body, t time.Time) (float64, error) {
	lon, err := a.longitude(ctx, body, t)
	metrics.IncEphemerisQuery(err == nil)
	return lon, err
}

func (Analytic) longitude(ctx context.Context, body Body, t time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	T := julianCenturies(t)

	var lon float64
	switch body {
	case Sun:
		lon = apparentSunLongitude(T)
	case Earth:
		// Earth occupies the point opposite the Sun on the wheel.
		lon = apparentSunLongitude(T) + 180
	case Moon:
		lon = moonLongitude(T)
	case NorthNode:
		lon = meanNodeLongitude(T)
	case SouthNode:
		lon = meanNodeLongitude(T) + 180
	case Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto:
		var err error
		lon, err = planetLongitude(body, T)
		if err != nil {
			return 0, &Error{Body: body, Instant: t, Reason: err.Error()}
		}
	default:
		return 0, &Error{Body: body, Instant: t, Reason: "unsupported body"}
	}

	// Same failure posture as the propagation layer in the reference
	// service: reject non-finite output instead of letting it flow on.
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, &Error{Body: body, Instant: t, Reason: fmt.Sprintf("non-finite longitude %v", lon)}
	}

	return zodiac.Norm360(lon), nil
}

// apparentSunLongitude returns the Sun's apparent geocentric ecliptic
// longitude in degrees for T Julian centuries from J2000 (Meeus ch. 25).
func apparentSunLongitude(T float64) float64 {
	// Geometric mean longitude and mean anomaly.
	L0 := 280.46646 + 36000.76983*T + 0.0003032*T*T
	M := 357.52911 + 35999.05029*T - 0.0001537*T*T

	// Equation of center.
	C := (1.914602-0.004817*T-0.000014*T*T)*degSin(M) +
		(0.019993-0.000101*T)*degSin(2*M) +
		0.000289*degSin(3*M)

	// Apparent longitude: correct for nutation and aberration.
	omega := 125.04 - 1934.136*T
	return L0 + C - 0.00569 - 0.00478*degSin(omega)
}

// moonLongitude returns the Moon's geocentric ecliptic longitude in degrees
// (Meeus ch. 47, ten largest periodic terms).
func moonLongitude(T float64) float64 {
	Lp := 218.3164477 + 481267.88123421*T - 0.0015786*T*T + T*T*T/538841
	D := 297.8501921 + 445267.1114034*T - 0.0018819*T*T + T*T*T/545868
	M := 357.5291092 + 35999.0502909*T - 0.0001536*T*T
	Mp := 134.9633964 + 477198.8675055*T + 0.0087414*T*T + T*T*T/69699
	F := 93.2720950 + 483202.0175233*T - 0.0036539*T*T

	lon := Lp +
		6.288774*degSin(Mp) +
		1.274027*degSin(2*D-Mp) +
		0.658314*degSin(2*D) +
		0.213618*degSin(2*Mp) -
		0.185116*degSin(M) -
		0.114332*degSin(2*F) +
		0.058793*degSin(2*D-2*Mp) +
		0.057066*degSin(2*D-M-Mp) +
		0.053322*degSin(2*D+Mp) +
		0.045758*degSin(2*D-M)

	return lon
}

// meanNodeLongitude returns the mean longitude of the Moon's ascending node
// in degrees. The node regresses through the zodiac in ~18.6 years.
func meanNodeLongitude(T float64) float64 {
	return 125.0445479 - 1934.1362891*T + 0.0020754*T*T + T*T*T/467441
}
