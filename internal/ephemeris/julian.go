package ephemeris

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00 TT).
const j2000 = 2451545.0

// JulianDay converts a time.Time to a Julian Day number in UT.
// go-satellite's JDay handles whole seconds; sub-second precision is added
// on top because the design-time solver converges below one second.
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return jd + float64(t.Nanosecond())/1e9/86400.0
}

// julianCenturies returns Julian centuries of UT from the J2000.0 epoch.
func julianCenturies(t time.Time) float64 {
	return (JulianDay(t) - j2000) / 36525.0
}
