package ephemeris

import (
	"fmt"
	"math"
)

// Mean Keplerian elements and centennial rates for the planets, valid
// 1800-2050 AD, referred to the mean ecliptic and equinox of J2000.
// Source: E.M. Standish, "Keplerian Elements for Approximate Positions of
// the Major Planets" (JPL). Angles in degrees, semi-major axis in AU.
type keplerElements struct {
	a, aDot     float64 // semi-major axis
	e, eDot     float64 // eccentricity
	i, iDot     float64 // inclination
	l, lDot     float64 // mean longitude
	varpi, wDot float64 // longitude of perihelion
	node, nDot  float64 // longitude of ascending node
}

var planetElements = map[Body]keplerElements{
	Mercury: {0.38709927, 0.00000037, 0.20563593, 0.00001906, 7.00497902, -0.00594749, 252.25032350, 149472.67411175, 77.45779628, 0.16047689, 48.33076593, -0.12534081},
	Venus:   {0.72333566, 0.00000390, 0.00677672, -0.00004107, 3.39467605, -0.00078890, 181.97909950, 58517.81538729, 131.60246718, 0.00268329, 76.67984255, -0.27769418},
	Mars:    {1.52371034, 0.00001847, 0.09339410, 0.00007882, 1.84969142, -0.00813131, -4.55343205, 19140.30268499, -23.94362959, 0.44441088, 49.55953891, -0.29257343},
	Jupiter: {5.20288700, -0.00011607, 0.04838624, -0.00013253, 1.30439695, -0.00183714, 34.39644051, 3034.74612775, 14.72847983, 0.21252668, 100.47390909, 0.20469106},
	Saturn:  {9.53667594, -0.00125060, 0.05386179, -0.00050991, 2.48599187, 0.00193609, 49.95424423, 1222.49362201, 92.59887831, -0.41897216, 113.66242448, -0.28867794},
	Uranus:  {19.18916464, -0.00196176, 0.04725744, -0.00004397, 0.77263783, -0.00242939, 313.23810451, 428.48202785, 170.95427630, 0.40805281, 74.01692503, 0.04240589},
	Neptune: {30.06992276, 0.00026291, 0.00859048, 0.00005105, 1.77004347, 0.00035372, -55.12002969, 218.45945325, 44.96476227, -0.32241464, 131.78422574, -0.00508664},
	Pluto:   {39.48211675, -0.00031596, 0.24882730, 0.00005170, 17.14001206, 0.00004818, 238.92903833, 145.20780515, 224.06891629, -0.04062942, 110.30393684, -0.01183482},
}

// Earth-Moon barycenter, used to shift heliocentric positions to
// geocentric. Same source and epoch as planetElements.
var earthElements = keplerElements{1.00000261, 0.00000562, 0.01671123, -0.00004392, -0.00001531, -0.01294668, 100.46457166, 35999.37244981, 102.93768193, 0.32327364, 0, 0}

// generalPrecession is the accumulated general precession in ecliptic
// longitude, degrees per Julian century (~50.29"/year). Converts J2000
// longitudes to the equinox of date used by the tropical wheel.
const generalPrecession = 1.39697

// planetLongitude returns a planet's geocentric ecliptic longitude of date
// in degrees for T Julian centuries from J2000.
func planetLongitude(body Body, T float64) (float64, error) {
	el, ok := planetElements[body]
	if !ok {
		return 0, fmt.Errorf("no orbital elements for %s", body)
	}

	px, py, _ := heliocentricEcliptic(el, T)
	ex, ey, _ := heliocentricEcliptic(earthElements, T)

	lon := math.Atan2(py-ey, px-ex) * 180 / math.Pi
	return lon + generalPrecession*T, nil
}

// heliocentricEcliptic computes a body's heliocentric position in the
// J2000 ecliptic frame (AU) from its mean elements at T centuries.
func heliocentricEcliptic(el keplerElements, T float64) (x, y, z float64) {
	a := el.a + el.aDot*T
	e := el.e + el.eDot*T
	inc := el.i + el.iDot*T
	L := el.l + el.lDot*T
	varpi := el.varpi + el.wDot*T
	node := el.node + el.nDot*T

	// Argument of perihelion and mean anomaly.
	w := varpi - node
	M := math.Mod(L-varpi, 360)
	if M < -180 {
		M += 360
	} else if M > 180 {
		M -= 360
	}

	E := solveKepler(M*math.Pi/180, e)

	// Position in the orbital plane.
	xp := a * (math.Cos(E) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(E)

	cw, sw := degCos(w), degSin(w)
	cn, sn := degCos(node), degSin(node)
	ci, si := degCos(inc), degSin(inc)

	x = (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp
	y = (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp
	z = sw*si*xp + cw*si*yp
	return x, y, z
}

// solveKepler solves E - e*sin(E) = M for the eccentric anomaly by Newton
// iteration. M in radians. Converges in a handful of iterations for every
// planetary eccentricity, including Pluto's.
func solveKepler(M, e float64) float64 {
	E := M + e*math.Sin(M)
	for i := 0; i < 20; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}
