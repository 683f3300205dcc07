package ephemeris

import "fmt"

// Body is one of the astronomical points used in chart calculation.
// The set is closed; Bodies() returns the canonical ordering.
type Body int

const (
	Sun Body = iota
	Earth
	Moon
	NorthNode
	SouthNode
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
)

var bodyNames = [...]string{
	Sun:       "Sun",
	Earth:     "Earth",
	Moon:      "Moon",
	NorthNode: "NorthNode",
	SouthNode: "SouthNode",
	Mercury:   "Mercury",
	Venus:     "Venus",
	Mars:      "Mars",
	Jupiter:   "Jupiter",
	Saturn:    "Saturn",
	Uranus:    "Uranus",
	Neptune:   "Neptune",
	Pluto:     "Pluto",
}

func (b Body) String() string {
	if b < 0 || int(b) >= len(bodyNames) {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyNames[b]
}

// MarshalJSON encodes the body as its name, e.g. "Sun".
func (b Body) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

// Bodies returns all bodies in canonical chart order.
// The order matches the reference data: Sun and Earth first, then Moon and
// the lunar nodes, then the planets outward.
func Bodies() []Body {
	return []Body{
		Sun, Earth, Moon, NorthNode, SouthNode,
		Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto,
	}
}
