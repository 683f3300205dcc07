// Package zodiac maps ecliptic longitudes to gate/line positions on the
// 64-gate wheel. The wheel partitions [0°, 360°) into 64 arcs of 5.625°,
// each subdivided into 6 lines of 0.9375°. One gate (gate 25 in the
// reference data) straddles the 0° Aries point and is stored as two rows.
//
// The table is built once at startup and is read-only afterwards, so it is
// safe for unsynchronized concurrent lookups.
package zodiac

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// GateSpan is the arc width of a single gate in degrees (360/64).
	GateSpan = 5.625
	// LineSpan is the arc width of a single line in degrees (GateSpan/6).
	LineSpan = GateSpan / 6
	// GateCount is the number of gates on the wheel.
	GateCount = 64
	// LinesPerGate is the number of lines within each gate.
	LinesPerGate = 6
)

// spanEps absorbs float error when validating arc widths. All reference
// boundaries are multiples of 7.5 arc-seconds and representable exactly in
// binary, so this only matters for externally supplied wheel files.
const spanEps = 1e-9

// ErrOutOfRange is returned by Lookup for longitudes outside [0, 360).
// Callers are expected to normalize before calling; Lookup deliberately
// performs no modulo so unnormalized upstream values are not masked.
var ErrOutOfRange = errors.New("zodiac: longitude outside [0, 360)")

// ConfigError reports malformed wheel data detected at construction time.
// It is fatal: a table is never built from data that fails validation.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "zodiac: invalid wheel data: " + e.Reason
}

// LinePosition identifies one of the 384 line arcs on the wheel.
type LinePosition struct {
	Gate int `json:"gate"` // 1..64
	Line int `json:"line"` // 1..6
}

// String returns the conventional gate.line notation, e.g. "25.3".
func (p LinePosition) String() string {
	return fmt.Sprintf("%d.%d", p.Gate, p.Line)
}

// Entry is a single half-open arc [Start, End) owned by a gate.
// The seam gate contributes two entries; all other gates contribute one.
type Entry struct {
	Gate  int     `json:"gate"`
	Start float64 `json:"start_deg"` // absolute degrees, 0 <= Start < 360
	End   float64 `json:"end_deg"`   // absolute degrees, Start < End <= 360
}

// Table is the immutable longitude -> (gate, line) lookup structure.
type Table struct {
	entries []Entry // sorted by Start, gap-free, covering [0, 360)
}

// NewTable validates the given entries and builds a lookup table.
// Validation fails closed: any gap, overlap, wrong total coverage, or gate
// whose combined arc is not exactly GateSpan yields a *ConfigError.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) < GateCount {
		return nil, &ConfigError{Reason: fmt.Sprintf("got %d entries, need at least %d", len(entries), GateCount)}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	gateSpans := make(map[int]float64, GateCount)
	for i, e := range sorted {
		if e.Gate < 1 || e.Gate > GateCount {
			return nil, &ConfigError{Reason: fmt.Sprintf("gate %d out of range 1..%d", e.Gate, GateCount)}
		}
		if e.Start < 0 || e.Start >= 360 {
			return nil, &ConfigError{Reason: fmt.Sprintf("gate %d start %.6f outside [0, 360)", e.Gate, e.Start)}
		}
		if e.End <= e.Start || e.End > 360 {
			return nil, &ConfigError{Reason: fmt.Sprintf("gate %d range [%.6f, %.6f) is empty or exceeds 360", e.Gate, e.Start, e.End)}
		}
		if i > 0 {
			prev := sorted[i-1]
			if math.Abs(e.Start-prev.End) > spanEps {
				kind := "gap"
				if e.Start < prev.End {
					kind = "overlap"
				}
				return nil, &ConfigError{Reason: fmt.Sprintf("%s between gate %d (ends %.6f) and gate %d (starts %.6f)", kind, prev.Gate, prev.End, e.Gate, e.Start)}
			}
		}
		gateSpans[e.Gate] += e.End - e.Start
	}

	if sorted[0].Start > spanEps {
		return nil, &ConfigError{Reason: fmt.Sprintf("coverage starts at %.6f, not 0", sorted[0].Start)}
	}
	if last := sorted[len(sorted)-1]; math.Abs(last.End-360) > spanEps {
		return nil, &ConfigError{Reason: fmt.Sprintf("coverage ends at %.6f, not 360", last.End)}
	}

	if len(gateSpans) != GateCount {
		return nil, &ConfigError{Reason: fmt.Sprintf("wheel defines %d distinct gates, need %d", len(gateSpans), GateCount)}
	}
	for gate, span := range gateSpans {
		if math.Abs(span-GateSpan) > spanEps {
			return nil, &ConfigError{Reason: fmt.Sprintf("gate %d spans %.6f degrees, need %.6f", gate, span, GateSpan)}
		}
	}

	return &Table{entries: sorted}, nil
}

// Lookup maps a longitude in [0, 360) to its gate and line.
// Boundaries belong to the arc they begin: a longitude exactly on a gate
// boundary resolves to the gate starting there, including at the 0° seam.
func (t *Table) Lookup(longitude float64) (LinePosition, error) {
	if math.IsNaN(longitude) || longitude < 0 || longitude >= 360 {
		return LinePosition{}, fmt.Errorf("%w: %v", ErrOutOfRange, longitude)
	}

	// First entry starting strictly after the longitude; the owner is the
	// entry just before it. Coverage is validated gap-free, so the owning
	// interval always contains the longitude.
	idx := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Start > longitude
	})
	if idx == 0 {
		idx = 1
	}
	e := t.entries[idx-1]

	// Each table row is divided into 6 equal line arcs. For the 63 whole
	// gates the row span is GateSpan, so this is the standard 0.9375° line
	// grid; the seam gate's two partial rows each carry their own 1..6
	// sequence, preserving line 6 just below 360° and line 1 at 0°.
	offset := longitude - e.Start
	line := int(math.Floor(offset/((e.End-e.Start)/LinesPerGate))) + 1
	if line < 1 {
		line = 1
	} else if line > LinesPerGate {
		line = LinesPerGate
	}

	return LinePosition{Gate: e.Gate, Line: line}, nil
}

// Entries returns a copy of the table rows in ascending start order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Norm360 normalizes an angle in degrees to [0, 360).
func Norm360(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// SignedDelta returns the smallest signed circular difference a-b in
// degrees, in [-180, 180). Continuous across the 0°/360° seam, which makes
// it safe to bisect on.
func SignedDelta(a, b float64) float64 {
	d := math.Mod(a-b+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
