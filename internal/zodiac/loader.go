package zodiac

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// wheelYAML is the reference gate wheel shipped with the binary.
//
//go:embed wheel.yaml
var wheelYAML []byte

// signBases maps zodiac sign names to their absolute base degree.
// Aries starts at 0°, each subsequent sign 30° later.
var signBases = map[string]float64{
	"aries":       0,
	"taurus":      30,
	"gemini":      60,
	"cancer":      90,
	"leo":         120,
	"virgo":       150,
	"libra":       180,
	"scorpio":     210,
	"sagittarius": 240,
	"capricorn":   270,
	"aquarius":    300,
	"pisces":      330,
}

// wheelCoord is a sign-relative coordinate in a wheel document.
type wheelCoord struct {
	Sign string `yaml:"sign"`
	Deg  int    `yaml:"d"`
	Min  int    `yaml:"m"`
	Sec  int    `yaml:"s"`
}

// wheelRow is one gate arc in a wheel document.
type wheelRow struct {
	Gate  int        `yaml:"gate"`
	Start wheelCoord `yaml:"start"`
	End   wheelCoord `yaml:"end"`
}

// absolute converts a sign-relative coordinate to absolute wheel degrees.
// "pisces 30°0'0" resolves to 360, which only the final seam row uses as an
// exclusive end.
func (c wheelCoord) absolute() (float64, error) {
	base, ok := signBases[strings.ToLower(c.Sign)]
	if !ok {
		return 0, fmt.Errorf("unknown zodiac sign %q", c.Sign)
	}
	if c.Deg < 0 || c.Deg > 30 || c.Min < 0 || c.Min > 59 || c.Sec < 0 || c.Sec > 59 {
		return 0, fmt.Errorf("coordinate %d°%d'%d\" out of range", c.Deg, c.Min, c.Sec)
	}
	return base + float64(c.Deg) + float64(c.Min)/60 + float64(c.Sec)/3600, nil
}

// ParseWheel decodes a YAML wheel document and builds a validated table.
func ParseWheel(data []byte) (*Table, error) {
	var rows []wheelRow
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parsing wheel document: %v", err)}
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		start, err := row.Start.absolute()
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("row %d (gate %d) start: %v", i, row.Gate, err)}
		}
		end, err := row.End.absolute()
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("row %d (gate %d) end: %v", i, row.Gate, err)}
		}
		entries = append(entries, Entry{Gate: row.Gate, Start: start, End: end})
	}

	return NewTable(entries)
}

// LoadWheel builds the gate table from path, or from the embedded reference
// wheel when path is empty.
func LoadWheel(path string) (*Table, error) {
	if path == "" {
		return ParseWheel(wheelYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wheel file: %w", err)
	}
	table, err := ParseWheel(data)
	if err != nil {
		return nil, fmt.Errorf("wheel file %s: %w", path, err)
	}
	return table, nil
}
