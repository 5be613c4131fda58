package coord

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DegreeSign marks a value as degrees-minutes-seconds.
const DegreeSign = "°"

// dmsSeparator matches the punctuation, whitespace and glyph runs between
// the components of a DMS value.
var dmsSeparator = regexp.MustCompile(`[^\w.]+`)

// leadingNumber matches the numeric prefix of a DMS component.
var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// DMS is a parsed degrees/minutes/seconds value.
// Direction is the raw hemisphere token and is empty when the input has none.
type DMS struct {
	Degrees   float64
	Minutes   float64
	Seconds   float64
	Direction string
}

// IsDMS reports whether s uses degrees-minutes-seconds notation.
func IsDMS(s string) bool {
	return strings.Contains(s, DegreeSign)
}

// ParseDMS splits s into its components. Components that are not numeric
// become NaN; the caller detects that through Decimal.
func ParseDMS(s string) DMS {
	parts := dmsSeparator.Split(s, -1)
	return DMS{
		Degrees:   parseLeadingFloat(part(parts, 0)),
		Minutes:   parseLeadingFloat(part(parts, 1)),
		Seconds:   parseLeadingFloat(part(parts, 2)),
		Direction: part(parts, 3),
	}
}

// Decimal converts d to signed decimal degrees.
//
// Only the upper-case hemisphere letters S and W produce a negative result.
// Lower-case letters and a missing direction leave the value positive.
func (d DMS) Decimal() float64 {
	dd := d.Degrees + d.Minutes/60 + d.Seconds/3600
	if d.Direction == "S" || d.Direction == "W" {
		dd = -dd
	}
	return dd
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// parseLeadingFloat parses the longest numeric prefix of s, so "46N" reads as 46.
func parseLeadingFloat(s string) float64 {
	m := leadingNumber.FindString(s)
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
