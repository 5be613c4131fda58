package crs

import (
	"strconv"
	"strings"
)

// Normalize canonicalises a CRS identifier. Bare numbers and lower-case
// prefixes become "EPSG:n"; proj4 strings are returned trimmed but otherwise
// verbatim.
func Normalize(code string) string {
	s := strings.TrimSpace(code)
	if IsProj4(s) {
		return s
	}
	up := strings.ToUpper(s)
	if n, ok := strings.CutPrefix(up, "EPSG:"); ok {
		return "EPSG:" + strings.TrimSpace(n)
	}
	if isDigits(up) {
		return "EPSG:" + up
	}
	return up
}

// IsProj4 reports whether s is an inline proj4 definition rather than a code.
func IsProj4(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "+")
}

// EPSGNumber returns n for a code of the form "EPSG:n".
func EPSGNumber(code string) (int, bool) {
	n, ok := strings.CutPrefix(Normalize(code), "EPSG:")
	if !ok || !isDigits(n) {
		return 0, false
	}
	v, err := strconv.Atoi(n)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Flip swaps an input/output CRS pair.
func Flip(in, out string) (string, string) {
	return out, in
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
