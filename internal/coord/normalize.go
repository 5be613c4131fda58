package coord

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedCoordinate is returned when a value does not reduce to a finite number.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// MalformedError carries the raw text that failed to normalize.
type MalformedError struct {
	Raw string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed coordinate %q", e.Raw)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedCoordinate
}

// Normalize reduces a single coordinate cell to a float.
// DMS input yields signed decimal degrees; anything else is returned in
// whatever unit it was written in.
func Normalize(raw string) (float64, error) {
	var v float64
	if IsDMS(raw) {
		v = ParseDMS(raw).Decimal()
	} else {
		v = parseLoose(raw)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), &MalformedError{Raw: raw}
	}
	return v, nil
}

// TrimNonDigits drops the leading and trailing runs of non-digit characters.
// Interior characters are left alone, so a sign or decimal point in front of
// the first digit is dropped with the rest of the prefix ("-79.5" -> "79.5").
func TrimNonDigits(s string) string {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return ""
	}
	end := strings.LastIndexFunc(s, isDigit) + 1
	return s[start:end]
}

func parseLoose(raw string) float64 {
	trimmed := TrimNonDigits(raw)
	if trimmed == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
