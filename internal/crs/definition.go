package crs

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrUnsupportedProjection is returned for definitions that cannot be used
// as a single pipeline step: PROJ pipelines, +init files and grid shifts.
var ErrUnsupportedProjection = errors.New("unsupported projection")

// Definition is a parsed proj4 definition.
type Definition struct {
	Code   string
	Source string
	Proj   string

	// Ellps holds the ellipsoid parameters, e.g. "+ellps=GRS80" or
	// "+a=6378137 +b=6378137".
	Ellps string

	// ToWGS84 is the 3 or 7 parameter position vector shift to WGS84.
	// It is nil when the datum coincides with WGS84 or shifting is disabled.
	ToWGS84 []float64

	step string
}

// IsLatLong reports whether coordinates in this CRS are degrees.
func (d *Definition) IsLatLong() bool {
	switch d.Proj {
	case "longlat", "latlong", "lonlat", "latlon":
		return true
	}
	return false
}

type namedDatum struct {
	ellps   string
	towgs84 []float64
}

// Datums with a Helmert shift to WGS84. Grid based datums such as NAD27 are
// not listed.
var datums = map[string]namedDatum{
	"wgs84":         {ellps: "WGS84"},
	"nad83":         {ellps: "GRS80"},
	"ggrs87":        {ellps: "GRS80", towgs84: []float64{-199.87, 74.79, 246.62}},
	"potsdam":       {ellps: "bessel", towgs84: []float64{598.1, 73.7, 418.2, 0.202, 0.045, -2.455, 6.7}},
	"carthage":      {ellps: "clrk80ign", towgs84: []float64{-263.0, 6.0, 431.0}},
	"hermannskogel": {ellps: "bessel", towgs84: []float64{577.326, 90.129, 463.919, 5.137, 1.474, 5.297, 2.4232}},
	"ire65":         {ellps: "mod_airy", towgs84: []float64{482.530, -130.596, 564.557, -1.042, -0.214, -0.631, 8.15}},
	"nzgd49":        {ellps: "intl", towgs84: []float64{59.47, -5.04, 187.44, 0.47, -0.1, 1.024, -4.5993}},
	"osgb36":        {ellps: "airy", towgs84: []float64{446.448, -125.157, 542.060, 0.1502, 0.2470, 0.8421, -20.4894}},
}

// Parameters that describe the ellipsoid.
var ellipsoidKeys = []string{"ellps", "a", "b", "rf", "f", "R", "es", "e"}

// Parameters handled here rather than passed to PROJ.
var datumKeys = []string{"datum", "towgs84", "nadgrids", "no_defs", "type", "wktext"}

// ParseDefinition parses a proj4 string such as
// "+proj=utm +zone=36 +datum=WGS84 +units=m +no_defs".
// Projection parameters are checked by PROJ when the definition is first
// used in a transformation.
func ParseDefinition(code, source string) (*Definition, error) {
	tokens, params, err := parseParams(source)
	if err != nil {
		return nil, err
	}

	name, ok := params["proj"]
	if !ok || name == "" {
		return nil, errors.New("definition has no +proj")
	}
	if name == "pipeline" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProjection, name)
	}
	if _, ok := params["init"]; ok {
		return nil, fmt.Errorf("%w: +init files are not supported", ErrUnsupportedProjection)
	}

	def := &Definition{
		Code:   code,
		Source: strings.TrimSpace(source),
		Proj:   name,
	}
	if err := def.setDatum(tokens, params); err != nil {
		return nil, err
	}

	var step []string
	for _, tok := range tokens {
		key, _, _ := strings.Cut(tok[1:], "=")
		if slices.Contains(datumKeys, key) || slices.Contains(ellipsoidKeys, key) {
			continue
		}
		step = append(step, tok)
	}
	step = append(step, def.Ellps)
	def.step = strings.Join(step, " ")

	return def, nil
}

func (d *Definition) setDatum(tokens []string, params map[string]string) error {
	ellps := "+ellps=WGS84"

	if name, ok := params["datum"]; ok {
		nd, found := datums[strings.ToLower(name)]
		if !found {
			return fmt.Errorf("unknown datum %q", name)
		}
		ellps = "+ellps=" + nd.ellps
		d.ToWGS84 = nd.towgs84
	}

	var explicit []string
	for _, tok := range tokens {
		key, _, _ := strings.Cut(tok[1:], "=")
		if slices.Contains(ellipsoidKeys, key) {
			explicit = append(explicit, tok)
		}
	}
	if len(explicit) > 0 {
		ellps = strings.Join(explicit, " ")
	}
	d.Ellps = ellps

	if raw, ok := params["towgs84"]; ok {
		shift, err := parseToWGS84(raw)
		if err != nil {
			return err
		}
		d.ToWGS84 = shift
	}

	switch grids, ok := params["nadgrids"]; {
	case !ok:
	case grids == "@null":
		d.ToWGS84 = nil
	default:
		return fmt.Errorf("%w: grid shift %q", ErrUnsupportedProjection, grids)
	}
	return nil
}

// parseToWGS84 reads 3 or 7 comma separated values. An all-zero shift
// returns nil.
func parseToWGS84(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 && len(parts) != 7 {
		return nil, fmt.Errorf("towgs84 needs 3 or 7 values, got %d", len(parts))
	}

	shift := make([]float64, len(parts))
	zero := true
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid +towgs84: %w", err)
		}
		shift[i] = v
		zero = zero && v == 0
	}
	if zero {
		return nil, nil
	}
	return shift, nil
}

// parseParams splits "+a=1 +b +c=x" into its tokens and a map. Flags without
// a value map to "".
func parseParams(source string) ([]string, map[string]string, error) {
	tokens := strings.Fields(source)
	if len(tokens) == 0 {
		return nil, nil, errors.New("empty definition")
	}

	params := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		if !strings.HasPrefix(tok, "+") {
			return nil, nil, fmt.Errorf("unexpected token %q in definition", tok)
		}
		key, value, _ := strings.Cut(tok[1:], "=")
		if key == "" {
			return nil, nil, fmt.Errorf("empty parameter in definition")
		}
		params[key] = value
	}
	return tokens, params, nil
}
