package core

import "fmt"

// TransformFunc converts a coordinate pair from one CRS to another.
// It returns an error when either CRS is unknown. Points outside the domain
// of a projection come back as NaN or infinite values, not as errors.
type TransformFunc func(fromCRS, toCRS string, xy [2]float64) ([2]float64, error)

// FieldSelection names the two columns holding coordinates.
type FieldSelection struct {
	X string
	Y string
}

// DerivedNames returns the names of the columns appended for outputCRS.
func (f FieldSelection) DerivedNames(outputCRS string) (string, string) {
	return f.X + "_" + outputCRS, f.Y + "_" + outputCRS
}

// Request is everything a single reprojection needs. It is passed by value.
type Request struct {
	Table     *Table
	Fields    FieldSelection
	InputCRS  string
	OutputCRS string
	Transform TransformFunc
}

// Validate checks the request before any row is touched.
func (r Request) Validate() error {
	if r.Fields.X != "" && r.Fields.X == r.Fields.Y {
		return fmt.Errorf("%w: both set to %q", ErrSelectionConflict, r.Fields.X)
	}

	switch {
	case r.Table == nil:
		return fmt.Errorf("%w: no table loaded", ErrMissingPrerequisite)
	case r.Fields.X == "" || r.Fields.Y == "":
		return fmt.Errorf("%w: coordinate fields not selected", ErrMissingPrerequisite)
	case r.InputCRS == "":
		return fmt.Errorf("%w: input CRS not selected", ErrMissingPrerequisite)
	case r.OutputCRS == "":
		return fmt.Errorf("%w: output CRS not selected", ErrMissingPrerequisite)
	case r.Transform == nil:
		return fmt.Errorf("%w: no transform function", ErrMissingPrerequisite)
	}
	return nil
}

// Flipped returns a copy of r with input and output CRS swapped.
func (r Request) Flipped() Request {
	r.InputCRS, r.OutputCRS = r.OutputCRS, r.InputCRS
	return r
}
