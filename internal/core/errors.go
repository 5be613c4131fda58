package core

import (
	"errors"
	"fmt"
)

// Request and conversion errors. Every one of them ends the current
// conversion; none is retried.
var (
	ErrSelectionConflict      = errors.New("x and y fields must be different columns")
	ErrMissingPrerequisite    = errors.New("missing prerequisite")
	ErrCRSResolution          = errors.New("crs resolution failed")
	ErrInvalidCoordinateValue = errors.New("invalid coordinate value")
	ErrCoordinateOutOfDomain  = errors.New("coordinate out of domain")
)

// CRSResolutionError reports a CRS identifier that could not be resolved.
type CRSResolutionError struct {
	Code string
	Err  error
}

func (e *CRSResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("crs resolution failed for %q", e.Code)
	}
	return fmt.Sprintf("crs resolution failed for %q: %v", e.Code, e.Err)
}

func (e *CRSResolutionError) Is(target error) bool {
	return target == ErrCRSResolution
}

func (e *CRSResolutionError) Unwrap() error {
	return e.Err
}

// InvalidCoordinateError identifies the first row whose coordinates did not parse.
// Row is 1-based over the data rows.
type InvalidCoordinateError struct {
	Row  int
	RawX string
	RawY string
	Err  error
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate value in row %d: (%s, %s)", e.Row, e.RawX, e.RawY)
}

func (e *InvalidCoordinateError) Is(target error) bool {
	return target == ErrInvalidCoordinateValue
}

func (e *InvalidCoordinateError) Unwrap() error {
	return e.Err
}

// OutOfDomainError identifies the last row whose transformed coordinates
// were not finite.
type OutOfDomainError struct {
	Row      int
	RawX     string
	RawY     string
	InputCRS string
}

func (e *OutOfDomainError) Error() string {
	return fmt.Sprintf("coordinate out of domain: values (%s, %s) in row %d are not valid for %s",
		e.RawX, e.RawY, e.Row, e.InputCRS)
}

func (e *OutOfDomainError) Is(target error) bool {
	return target == ErrCoordinateOutOfDomain
}
