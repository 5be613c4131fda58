package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/JonMunkholm/reproject/internal/coord"
)

// ContextCheckInterval is how often (in rows) ReprojectContext checks for
// cancellation.
const ContextCheckInterval = 1000

// Reproject runs req over its table and returns a new table with the two
// derived coordinate columns. On any error no table is returned.
func Reproject(req Request) (*Table, error) {
	return ReprojectContext(context.Background(), req)
}

// ReprojectContext is Reproject with an abort hook for very large tables.
func ReprojectContext(ctx context.Context, req Request) (*Table, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	nameX, nameY := req.Fields.DerivedNames(req.OutputCRS)
	out := &Table{
		Header: appendColumns(req.Table.Header, nameX, nameY),
		Rows:   make([]Row, 0, len(req.Table.Rows)),
	}

	var outOfDomain *OutOfDomainError

	for i, row := range req.Table.Rows {
		rowNum := i + 1

		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("reprojection cancelled at row %d: %w", rowNum, err)
			}
		}

		rawX, rawY := row.Value(req.Fields.X), row.Value(req.Fields.Y)
		if rawX == "" || rawY == "" {
			out.Rows = append(out.Rows, row)
			continue
		}

		x, errX := coord.Normalize(rawX)
		y, errY := coord.Normalize(rawY)
		if errX != nil || errY != nil {
			return nil, &InvalidCoordinateError{
				Row:  rowNum,
				RawX: rawX,
				RawY: rawY,
				Err:  errors.Join(errX, errY),
			}
		}

		res, err := req.Transform(req.InputCRS, req.OutputCRS, [2]float64{x, y})
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCRSResolution, rowNum, err)
		}

		if !isFinite(res[0]) || !isFinite(res[1]) {
			outOfDomain = &OutOfDomainError{
				Row:      rowNum,
				RawX:     rawX,
				RawY:     rawY,
				InputCRS: req.InputCRS,
			}
		}

		out.Rows = append(out.Rows, row.
			With(nameX, FormatCoordinate(res[0])).
			With(nameY, FormatCoordinate(res[1])))
	}

	if outOfDomain != nil {
		return nil, outOfDomain
	}
	return out, nil
}

// FormatCoordinate renders v with exactly six fractional digits.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
