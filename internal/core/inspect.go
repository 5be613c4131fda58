package core

import (
	"strings"

	"github.com/JonMunkholm/reproject/internal/coord"
)

// Column names recognised as coordinates, compared case-insensitively.
var (
	XFieldNames = []string{"x", "longitude", "lng", "long"}
	YFieldNames = []string{"y", "latitude", "lat"}
)

// DefaultPreviewRows is the number of rows Inspect returns when asked for none.
const DefaultPreviewRows = 10

// Inspection summarises a loaded table for field selection.
type Inspection struct {
	Header   []string       `json:"header"`
	RowCount int            `json:"row_count"`
	Fields   FieldSelection `json:"fields"`
	Preview  [][]string     `json:"preview"`
	HasDMS   bool           `json:"has_dms"`
}

// GuessFields picks the X and Y columns from header. When several columns
// match, the last one wins. Unmatched fields are left empty.
func GuessFields(header []string) FieldSelection {
	var f FieldSelection
	for _, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if contains(XFieldNames, name) {
			f.X = h
		}
		if contains(YFieldNames, name) {
			f.Y = h
		}
	}
	return f
}

// Inspect returns the header, suggested fields and the first previewRows rows.
func (s *Service) Inspect(t *Table, previewRows int) Inspection {
	return Inspect(t, previewRows)
}

// Inspect is the stateless form of Service.Inspect.
func Inspect(t *Table, previewRows int) Inspection {
	if t == nil {
		return Inspection{}
	}
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}

	in := Inspection{
		Header:   append([]string(nil), t.Header...),
		RowCount: t.Len(),
		Fields:   GuessFields(t.Header),
	}

	for i, row := range t.Rows {
		if i < previewRows {
			in.Preview = append(in.Preview, row.Record(t.Header))
		}
		if !in.HasDMS && (isDMSCell(row, in.Fields.X) || isDMSCell(row, in.Fields.Y)) {
			in.HasDMS = true
		}
	}
	return in
}

func isDMSCell(row Row, field string) bool {
	if field == "" {
		return false
	}
	return coord.IsDMS(row.Value(field))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
