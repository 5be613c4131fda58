package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/reproject/internal/core"
)

// BOM is written at the start of every output file.
const BOM = "\uFEFF"

// WriteTable writes t as UTF-8 CSV with a BOM. Cells missing from a row are
// written empty.
func WriteTable(w io.Writer, t *core.Table) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row.Record(t.Header)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// OutputFileName names the converted file: the input name up to its first
// dot, an underscore, the output CRS and ".csv". Path separators and
// whitespace in the CRS are replaced so a proj4 string still makes a
// single file name.
func OutputFileName(name, outputCRS string) string {
	base := filepath.Base(name)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == string(filepath.Separator) {
		base = "converted"
	}
	return base + "_" + fileSafe(outputCRS) + ".csv"
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
