package csvio

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/mattn/go-runewidth"
)

// maxCellWidth truncates wide cells in previews.
const maxCellWidth = 32

// RenderPreview writes the header and the first limit rows of t as an
// aligned text table. Widths are display widths, so Hebrew or CJK cells
// line up in a terminal.
func RenderPreview(w io.Writer, t *core.Table, limit int) error {
	if limit <= 0 || limit > t.Len() {
		limit = t.Len()
	}

	lines := make([][]string, 0, limit+1)
	lines = append(lines, append([]string(nil), t.Header...))
	for _, row := range t.Rows[:limit] {
		lines = append(lines, row.Record(t.Header))
	}

	widths := make([]int, len(t.Header))
	for _, line := range lines {
		for i, cell := range line {
			cell = runewidth.Truncate(cell, maxCellWidth, "…")
			line[i] = cell
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for n, line := range lines {
		var sb strings.Builder
		for i, cell := range line {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(sb.String(), " ")); err != nil {
			return err
		}
		if n == 0 {
			sep := make([]string, len(widths))
			for i, wd := range widths {
				sep[i] = strings.Repeat("-", wd)
			}
			if _, err := fmt.Fprintln(w, strings.Join(sep, "  ")); err != nil {
				return err
			}
		}
	}

	if t.Len() > limit {
		_, err := fmt.Fprintf(w, "... %d more rows\n", t.Len()-limit)
		return err
	}
	return nil
}
