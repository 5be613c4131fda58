package templates

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/JonMunkholm/reproject/internal/crs"
	"github.com/google/uuid"
)

func render(t *testing.T, c interface {
	Render(context.Context, io.Writer) error
}) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestErrorAlert_EscapesText(t *testing.T) {
	got := render(t, ErrorAlert("Invalid value in row 2: (<b>, 3)", "Fix it", "COORD001"))

	if strings.Contains(got, "<b>") {
		t.Errorf("ErrorAlert did not escape message: %s", got)
	}
	if !strings.Contains(got, "&lt;b&gt;") {
		t.Errorf("ErrorAlert missing escaped message: %s", got)
	}
	if !strings.Contains(got, "COORD001") {
		t.Errorf("ErrorAlert missing code: %s", got)
	}
}

func TestIndexPage(t *testing.T) {
	got := render(t, IndexPage(IndexData{
		Catalog:         []crs.CatalogEntry{{Code: "EPSG:2039", Name: "Israel 1993 / Israeli TM Grid"}},
		DefaultEncoding: "windows-1255",
		MaxFileSizeMB:   50,
	}))

	for _, want := range []string{
		`action="/api/convert"`,
		`value="EPSG:2039"`,
		`<option value="windows-1255" selected>`,
		"50 MB",
		"history is disabled",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("IndexPage missing %q", want)
		}
	}
}

func TestInspection_PreselectsGuessedFields(t *testing.T) {
	got := render(t, Inspection(core.Inspection{
		Header:   []string{"name", "lng", "lat"},
		RowCount: 2,
		Fields:   core.FieldSelection{X: "lng", Y: "lat"},
		Preview:  [][]string{{"a", "34.78", "32.08"}},
		HasDMS:   true,
	}))

	if !strings.Contains(got, `<option value="lng" selected>`) {
		t.Errorf("X field not preselected: %s", got)
	}
	if !strings.Contains(got, `<option value="lat" selected>`) {
		t.Errorf("Y field not preselected: %s", got)
	}
	if !strings.Contains(got, "degrees-minutes-seconds") {
		t.Error("DMS hint missing")
	}
	if !strings.Contains(got, "<td>34.78</td>") {
		t.Error("preview row missing")
	}
}

func TestHistoryTable(t *testing.T) {
	if got := render(t, HistoryTable(nil)); !strings.Contains(got, "No conversions yet") {
		t.Errorf("empty history = %s", got)
	}

	got := render(t, HistoryTable([]core.ConversionRecord{{
		ID:         uuid.New(),
		FileName:   "points.csv",
		InputCRS:   "EPSG:4326",
		OutputCRS:  "EPSG:2039",
		Rows:       3,
		Converted:  2,
		Status:     core.StatusFailed,
		ErrorCode:  "COORD002",
		DurationMs: 1500,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}))

	for _, want := range []string{`<tr data-status="failed">`, "points.csv", "2 / 3", "COORD002", "1.5s", "2024-05-01 12:00:00"} {
		if !strings.Contains(got, want) {
			t.Errorf("HistoryTable missing %q", want)
		}
	}
}

func TestLayout_WrapsBody(t *testing.T) {
	got := render(t, Layout("A & B", ErrorAlert("boom", "", "GEN001")))

	if !strings.HasPrefix(got, "<!doctype html>") {
		t.Errorf("Layout does not start with a doctype: %.40s", got)
	}
	if !strings.Contains(got, "<title>A &amp; B</title>") {
		t.Errorf("title not escaped: %s", got)
	}
	if !strings.Contains(got, `<main><div class="alert alert-error"`) {
		t.Errorf("body not rendered inside main: %s", got)
	}
	if strings.Contains(got, "alert-action") {
		t.Errorf("empty action rendered: %s", got)
	}
}
