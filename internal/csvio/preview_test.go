package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/JonMunkholm/reproject/internal/core"
)

func TestRenderPreview(t *testing.T) {
	table := core.NewTable([]string{"name", "x"}, [][]string{
		{"תל אביב", "34.78"},
		{"b", "1"},
		{"c", "2"},
	})

	var buf bytes.Buffer
	if err := RenderPreview(&buf, table, 2); err != nil {
		t.Fatalf("RenderPreview() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"name     x",
		"-------  -----",
		"תל אביב  34.78",
		"b        1",
		"... 1 more rows",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if table.Header[0] != "name" {
		t.Error("RenderPreview modified the header")
	}
}
