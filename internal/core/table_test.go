package core

import (
	"reflect"
	"testing"
)

func TestNewRow_ShortRecord(t *testing.T) {
	row := NewRow([]string{"a", "b", "c"}, []string{"1", "2"})

	if got := row.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", got)
	}
	if _, ok := row.Get("c"); ok {
		t.Error("missing cell should be absent, not empty")
	}
}

func TestRow_With(t *testing.T) {
	orig := RowOf("a", "1", "b", "2")

	added := orig.With("c", "3")
	if got := added.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() after add = %v", got)
	}
	if orig.Len() != 2 {
		t.Errorf("original row changed: Len() = %d", orig.Len())
	}

	replaced := added.With("a", "9")
	if got := replaced.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() after replace = %v", got)
	}
	if got := replaced.Value("a"); got != "9" {
		t.Errorf("Value(a) = %q, want 9", got)
	}
	if got := added.Value("a"); got != "1" {
		t.Errorf("source row changed: Value(a) = %q", got)
	}
}

func TestRow_Record(t *testing.T) {
	row := RowOf("b", "2", "a", "1")
	got := row.Record([]string{"a", "b", "z"})
	if !reflect.DeepEqual(got, []string{"1", "2", ""}) {
		t.Errorf("Record() = %v", got)
	}
}

func TestTable_HasColumn(t *testing.T) {
	table := NewTable([]string{"x", "y"}, nil)
	if !table.HasColumn("x") || table.HasColumn("z") {
		t.Error("HasColumn mismatch")
	}
	var empty *Table
	if empty.Len() != 0 {
		t.Error("nil table should have length 0")
	}
}

func TestAppendColumns(t *testing.T) {
	header := []string{"x", "y"}
	got := appendColumns(header, "x_A", "y_A", "x_A")
	if !reflect.DeepEqual(got, []string{"x", "y", "x_A", "y_A"}) {
		t.Errorf("appendColumns() = %v", got)
	}
	if len(header) != 2 {
		t.Error("input header modified")
	}
}

func TestFieldSelection_DerivedNames(t *testing.T) {
	x, y := FieldSelection{X: "lon", Y: "lat"}.DerivedNames("EPSG:2039")
	if x != "lon_EPSG:2039" || y != "lat_EPSG:2039" {
		t.Errorf("DerivedNames() = %q, %q", x, y)
	}
}
