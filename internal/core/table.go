package core

// Row is an ordered mapping from column name to cell text.
// Rows are never modified in place; With returns a new Row.
type Row struct {
	keys   []string
	values map[string]string
}

// NewRow builds a row from a header and a record. Columns beyond the end of
// the record are left out of the row entirely.
func NewRow(header, record []string) Row {
	r := Row{
		keys:   make([]string, 0, len(header)),
		values: make(map[string]string, len(header)),
	}
	for i, key := range header {
		if i >= len(record) {
			break
		}
		if _, exists := r.values[key]; !exists {
			r.keys = append(r.keys, key)
		}
		r.values[key] = record[i]
	}
	return r
}

// RowOf builds a row from alternating key/value arguments.
func RowOf(kv ...string) Row {
	r := Row{values: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		r = r.with(kv[i], kv[i+1], false)
	}
	return r
}

// Get returns the value stored under key and whether it is present.
func (r Row) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value stored under key, or "" when absent.
func (r Row) Value(key string) string {
	return r.values[key]
}

// Keys returns the column names of the row in order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// With returns a copy of r where key holds value. An existing key keeps its
// position; a new key is appended.
func (r Row) With(key, value string) Row {
	return r.with(key, value, true)
}

func (r Row) with(key, value string, clone bool) Row {
	out := r
	if clone {
		out = Row{
			keys:   make([]string, len(r.keys), len(r.keys)+1),
			values: make(map[string]string, len(r.values)+1),
		}
		copy(out.keys, r.keys)
		for k, v := range r.values {
			out.values[k] = v
		}
	}
	if out.values == nil {
		out.values = make(map[string]string)
	}
	if _, exists := out.values[key]; !exists {
		out.keys = append(out.keys, key)
	}
	out.values[key] = value
	return out
}

// Record returns the row's values laid out in header order. Missing columns
// become empty strings.
func (r Row) Record(header []string) []string {
	rec := make([]string, len(header))
	for i, key := range header {
		rec[i] = r.values[key]
	}
	return rec
}

// Table is an ordered sequence of rows sharing a header.
type Table struct {
	Header []string
	Rows   []Row
}

// NewTable builds a table from a header and raw records.
func NewTable(header []string, records [][]string) *Table {
	t := &Table{
		Header: append([]string(nil), header...),
		Rows:   make([]Row, 0, len(records)),
	}
	for _, rec := range records {
		t.Rows = append(t.Rows, NewRow(t.Header, rec))
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is part of the header.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// appendColumns returns header followed by the names it does not already contain.
func appendColumns(header []string, names ...string) []string {
	out := append([]string(nil), header...)
	for _, name := range names {
		found := false
		for _, h := range out {
			if h == name {
				found = true
				break
			}
		}
		if !found {
			out = append(out, name)
		}
	}
	return out
}
