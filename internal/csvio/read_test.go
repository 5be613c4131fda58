package csvio

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestReadTable(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantHeader []string
		wantRows   int
	}{
		{
			name:       "simple",
			input:      "x,y\n1,2\n3,4\n",
			wantHeader: []string{"x", "y"},
			wantRows:   2,
		},
		{
			name:       "bom stripped",
			input:      "\xEF\xBB\xBFx,y\n1,2\n",
			wantHeader: []string{"x", "y"},
			wantRows:   1,
		},
		{
			name:       "crlf and blank lines",
			input:      "x,y\r\n1,2\r\n\r\n,\r\n3,4\r\n",
			wantHeader: []string{"x", "y"},
			wantRows:   2,
		},
		{
			name:       "duplicate and blank headers",
			input:      "x,x,,y\n1,2,3,4\n",
			wantHeader: []string{"x", "x_2", "column_3", "y"},
			wantRows:   1,
		},
		{
			name:       "header only",
			input:      "x,y\n",
			wantHeader: []string{"x", "y"},
			wantRows:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadTable(strings.NewReader(tt.input), "")
			if err != nil {
				t.Fatalf("ReadTable() error = %v", err)
			}
			if !reflect.DeepEqual(table.Header, tt.wantHeader) {
				t.Errorf("Header = %v, want %v", table.Header, tt.wantHeader)
			}
			if table.Len() != tt.wantRows {
				t.Errorf("Len() = %d, want %d", table.Len(), tt.wantRows)
			}
		})
	}
}

func TestReadTable_ShortRecord(t *testing.T) {
	table, err := ReadTable(strings.NewReader("id,x,y\n1,35\n"), "")
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if _, ok := table.Rows[0].Get("y"); ok {
		t.Error("short record should not carry the y column")
	}
	if got := table.Rows[0].Value("x"); got != "35" {
		t.Errorf("x = %q, want 35", got)
	}
}

func TestReadTable_LegacyEncoding(t *testing.T) {
	encoded, err := charmap.Windows1255.NewEncoder().String("שם,x,y\nתל אביב,1,2\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	table, err := ReadTable(strings.NewReader(encoded), "windows-1255")
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if table.Header[0] != "שם" {
		t.Errorf("Header[0] = %q, want שם", table.Header[0])
	}
	if got := table.Rows[0].Value("שם"); got != "תל אביב" {
		t.Errorf("name = %q, want תל אביב", got)
	}
}

func TestReadTable_InvalidUTF8Replaced(t *testing.T) {
	table, err := ReadTable(strings.NewReader("name,x,y\nbad\xff,1,2\n"), "")
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if got := table.Rows[0].Value("name"); got != "bad\uFFFD" {
		t.Errorf("name = %q, want replacement character", got)
	}
}

func TestReadTable_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, err := ReadTable(strings.NewReader(""), ""); !errors.Is(err, ErrEmptyFile) {
			t.Errorf("error = %v, want ErrEmptyFile", err)
		}
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader("x,y\n"), "klingon-8")
		if err == nil || !strings.Contains(err.Error(), "unknown encoding") {
			t.Errorf("error = %v, want unknown encoding", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		input := "x,y\n" + strings.Repeat("1,2\n", 1000)
		r := NewSizeLimitedReader(strings.NewReader(input), 100)
		if _, err := ReadTable(r, ""); !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("bad quoting", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader("x,y\n1,\"a\"b\n"), "")
		if err == nil || !strings.Contains(err.Error(), "parse csv") {
			t.Errorf("error = %v, want parse csv error", err)
		}
	})
}

func TestSizeLimitedReader_UnderLimit(t *testing.T) {
	r := NewSizeLimitedReader(bytes.NewReader([]byte("hello")), 5)
	buf := make([]byte, 10)
	n, err := r.Read(buf)
	if err != nil || n != 5 || r.BytesRead != 5 {
		t.Errorf("Read() = %d, %v (BytesRead %d)", n, err, r.BytesRead)
	}
}

func TestUniqueHeader(t *testing.T) {
	got := UniqueHeader([]string{"a", "a", "a_2", " ", "b"})
	want := []string{"a", "a_2", "a_2_2", "column_4", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueHeader() = %v, want %v", got, want)
	}
}
