package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/reproject/internal/core"
)

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("empty file")

// ReadTable parses CSV from r. The first record is the header; every later
// record becomes a row keyed by header name. Records shorter than the header
// only carry the cells they have. Records with no content at all are skipped.
func ReadTable(r io.Reader, encodingName string) (*core.Table, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(DecodingReader(r, enc))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, parseError(err)
	}
	header = UniqueHeader(header)

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}

	return core.NewTable(header, records), nil
}

// parseError keeps size-limit failures recognisable and labels the rest as
// CSV syntax errors.
func parseError(err error) error {
	if errors.Is(err, ErrFileTooLarge) {
		return err
	}
	return fmt.Errorf("parse csv: %w", err)
}

// UniqueHeader names blank columns "column_N" (1-based) and suffixes repeated
// names with "_2", "_3", ... so every header entry is distinct.
func UniqueHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if used[name] {
			base := name
			for n := 2; used[name]; n++ {
				name = base + "_" + strconv.Itoa(n)
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}
