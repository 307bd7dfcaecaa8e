// Copyright 2024 The ADSORFIT Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package table implements a dynamic-schema CSV codec shared by the
// preprocessor (raw input ingestion) and the result adapter (wide-table
// output). The schema of both tables is only known at run time -- which
// logical columns resolved to which headers, and which models/parameters
// are enabled -- so rows are carried as ordered string slices rather than
// marshaled from a static struct.
package table

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/cpmech/gosl/chk"
)

// Table is a header plus rows of equal length, in file order.
type Table struct {
	Header []string
	Rows   [][]string
}

// candidateDelimiters are tried, in order, against the header line.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter returns the delimiter that splits firstLine into the
// largest number of fields, breaking ties by the order in
// candidateDelimiters (comma first).
func sniffDelimiter(firstLine string) rune {
	best := candidateDelimiters[0]
	bestCount := -1
	for _, d := range candidateDelimiters {
		count := strings.Count(firstLine, string(d))
		if count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}

// Read parses a UTF-8 CSV-like table from r, auto-detecting the delimiter
// among comma, semicolon, tab and pipe from the header line. The header
// row is required; every data row must have exactly len(Header) fields.
func Read(r io.Reader) (*Table, error) {
	buffered := bufio.NewReader(r)
	firstLine, err := buffered.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, chk.Err("table: cannot read header: %v", err)
	}
	header := string(firstLine)
	if nl := strings.IndexByte(header, '\n'); nl >= 0 {
		header = header[:nl]
	}
	delim := sniffDelimiter(header)

	reader := csv.NewReader(buffered)
	reader.Comma = delim
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, chk.Err("table: cannot parse CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, chk.Err("table: empty input, missing header row")
	}

	t := &Table{Header: records[0], Rows: records[1:]}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return nil, chk.Err("table: row %d has %d fields, expected %d", i, len(row), len(t.Header))
		}
	}
	return t, nil
}

// Write emits the table as UTF-8, comma-separated CSV with a header row.
func Write(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return chk.Err("table: cannot write header: %v", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return chk.Err("table: cannot write row: %v", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ColumnIndex returns the index of name in header, or -1 if absent.
func ColumnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// JoinFloats comma-joins a list-valued column for CSV persistence, the
// encoding original_source's serializer settled on for round-tripping
// pressure/uptake arrays through tabular storage.
func JoinFloats(values []float64, format func(float64) string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = format(v)
	}
	return strings.Join(parts, ",")
}

// SplitFloats reverses JoinFloats. An empty string decodes to an empty,
// non-nil slice.
func SplitFloats(s string, parse func(string) (float64, error)) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []float64{}, nil
	}
	parts := strings.Split(s, ",")
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := parse(strings.TrimSpace(p))
		if err != nil {
			return nil, chk.Err("table: cannot parse float %q: %v", p, err)
		}
		values[i] = v
	}
	return values, nil
}
