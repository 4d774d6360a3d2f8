package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyFile is returned when the CSV has no header row.
var ErrEmptyFile = errors.New("csv has no header row")

// Record is one CSV data row keyed by lower-cased header name.
type Record map[string]string

// Get returns the first non-empty value among keys, trimmed.
func (r Record) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// rowReader streams records from crawler CSV. The crawler does not always
// quote free text, so rows are fitted to the header width before use.
type rowReader struct {
	csv    *csv.Reader
	header []string
	line   int
}

func newRowReader(r io.Reader) (*rowReader, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	return &rowReader{csv: cr, header: header, line: 1}, nil
}

// Next returns the next record or io.EOF.
func (r *rowReader) Next() (Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.line++

	row = fitRow(row, len(r.header))
	rec := make(Record, len(r.header))
	for i, h := range r.header {
		rec[h] = row[i]
	}
	return rec, nil
}

// Line returns the number of rows read so far, header included.
func (r *rowReader) Line() int {
	return r.line
}

// fitRow repairs a row to exactly width fields. Surplus fields are joined
// with commas into the last column; short rows are padded with "".
func fitRow(row []string, width int) []string {
	switch {
	case width == 0:
		return nil
	case len(row) > width:
		last := width - 1
		fitted := make([]string, width)
		copy(fitted, row[:last])
		fitted[last] = strings.Join(row[last:], ",")
		return fitted
	case len(row) < width:
		fitted := make([]string, width)
		copy(fitted, row)
		return fitted
	}
	return row
}
