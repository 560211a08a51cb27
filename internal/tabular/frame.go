package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Frame is a simple in-memory table. Every cell is text; these
// datasets carry codes with leading zeros and mixed numeric formats,
// so no type inference is attempted.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// ParseFrame reads delimited text into a Frame. Header names are
// trimmed of surrounding whitespace. Rows with fewer fields than the
// header are padded with empty cells; surplus fields are dropped.
func ParseFrame(text string, delimiter rune) (*Frame, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	f := &Frame{Columns: columns}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(f.Rows)+2, err)
		}
		row := make([]string, len(columns))
		for i := range columns {
			if i < len(rec) {
				row[i] = rec[i]
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return len(f.Rows) }

// AddConstColumn appends a column holding the same value in every row,
// used for the _source_blob and _year provenance tags.
func (f *Frame) AddConstColumn(name, value string) {
	f.Columns = append(f.Columns, name)
	for i := range f.Rows {
		f.Rows[i] = append(f.Rows[i], value)
	}
}

// Concat concatenates frames in order into one frame whose columns are
// the union of all input columns in first-seen order. Cells missing
// from a source frame are empty. Row order is the file-then-row order
// of the inputs.
func Concat(frames []*Frame) *Frame {
	out := &Frame{}
	index := make(map[string]int)
	for _, f := range frames {
		for _, c := range f.Columns {
			if _, ok := index[c]; !ok {
				index[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, f := range frames {
		for _, row := range f.Rows {
			merged := make([]string, len(out.Columns))
			for i, c := range f.Columns {
				if i < len(row) {
					merged[index[c]] = row[i]
				}
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// Chunk splits the frame into row chunks of at most n rows each,
// preserving order. n <= 0 yields a single chunk. An empty frame
// yields no chunks.
func (f *Frame) Chunk(n int) []*Frame {
	if len(f.Rows) == 0 {
		return nil
	}
	if n <= 0 {
		return []*Frame{f}
	}
	var out []*Frame
	for start := 0; start < len(f.Rows); start += n {
		end := start + n
		if end > len(f.Rows) {
			end = len(f.Rows)
		}
		out = append(out, &Frame{Columns: f.Columns, Rows: f.Rows[start:end]})
	}
	return out
}
