// Package tabular reads delimited text with a header row into row records.
// It knows nothing about graphs.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

const bom = "\ufeff"

// Row is one data record keyed by header name. Every header column is
// present; empty cells are "".
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value of col, or "" when the column is absent.
func (r Row) Get(col string) string {
	return r.Values[col]
}

// RowError reports a data row that could not be read. Iteration continues
// past it.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Table is a parsed header over raw delimited text.
type Table struct {
	data   []byte
	comma  rune
	header []string
}

// Option configures Parse.
type Option func(*Table)

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) Option {
	return func(t *Table) { t.comma = r }
}

// Parse reads the header row of data. An unreadable header fails the whole
// input with a malformed_input error.
func Parse(data []byte, opts ...Option) (*Table, error) {
	t := &Table{data: data, comma: ','}
	for _, o := range opts {
		o(t)
	}

	r := t.reader()
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, appErr.New(appErr.CodeMalformedInput, "input is empty, expected a header row")
	}
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeMalformedInput, "header row is unreadable")
	}

	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimSpace(strings.TrimPrefix(h, bom))
		}
		if h == "" {
			return nil, appErr.Newf(appErr.CodeMalformedInput, "header column %d is empty", i+1)
		}
		if _, dup := seen[h]; dup {
			return nil, appErr.Newf(appErr.CodeMalformedInput, "header column %q is duplicated", h)
		}
		seen[h] = struct{}{}
		header[i] = h
	}
	t.header = header
	return t, nil
}

// Header returns a copy of the column names.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// Has reports whether col is a header column.
func (t *Table) Has(col string) bool {
	for _, h := range t.header {
		if h == col {
			return true
		}
	}
	return false
}

// Rows yields data rows in input order. Each call starts again from the first
// data row. Rows with the wrong column count or broken quoting are yielded as
// *RowError and iteration continues.
func (t *Table) Rows() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		r := t.reader()
		r.FieldsPerRecord = len(t.header)
		if _, err := r.Read(); err != nil {
			return
		}
		for {
			rec, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var pe *csv.ParseError
				if !errors.As(err, &pe) {
					yield(Row{}, err)
					return
				}
				if !yield(Row{Line: pe.Line}, &RowError{Line: pe.Line, Err: pe.Err}) {
					return
				}
				continue
			}
			line, _ := r.FieldPos(0)
			if !yield(t.row(line, rec), nil) {
				return
			}
		}
	}
}

func (t *Table) row(line int, rec []string) Row {
	values := make(map[string]string, len(t.header))
	for i, h := range t.header {
		values[h] = strings.TrimSpace(rec[i])
	}
	return Row{Line: line, Values: values}
}

func (t *Table) reader() *csv.Reader {
	r := csv.NewReader(bytes.NewReader(t.data))
	r.Comma = t.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false
	return r
}
