package driver

import (
	"errors"
	"strconv"
	"strings"
)

// NullValue is how SQL NULL is represented in a Result.
const NullValue = "NULL"

// Result is tabular engine output with every value rendered as text.
// Columns is empty when the transport does not report column names.
type Result struct {
	Columns []string
	Rows    [][]string

	// Delimiter is the field separator the rows were split on, or empty
	// when the transport returned fields directly.
	Delimiter string
}

// Len returns the number of rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Column returns field i of every row, skipping rows that are too short.
func (r *Result) Column(i int) []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		if i < len(row) {
			out = append(out, row[i])
		}
	}
	return out
}

// FirstInt returns the first field, scanning rows in order, that parses as
// an integer. Header or label rows are skipped this way.
func (r *Result) FirstInt() (int64, error) {
	if r != nil {
		for _, row := range r.Rows {
			if len(row) == 0 {
				continue
			}
			if n, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64); err == nil {
				return n, nil
			}
		}
	}
	return 0, errors.New("no numeric value in query output")
}

// ParseDelimited splits command-line engine output into rows: one row per
// line, fields separated by delim. Values are taken literally; the clients
// do not quote their output. Blank lines are dropped and rows may have
// differing field counts. When header is set, the first non-blank line
// becomes Columns instead of a row.
func ParseDelimited(text string, delim rune, header bool) *Result {
	res := &Result{Delimiter: string(delim)}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, res.Delimiter)
		if header && res.Columns == nil {
			res.Columns = fields
			continue
		}
		res.Rows = append(res.Rows, fields)
	}
	return res
}

// Rest returns field i of row through the end of the line. For delimited
// output the trailing fields are rejoined, so a last value that contained
// the delimiter comes back whole. Otherwise it is field i alone.
func (r *Result) Rest(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	if r == nil || r.Delimiter == "" {
		return row[i]
	}
	return strings.Join(row[i:], r.Delimiter)
}
