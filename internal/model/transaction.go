package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Row is one record of an input file. Cells are aligned with Table.Columns.
// Cells hold raw strings as read; the engine replaces normalized numeric
// cells with decimal.Decimal values in place.
type Row struct {
	Cells []any
}

// Value returns the cell at col, or nil when the row is short.
func (r Row) Value(col int) any {
	if col < 0 || col >= len(r.Cells) {
		return nil
	}
	return r.Cells[col]
}

// Text returns the cell at col as a trimmed string.
func (r Row) Text(col int) string {
	switch v := r.Value(col).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case decimal.Decimal:
		return v.String()
	default:
		return strings.TrimSpace(toString(v))
	}
}

// Table is the uniform row-oriented contents of one input file.
type Table struct {
	Name     string // base name of the source file
	Encoding string // charset delimited text was decoded with; empty for workbooks
	Columns  []string
	Rows     []Row
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Missing returns the names in required that are not columns of t, in order.
func (t *Table) Missing(required ...string) []string {
	var missing []string
	for _, name := range required {
		if t.Index(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// AddColumn appends a column and pads every row so that cells stay aligned.
// It returns the index of the new column.
func (t *Table) AddColumn(name string) int {
	t.Columns = append(t.Columns, name)
	n := len(t.Columns)
	for i := range t.Rows {
		for len(t.Rows[i].Cells) < n {
			t.Rows[i].Cells = append(t.Rows[i].Cells, nil)
		}
	}
	return n - 1
}
