package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampFormat is the layout of the processing timestamp column.
const TimestampFormat = "2006-01-02 15:04:05"

// Discrepancy is a row whose delta is non-zero, tagged with its source file.
type Discrepancy struct {
	Source  string
	Columns []string // columns of the source table, shared between rows
	Cells   []any
	Delta   decimal.Decimal
}

// Get returns the value of column name, or nil if the source had no such column.
func (d Discrepancy) Get(name string) any {
	for i, c := range d.Columns {
		if c == name {
			if i < len(d.Cells) {
				return d.Cells[i]
			}
			return nil
		}
	}
	return nil
}

// Report is the consolidated set of discrepancies for one run.
type Report struct {
	Timestamp     time.Time
	Discrepancies []Discrepancy
}

// Empty reports whether no discrepancies were found.
func (r *Report) Empty() bool {
	return r == nil || len(r.Discrepancies) == 0
}

// Len returns the number of discrepancies.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Discrepancies)
}

func toString(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
