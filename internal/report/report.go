// Package report consolidates discrepancies from every processed file into
// one workbook.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/cleared-dev/feerecon/internal/model"
	"github.com/cleared-dev/feerecon/internal/sheet"
)

// Columns names the report columns with special meaning.
type Columns struct {
	Delta     string
	Source    string
	Timestamp string
}

// Aggregate concatenates discrepancy sets in the given order, keeping the
// row order of each set.
func Aggregate(ts time.Time, sets ...[]model.Discrepancy) *model.Report {
	rep := &model.Report{Timestamp: ts}
	for _, set := range sets {
		rep.Discrepancies = append(rep.Discrepancies, set...)
	}
	return rep
}

// Header returns the union of all discrepancy columns in first-seen order,
// followed by the source and timestamp columns.
func Header(rep *model.Report, cols Columns) []string {
	seen := map[string]bool{cols.Source: true, cols.Timestamp: true}
	var header []string
	for _, d := range rep.Discrepancies {
		for _, c := range d.Columns {
			if seen[c] {
				continue
			}
			seen[c] = true
			header = append(header, c)
		}
	}
	return append(header, cols.Source, cols.Timestamp)
}

// Save replaces the report at path. Any earlier report is removed first; an
// empty report writes no file and returns false.
func Save(path string, rep *model.Report, cols Columns) (bool, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("removing old report: %w", err)
	}
	if rep.Empty() {
		return false, nil
	}

	header := Header(rep, cols)
	ts := rep.Timestamp.Format(model.TimestampFormat)

	s := &sheet.Sheet{Header: header, Classify: map[int]sheet.Classifier{}}
	for i, h := range header {
		if h == cols.Delta {
			s.Classify[i] = model.ClassifyDelta
		}
	}

	data := header[:len(header)-2]
	for _, d := range rep.Discrepancies {
		row := make([]any, 0, len(header))
		for _, c := range data {
			row = append(row, d.Get(c))
		}
		row = append(row, d.Source, ts)
		s.Rows = append(s.Rows, row)
	}

	if err := sheet.Write(path, s); err != nil {
		return false, fmt.Errorf("writing report: %w", err)
	}
	return true, nil
}
