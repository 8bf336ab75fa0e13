// Package sheet writes tables to .xlsx workbooks and renders value
// classes as cell fills.
package sheet

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/feerecon/internal/model"
)

const sheetName = "Sheet1"

// Fill colors per class.
const (
	ColorZero     = "DDDDDD"
	ColorNegative = "FF0000"
	ColorPositive = "00FF00"
)

// FillColor returns the fill for class c, or "" for unstyled cells.
func FillColor(c model.Class) string {
	switch c {
	case model.ClassZero:
		return ColorZero
	case model.ClassNegative:
		return ColorNegative
	case model.ClassPositive:
		return ColorPositive
	default:
		return ""
	}
}

// Classifier assigns a class to a numeric cell.
type Classifier func(decimal.Decimal) model.Class

// Sheet is a header plus rows. Classify maps a column index to the
// classifier applied to its decimal cells.
type Sheet struct {
	Header   []string
	Rows     [][]any
	Classify map[int]Classifier
}

// Write saves s as the only sheet of a new workbook at path, replacing
// any existing file.
func Write(path string, s *Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if len(s.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(s.Header), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
			return fmt.Errorf("styling header: %w", err)
		}
	}

	fills := make(map[model.Class]int)
	fill := func(c model.Class) (int, error) {
		if id, ok := fills[c]; ok {
			return id, nil
		}
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{FillColor(c)}},
		})
		if err != nil {
			return 0, err
		}
		fills[c] = id
		return id, nil
	}

	for i, row := range s.Rows {
		rowNum := i + 2
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", rowNum, err)
		}

		for col, classify := range s.Classify {
			if col >= len(row) {
				continue
			}
			d, ok := row[col].(decimal.Decimal)
			if !ok {
				continue
			}
			c := classify(d)
			if c == model.ClassNone {
				continue
			}
			id, err := fill(c)
			if err != nil {
				return fmt.Errorf("creating %s style: %w", c, err)
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			if err := f.SetCellStyle(sheetName, cell, cell, id); err != nil {
				return fmt.Errorf("styling %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// cellValue converts decimals and plain numeric text to numbers so the
// workbook can compute with them.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return x.InexactFloat64()
	case string:
		if f, ok := plainNumber(x); ok {
			return f
		}
		return x
	default:
		return v
	}
}

// plainNumber parses s only when the float prints back as s, so codes with
// leading zeros and identifiers too long for a float64 stay text.
func plainNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, strconv.FormatFloat(f, 'f', -1, 64) == s
}
