// Package reconcile recomputes the fee of every purchase in a partner file,
// compares it with the recorded fee and collects the differences.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/feerecon/internal/amount"
	"github.com/cleared-dev/feerecon/internal/config"
	"github.com/cleared-dev/feerecon/internal/fee"
	"github.com/cleared-dev/feerecon/internal/model"
	"github.com/cleared-dev/feerecon/internal/rates"
	"github.com/cleared-dev/feerecon/internal/sheet"
	"github.com/cleared-dev/feerecon/internal/tabular"
)

// SchemaError reports required columns absent from a file.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", filepath.Base(e.Path), strings.Join(e.Missing, ", "))
}

// RowWarning is a cell that could not be normalized. Row is the 1-based
// position among the file's data rows.
type RowWarning struct {
	Row    int
	Column string
	Err    error
}

func (w RowWarning) Error() string {
	return fmt.Sprintf("row %d, column %s: %v", w.Row, w.Column, w.Err)
}

func (w RowWarning) Unwrap() error { return w.Err }

// FileResult is what one processed file contributes to the run.
type FileResult struct {
	Path          string
	OutputPath    string
	Table         *model.Table
	Discrepancies []model.Discrepancy
	Warnings      []RowWarning
	// Defaulted lists the purchase networks without a rate of their own,
	// sorted. Their fees were computed with the DEFAULT rate.
	Defaulted []string
}

// Options configures an Engine.
type Options struct {
	Columns         config.ColumnsConfig
	ProcessedSuffix string
	ReportPath      string
}

// Engine processes partner files one at a time.
type Engine struct {
	calc *fee.Calculator
	opts Options
	log  *slog.Logger
}

// New creates an Engine.
func New(calc *fee.Calculator, opts Options, log *slog.Logger) *Engine {
	return &Engine{calc: calc, opts: opts, log: log}
}

// OutputPath returns where the annotated copy of path is written.
func (e *Engine) OutputPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(filepath.Dir(path), base+e.opts.ProcessedSuffix+".xlsx")
}

// ProcessFile reads path, reconciles it and writes the annotated copy.
// Any error means the file contributes nothing to the run.
func (e *Engine) ProcessFile(path string) (*FileResult, error) {
	tbl, err := tabular.Read(path)
	if err != nil {
		return nil, err
	}
	if tbl.Encoding != "" {
		e.log.Debug("decoded text file", "file", tbl.Name, "encoding", tbl.Encoding)
	}

	res, err := e.Reconcile(tbl)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Path = path
		}
		return nil, err
	}
	res.Path = path
	res.OutputPath = e.OutputPath(path)

	if err := sheet.Write(res.OutputPath, e.annotated(tbl)); err != nil {
		return nil, fmt.Errorf("writing annotated file: %w", err)
	}
	return res, nil
}

// Reconcile validates tbl, normalizes its amount and fee cells, and adds
// the computed fee and delta columns in place.
func (e *Engine) Reconcile(tbl *model.Table) (*FileResult, error) {
	cols := e.opts.Columns
	if missing := tbl.Missing(cols.Required()...); len(missing) > 0 {
		return nil, &SchemaError{Path: tbl.Name, Missing: missing}
	}

	typeCol := tbl.Index(cols.Type)
	amountCol := tbl.Index(cols.Amount)
	feeCol := tbl.Index(cols.Fee)
	networkCol := tbl.Index(cols.Network)
	computedCol := ensureColumn(tbl, cols.Computed)
	deltaCol := ensureColumn(tbl, cols.Delta)

	res := &FileResult{Table: tbl}
	defaulted := make(map[string]bool)
	for i := range tbl.Rows {
		row := &tbl.Rows[i]
		n := i + 1
		purchase := e.calc.IsPurchase(row.Text(typeCol))
		if network := rates.Normalize(row.Text(networkCol)); purchase && network != "" && !e.calc.KnownNetwork(network) {
			defaulted[network] = true
		}

		amt, amtErr := e.normalize(row, amountCol, purchase)
		if amtErr != nil {
			res.Warnings = append(res.Warnings, RowWarning{Row: n, Column: cols.Amount, Err: amtErr})
		}
		recorded, feeErr := e.normalize(row, feeCol, purchase)
		if feeErr != nil {
			res.Warnings = append(res.Warnings, RowWarning{Row: n, Column: cols.Fee, Err: feeErr})
		}

		tx := fee.Transaction{Type: row.Text(typeCol), Network: row.Text(networkCol), Amount: amt}
		if amtErr != nil {
			tx.Amount = row.Value(amountCol)
		}
		computed, err := e.calc.Compute(tx)
		if err != nil && amtErr == nil {
			res.Warnings = append(res.Warnings, RowWarning{Row: n, Column: cols.Computed, Err: err})
		}
		// An unreadable recorded fee counts as zero so the row surfaces.
		delta := e.calc.Delta(tx, recorded, computed)

		row.Cells[computedCol] = computed
		row.Cells[deltaCol] = delta

		if !delta.IsZero() {
			res.Discrepancies = append(res.Discrepancies, model.Discrepancy{
				Source:  tbl.Name,
				Columns: tbl.Columns,
				Cells:   slices.Clone(row.Cells),
				Delta:   delta,
			})
		}
	}
	for network := range defaulted {
		res.Defaulted = append(res.Defaulted, network)
	}
	slices.Sort(res.Defaulted)
	return res, nil
}

// normalize replaces the cell at col with its decimal value. Blank cells
// of rows that carry no fee are left alone.
func (e *Engine) normalize(row *model.Row, col int, purchase bool) (decimal.Decimal, error) {
	if !purchase && row.Text(col) == "" {
		return decimal.Zero, nil
	}
	d, err := amount.ToDecimal(row.Value(col))
	if err != nil {
		return decimal.Zero, err
	}
	row.Cells[col] = d
	return d, nil
}

func (e *Engine) annotated(tbl *model.Table) *sheet.Sheet {
	s := &sheet.Sheet{
		Header: tbl.Columns,
		Classify: map[int]sheet.Classifier{
			tbl.Index(e.opts.Columns.Computed): model.ClassifyFee,
			tbl.Index(e.opts.Columns.Delta):    model.ClassifyDelta,
		},
	}
	for _, row := range tbl.Rows {
		s.Rows = append(s.Rows, row.Cells)
	}
	return s
}

// ensureColumn returns the index of name, adding the column when absent.
func ensureColumn(tbl *model.Table, name string) int {
	if i := tbl.Index(name); i >= 0 {
		return i
	}
	return tbl.AddColumn(name)
}
