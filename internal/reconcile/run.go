package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/feerecon/internal/model"
	"github.com/cleared-dev/feerecon/internal/report"
)

// ErrNothingToProcess is returned by Run when no input files were found.
var ErrNothingToProcess = errors.New("nothing to process")

// Outcome is the result of one file of a run. Exactly one of Result and
// Err is set.
type Outcome struct {
	Path   string
	Result *FileResult
	Err    error
}

// Summary describes a completed run.
type Summary struct {
	Outcomes   []Outcome
	Report     *model.Report
	ReportPath string // empty when no report was written
}

// Failed returns the number of files that could not be processed.
func (s *Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Warnings returns the number of row warnings across all files.
func (s *Summary) Warnings() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Result != nil {
			n += len(o.Result.Warnings)
		}
	}
	return n
}

// Run processes paths in order and saves the consolidated report. A file
// that fails is logged and skipped; only a failure to save the report
// fails the run.
func (e *Engine) Run(paths []string, now time.Time) (*Summary, error) {
	if len(paths) == 0 {
		return nil, ErrNothingToProcess
	}

	sum := &Summary{}
	sets := make([][]model.Discrepancy, 0, len(paths))
	for _, path := range paths {
		log := e.log.With("file", filepath.Base(path))
		log.Info("processing file")

		res, err := e.ProcessFile(path)
		sum.Outcomes = append(sum.Outcomes, Outcome{Path: path, Result: res, Err: err})
		if err != nil {
			log.Error("file skipped", "error", err)
			continue
		}
		if len(res.Defaulted) > 0 {
			log.Warn("no rate for network, DEFAULT rate used", "networks", strings.Join(res.Defaulted, ","))
		}
		for _, w := range res.Warnings {
			log.Warn("row not reconciled", "row", w.Row, "column", w.Column, "error", w.Err)
		}
		log.Info("file processed",
			"rows", len(res.Table.Rows),
			"discrepancies", len(res.Discrepancies),
			"warnings", len(res.Warnings),
			"output", res.OutputPath,
		)
		sets = append(sets, res.Discrepancies)
	}

	sum.Report = report.Aggregate(now, sets...)
	cols := report.Columns{
		Delta:     e.opts.Columns.Delta,
		Source:    e.opts.Columns.Source,
		Timestamp: e.opts.Columns.Timestamp,
	}
	written, err := report.Save(e.opts.ReportPath, sum.Report, cols)
	if err != nil {
		return sum, fmt.Errorf("saving report: %w", err)
	}
	if written {
		sum.ReportPath = e.opts.ReportPath
	}
	return sum, nil
}
