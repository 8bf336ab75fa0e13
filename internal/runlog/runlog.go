// Package runlog keeps an append-only CSV history of reconciliation runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp     time.Time
	Files         int
	Failed        int
	Discrepancies int
	Warnings      int
	Report        string // empty when no report was written
	Duration      time.Duration
}

// Header is the CSV header of the run log.
const Header = "timestamp,files,failed,discrepancies,warnings,report,duration"

const (
	numFields        = 7
	colTimestamp     = 0
	colFiles         = 1
	colFailed        = 2
	colDiscrepancies = 3
	colWarnings      = 4
	colReport        = 5
	colDuration      = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colFiles] = strconv.Itoa(e.Files)
	row[colFailed] = strconv.Itoa(e.Failed)
	row[colDiscrepancies] = strconv.Itoa(e.Discrepancies)
	row[colWarnings] = strconv.Itoa(e.Warnings)
	row[colReport] = e.Report
	row[colDuration] = e.Duration.String()
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	ints := make([]int, 0, 4)
	for _, col := range []int{colFiles, colFailed, colDiscrepancies, colWarnings} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing column %d %q: %w", col, record[col], err)
		}
		ints = append(ints, n)
	}

	d, err := time.ParseDuration(record[colDuration])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing duration %q: %w", record[colDuration], err)
	}

	return Entry{
		Timestamp:     ts,
		Files:         ints[0],
		Failed:        ints[1],
		Discrepancies: ints[2],
		Warnings:      ints[3],
		Report:        record[colReport],
		Duration:      d,
	}, nil
}

// Append writes entries to path, creating the file, its directory and the
// header if needed.
func Append(path string, entries ...Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
