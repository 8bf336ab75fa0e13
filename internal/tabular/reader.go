// Package tabular reads partner transaction files of unknown encoding and
// format into a uniform model.Table.
//
// Workbooks (.xlsx, .xls) are read from their first sheet. Delimited text
// (.csv, .dsv, .dsvp) uses ';' between fields and is decoded by trying a
// fixed, ordered list of character sets; see textDecoders.
package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/feerecon/internal/model"
)

// ErrUnsupported is returned for file extensions the reader does not handle.
var ErrUnsupported = errors.New("unsupported file type")

// ParseError is returned when a file cannot be read in any supported way.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const (
	extXLSX = ".xlsx"
	extXLS  = ".xls"
	extCSV  = ".csv"
	extDSV  = ".dsv"
	extDSVP = ".dsvp"
)

// Extensions lists the file extensions Read accepts.
var Extensions = []string{extXLSX, extXLS, extCSV, extDSV, extDSVP}

// Supported reports whether path has an extension Read accepts.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Read loads the file at path. Any failure is returned as *ParseError.
func Read(path string) (*model.Table, error) {
	var (
		tbl *model.Table
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case extXLSX:
		tbl, err = readXLSX(path)
	case extXLS:
		tbl, err = readXLS(path)
	case extCSV, extDSV, extDSVP:
		tbl, err = readText(path)
	default:
		err = ErrUnsupported
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	tbl.Name = filepath.Base(path)
	return tbl, nil
}

// buildTable turns raw records into a Table. The first non-blank record is
// the header; blank records are dropped and short records padded.
func buildTable(records [][]string) (*model.Table, error) {
	start := 0
	for start < len(records) && blank(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, errors.New("no header row")
	}

	header := make([]string, len(records[start]))
	for i, h := range records[start] {
		header[i] = strings.TrimSpace(h)
	}
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	if len(header) == 0 {
		return nil, errors.New("no header row")
	}

	tbl := &model.Table{Columns: header}
	for i, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		if len(rec) > len(header) {
			if !blank(rec[len(header):]) {
				return nil, fmt.Errorf("row %d: expected %d fields, got %d", start+i+2, len(header), len(rec))
			}
			rec = rec[:len(header)]
		}
		cells := make([]any, len(header))
		for j := range cells {
			if j < len(rec) {
				cells[j] = rec[j]
			} else {
				cells[j] = ""
			}
		}
		tbl.Rows = append(tbl.Rows, model.Row{Cells: cells})
	}
	return tbl, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
