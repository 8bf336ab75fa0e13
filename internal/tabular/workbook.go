package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/feerecon/internal/model"
)

func readXLSX(path string) (*model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("no sheets found in workbook")
	}

	// Raw values keep numbers free of the workbook's display format.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", sheet, err)
	}
	return buildTable(rows)
}

// zipMagic marks an Office Open XML package, which some partners send
// with a legacy .xls name.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

func readXLS(path string) (tbl *model.Table, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err == nil && bytes.Equal(head, zipMagic) {
		return readXLSX(path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	// The BIFF reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			tbl, err = nil, fmt.Errorf("malformed workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, errors.New("no sheets found in workbook")
	}

	var rows [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return buildTable(rows)
}
