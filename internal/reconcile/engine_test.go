package reconcile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/feerecon/internal/amount"
	"github.com/cleared-dev/feerecon/internal/config"
	"github.com/cleared-dev/feerecon/internal/fee"
	"github.com/cleared-dev/feerecon/internal/logging"
	"github.com/cleared-dev/feerecon/internal/model"
	"github.com/cleared-dev/feerecon/internal/rates"
	"github.com/cleared-dev/feerecon/internal/tabular"
)

const header = "TYPE;AMOUNT;COMMISSION;PMT_SYSTEM_CODE;MERCHANT\n"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	cfg := config.Default()
	rt := rates.New("test", map[string]decimal.Decimal{"MIR": dec("0.0142"), "VISA": dec("0.0165")})
	calc := fee.NewCalculator(rt, cfg.PurchaseMarker, fee.HalfEven)
	return New(calc, Options{
		Columns:         cfg.Columns,
		ProcessedSuffix: cfg.Output.ProcessedSuffix,
		ReportPath:      filepath.Join(dir, cfg.Output.Report),
	}, logging.Discard())
}

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func readTable(t *testing.T, body string) *model.Table {
	t.Helper()
	tbl, err := tabular.Read(writeInput(t, t.TempDir(), "in.csv", body))
	require.NoError(t, err)
	return tbl
}

func TestReconcile_Scenarios(t *testing.T) {
	e := newEngine(t, t.TempDir())
	tbl := readTable(t, header+
		"ПОКУПКА;1000;14,20;mir;A\n"+ // reconciled
		"ПОКУПКА;1000;15,00;mir;B\n"+ // overcharged
		"ПОКУПКА;500;5,00;JCB;C\n"+ // unknown network, DEFAULT 0
		"возврат;1000;3,00;MIR;D\n"+ // refund, never flagged
		"ПОКУПКА;1 234,56;20,00;VISA;E\n") // 20.37 computed, undercharged

	res, err := e.Reconcile(tbl)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"JCB"}, res.Defaulted)

	computed := tbl.Index("Комиссия (расчет)")
	delta := tbl.Index("Разница (F - U)")
	require.Equal(t, 5, computed)
	require.Equal(t, 6, delta)

	wantFee := []string{"14.2", "14.2", "0", "0", "20.37"}
	wantDelta := []string{"0", "0.8", "5", "0", "-0.37"}
	for i, row := range tbl.Rows {
		assert.True(t, row.Cells[computed].(decimal.Decimal).Equal(dec(wantFee[i])), "row %d fee %v", i, row.Cells[computed])
		assert.True(t, row.Cells[delta].(decimal.Decimal).Equal(dec(wantDelta[i])), "row %d delta %v", i, row.Cells[delta])
	}

	// Amount and fee cells are normalized in place.
	assert.True(t, tbl.Rows[4].Cells[1].(decimal.Decimal).Equal(dec("1234.56")))
	assert.True(t, tbl.Rows[0].Cells[2].(decimal.Decimal).Equal(dec("14.2")))

	require.Len(t, res.Discrepancies, 3)
	var merchants []any
	for _, d := range res.Discrepancies {
		assert.Equal(t, "in.csv", d.Source)
		assert.False(t, d.Delta.IsZero())
		merchants = append(merchants, d.Get("MERCHANT"))
	}
	assert.Equal(t, []any{"B", "C", "E"}, merchants)
}

func TestReconcile_MembershipIsNonZeroDelta(t *testing.T) {
	e := newEngine(t, t.TempDir())
	tbl := readTable(t, header+
		"ПОКУПКА;100;1,42;MIR;x\n"+
		"ПОКУПКА;100;1,43;MIR;x\n"+
		"ОТМЕНА;100;9,99;MIR;x\n"+
		"ПОКУПКА;100;1,41;MIR;x\n")

	res, err := e.Reconcile(tbl)
	require.NoError(t, err)

	deltaCol := tbl.Index("Разница (F - U)")
	nonZero := 0
	for _, row := range tbl.Rows {
		if !row.Cells[deltaCol].(decimal.Decimal).IsZero() {
			nonZero++
		}
	}
	assert.Equal(t, nonZero, len(res.Discrepancies))
	assert.Equal(t, 2, nonZero)
}

func TestReconcile_MissingColumns(t *testing.T) {
	e := newEngine(t, t.TempDir())
	tbl := readTable(t, "TYPE;AMOUNT\nПОКУПКА;100\n")

	_, err := e.Reconcile(tbl)
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"COMMISSION", "PMT_SYSTEM_CODE"}, se.Missing)
}

func TestReconcile_BadCells(t *testing.T) {
	e := newEngine(t, t.TempDir())
	tbl := readTable(t, header+
		"ПОКУПКА;n/a;5,00;MIR;bad amount\n"+
		"ПОКУПКА;1000;??;MIR;bad fee\n"+
		"ВОЗВРАТ;;;MIR;blank refund\n")

	res, err := e.Reconcile(tbl)
	require.NoError(t, err)

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, 1, res.Warnings[0].Row)
	assert.Equal(t, "AMOUNT", res.Warnings[0].Column)
	assert.Equal(t, 2, res.Warnings[1].Row)
	assert.Equal(t, "COMMISSION", res.Warnings[1].Column)

	var fe *amount.FormatError
	assert.True(t, errors.As(res.Warnings[0], &fe))

	// Bad amount: fee degrades to zero, recorded 5.00 surfaces as delta.
	// Bad fee: counts as zero, computed 14.20 surfaces as negative delta.
	require.Len(t, res.Discrepancies, 2)
	assert.Equal(t, "5", res.Discrepancies[0].Delta.String())
	assert.Equal(t, "-14.2", res.Discrepancies[1].Delta.String())

	// Unreadable cells are kept as written.
	assert.Equal(t, "n/a", tbl.Rows[0].Cells[1])
	assert.Equal(t, "??", tbl.Rows[1].Cells[2])
}

func TestReconcile_ExistingDerivedColumns(t *testing.T) {
	e := newEngine(t, t.TempDir())
	tbl := readTable(t, "TYPE;AMOUNT;COMMISSION;PMT_SYSTEM_CODE;Комиссия (расчет);Разница (F - U)\n"+
		"ПОКУПКА;1000;15;MIR;1;1\n")

	_, err := e.Reconcile(tbl)
	require.NoError(t, err)
	assert.Len(t, tbl.Columns, 6)
	assert.True(t, tbl.Rows[0].Cells[5].(decimal.Decimal).Equal(dec("0.8")))
}

func TestOutputPath(t *testing.T) {
	e := newEngine(t, t.TempDir())
	assert.Equal(t, filepath.Join("in", "bank_processed.xlsx"), e.OutputPath(filepath.Join("in", "bank.csv")))
	assert.Equal(t, filepath.Join("in", "a.b_processed.xlsx"), e.OutputPath(filepath.Join("in", "a.b.dsvp")))
}

func TestProcessFile_WritesAnnotatedCopy(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir)
	path := writeInput(t, dir, "bank.csv", header+
		"ПОКУПКА;1000;14,20;MIR;A\n"+
		"ПОКУПКА;1000;15,00;MIR;B\n"+
		"ПОКУПКА;1000;13,00;MIR;C\n")

	res, err := e.ProcessFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bank_processed.xlsx"), res.OutputPath)

	f, err := excelize.OpenFile(res.OutputPath)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"TYPE", "AMOUNT", "COMMISSION", "PMT_SYSTEM_CODE", "MERCHANT", "Комиссия (расчет)", "Разница (F - U)"}, rows[0])
	assert.Equal(t, []string{"ПОКУПКА", "1000", "15", "MIR", "B", "14.2", "0.8"}, rows[2])

	style := func(cell string) int {
		id, err := f.GetCellStyle(sheet, cell)
		require.NoError(t, err)
		return id
	}
	// Delta: zero, positive, negative all differ.
	assert.NotEqual(t, style("G2"), style("G3"))
	assert.NotEqual(t, style("G3"), style("G4"))
	assert.NotEqual(t, style("G2"), style("G4"))
	// Non-zero computed fees share the positive fill.
	assert.Equal(t, style("F2"), style("G3"))
}

func TestProcessFile_Errors(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir)

	_, err := e.ProcessFile(writeInput(t, dir, "bad.xlsx", "garbage"))
	var pe *tabular.ParseError
	assert.True(t, errors.As(err, &pe))

	path := writeInput(t, dir, "short.csv", "TYPE;AMOUNT\nПОКУПКА;1\n")
	_, err = e.ProcessFile(path)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, path, se.Path)

	_, statErr := os.Stat(filepath.Join(dir, "short_processed.xlsx"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_FoldsInOrder(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir)
	a := writeInput(t, dir, "a.csv", header+"ПОКУПКА;1000;15,00;MIR;a1\nПОКУПКА;1000;14,20;MIR;a2\nПОКУПКА;1000;16,00;MIR;a3\n")
	bad := writeInput(t, dir, "b.csv", "NOPE\n1\n")
	c := writeInput(t, dir, "c.csv", header+"ПОКУПКА;100;0;VISA;c1\n")

	now := time.Date(2025, 5, 6, 7, 8, 9, 0, time.Local)
	sum, err := e.Run([]string{a, bad, c}, now)
	require.NoError(t, err)

	require.Len(t, sum.Outcomes, 3)
	assert.Equal(t, 1, sum.Failed())
	assert.Equal(t, 0, sum.Warnings())
	assert.Equal(t, filepath.Join(dir, "results.xlsx"), sum.ReportPath)

	require.Equal(t, 3, sum.Report.Len())
	var got []any
	for _, d := range sum.Report.Discrepancies {
		got = append(got, d.Get("MERCHANT"))
	}
	assert.Equal(t, []any{"a1", "a3", "c1"}, got)
	assert.Equal(t, now, sum.Report.Timestamp)

	f, err := excelize.OpenFile(sum.ReportPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	last := rows[3]
	assert.Equal(t, "c.csv", last[len(last)-2])
	assert.Equal(t, "2025-05-06 07:08:09", last[len(last)-1])
}

func TestRun_NoDiscrepancies(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir)
	a := writeInput(t, dir, "a.csv", header+"ПОКУПКА;1000;14,20;MIR;ok\n")

	sum, err := e.Run([]string{a}, time.Now())
	require.NoError(t, err)
	assert.True(t, sum.Report.Empty())
	assert.Empty(t, sum.ReportPath)

	_, err = os.Stat(filepath.Join(dir, "results.xlsx"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "a_processed.xlsx"))
	assert.NoError(t, err)
}

func TestRun_NothingToProcess(t *testing.T) {
	e := newEngine(t, t.TempDir())
	sum, err := e.Run(nil, time.Now())
	assert.Nil(t, sum)
	assert.ErrorIs(t, err, ErrNothingToProcess)
}
