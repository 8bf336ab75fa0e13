// Package rates resolves the commission rate for a card network.
package rates

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/feerecon/internal/amount"
	"github.com/cleared-dev/feerecon/internal/sheet"
	"github.com/cleared-dev/feerecon/internal/tabular"
)

// DefaultCode is the entry used for networks without their own rate.
const DefaultCode = "DEFAULT"

// SourceBuiltin is the Source of the compiled-in table.
const SourceBuiltin = "builtin"

var (
	ErrNotFound = errors.New("rate file not found")
	ErrEmpty    = errors.New("rate file has no rows")
)

// LoadError explains why the rate file was not used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading rates from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Headers names the two columns of the rate file.
type Headers struct {
	Code string
	Rate string
}

// Table maps normalized network codes to rates. It always holds DEFAULT
// and is not modified after construction.
type Table struct {
	rates  map[string]decimal.Decimal
	source string
}

// New builds a Table from code → rate pairs. Codes are normalized and
// DEFAULT is set to zero when absent.
func New(source string, m map[string]decimal.Decimal) *Table {
	t := &Table{rates: make(map[string]decimal.Decimal, len(m)+1), source: source}
	for code, rate := range m {
		t.rates[Normalize(code)] = rate
	}
	if _, ok := t.rates[DefaultCode]; !ok {
		t.rates[DefaultCode] = decimal.Zero
	}
	return t
}

// Builtin returns the compiled-in rates used when no rate file is usable.
func Builtin() *Table {
	return New(SourceBuiltin, map[string]decimal.Decimal{
		"MIR":       decimal.RequireFromString("0.0142"),
		"MC":        decimal.RequireFromString("0.02"),
		"VISA":      decimal.RequireFromString("0.0165"),
		"CUP":       decimal.RequireFromString("0.0165"), // UnionPay
		"AMEX":      decimal.RequireFromString("0.03"),
		DefaultCode: decimal.Zero,
	})
}

// Normalize trims and upper-cases a network code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Rate returns the rate for code, or the DEFAULT rate for unknown codes.
func (t *Table) Rate(code string) decimal.Decimal {
	if r, ok := t.rates[Normalize(code)]; ok {
		return r
	}
	return t.rates[DefaultCode]
}

// Has reports whether code has its own entry.
func (t *Table) Has(code string) bool {
	_, ok := t.rates[Normalize(code)]
	return ok
}

// Codes returns all codes in sorted order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.rates))
	for c := range t.rates {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Source names where the rates came from: a file path or "builtin".
func (t *Table) Source() string { return t.source }

// Load reads the rate file at path. Any problem with the file makes the
// whole file unusable; the failure is logged and the builtin table returned.
func Load(path string, headers Headers, log *slog.Logger) *Table {
	t, err := ReadFile(path, headers)
	if err != nil {
		log.Warn("using builtin commission rates", "path", path, "error", err)
		return Builtin()
	}
	log.Info("loaded commission rates", "path", path, "count", len(t.rates))
	return t
}

// ReadFile parses a rate file. Errors are *LoadError.
func ReadFile(path string, headers Headers) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Path: path, Err: ErrNotFound}
		}
		return nil, &LoadError{Path: path, Err: err}
	}

	tbl, err := tabular.Read(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(tbl.Rows) == 0 {
		return nil, &LoadError{Path: path, Err: ErrEmpty}
	}
	if missing := tbl.Missing(headers.Code, headers.Rate); len(missing) > 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))}
	}

	codeCol := tbl.Index(headers.Code)
	rateCol := tbl.Index(headers.Rate)

	m := make(map[string]decimal.Decimal, len(tbl.Rows))
	for i, row := range tbl.Rows {
		code := Normalize(row.Text(codeCol))
		if code == "" {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("row %d: empty card type", i+2)}
		}
		rate, err := amount.ToDecimal(row.Value(rateCol))
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("row %d: %w", i+2, err)}
		}
		if rate.IsNegative() {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("row %d: negative rate %s for %s", i+2, rate, code)}
		}
		m[code] = rate
	}
	return New(path, m), nil
}

// WriteFile saves t as a rate file that ReadFile accepts.
func WriteFile(path string, t *Table, headers Headers) error {
	s := &sheet.Sheet{Header: []string{headers.Code, headers.Rate}}
	for _, code := range t.Codes() {
		s.Rows = append(s.Rows, []any{code, t.rates[code]})
	}
	if err := sheet.Write(path, s); err != nil {
		return fmt.Errorf("writing rates: %w", err)
	}
	return nil
}
