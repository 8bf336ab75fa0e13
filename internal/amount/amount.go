// Package amount normalizes money values as partners write them.
package amount

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatError reports a value that cannot be read as a number.
type FormatError struct {
	Value any
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid amount %q", fmt.Sprint(e.Value))
	}
	return fmt.Sprintf("invalid amount %q: %v", fmt.Sprint(e.Value), e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// spaces used as thousands separators, including no-break variants.
var cleaner = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	",", ".",
)

// ToDecimal converts a cell value to a decimal. Text has its thousands
// separators removed and a decimal comma turned into a point. Numeric
// values pass through unchanged.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case string:
		return Parse(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, &FormatError{Value: x, Err: fmt.Errorf("not a finite number")}
		}
		return decimal.NewFromFloat(x), nil
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, &FormatError{Value: x, Err: fmt.Errorf("not a finite number")}
		}
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case nil:
		return decimal.Zero, &FormatError{Value: "", Err: fmt.Errorf("empty value")}
	default:
		return decimal.Zero, &FormatError{Value: v, Err: fmt.Errorf("unsupported type %T", v)}
	}
}

// Parse is ToDecimal for text.
func Parse(s string) (decimal.Decimal, error) {
	clean := cleaner.Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, &FormatError{Value: s, Err: fmt.Errorf("empty value")}
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, &FormatError{Value: s, Err: err}
	}
	return d, nil
}
