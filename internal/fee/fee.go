// Package fee recomputes the expected commission of a transaction.
package fee

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/feerecon/internal/amount"
	"github.com/cleared-dev/feerecon/internal/rates"
)

// Places is the number of decimal places fees and deltas are rounded to.
const Places = 2

// Rounding selects how halves are rounded.
type Rounding string

const (
	// HalfEven rounds halves to the even neighbour (banker's rounding).
	HalfEven Rounding = "half-even"
	// HalfUp rounds halves away from zero.
	HalfUp Rounding = "half-up"
)

// ParseRounding validates a rounding mode name.
func ParseRounding(s string) (Rounding, error) {
	switch r := Rounding(strings.ToLower(strings.TrimSpace(s))); r {
	case HalfEven, HalfUp:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q (want %q or %q)", s, HalfEven, HalfUp)
	}
}

// Round rounds d to places using mode r.
func (r Rounding) Round(d decimal.Decimal, places int32) decimal.Decimal {
	if r == HalfUp {
		return d.Round(places)
	}
	return d.RoundBank(places)
}

// Transaction holds the fields of a row the fee depends on.
type Transaction struct {
	Type    string
	Network string
	Amount  any // raw cell or normalized decimal
}

// Calculator computes expected fees from a rate table.
type Calculator struct {
	rates    *rates.Table
	purchase string
	rounding Rounding
}

// NewCalculator creates a Calculator. Only transactions whose type equals
// purchase carry a fee.
func NewCalculator(rt *rates.Table, purchase string, rounding Rounding) *Calculator {
	return &Calculator{rates: rt, purchase: purchase, rounding: rounding}
}

// IsPurchase reports whether opType is the fee-bearing operation. The
// match is exact: a padded or differently cased type is not a purchase.
func (c *Calculator) IsPurchase(opType string) bool {
	return opType == c.purchase
}

// KnownNetwork reports whether network has its own rate rather than the
// DEFAULT one.
func (c *Calculator) KnownNetwork(network string) bool {
	return c.rates.Has(network)
}

// Compute returns round(amount × rate(network), 2) for purchases and zero
// for every other operation. A malformed amount is returned as an error
// with a zero fee; the caller decides how to surface it.
func (c *Calculator) Compute(tx Transaction) (decimal.Decimal, error) {
	if !c.IsPurchase(tx.Type) {
		return decimal.Zero, nil
	}
	amt, err := amount.ToDecimal(tx.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("computing fee: %w", err)
	}
	rate := c.rates.Rate(tx.Network)
	return c.rounding.Round(amt.Mul(rate), Places), nil
}

// Delta returns recorded − computed rounded to two places for purchases,
// and zero for every other operation.
func (c *Calculator) Delta(tx Transaction, recorded, computed decimal.Decimal) decimal.Decimal {
	if !c.IsPurchase(tx.Type) {
		return decimal.Zero
	}
	return c.rounding.Round(recorded.Sub(computed), Places)
}
