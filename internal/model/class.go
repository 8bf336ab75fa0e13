package model

import "github.com/shopspring/decimal"

// Class tags a numeric cell for annotation. Output adapters decide how a
// class is rendered.
type Class int

const (
	ClassNone Class = iota
	ClassZero
	ClassNegative
	ClassPositive
)

func (c Class) String() string {
	switch c {
	case ClassZero:
		return "zero"
	case ClassNegative:
		return "negative"
	case ClassPositive:
		return "positive"
	default:
		return "none"
	}
}

// ClassifyDelta splits a delta three ways by sign.
func ClassifyDelta(d decimal.Decimal) Class {
	switch d.Sign() {
	case 0:
		return ClassZero
	case -1:
		return ClassNegative
	default:
		return ClassPositive
	}
}

// ClassifyFee only distinguishes zero from non-zero.
func ClassifyFee(d decimal.Decimal) Class {
	if d.IsZero() {
		return ClassZero
	}
	return ClassPositive
}
