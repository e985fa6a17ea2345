package models

import (
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/utils"
)

// Money is an amount in Vietnamese đồng. The currency has no usable
// subunit, so amounts are whole integers.
type Money int64

func (m Money) Add(other Money) Money { return m + other }

func (m Money) Sub(other Money) Money { return m - other }

// Times multiplies a unit price by a quantity.
func (m Money) Times(quantity int) Money { return m * Money(quantity) }

// Percent returns pct percent of m, rounded half-up to a whole đồng.
func (m Money) Percent(pct float64) Money {
	d := decimal.NewFromInt(int64(m)).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return Money(d.IntPart())
}

// ClampZero floors negative amounts at zero.
func (m Money) ClampZero() Money {
	if m < 0 {
		return 0
	}
	return m
}

func (m Money) Int64() int64 { return int64(m) }

func (m Money) String() string {
	return utils.FormatCurrencyVND(int64(m))
}
