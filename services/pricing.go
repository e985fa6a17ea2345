package services

import (
	"math"

	"github.com/yeremiapane/cafe-pos/models"
)

// PriceBreakdown is the priced result of applying a discount.
type PriceBreakdown struct {
	OriginalAmount     models.Money `json:"original_amount"`
	DiscountPercentage float64      `json:"discount_percentage"`
	DiscountAmount     models.Money `json:"discount_amount"`
	FinalAmount        models.Money `json:"final_amount"`
}

// HasDiscount is false for 0%, which is treated exactly like "no discount".
func (b PriceBreakdown) HasDiscount() bool {
	return b.DiscountPercentage > 0
}

// ClampDiscount forces pct into [0, 100]; NaN becomes 0.
func ClampDiscount(pct float64) float64 {
	switch {
	case math.IsNaN(pct), pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// ApplyDiscount prices original with a percentage discount. The discount
// is rounded half-up to a whole đồng and the final amount never goes
// below zero.
func ApplyDiscount(original models.Money, pct float64) PriceBreakdown {
	pct = ClampDiscount(pct)

	discount := models.Money(0)
	if pct > 0 {
		discount = original.ClampZero().Percent(pct)
	}

	return PriceBreakdown{
		OriginalAmount:     original,
		DiscountPercentage: pct,
		DiscountAmount:     discount,
		FinalAmount:        original.Sub(discount).ClampZero(),
	}
}

// ValidateDiscountInput rejects user input instead of clamping it.
func ValidateDiscountInput(pct float64) error {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 || pct > 100 {
		return NewValidationError("discount", ErrMsgDiscountRange)
	}
	return nil
}
