package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/cafe-pos/models"
)

func TestApplyDiscount_Scenario(t *testing.T) {
	subtotal := models.Money(50000).Times(1) + models.Money(30000).Times(2)
	assert.Equal(t, models.Money(110000), subtotal)

	b := ApplyDiscount(subtotal, 10)
	assert.Equal(t, models.Money(110000), b.OriginalAmount)
	assert.Equal(t, models.Money(11000), b.DiscountAmount)
	assert.Equal(t, models.Money(99000), b.FinalAmount)
	assert.True(t, b.HasDiscount())
}

func TestApplyDiscount_Cases(t *testing.T) {
	tests := []struct {
		name         string
		original     models.Money
		pct          float64
		wantPct      float64
		wantDiscount models.Money
		wantFinal    models.Money
	}{
		{"no discount", 45000, 0, 0, 0, 45000},
		{"full discount", 45000, 100, 100, 45000, 0},
		{"rounds half up", 25, 10, 10, 3, 22},
		{"rounds down below half", 24, 10, 10, 2, 22},
		{"fractional percentage", 99999, 12.5, 12.5, 12500, 87499},
		{"above range clamps", 10000, 150, 100, 10000, 0},
		{"negative clamps", 10000, -5, 0, 0, 10000},
		{"nan is zero", 10000, math.NaN(), 0, 0, 10000},
		{"infinity clamps", 10000, math.Inf(1), 100, 10000, 0},
		{"zero amount", 0, 50, 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ApplyDiscount(tt.original, tt.pct)
			assert.Equal(t, tt.wantPct, b.DiscountPercentage)
			assert.Equal(t, tt.wantDiscount, b.DiscountAmount)
			assert.Equal(t, tt.wantFinal, b.FinalAmount)
		})
	}
}

func TestApplyDiscount_Properties(t *testing.T) {
	amounts := []models.Money{0, 1, 7, 999, 15000, 110000, 1234567, 99999999}
	for _, amount := range amounts {
		for pct := 0.0; pct <= 100; pct += 2.5 {
			b := ApplyDiscount(amount, pct)
			assert.GreaterOrEqual(t, int64(b.FinalAmount), int64(0))
			assert.Equal(t, amount, b.DiscountAmount+b.FinalAmount, "amount=%d pct=%v", amount, pct)
			assert.Equal(t, b, ApplyDiscount(amount, pct), "must be idempotent")
		}
	}
}

func TestApplyDiscount_ZeroMeansNoDiscount(t *testing.T) {
	b := ApplyDiscount(50000, 0)
	assert.False(t, b.HasDiscount())
	assert.Equal(t, models.Money(0), b.DiscountAmount)
}

func TestValidateDiscountInput(t *testing.T) {
	assert.NoError(t, ValidateDiscountInput(0))
	assert.NoError(t, ValidateDiscountInput(100))
	assert.NoError(t, ValidateDiscountInput(33.3))

	for _, bad := range []float64{-1, 100.01, math.NaN(), math.Inf(-1)} {
		err := ValidateDiscountInput(bad)
		assert.True(t, IsKind(err, KindValidation), "pct=%v", bad)
	}
}
