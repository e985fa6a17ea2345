package utils

import (
	"strconv"
	"strings"
)

// FormatCurrencyVND formats an amount of đồng with dot thousands separators.
// Example: 110000 -> "110.000 ₫"
func FormatCurrencyVND(amount int64) string {
	return FormatThousands(amount) + " ₫"
}

// FormatThousands groups digits by three using "." as separator.
func FormatThousands(amount int64) string {
	negative := amount < 0
	digits := strconv.FormatInt(amount, 10)
	if negative {
		digits = digits[1:]
	}

	var groups []string
	for i := len(digits); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{digits[start:i]}, groups...)
	}

	out := strings.Join(groups, ".")
	if negative {
		return "-" + out
	}
	return out
}

// FormatPercent drops trailing zeros: 10 -> "10%", 12.5 -> "12.5%"
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}
