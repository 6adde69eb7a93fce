package utils

import (
	"fmt"
	"strings"
)

// FormatCurrency formats a dollar amount with thousands separators.
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	return groupThousands(s[:n-3]) + "," + s[n-3:]
}

// FormatPercent formats a percentage with an explicit sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatCompact formats a number in compact K/M/B form.
func FormatCompact(value float64) string {
	abs := value
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", value/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", value/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", value/1e3)
	}
	return fmt.Sprintf("%.2f", value)
}
