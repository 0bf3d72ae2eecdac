package booking

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatVND renders an amount the way the app shows it: 130000 -> "130.000 đ",
// 1234.5 -> "1.234,5 đ".
func FormatVND(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	s := amount.Abs().Round(2).String()

	intPart, frac, _ := strings.Cut(s, ".")

	var groups []string
	for i := len(intPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{intPart[start:i]}, groups...)
	}

	out := strings.Join(groups, ".")
	if frac != "" {
		out += "," + frac
	}
	if neg {
		out = "-" + out
	}
	return out + " đ"
}
