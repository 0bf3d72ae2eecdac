package booking

import "github.com/shopspring/decimal"

// LineTotal is price * quantity. A price that cannot be resolved contributes
// zero. Negative quantities are not rejected here; Selection guards them.
func LineTotal(l LineItem) decimal.Decimal {
	price, ok := l.UnitPrice().Decimal()
	if !ok {
		return decimal.Zero
	}
	return price.Mul(l.QuantityDecimal())
}

// Total sums LineTotal over lines. An empty slice totals 0.
func Total(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l))
	}
	return total
}
