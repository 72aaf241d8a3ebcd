// Package money holds the decimal helpers shared by pricing, the ledger and
// statements. Amounts are shopspring decimals; nothing here uses float64.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance used when comparing payment totals against a
// payable total.
var Epsilon = decimal.New(1, -6)

var hundred = decimal.NewFromInt(100)

// NonNegative floors d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}

	return d
}

// Percent returns pct/100 as a decimal factor.
func Percent(pct int) decimal.Decimal {
	return decimal.NewFromInt(int64(pct)).Div(hundred)
}

// Round2 rounds half away from zero to two decimal places, which is what the
// database columns store.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// GreaterThan reports whether a exceeds b by more than Epsilon.
func GreaterThan(a, b decimal.Decimal) bool {
	return a.Sub(b).GreaterThan(Epsilon)
}

// Covers reports whether paid+Epsilon reaches total.
func Covers(paid, total decimal.Decimal) bool {
	return paid.Add(Epsilon).GreaterThanOrEqual(total)
}

// Parse reads an amount in either plain ("1234.50") or Colombian
// ("1.234,50", "$ 90.000") notation.
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, " ", "")

	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	switch {
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case strings.Count(clean, ".") > 1, isThousandsGrouped(clean):
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	return d, nil
}

// isThousandsGrouped matches a single dot followed by exactly three digits,
// e.g. "90.000", which in COP notation is ninety thousand.
func isThousandsGrouped(s string) bool {
	i := strings.IndexByte(s, '.')
	if i <= 0 {
		return false
	}

	return len(s)-i-1 == 3
}

// FormatCOP renders an amount as Colombian pesos without cents: "$1.234.567".
func FormatCOP(d decimal.Decimal) string {
	rounded := d.Round(0)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	digits := rounded.StringFixed(0)

	var sb strings.Builder

	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte('.')
		}

		sb.WriteRune(r)
	}

	return sign + "$" + sb.String()
}

// Format renders an amount with two decimals, as used in CSV-ish exports.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
