package transaction

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/money"
)

// Discount is a per-line percentage. Only the fixed tiers are allowed; zero
// means no discount.
type Discount int

const (
	DiscountNone Discount = 0
	Discount10   Discount = 10
	Discount20   Discount = 20
	Discount30   Discount = 30
)

// Valid reports whether d is one of the allowed tiers.
func (d Discount) Valid() bool {
	switch d {
	case DiscountNone, Discount10, Discount20, Discount30:
		return true
	}

	return false
}

// LineTotal is price*qty with the discount applied, floored at zero.
// Inputs are assumed validated.
func LineTotal(price, qty decimal.Decimal, d Discount) decimal.Decimal {
	base := price.Mul(qty)
	factor := decimal.NewFromInt(1).Sub(money.Percent(int(d)))

	return money.NonNegative(base.Mul(factor))
}

// Subtotal is the line's undiscounted amount.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(li.Quantity)
}

// Total is the line's payable amount.
func (li LineItem) Total() decimal.Decimal {
	return LineTotal(li.UnitPrice, li.Quantity, li.Discount)
}
