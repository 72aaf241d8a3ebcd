package transaction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/money"
)

// PaidPolicy decides what happens to a payment-settled transaction when its
// payments drop below the payable total.
type PaidPolicy string

const (
	// PolicyAutoRevert flips the transaction back to unpaid.
	PolicyAutoRevert PaidPolicy = "auto_revert"
	// PolicySticky keeps it paid.
	PolicySticky PaidPolicy = "sticky"
)

func ParsePaidPolicy(s string) (PaidPolicy, error) {
	switch p := PaidPolicy(s); p {
	case PolicyAutoRevert, PolicySticky:
		return p, nil
	case "":
		return PolicyAutoRevert, nil
	}

	return "", fmt.Errorf("unknown paid policy %q", s)
}

// Ledger is the monetary state of a transaction derived from its current
// line items and payments.
type Ledger struct {
	SubtotalItems decimal.Decimal
	TotalLines    decimal.Decimal
	TotalDiscount decimal.Decimal
	TotalPayments decimal.Decimal
	Balance       decimal.Decimal
}

// Ledger computes the transaction's totals. Nothing is cached.
func (t *Transaction) Ledger() Ledger {
	var l Ledger

	for _, it := range t.Items {
		l.SubtotalItems = l.SubtotalItems.Add(it.Subtotal())
		l.TotalLines = l.TotalLines.Add(it.Total())
	}

	l.TotalDiscount = money.NonNegative(l.SubtotalItems.Sub(l.TotalLines))
	l.TotalPayments = t.TotalPayments()

	if t.Paid {
		l.Balance = decimal.Zero
	} else {
		l.Balance = money.NonNegative(l.TotalLines.Sub(l.TotalPayments))
	}

	return l
}

func (t *Transaction) TotalLines() decimal.Decimal {
	total := decimal.Zero
	for _, it := range t.Items {
		total = total.Add(it.Total())
	}

	return total
}

func (t *Transaction) TotalPayments() decimal.Decimal {
	total := decimal.Zero
	for _, p := range t.Payments {
		total = total.Add(p.Value)
	}

	return total
}

// Balance is the outstanding amount: zero once paid.
func (t *Transaction) Balance() decimal.Decimal {
	if t.Paid {
		return decimal.Zero
	}

	return money.NonNegative(t.TotalLines().Sub(t.TotalPayments()))
}

// IsEditable reports whether line items and details may still change.
func (t *Transaction) IsEditable() bool {
	return !t.Paid
}

// MarkPaid settles the transaction by hand. It returns false when the
// transaction was already paid; the original paid timestamp is kept.
func (t *Transaction) MarkPaid(now time.Time) bool {
	if t.Paid {
		return false
	}

	t.Paid = true
	t.SettledBy = SettledManual

	if t.PaidAt == nil {
		t.PaidAt = &now
	}

	return true
}

// Recompute derives the paid flag from the current payments and reports
// whether it changed. Calling it twice without a mutation in between is a
// no-op the second time.
//
// Manual settlements are never reverted; payment settlements revert only
// under PolicyAutoRevert.
func Recompute(t *Transaction, policy PaidPolicy, now time.Time) bool {
	covered := money.Covers(t.TotalPayments(), t.TotalLines())

	switch {
	case !t.Paid && covered:
		t.Paid = true
		t.SettledBy = SettledByPayments
		t.PaidAt = &now

		return true

	case t.Paid && !covered && t.SettledBy == SettledByPayments && policy == PolicyAutoRevert:
		t.Paid = false
		t.SettledBy = SettledNone
		t.PaidAt = nil

		return true
	}

	return false
}
