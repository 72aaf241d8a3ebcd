// Package apperr defines the error kinds every domain package returns:
// user-correctable validation failures, state conflicts, and transient
// concurrency errors.
package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation reasons.
const (
	ReasonNonPositiveValue         = "non_positive_value"
	ReasonMissingOffsetDescription = "missing_offset_description"
	ReasonOverpayment              = "overpayment"
	ReasonMissingCampaign          = "missing_campaign"
	ReasonInvalidDiscount          = "invalid_discount"
	ReasonNegativePrice            = "negative_price"
	ReasonNegativeQuantity         = "negative_quantity"
	ReasonNoLineItems              = "no_line_items"
	ReasonInvalidType              = "invalid_type"
	ReasonInvalidMethod            = "invalid_method"
	ReasonMissingProduct           = "missing_product"
	ReasonMissingName              = "missing_name"
	ReasonDuplicatePhone           = "duplicate_phone"
	ReasonUnknownClient            = "unknown_client"
)

// ValidationError is a user-correctable input problem tied to one field.
type ValidationError struct {
	Field  string
	Reason string
	// Excess is set for overpayments: how far the value exceeds the balance.
	Excess decimal.Decimal
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonOverpayment {
		return fmt.Sprintf("%s: %s (excess %s)", e.Field, e.Reason, e.Excess.StringFixed(2))
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Overpayment builds the ValidationError returned when a payment exceeds the
// outstanding balance.
func Overpayment(excess decimal.Decimal) error {
	return &ValidationError{Field: "value", Reason: ReasonOverpayment, Excess: excess}
}

// IntegrityError rejects an operation that conflicts with stored state, such
// as editing a paid transaction.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return e.Reason
}

// ErrTransient marks a concurrent-modification conflict. The whole unit of
// work may be retried.
var ErrTransient = errors.New("concurrent modification, retry")

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsIntegrity reports whether err is (or wraps) an IntegrityError.
func IsIntegrity(err error) bool {
	var i *IntegrityError
	return errors.As(err, &i)
}
