package transaction

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
)

// typeRules holds the extra requirements of each transaction type.
var typeRules = map[Type]func(campaign string) error{
	TypeNatura: func(campaign string) error {
		if strings.TrimSpace(campaign) == "" {
			return apperr.Invalid("campaign", apperr.ReasonMissingCampaign)
		}

		return nil
	},
	TypeAccessories: noRule,
	TypeOther:       noRule,
}

// methodRules holds the extra requirements of each payment method.
var methodRules = map[PaymentMethod]func(detail string) error{
	MethodOffset: func(detail string) error {
		if strings.TrimSpace(detail) == "" {
			return apperr.Invalid("method_detail", apperr.ReasonMissingOffsetDescription)
		}

		return nil
	},
	MethodCash:     noRule,
	MethodTransfer: noRule,
	MethodOther:    noRule,
}

func noRule(string) error { return nil }

// ValidateType checks the type and its campaign requirement.
func ValidateType(t Type, campaign string) error {
	rule, ok := typeRules[t]
	if !ok {
		return apperr.Invalid("type", apperr.ReasonInvalidType)
	}

	return rule(campaign)
}

// ValidateMethod checks the payment method and its detail requirement.
func ValidateMethod(m PaymentMethod, detail string) error {
	rule, ok := methodRules[m]
	if !ok {
		return apperr.Invalid("method", apperr.ReasonInvalidMethod)
	}

	return rule(detail)
}

// ValidateItems checks a full set of line items. A transaction needs at
// least one.
func ValidateItems(items []LineItemParams) error {
	if len(items) == 0 {
		return apperr.Invalid("items", apperr.ReasonNoLineItems)
	}

	for i, it := range items {
		if err := it.validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}

	return nil
}

func (p LineItemParams) validate() error {
	if strings.TrimSpace(p.Product) == "" {
		return apperr.Invalid("product", apperr.ReasonMissingProduct)
	}

	if p.UnitPrice.IsNegative() {
		return apperr.Invalid("unit_price", apperr.ReasonNegativePrice)
	}

	if p.Quantity.IsNegative() {
		return apperr.Invalid("quantity", apperr.ReasonNegativeQuantity)
	}

	if !p.Discount.Valid() {
		return apperr.Invalid("discount", apperr.ReasonInvalidDiscount)
	}

	return nil
}

// NormalizeProduct puts a product name in sentence case: first letter upper,
// the rest lower.
func NormalizeProduct(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	lower := strings.ToLower(name)
	r, size := utf8.DecodeRuneInString(lower)

	return string(unicode.ToUpper(r)) + lower[size:]
}
