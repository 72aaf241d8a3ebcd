package transaction_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

func requireReason(t *testing.T, err error, field, reason string) {
	t.Helper()

	var v *apperr.ValidationError
	require.True(t, errors.As(err, &v), "expected validation error, got %v", err)
	assert.Equal(t, field, v.Field)
	assert.Equal(t, reason, v.Reason)
}

func TestValidateType(t *testing.T) {
	require.NoError(t, transaction.ValidateType(transaction.TypeNatura, "C05"))
	require.NoError(t, transaction.ValidateType(transaction.TypeAccessories, ""))
	require.NoError(t, transaction.ValidateType(transaction.TypeOther, ""))

	requireReason(t, transaction.ValidateType(transaction.TypeNatura, "  "), "campaign", apperr.ReasonMissingCampaign)
	requireReason(t, transaction.ValidateType("XYZ", ""), "type", apperr.ReasonInvalidType)
}

func TestValidateMethod(t *testing.T) {
	requireReason(t, transaction.ValidateMethod(transaction.MethodOffset, ""), "method_detail", apperr.ReasonMissingOffsetDescription)
	require.NoError(t, transaction.ValidateMethod(transaction.MethodOffset, "Cruce con pedido 12"))
	require.NoError(t, transaction.ValidateMethod(transaction.MethodCash, ""))
	require.NoError(t, transaction.ValidateMethod(transaction.MethodTransfer, ""))
	requireReason(t, transaction.ValidateMethod("BTC", ""), "method", apperr.ReasonInvalidMethod)
}

func TestValidateItems(t *testing.T) {
	valid := transaction.LineItemParams{Product: "kaiak", UnitPrice: dec("1000"), Quantity: dec("1")}

	type testCase struct {
		name   string
		items  []transaction.LineItemParams
		field  string
		reason string
	}

	tests := []testCase{
		{name: "Empty", items: nil, field: "items", reason: apperr.ReasonNoLineItems},
		{
			name:   "MissingProduct",
			items:  []transaction.LineItemParams{{Product: " ", UnitPrice: dec("1"), Quantity: dec("1")}},
			field:  "product",
			reason: apperr.ReasonMissingProduct,
		},
		{
			name:   "NegativePrice",
			items:  []transaction.LineItemParams{valid, {Product: "x", UnitPrice: dec("-1"), Quantity: dec("1")}},
			field:  "unit_price",
			reason: apperr.ReasonNegativePrice,
		},
		{
			name:   "NegativeQuantity",
			items:  []transaction.LineItemParams{{Product: "x", UnitPrice: dec("1"), Quantity: dec("-2")}},
			field:  "quantity",
			reason: apperr.ReasonNegativeQuantity,
		},
		{
			name:   "InvalidDiscount",
			items:  []transaction.LineItemParams{{Product: "x", UnitPrice: dec("1"), Quantity: dec("1"), Discount: 15}},
			field:  "discount",
			reason: apperr.ReasonInvalidDiscount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireReason(t, transaction.ValidateItems(tt.items), tt.field, tt.reason)
		})
	}

	require.NoError(t, transaction.ValidateItems([]transaction.LineItemParams{valid}))
}

func TestNormalizeProduct(t *testing.T) {
	assert.Equal(t, "Kaiak aventura", transaction.NormalizeProduct("  KAIAK AVENTURA "))
	assert.Equal(t, "Ésika perfume", transaction.NormalizeProduct("éSIKA PERFUME"))
	assert.Equal(t, "", transaction.NormalizeProduct("   "))
}
