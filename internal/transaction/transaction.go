package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
)

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrNotEditable is returned when line items or details of a paid
	// transaction are changed.
	ErrNotEditable error = &apperr.IntegrityError{Reason: "transaction is paid and can no longer be edited"}
)

// Type groups transactions for reporting.
type Type string

const (
	TypeNatura      Type = "NAT"
	TypeAccessories Type = "ACC"
	TypeOther       Type = "OTR"
)

// Settlement records what flipped a transaction to paid.
type Settlement string

const (
	SettledNone       Settlement = ""
	SettledManual     Settlement = "manual"
	SettledByPayments Settlement = "payments"
)

// PaymentMethod is how an abono was paid.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "EFE"
	MethodTransfer PaymentMethod = "TRF"
	// MethodOffset settles debt without cash changing hands (netting against
	// something the business owes the client). Requires a description.
	MethodOffset PaymentMethod = "CRU"
	MethodOther  PaymentMethod = "OTR"
)

// Transaction is a sale owed by a client.
type Transaction struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	Type      Type
	Campaign  string
	Date      time.Time
	Paid      bool
	PaidAt    *time.Time
	SettledBy Settlement
	Items     []LineItem
	Payments  []Payment
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// LineItem is one product entry within a transaction.
type LineItem struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	Product       string
	UnitPrice     decimal.Decimal
	Quantity      decimal.Decimal
	Discount      Discount
}

// Payment is an abono applied against a transaction's balance.
type Payment struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	Value         decimal.Decimal
	Method        PaymentMethod
	MethodDetail  string
	Note          string
	PaidOn        time.Time
	CreatedAt     time.Time
}
