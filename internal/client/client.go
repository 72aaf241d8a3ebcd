package client

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
)

var (
	ErrNotFound = errors.New("client not found")

	// ErrHasTransactions is returned when deleting a client that still owns
	// transactions.
	ErrHasTransactions error = &apperr.IntegrityError{Reason: "client has transactions and cannot be deleted"}

	// ErrDuplicatePhone is returned when another client already uses the phone.
	ErrDuplicatePhone error = &apperr.ValidationError{Field: "phone", Reason: apperr.ReasonDuplicatePhone}
)

type Client struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Entry is a client as listed, with its outstanding balance.
type Entry struct {
	Client
	Outstanding decimal.Decimal
}

// Summary is the detail view of a client's account.
type Summary struct {
	Client           *Client
	Outstanding      decimal.Decimal
	PaidTotal        decimal.Decimal
	TransactionCount int
	OpenCount        int
	LastPaymentOn    *time.Time
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	var b strings.Builder

	for i, r := range phone {
		if unicode.IsDigit(r) || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
