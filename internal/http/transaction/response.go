package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/payment"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

type transactionResponse struct {
	ID            uuid.UUID              `json:"id"`
	ClientID      uuid.UUID              `json:"client_id"`
	Type          transaction.Type       `json:"type"`
	Campaign      string                 `json:"campaign,omitempty"`
	Date          string                 `json:"date"`
	Items         []itemResponse         `json:"items"`
	Payments      []PaymentResponse      `json:"payments"`
	SubtotalItems decimal.Decimal        `json:"subtotal_items"`
	TotalLines    decimal.Decimal        `json:"total_lines"`
	TotalDiscount decimal.Decimal        `json:"total_discount"`
	TotalPayments decimal.Decimal        `json:"total_payments"`
	Balance       decimal.Decimal        `json:"balance"`
	Paid          bool                   `json:"paid"`
	PaidAt        *time.Time             `json:"paid_at"`
	SettledBy     transaction.Settlement `json:"settled_by,omitempty"`
	Editable      bool                   `json:"editable"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     *time.Time             `json:"updated_at,omitempty"`
}

type itemResponse struct {
	ID        uuid.UUID            `json:"id"`
	Product   string               `json:"product"`
	UnitPrice decimal.Decimal      `json:"unit_price"`
	Quantity  decimal.Decimal      `json:"quantity"`
	Discount  transaction.Discount `json:"discount"`
	Subtotal  decimal.Decimal      `json:"subtotal"`
	Total     decimal.Decimal      `json:"total"`
}

// PaymentResponse is shared with the payments handler.
type PaymentResponse struct {
	ID           uuid.UUID                 `json:"id"`
	Value        decimal.Decimal           `json:"value"`
	Method       transaction.PaymentMethod `json:"method"`
	MethodDetail string                    `json:"method_detail,omitempty"`
	Note         string                    `json:"note,omitempty"`
	PaidOn       string                    `json:"paid_on"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// PaymentResultResponse describes a payment mutation and its effect on the
// transaction.
type PaymentResultResponse struct {
	Payment     *PaymentResponse    `json:"payment,omitempty"`
	Transaction transactionResponse `json:"transaction"`
	PaidChanged bool                `json:"paid_changed"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	l := tx.Ledger()

	resp := transactionResponse{
		ID:            tx.ID,
		ClientID:      tx.ClientID,
		Type:          tx.Type,
		Campaign:      tx.Campaign,
		Date:          tx.Date.Format(time.DateOnly),
		Items:         make([]itemResponse, len(tx.Items)),
		Payments:      make([]PaymentResponse, len(tx.Payments)),
		SubtotalItems: l.SubtotalItems,
		TotalLines:    l.TotalLines,
		TotalDiscount: l.TotalDiscount,
		TotalPayments: l.TotalPayments,
		Balance:       l.Balance,
		Paid:          tx.Paid,
		PaidAt:        tx.PaidAt,
		SettledBy:     tx.SettledBy,
		Editable:      tx.IsEditable(),
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}

	for i, it := range tx.Items {
		resp.Items[i] = itemResponse{
			ID:        it.ID,
			Product:   it.Product,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Discount:  it.Discount,
			Subtotal:  it.Subtotal(),
			Total:     it.Total(),
		}
	}

	for i := range tx.Payments {
		resp.Payments[i] = toPaymentResponse(&tx.Payments[i])
	}

	return resp
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}

func toPaymentResponse(p *transaction.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		Value:        p.Value,
		Method:       p.Method,
		MethodDetail: p.MethodDetail,
		Note:         p.Note,
		PaidOn:       p.PaidOn.Format(time.DateOnly),
		CreatedAt:    p.CreatedAt,
	}
}

// ToPaymentResult converts a payment service result.
func ToPaymentResult(res *payment.Result) PaymentResultResponse {
	resp := PaymentResultResponse{
		Transaction: toResponse(res.Transaction),
		PaidChanged: res.PaidChanged,
	}

	if res.Payment != nil {
		p := toPaymentResponse(res.Payment)
		resp.Payment = &p
	}

	return resp
}
