package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/client"
)

type clientResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type entryResponse struct {
	clientResponse
	Outstanding decimal.Decimal `json:"outstanding"`
}

type summaryResponse struct {
	Client           clientResponse  `json:"client"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	PaidTotal        decimal.Decimal `json:"paid_total"`
	TransactionCount int             `json:"transaction_count"`
	OpenCount        int             `json:"open_count"`
	LastPaymentOn    *string         `json:"last_payment_on"`
}

type balanceResponse struct {
	ClientID    uuid.UUID       `json:"client_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

func toResponse(c *client.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toEntryList(entries []*client.Entry) []entryResponse {
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryResponse{clientResponse: toResponse(&e.Client), Outstanding: e.Outstanding}
	}

	return resp
}

func toSummaryResponse(s *client.Summary) summaryResponse {
	resp := summaryResponse{
		Client:           toResponse(s.Client),
		Outstanding:      s.Outstanding,
		PaidTotal:        s.PaidTotal,
		TransactionCount: s.TransactionCount,
		OpenCount:        s.OpenCount,
	}

	if s.LastPaymentOn != nil {
		resp.LastPaymentOn = new(s.LastPaymentOn.Format(time.DateOnly))
	}

	return resp
}
