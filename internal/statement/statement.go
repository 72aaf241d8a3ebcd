// Package statement builds a client's statement of account and renders it
// as PDF, Excel or plain text.
package statement

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/client"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

// Row is one transaction line of a statement.
type Row struct {
	TransactionID uuid.UUID
	Date          time.Time
	Type          transaction.Type
	Campaign      string
	Products      string
	Total         decimal.Decimal
	Discount      decimal.Decimal
	Payments      decimal.Decimal
	Balance       decimal.Decimal
	Paid          bool
	LastPaymentOn *time.Time
}

type Totals struct {
	Total       decimal.Decimal
	Discount    decimal.Decimal
	Payments    decimal.Decimal
	Outstanding decimal.Decimal
}

type Statement struct {
	Company     string
	Client      *client.Client
	Rows        []Row
	Totals      Totals
	GeneratedAt time.Time
}

// Period limits the transactions included by date to [Start, Before). Nil
// bounds are open.
type Period struct {
	Start  *time.Time
	Before *time.Time
}

type ClientGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

type TransactionLister interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

// Service handles the export of client statements.
type Service struct {
	clients      ClientGetter
	transactions TransactionLister
	company      string
	now          func() time.Time
}

func NewService(clients ClientGetter, transactions TransactionLister, company string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		clients:      clients,
		transactions: transactions,
		company:      company,
		now:          now,
	}
}

// Build collects the client's transactions in the period, oldest first.
func (s *Service) Build(ctx context.Context, clientID uuid.UUID, period Period) (*Statement, error) {
	c, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	txs, err := s.transactions.List(ctx, transaction.ListFilter{
		ClientID:  &clientID,
		StartDate: period.Start,
		EndBefore: period.Before,
	})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })

	st := &Statement{
		Company:     s.company,
		Client:      c,
		Rows:        make([]Row, 0, len(txs)),
		GeneratedAt: s.now(),
	}

	for _, tx := range txs {
		l := tx.Ledger()

		row := Row{
			TransactionID: tx.ID,
			Date:          tx.Date,
			Type:          tx.Type,
			Campaign:      tx.Campaign,
			Products:      productList(tx.Items),
			Total:         l.TotalLines,
			Discount:      l.TotalDiscount,
			Payments:      l.TotalPayments,
			Balance:       l.Balance,
			Paid:          tx.Paid,
		}

		for _, p := range tx.Payments {
			if row.LastPaymentOn == nil || p.PaidOn.After(*row.LastPaymentOn) {
				row.LastPaymentOn = &p.PaidOn
			}
		}

		st.Rows = append(st.Rows, row)

		st.Totals.Total = st.Totals.Total.Add(row.Total)
		st.Totals.Discount = st.Totals.Discount.Add(row.Discount)
		st.Totals.Payments = st.Totals.Payments.Add(row.Payments)
		st.Totals.Outstanding = st.Totals.Outstanding.Add(row.Balance)
	}

	return st, nil
}

// Export builds the statement and writes it to w in the given format. The
// built statement is returned so callers can name the output.
func (s *Service) Export(ctx context.Context, clientID uuid.UUID, period Period, format Format, w io.Writer) (*Statement, error) {
	r, err := RendererFor(format)
	if err != nil {
		return nil, err
	}

	st, err := s.Build(ctx, clientID, period)
	if err != nil {
		return nil, err
	}

	if err := r.Render(st, w); err != nil {
		return nil, fmt.Errorf("rendering statement: %w", err)
	}

	return st, nil
}

// Location is the timezone statement periods are read in.
func (s *Service) Location() *time.Location {
	return s.now().Location()
}

// Filename suggests a file name for the rendered statement.
func Filename(st *Statement, format Format) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, st.Client.Name)

	return fmt.Sprintf("estado_%s_%s.%s", safe, st.GeneratedAt.Format("20060102"), format)
}

func productList(items []transaction.LineItem) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Product)
	}

	return strings.Join(names, ", ")
}

func typeLabel(t transaction.Type, campaign string) string {
	if campaign != "" {
		return string(t) + " " + campaign
	}

	return string(t)
}
