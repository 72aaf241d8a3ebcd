package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=client
type Repository interface {
	CreateClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
	GetClientByPhone(ctx context.Context, phone string) (*Client, error)
	UpdateClient(ctx context.Context, c *Client) error
	DeleteClient(ctx context.Context, id uuid.UUID) error
	ListClients(ctx context.Context, filter ListFilter) ([]*Client, error)
	CountTransactions(ctx context.Context, id uuid.UUID) (int, error)
}

// TransactionLister reads the transactions balances are derived from.
type TransactionLister interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Service struct {
	repo   Repository
	ledger TransactionLister
}

func NewService(repo Repository, ledger TransactionLister) *Service {
	return &Service{repo: repo, ledger: ledger}
}

type CreateParams struct {
	Name  string
	Phone string
	Email string
}

type UpdateParams struct {
	Name   *string
	Phone  *string
	Email  *string
	Active *bool
}

type ListFilter struct {
	// Query matches name, phone or email, case-insensitively.
	Query      string
	ActiveOnly bool
	Limit      int
	Offset     int
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Client, error) {
	c := &Client{
		Name:   strings.TrimSpace(params.Name),
		Phone:  NormalizePhone(params.Phone),
		Email:  normalizeEmail(params.Email),
		Active: true,
	}

	if c.Name == "" {
		return nil, apperr.Invalid("name", apperr.ReasonMissingName)
	}

	if err := s.repo.CreateClient(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.repo.GetClient(ctx, id)
}

// FindByPhone returns the client using phone, or ErrNotFound.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*Client, error) {
	phone = NormalizePhone(phone)
	if phone == "" {
		return nil, ErrNotFound
	}

	return s.repo.GetClientByPhone(ctx, phone)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Client, error) {
	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, apperr.Invalid("name", apperr.ReasonMissingName)
		}

		c.Name = name
	}

	if params.Phone != nil {
		c.Phone = NormalizePhone(*params.Phone)
	}

	if params.Email != nil {
		c.Email = normalizeEmail(*params.Email)
	}

	if params.Active != nil {
		c.Active = *params.Active
	}

	if err := s.repo.UpdateClient(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Delete removes a client with no transactions.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.CountTransactions(ctx, id)
	if err != nil {
		return fmt.Errorf("counting transactions: %w", err)
	}

	if n > 0 {
		return ErrHasTransactions
	}

	return s.repo.DeleteClient(ctx, id)
}

// List returns the matching clients, each with its outstanding balance.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Entry, error) {
	clients, err := s.repo.ListClients(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(clients) == 0 {
		return []*Entry{}, nil
	}

	ids := make([]uuid.UUID, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}

	unpaid := false

	txs, err := s.ledger.List(ctx, transaction.ListFilter{ClientIDs: ids, Paid: &unpaid})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	owed := make(map[uuid.UUID]decimal.Decimal, len(clients))
	for _, tx := range txs {
		owed[tx.ClientID] = owed[tx.ClientID].Add(tx.Balance())
	}

	entries := make([]*Entry, len(clients))
	for i, c := range clients {
		entries[i] = &Entry{Client: *c, Outstanding: owed[c.ID]}
	}

	return entries, nil
}

// OutstandingBalance is what the client still owes across all transactions,
// derived from current line items and payments.
func (s *Service) OutstandingBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.repo.GetClient(ctx, id); err != nil {
		return decimal.Zero, err
	}

	unpaid := false

	txs, err := s.ledger.List(ctx, transaction.ListFilter{ClientID: &id, Paid: &unpaid})
	if err != nil {
		return decimal.Zero, fmt.Errorf("listing transactions: %w", err)
	}

	return outstanding(txs), nil
}

func (s *Service) Summary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	txs, err := s.ledger.List(ctx, transaction.ListFilter{ClientID: &id})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	sum := &Summary{
		Client:           c,
		Outstanding:      outstanding(txs),
		TransactionCount: len(txs),
	}

	for _, tx := range txs {
		if tx.Paid {
			sum.PaidTotal = sum.PaidTotal.Add(tx.TotalLines())
		} else {
			sum.OpenCount++
		}

		for _, p := range tx.Payments {
			if sum.LastPaymentOn == nil || p.PaidOn.After(*sum.LastPaymentOn) {
				sum.LastPaymentOn = &p.PaidOn
			}
		}
	}

	return sum, nil
}

func outstanding(txs []*transaction.Transaction) decimal.Decimal {
	total := decimal.Zero

	for _, tx := range txs {
		if b := tx.Balance(); b.IsPositive() {
			total = total.Add(b)
		}
	}

	return total
}
