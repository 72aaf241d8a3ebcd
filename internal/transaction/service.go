package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error)

	BeginLedger(ctx context.Context) (LedgerTx, error)
}

// LedgerTx is a unit of work over one transaction row. LockTransaction must
// be called first; it holds a row lock until Commit or Rollback.
type LedgerTx interface {
	LockTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	SaveTransaction(ctx context.Context, tx *Transaction) error
	ReplaceItems(ctx context.Context, txID uuid.UUID, items []LineItem) error
	CreatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, id uuid.UUID) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo   Repository
	policy PaidPolicy
	now    func() time.Time
}

type Option func(*Service)

func WithPaidPolicy(p PaidPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock replaces time.Now as the source of creation and paid timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		policy: PolicyAutoRevert,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type LineItemParams struct {
	Product   string
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	Discount  Discount
}

type CreateParams struct {
	ClientID uuid.UUID
	Type     Type
	Campaign string
	// Date defaults to now when zero.
	Date  time.Time
	Items []LineItemParams
}

type UpdateParams struct {
	Type     *Type
	Campaign *string
	Date     *time.Time
	// Items replaces all line items when non-nil.
	Items []LineItemParams
}

type ListFilter struct {
	ClientID *uuid.UUID
	// ClientIDs restricts the result to any of the given clients.
	ClientIDs []uuid.UUID
	Paid      *bool
	StartDate *time.Time
	// EndBefore is exclusive.
	EndBefore *time.Time
}

// Location is the timezone transactions are dated in.
func (s *Service) Location() *time.Location {
	return s.now().Location()
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	params.Campaign = strings.TrimSpace(params.Campaign)
	params.Items = roundItems(params.Items)

	if err := ValidateType(params.Type, params.Campaign); err != nil {
		return nil, err
	}

	if err := ValidateItems(params.Items); err != nil {
		return nil, err
	}

	ok, err := s.repo.ClientExists(ctx, params.ClientID)
	if err != nil {
		return nil, fmt.Errorf("checking client: %w", err)
	}

	if !ok {
		return nil, apperr.Invalid("client_id", apperr.ReasonUnknownClient)
	}

	now := s.now()

	date := params.Date
	if date.IsZero() {
		date = now
	}

	tx := &Transaction{
		ClientID: params.ClientID,
		Type:     params.Type,
		Campaign: params.Campaign,
		Date:     date,
		Items:    buildItems(params.Items),
	}

	// An all-zero sale is settled from the start.
	Recompute(tx, s.policy, now)

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTransaction(ctx, id)
}

// Update changes details and, when given, replaces the line items of an
// unpaid transaction.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Transaction, error) {
	if params.Items != nil {
		params.Items = roundItems(params.Items)

		if err := ValidateItems(params.Items); err != nil {
			return nil, err
		}
	}

	var result *Transaction

	err := s.withLedger(ctx, id, func(ltx LedgerTx, tx *Transaction) error {
		if !tx.IsEditable() {
			return ErrNotEditable
		}

		if params.Type != nil {
			tx.Type = *params.Type
		}

		if params.Campaign != nil {
			tx.Campaign = strings.TrimSpace(*params.Campaign)
		}

		if params.Date != nil {
			tx.Date = *params.Date
		}

		if err := ValidateType(tx.Type, tx.Campaign); err != nil {
			return err
		}

		if params.Items != nil {
			tx.Items = buildItems(params.Items)
			if err := ltx.ReplaceItems(ctx, tx.ID, tx.Items); err != nil {
				return fmt.Errorf("replacing items: %w", err)
			}
		}

		Recompute(tx, s.policy, s.now())

		if err := ltx.SaveTransaction(ctx, tx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}

		result = tx

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateItems replaces the line items of an unpaid transaction.
func (s *Service) UpdateItems(ctx context.Context, id uuid.UUID, items []LineItemParams) (*Transaction, error) {
	if items == nil {
		items = []LineItemParams{}
	}

	return s.Update(ctx, id, UpdateParams{Items: items})
}

// MarkPaid settles the transaction by hand. Marking an already paid
// transaction is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	var result *Transaction

	err := s.withLedger(ctx, id, func(ltx LedgerTx, tx *Transaction) error {
		result = tx

		if !tx.MarkPaid(s.now()) {
			return nil
		}

		if err := ltx.SaveTransaction(ctx, tx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Recompute re-derives the paid state of a stored transaction from its
// payments.
func (s *Service) Recompute(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	var result *Transaction

	err := s.withLedger(ctx, id, func(ltx LedgerTx, tx *Transaction) error {
		result = tx

		if !Recompute(tx, s.policy, s.now()) {
			return nil
		}

		if err := ltx.SaveTransaction(ctx, tx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// withLedger runs fn against the locked transaction and commits when fn
// succeeds.
func (s *Service) withLedger(ctx context.Context, id uuid.UUID, fn func(LedgerTx, *Transaction) error) error {
	ltx, err := s.repo.BeginLedger(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger: %w", err)
	}
	defer ltx.Rollback()

	tx, err := ltx.LockTransaction(ctx, id)
	if err != nil {
		return err
	}

	if err := fn(ltx, tx); err != nil {
		return err
	}

	if err := ltx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}

	return nil
}

// roundItems brings prices and quantities to the two decimals the store
// keeps, so totals are computed on what is persisted.
func roundItems(params []LineItemParams) []LineItemParams {
	rounded := make([]LineItemParams, len(params))
	for i, p := range params {
		p.UnitPrice = money.Round2(p.UnitPrice)
		p.Quantity = money.Round2(p.Quantity)
		rounded[i] = p
	}

	return rounded
}

func buildItems(params []LineItemParams) []LineItem {
	items := make([]LineItem, len(params))
	for i, p := range params {
		items[i] = LineItem{
			Product:   NormalizeProduct(p.Product),
			UnitPrice: p.UnitPrice,
			Quantity:  p.Quantity,
			Discount:  p.Discount,
		}
	}

	return items
}
