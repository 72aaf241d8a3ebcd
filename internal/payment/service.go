// Package payment records and removes abonos against a transaction, keeping
// its paid state consistent with the payments on file.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/money"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*transaction.Payment, error)
	BeginLedger(ctx context.Context) (transaction.LedgerTx, error)
}

type Service struct {
	repo   Repository
	policy transaction.PaidPolicy
	now    func() time.Time
}

type Option func(*Service)

func WithPaidPolicy(p transaction.PaidPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		policy: transaction.PolicyAutoRevert,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type RecordParams struct {
	TransactionID uuid.UUID
	Value         decimal.Decimal
	Method        transaction.PaymentMethod
	MethodDetail  string
	Note          string
	// PaidOn defaults to now when zero.
	PaidOn time.Time
}

// Result is the outcome of a payment mutation: the affected payment and the
// transaction as it stands after recomputation.
type Result struct {
	Payment     *transaction.Payment
	Transaction *transaction.Transaction
	// PaidChanged is set when the mutation flipped the paid flag.
	PaidChanged bool
}

// Record validates and stores a payment, then recomputes the transaction's
// paid state in the same unit of work.
func (s *Service) Record(ctx context.Context, params RecordParams) (*Result, error) {
	// Values are stored to the cent; checks run on the stored amount.
	params.Value = money.Round2(params.Value)

	if !params.Value.IsPositive() {
		return nil, apperr.Invalid("value", apperr.ReasonNonPositiveValue)
	}

	params.MethodDetail = strings.TrimSpace(params.MethodDetail)

	if err := transaction.ValidateMethod(params.Method, params.MethodDetail); err != nil {
		return nil, err
	}

	var result *Result

	err := s.retry(ctx, func() error {
		var err error
		result, err = s.record(ctx, params)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) record(ctx context.Context, params RecordParams) (*Result, error) {
	ltx, err := s.repo.BeginLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger: %w", err)
	}
	defer ltx.Rollback()

	tx, err := ltx.LockTransaction(ctx, params.TransactionID)
	if err != nil {
		return nil, err
	}

	balance := tx.Balance()
	if money.GreaterThan(params.Value, balance) {
		return nil, apperr.Overpayment(params.Value.Sub(balance))
	}

	now := s.now()

	paidOn := params.PaidOn
	if paidOn.IsZero() {
		paidOn = now
	}

	p := &transaction.Payment{
		TransactionID: tx.ID,
		Value:         params.Value,
		Method:        params.Method,
		MethodDetail:  params.MethodDetail,
		Note:          strings.TrimSpace(params.Note),
		PaidOn:        paidOn,
	}

	if err := ltx.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	tx.Payments = append(tx.Payments, *p)

	changed, err := s.settle(ctx, ltx, tx, now)
	if err != nil {
		return nil, err
	}

	if err := ltx.Commit(); err != nil {
		return nil, err
	}

	return &Result{Payment: p, Transaction: tx, PaidChanged: changed}, nil
}

// Delete removes a payment and recomputes the transaction's paid state.
func (s *Service) Delete(ctx context.Context, paymentID uuid.UUID) (*Result, error) {
	var result *Result

	err := s.retry(ctx, func() error {
		var err error
		result, err = s.delete(ctx, paymentID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) delete(ctx context.Context, paymentID uuid.UUID) (*Result, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	ltx, err := s.repo.BeginLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger: %w", err)
	}
	defer ltx.Rollback()

	tx, err := ltx.LockTransaction(ctx, p.TransactionID)
	if err != nil {
		return nil, err
	}

	if err := ltx.DeletePayment(ctx, paymentID); err != nil {
		return nil, err
	}

	tx.Payments = withoutPayment(tx.Payments, paymentID)

	changed, err := s.settle(ctx, ltx, tx, s.now())
	if err != nil {
		return nil, err
	}

	if err := ltx.Commit(); err != nil {
		return nil, err
	}

	return &Result{Payment: p, Transaction: tx, PaidChanged: changed}, nil
}

func (s *Service) settle(ctx context.Context, ltx transaction.LedgerTx, tx *transaction.Transaction, now time.Time) (bool, error) {
	if !transaction.Recompute(tx, s.policy, now) {
		return false, nil
	}

	if err := ltx.SaveTransaction(ctx, tx); err != nil {
		return false, err
	}

	return true, nil
}

// retry runs fn and runs it once more when it fails with a transient
// conflict.
func (s *Service) retry(ctx context.Context, fn func() error) error {
	err := fn()
	if !errors.Is(err, apperr.ErrTransient) {
		return err
	}

	slog.WarnContext(ctx, "retrying payment after conflict", "error", err)

	return fn()
}

func withoutPayment(payments []transaction.Payment, id uuid.UUID) []transaction.Payment {
	out := payments[:0:0]
	for _, p := range payments {
		if p.ID != id {
			out = append(out, p)
		}
	}

	return out
}
