package payment_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/payment"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sale builds an unpaid transaction whose single line totals 90000.
func sale(id uuid.UUID, payments ...string) *transaction.Transaction {
	tx := &transaction.Transaction{
		ID:   id,
		Type: transaction.TypeAccessories,
		Items: []transaction.LineItem{
			{Product: "Kaiak", UnitPrice: dec("50000"), Quantity: dec("2"), Discount: transaction.Discount10},
		},
	}

	for _, v := range payments {
		tx.Payments = append(tx.Payments, transaction.Payment{ID: uuid.New(), TransactionID: id, Value: dec(v), Method: transaction.MethodCash})
	}

	return tx
}

// expectLedger wires one unit of work returning stored from LockTransaction.
func expectLedger(ctrl *gomock.Controller, repo *payment.MockRepository, id uuid.UUID, stored *transaction.Transaction) *transaction.MockLedgerTx {
	ltx := transaction.NewMockLedgerTx(ctrl)

	repo.EXPECT().BeginLedger(gomock.Any()).Return(ltx, nil)
	ltx.EXPECT().LockTransaction(gomock.Any(), id).Return(stored, nil)
	ltx.EXPECT().Rollback().Return(nil)

	return ltx
}

func assignID(_ context.Context, p *transaction.Payment) error {
	p.ID = uuid.New()
	p.CreatedAt = fixedNow

	return nil
}

func requireReason(t *testing.T, err error, reason string) *apperr.ValidationError {
	t.Helper()

	var v *apperr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, reason, v.Reason)

	return v
}

func TestService_Record(t *testing.T) {
	id := uuid.New()

	type args struct {
		params payment.RecordParams
	}

	type testCase struct {
		name        string
		args        args
		stored      *transaction.Transaction
		setupTx     func(ltx *transaction.MockLedgerTx)
		wantReason  string
		wantExcess  string
		wantPaid    bool
		wantBalance string
	}

	tests := []testCase{
		{
			name:       "NonPositiveValue",
			args:       args{params: payment.RecordParams{TransactionID: id, Value: dec("0"), Method: transaction.MethodCash}},
			wantReason: apperr.ReasonNonPositiveValue,
		},
		{
			name:       "NegativeValue",
			args:       args{params: payment.RecordParams{TransactionID: id, Value: dec("-100"), Method: transaction.MethodCash}},
			wantReason: apperr.ReasonNonPositiveValue,
		},
		{
			name:       "SubCentValue",
			args:       args{params: payment.RecordParams{TransactionID: id, Value: dec("0.004"), Method: transaction.MethodCash}},
			wantReason: apperr.ReasonNonPositiveValue,
		},
		{
			name:       "OffsetWithoutDescription",
			args:       args{params: payment.RecordParams{TransactionID: id, Value: dec("1000"), Method: transaction.MethodOffset, MethodDetail: "  "}},
			wantReason: apperr.ReasonMissingOffsetDescription,
		},
		{
			name:       "Overpayment",
			args:       args{params: payment.RecordParams{TransactionID: id, Value: dec("90001"), Method: transaction.MethodCash}},
			stored:     sale(id),
			wantReason: apperr.ReasonOverpayment,
			wantExcess: "1",
		},
		{
			name:       "OverpaymentAfterPartial",
			args:       args{params: payment.RecordParams{TransactionID: id, Value: dec("60000"), Method: transaction.MethodCash}},
			stored:     sale(id, "40000"),
			wantReason: apperr.ReasonOverpayment,
			wantExcess: "10000",
		},
		{
			name:   "Partial",
			args:   args{params: payment.RecordParams{TransactionID: id, Value: dec("40000"), Method: transaction.MethodCash}},
			stored: sale(id),
			setupTx: func(ltx *transaction.MockLedgerTx) {
				ltx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(assignID)
				ltx.EXPECT().Commit().Return(nil)
			},
			wantPaid:    false,
			wantBalance: "50000",
		},
		{
			name:   "SettlesBalance",
			args:   args{params: payment.RecordParams{TransactionID: id, Value: dec("50000"), Method: transaction.MethodTransfer}},
			stored: sale(id, "40000"),
			setupTx: func(ltx *transaction.MockLedgerTx) {
				ltx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(assignID)
				ltx.EXPECT().SaveTransaction(gomock.Any(), gomock.Any()).Return(nil)
				ltx.EXPECT().Commit().Return(nil)
			},
			wantPaid:    true,
			wantBalance: "0",
		},
		{
			name:   "RoundsToCentBeforeSettling",
			args:   args{params: payment.RecordParams{TransactionID: id, Value: dec("89999.995"), Method: transaction.MethodCash}},
			stored: sale(id),
			setupTx: func(ltx *transaction.MockLedgerTx) {
				ltx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, p *transaction.Payment) error {
						assert.Equal(t, "90000.00", p.Value.StringFixed(2))

						return assignID(ctx, p)
					},
				)
				ltx.EXPECT().SaveTransaction(gomock.Any(), gomock.Any()).Return(nil)
				ltx.EXPECT().Commit().Return(nil)
			},
			wantPaid:    true,
			wantBalance: "0",
		},
		{
			name:   "OffsetWithDescription",
			args:   args{params: payment.RecordParams{TransactionID: id, Value: dec("90000"), Method: transaction.MethodOffset, MethodDetail: "Cruce pedido 12"}},
			stored: sale(id),
			setupTx: func(ltx *transaction.MockLedgerTx) {
				ltx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(assignID)
				ltx.EXPECT().SaveTransaction(gomock.Any(), gomock.Any()).Return(nil)
				ltx.EXPECT().Commit().Return(nil)
			},
			wantPaid:    true,
			wantBalance: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := payment.NewMockRepository(ctrl)
			if tt.stored != nil {
				ltx := expectLedger(ctrl, repo, id, tt.stored)
				if tt.setupTx != nil {
					tt.setupTx(ltx)
				}
			}

			svc := payment.NewService(repo, payment.WithClock(clock))
			got, err := svc.Record(context.Background(), tt.args.params)

			if tt.wantReason != "" {
				assert.Nil(t, got)

				v := requireReason(t, err, tt.wantReason)
				if tt.wantExcess != "" {
					assert.True(t, dec(tt.wantExcess).Equal(v.Excess), "excess %s", v.Excess)
				}

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.Payment.ID)
			assert.Equal(t, fixedNow, got.Payment.PaidOn)
			assert.Equal(t, tt.wantPaid, got.Transaction.Paid)
			assert.Equal(t, tt.wantPaid, got.PaidChanged)
			assert.True(t, dec(tt.wantBalance).Equal(got.Transaction.Balance()), "balance %s", got.Transaction.Balance())
		})
	}
}

func TestService_RecordExactTotal(t *testing.T) {
	id := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stored := &transaction.Transaction{
		ID:    id,
		Type:  transaction.TypeOther,
		Items: []transaction.LineItem{{Product: "Set", UnitPrice: dec("100000"), Quantity: dec("1")}},
	}

	repo := payment.NewMockRepository(ctrl)
	ltx := expectLedger(ctrl, repo, id, stored)
	ltx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(assignID)
	ltx.EXPECT().SaveTransaction(gomock.Any(), stored).Return(nil)
	ltx.EXPECT().Commit().Return(nil)

	svc := payment.NewService(repo, payment.WithClock(clock))
	got, err := svc.Record(context.Background(), payment.RecordParams{TransactionID: id, Value: dec("100000"), Method: transaction.MethodCash})

	require.NoError(t, err)
	assert.True(t, got.Transaction.Paid)
	assert.Equal(t, transaction.SettledByPayments, got.Transaction.SettledBy)
}

func TestService_RecordRetriesTransientOnce(t *testing.T) {
	id := uuid.New()
	conflict := fmt.Errorf("creating payment: %w", apperr.ErrTransient)

	t.Run("SucceedsOnRetry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := payment.NewMockRepository(ctrl)

		first := expectLedger(ctrl, repo, id, sale(id))
		first.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(conflict)

		second := expectLedger(ctrl, repo, id, sale(id))
		second.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(assignID)
		second.EXPECT().Commit().Return(nil)

		svc := payment.NewService(repo, payment.WithClock(clock))
		got, err := svc.Record(context.Background(), payment.RecordParams{TransactionID: id, Value: dec("1000"), Method: transaction.MethodCash})

		require.NoError(t, err)
		assert.Len(t, got.Transaction.Payments, 1)
	})

	t.Run("GivesUpAfterSecondConflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := payment.NewMockRepository(ctrl)

		for range 2 {
			ltx := expectLedger(ctrl, repo, id, sale(id))
			ltx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(conflict)
		}

		svc := payment.NewService(repo, payment.WithClock(clock))
		_, err := svc.Record(context.Background(), payment.RecordParams{TransactionID: id, Value: dec("1000"), Method: transaction.MethodCash})

		assert.ErrorIs(t, err, apperr.ErrTransient)
	})

	t.Run("ValidationIsNotRetried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := payment.NewMockRepository(ctrl)
		expectLedger(ctrl, repo, id, sale(id))

		svc := payment.NewService(repo)
		_, err := svc.Record(context.Background(), payment.RecordParams{TransactionID: id, Value: dec("100000"), Method: transaction.MethodCash})

		requireReason(t, err, apperr.ReasonOverpayment)
	})
}

func TestService_Delete(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name        string
		policy      transaction.PaidPolicy
		settle      func(tx *transaction.Transaction)
		wantSave    bool
		wantPaid    bool
		wantBalance string
	}

	tests := []testCase{
		{
			name:   "AutoRevert",
			policy: transaction.PolicyAutoRevert,
			settle: func(tx *transaction.Transaction) {
				transaction.Recompute(tx, transaction.PolicyAutoRevert, fixedNow)
			},
			wantSave:    true,
			wantPaid:    false,
			wantBalance: "50000",
		},
		{
			name:   "Sticky",
			policy: transaction.PolicySticky,
			settle: func(tx *transaction.Transaction) {
				transaction.Recompute(tx, transaction.PolicySticky, fixedNow)
			},
			wantPaid:    true,
			wantBalance: "0",
		},
		{
			name:   "ManualSettlementKept",
			policy: transaction.PolicyAutoRevert,
			settle: func(tx *transaction.Transaction) {
				tx.MarkPaid(fixedNow)
			},
			wantPaid:    true,
			wantBalance: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			stored := sale(id, "40000", "50000")
			tt.settle(stored)
			require.True(t, stored.Paid)

			removed := stored.Payments[1]

			repo := payment.NewMockRepository(ctrl)
			repo.EXPECT().GetPayment(gomock.Any(), removed.ID).Return(&removed, nil)

			ltx := expectLedger(ctrl, repo, id, stored)
			ltx.EXPECT().DeletePayment(gomock.Any(), removed.ID).Return(nil)

			if tt.wantSave {
				ltx.EXPECT().SaveTransaction(gomock.Any(), stored).Return(nil)
			}

			ltx.EXPECT().Commit().Return(nil)

			svc := payment.NewService(repo, payment.WithClock(clock), payment.WithPaidPolicy(tt.policy))
			got, err := svc.Delete(context.Background(), removed.ID)

			require.NoError(t, err)
			assert.Len(t, got.Transaction.Payments, 1)
			assert.Equal(t, tt.wantPaid, got.Transaction.Paid)
			assert.Equal(t, tt.wantSave, got.PaidChanged)
			assert.True(t, dec(tt.wantBalance).Equal(got.Transaction.Balance()), "balance %s", got.Transaction.Balance())
		})
	}
}

func TestService_DeleteNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()

	repo := payment.NewMockRepository(ctrl)
	repo.EXPECT().GetPayment(gomock.Any(), id).Return(nil, transaction.ErrPaymentNotFound)

	svc := payment.NewService(repo)
	_, err := svc.Delete(context.Background(), id)

	assert.True(t, errors.Is(err, transaction.ErrPaymentNotFound))
}
