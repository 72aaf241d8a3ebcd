package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

func clock() time.Time { return fixedNow }

func TestService_Create(t *testing.T) {
	clientID := uuid.New()

	item := transaction.LineItemParams{Product: "kaiak", UnitPrice: dec("50000"), Quantity: dec("2"), Discount: transaction.Discount10}

	type args struct {
		params transaction.CreateParams
	}

	type testCase struct {
		name       string
		args       args
		setupMock  func(m *transaction.MockRepository)
		wantReason string
		wantErr    bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				params: transaction.CreateParams{
					ClientID: clientID,
					Type:     transaction.TypeNatura,
					Campaign: "C05",
					Items:    []transaction.LineItemParams{item},
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().ClientExists(gomock.Any(), clientID).Return(true, nil)
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = uuid.New()
						tx.CreatedAt = fixedNow
						return nil
					})
			},
		},
		{
			name: "MissingCampaign",
			args: args{
				params: transaction.CreateParams{
					ClientID: clientID,
					Type:     transaction.TypeNatura,
					Items:    []transaction.LineItemParams{item},
				},
			},
			wantReason: apperr.ReasonMissingCampaign,
			wantErr:    true,
		},
		{
			name: "NoLineItems",
			args: args{
				params: transaction.CreateParams{ClientID: clientID, Type: transaction.TypeOther},
			},
			wantReason: apperr.ReasonNoLineItems,
			wantErr:    true,
		},
		{
			name: "UnknownClient",
			args: args{
				params: transaction.CreateParams{
					ClientID: clientID,
					Type:     transaction.TypeOther,
					Items:    []transaction.LineItemParams{item},
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().ClientExists(gomock.Any(), clientID).Return(false, nil)
			},
			wantReason: apperr.ReasonUnknownClient,
			wantErr:    true,
		},
		{
			name: "RepoError",
			args: args{
				params: transaction.CreateParams{
					ClientID: clientID,
					Type:     transaction.TypeOther,
					Items:    []transaction.LineItemParams{item},
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().ClientExists(gomock.Any(), clientID).Return(true, nil)
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo, transaction.WithClock(clock))
			got, err := svc.Create(context.Background(), tt.args.params)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				if tt.wantReason != "" {
					var v *apperr.ValidationError
					require.ErrorAs(t, err, &v)
					assert.Equal(t, tt.wantReason, v.Reason)
				}

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, fixedNow, got.Date)
			assert.False(t, got.Paid)
			require.Len(t, got.Items, 1)
			assert.Equal(t, "Kaiak", got.Items[0].Product)
			assert.True(t, dec("90000").Equal(got.TotalLines()))
		})
	}
}

func TestService_Create_StoresWhatIsPersisted(t *testing.T) {
	clientID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().ClientExists(gomock.Any(), clientID).Return(true, nil)
	repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)

	svc := transaction.NewService(repo, transaction.WithClock(clock))
	got, err := svc.Create(context.Background(), transaction.CreateParams{
		ClientID: clientID,
		Type:     transaction.TypeNatura,
		Campaign: "  C05 ",
		Items: []transaction.LineItemParams{
			{Product: "kaiak", UnitPrice: dec("49999.995"), Quantity: dec("1.004")},
			{Product: "muestra", UnitPrice: dec("0.004"), Quantity: dec("1")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "C05", got.Campaign)
	assert.Equal(t, "50000.00", got.Items[0].UnitPrice.StringFixed(2))
	assert.True(t, dec("1").Equal(got.Items[0].Quantity))
	assert.True(t, got.Items[1].UnitPrice.IsZero())
	assert.True(t, dec("50000").Equal(got.TotalLines()))
}

func TestService_Recompute(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name     string
		payments []string
		policy   transaction.PaidPolicy
		paid     bool
		wantSave bool
		wantPaid bool
	}

	tests := []testCase{
		{name: "SettlesCoveredSale", payments: []string{"600", "400"}, wantSave: true, wantPaid: true},
		{name: "LeavesPartialOpen", payments: []string{"600"}, wantPaid: false},
		{name: "RevertsUncovered", payments: []string{"600"}, paid: true, wantSave: true, wantPaid: false},
		{name: "StickyKeepsPaid", payments: []string{"600"}, paid: true, policy: transaction.PolicySticky, wantPaid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			stored := saleOf(transaction.LineItem{UnitPrice: dec("1000"), Quantity: dec("1")})
			stored.ID = id

			for _, v := range tt.payments {
				stored.Payments = append(stored.Payments, pay(v))
			}

			if tt.paid {
				stored.Paid = true
				stored.PaidAt = new(fixedNow.Add(-time.Hour))
				stored.SettledBy = transaction.SettledByPayments
			}

			repo := transaction.NewMockRepository(ctrl)
			ltx := transaction.NewMockLedgerTx(ctrl)

			repo.EXPECT().BeginLedger(gomock.Any()).Return(ltx, nil)
			ltx.EXPECT().LockTransaction(gomock.Any(), id).Return(stored, nil)

			if tt.wantSave {
				ltx.EXPECT().SaveTransaction(gomock.Any(), stored).Return(nil)
			}

			ltx.EXPECT().Commit().Return(nil)
			ltx.EXPECT().Rollback().Return(nil)

			policy := tt.policy
			if policy == "" {
				policy = transaction.PolicyAutoRevert
			}

			svc := transaction.NewService(repo, transaction.WithClock(clock), transaction.WithPaidPolicy(policy))
			got, err := svc.Recompute(context.Background(), id)

			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, got.Paid)
		})
	}
}

func TestService_Update_TrimsCampaign(t *testing.T) {
	id := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stored := saleOf(transaction.LineItem{Product: "Kaiak", UnitPrice: dec("1000"), Quantity: dec("1")})
	stored.ID = id

	repo := transaction.NewMockRepository(ctrl)
	ltx := transaction.NewMockLedgerTx(ctrl)

	repo.EXPECT().BeginLedger(gomock.Any()).Return(ltx, nil)
	ltx.EXPECT().LockTransaction(gomock.Any(), id).Return(stored, nil)
	ltx.EXPECT().SaveTransaction(gomock.Any(), stored).Return(nil)
	ltx.EXPECT().Commit().Return(nil)
	ltx.EXPECT().Rollback().Return(nil)

	svc := transaction.NewService(repo, transaction.WithClock(clock))
	got, err := svc.Update(context.Background(), id, transaction.UpdateParams{
		Type:     new(transaction.TypeNatura),
		Campaign: new(" C07  "),
	})

	require.NoError(t, err)
	assert.Equal(t, "C07", got.Campaign)
}

func TestService_List(t *testing.T) {
	clientID := uuid.New()
	filter := transaction.ListFilter{ClientID: &clientID}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().
		ListTransactions(gomock.Any(), filter).
		Return([]*transaction.Transaction{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	svc := transaction.NewService(repo)
	got, err := svc.List(context.Background(), filter)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_UpdateItems(t *testing.T) {
	id := uuid.New()

	newItems := []transaction.LineItemParams{{Product: "labial", UnitPrice: dec("30000"), Quantity: dec("1")}}

	type testCase struct {
		name     string
		stored   func() *transaction.Transaction
		items    []transaction.LineItemParams
		setupTx  func(ltx *transaction.MockLedgerTx)
		wantErr  error
		wantPaid bool
	}

	tests := []testCase{
		{
			name: "PaidIsNotEditable",
			stored: func() *transaction.Transaction {
				tx := saleOf(transaction.LineItem{UnitPrice: dec("1000"), Quantity: dec("1")})
				tx.ID = id
				tx.MarkPaid(fixedNow)

				return tx
			},
			items:   newItems,
			wantErr: transaction.ErrNotEditable,
		},
		{
			name: "ReplacesAndSettles",
			stored: func() *transaction.Transaction {
				tx := saleOf(transaction.LineItem{UnitPrice: dec("50000"), Quantity: dec("1")})
				tx.ID = id
				tx.Payments = []transaction.Payment{pay("30000")}

				return tx
			},
			items: newItems,
			setupTx: func(ltx *transaction.MockLedgerTx) {
				ltx.EXPECT().ReplaceItems(gomock.Any(), id, gomock.Len(1)).Return(nil)
				ltx.EXPECT().SaveTransaction(gomock.Any(), gomock.Any()).Return(nil)
				ltx.EXPECT().Commit().Return(nil)
			},
			wantPaid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			ltx := transaction.NewMockLedgerTx(ctrl)

			repo.EXPECT().BeginLedger(gomock.Any()).Return(ltx, nil)
			ltx.EXPECT().LockTransaction(gomock.Any(), id).Return(tt.stored(), nil)
			ltx.EXPECT().Rollback().Return(nil)

			if tt.setupTx != nil {
				tt.setupTx(ltx)
			}

			svc := transaction.NewService(repo, transaction.WithClock(clock))
			got, err := svc.UpdateItems(context.Background(), id, tt.items)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, apperr.IsIntegrity(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, got.Paid)
			assert.Equal(t, "Labial", got.Items[0].Product)
		})
	}
}

func TestService_UpdateItemsEmptyRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := transaction.NewService(transaction.NewMockRepository(ctrl))
	_, err := svc.UpdateItems(context.Background(), uuid.New(), nil)

	requireReason(t, err, "items", apperr.ReasonNoLineItems)
}

func TestService_MarkPaid(t *testing.T) {
	id := uuid.New()

	t.Run("Unpaid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		stored := saleOf(transaction.LineItem{UnitPrice: dec("1000"), Quantity: dec("1")})
		stored.ID = id

		repo := transaction.NewMockRepository(ctrl)
		ltx := transaction.NewMockLedgerTx(ctrl)

		repo.EXPECT().BeginLedger(gomock.Any()).Return(ltx, nil)
		ltx.EXPECT().LockTransaction(gomock.Any(), id).Return(stored, nil)
		ltx.EXPECT().SaveTransaction(gomock.Any(), stored).Return(nil)
		ltx.EXPECT().Commit().Return(nil)
		ltx.EXPECT().Rollback().Return(nil)

		svc := transaction.NewService(repo, transaction.WithClock(clock))
		got, err := svc.MarkPaid(context.Background(), id)

		require.NoError(t, err)
		assert.True(t, got.Paid)
		assert.Equal(t, transaction.SettledManual, got.SettledBy)
		assert.Equal(t, fixedNow, *got.PaidAt)
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		earlier := fixedNow.Add(-24 * time.Hour)
		stored := saleOf(transaction.LineItem{UnitPrice: dec("1000"), Quantity: dec("1")})
		stored.ID = id
		stored.MarkPaid(earlier)

		repo := transaction.NewMockRepository(ctrl)
		ltx := transaction.NewMockLedgerTx(ctrl)

		repo.EXPECT().BeginLedger(gomock.Any()).Return(ltx, nil)
		ltx.EXPECT().LockTransaction(gomock.Any(), id).Return(stored, nil)
		ltx.EXPECT().Commit().Return(nil)
		ltx.EXPECT().Rollback().Return(nil)

		svc := transaction.NewService(repo, transaction.WithClock(clock))
		got, err := svc.MarkPaid(context.Background(), id)

		require.NoError(t, err)
		assert.True(t, got.Paid)
		assert.Equal(t, earlier, *got.PaidAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := transaction.NewMockRepository(ctrl)
		ltx := transaction.NewMockLedgerTx(ctrl)

		repo.EXPECT().BeginLedger(gomock.Any()).Return(ltx, nil)
		ltx.EXPECT().LockTransaction(gomock.Any(), id).Return(nil, transaction.ErrNotFound)
		ltx.EXPECT().Rollback().Return(nil)

		svc := transaction.NewService(repo)
		_, err := svc.MarkPaid(context.Background(), id)

		assert.ErrorIs(t, err, transaction.ErrNotFound)
	})
}
