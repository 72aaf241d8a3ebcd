package payment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cartera/internal/analytics"
	paymenthttp "github.com/MrJamesThe3rd/cartera/internal/http/payment"
	"github.com/MrJamesThe3rd/cartera/internal/payment"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newRouter(t *testing.T, opts ...payment.Option) (chi.Router, *payment.MockRepository, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	repo := payment.NewMockRepository(ctrl)

	opts = append(opts, payment.WithClock(func() time.Time { return fixedNow }))

	r := chi.NewRouter()
	paymenthttp.NewHandler(payment.NewService(repo, opts...), analytics.NewTracker(nil)).Routes(r)

	return r, repo, ctrl
}

// settled is a 100000 transaction paid off by a single payment.
func settled(id, paymentID uuid.UUID) *transaction.Transaction {
	return &transaction.Transaction{
		ID:        id,
		Type:      transaction.TypeOther,
		Date:      fixedNow,
		Paid:      true,
		PaidAt:    &fixedNow,
		SettledBy: transaction.SettledByPayments,
		Items: []transaction.LineItem{
			{Product: "Crema", UnitPrice: decimal.NewFromInt(100000), Quantity: decimal.NewFromInt(1)},
		},
		Payments: []transaction.Payment{
			{ID: paymentID, TransactionID: id, Value: decimal.NewFromInt(100000), Method: transaction.MethodCash, PaidOn: fixedNow},
		},
	}
}

func TestHandler_Delete(t *testing.T) {
	tests := []struct {
		name     string
		policy   transaction.PaidPolicy
		wantPaid bool
	}{
		{name: "AutoRevert", policy: transaction.PolicyAutoRevert, wantPaid: false},
		{name: "Sticky", policy: transaction.PolicySticky, wantPaid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, repo, ctrl := newRouter(t, payment.WithPaidPolicy(tt.policy))

			txID, paymentID := uuid.New(), uuid.New()

			ltx := transaction.NewMockLedgerTx(ctrl)
			repo.EXPECT().GetPayment(gomock.Any(), paymentID).Return(&transaction.Payment{ID: paymentID, TransactionID: txID}, nil)
			repo.EXPECT().BeginLedger(gomock.Any()).Return(ltx, nil)
			ltx.EXPECT().LockTransaction(gomock.Any(), txID).Return(settled(txID, paymentID), nil)
			ltx.EXPECT().DeletePayment(gomock.Any(), paymentID).Return(nil)

			if !tt.wantPaid {
				ltx.EXPECT().SaveTransaction(gomock.Any(), gomock.Any()).Return(nil)
			}

			ltx.EXPECT().Commit().Return(nil)
			ltx.EXPECT().Rollback().Return(nil)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/"+paymentID.String(), nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body struct {
				Transaction struct {
					Paid    bool            `json:"paid"`
					Balance decimal.Decimal `json:"balance"`
				} `json:"transaction"`
				PaidChanged bool `json:"paid_changed"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			assert.Equal(t, tt.wantPaid, body.Transaction.Paid)
			assert.Equal(t, !tt.wantPaid, body.PaidChanged)

			if !tt.wantPaid {
				assert.True(t, decimal.NewFromInt(100000).Equal(body.Transaction.Balance))
			}
		})
	}
}

func TestHandler_Delete_NotFound(t *testing.T) {
	r, repo, _ := newRouter(t)
	id := uuid.New()

	repo.EXPECT().GetPayment(gomock.Any(), id).Return(nil, transaction.ErrPaymentNotFound)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/"+id.String(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
