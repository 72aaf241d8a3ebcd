package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cartera/internal/analytics"
	"github.com/MrJamesThe3rd/cartera/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/cartera/internal/http/transaction"
	"github.com/MrJamesThe3rd/cartera/internal/payment"
)

type Handler struct {
	svc     *payment.Service
	tracker *analytics.Tracker
}

func NewHandler(svc *payment.Service, tracker *analytics.Tracker) *Handler {
	return &Handler{svc: svc, tracker: tracker}
}

func (h *Handler) Routes(r chi.Router) {
	r.Delete("/{id}", h.delete)
}

// delete removes an abono and returns the transaction as recomputed.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	res, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{
		Name:     analytics.PaymentDelete,
		Category: analytics.CategoryAction,
		Label:    res.Transaction.ID.String(),
		Extra:    map[string]any{"paid_changed": res.PaidChanged},
	})

	respond.JSON(w, http.StatusOK, txhttp.ToPaymentResult(res))
}
