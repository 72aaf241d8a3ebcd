package transaction

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/analytics"
	"github.com/MrJamesThe3rd/cartera/internal/http/respond"
	"github.com/MrJamesThe3rd/cartera/internal/payment"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

// PriceLearner remembers unit prices of sold products.
type PriceLearner interface {
	Learn(ctx context.Context, items []transaction.LineItem) error
}

type Handler struct {
	svc      *transaction.Service
	payments *payment.Service
	prices   PriceLearner
	tracker  *analytics.Tracker
}

func NewHandler(svc *transaction.Service, payments *payment.Service, prices PriceLearner, tracker *analytics.Tracker) *Handler {
	return &Handler{svc: svc, payments: payments, prices: prices, tracker: tracker}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}", h.update)
	r.Put("/{id}/items", h.updateItems)
	r.Post("/{id}/paid", h.markPaid)
	r.Post("/{id}/recompute", h.recompute)
	r.Post("/{id}/payments", h.recordPayment)
}

type lineItemRequest struct {
	Product   string               `json:"product" validate:"required"`
	UnitPrice decimal.Decimal      `json:"unit_price"`
	Quantity  decimal.Decimal      `json:"quantity"`
	Discount  transaction.Discount `json:"discount"`
}

type createTransactionRequest struct {
	ClientID uuid.UUID         `json:"client_id" validate:"required"`
	Type     transaction.Type  `json:"type" validate:"required"`
	Campaign string            `json:"campaign"`
	Date     string            `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Items    []lineItemRequest `json:"items" validate:"dive"`
}

func toItemParams(items []lineItemRequest) []transaction.LineItemParams {
	params := make([]transaction.LineItemParams, len(items))
	for i, it := range items {
		params[i] = transaction.LineItemParams{
			Product:   it.Product,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Discount:  it.Discount,
		}
	}

	return params
}

// parseDate reads a validated YYYY-MM-DD string as midnight in the ledger's
// timezone; empty means zero.
func (h *Handler) parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, _ := time.ParseInLocation(time.DateOnly, s, h.svc.Location())

	return t
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	tx, err := h.svc.Create(r.Context(), transaction.CreateParams{
		ClientID: req.ClientID,
		Type:     req.Type,
		Campaign: req.Campaign,
		Date:     h.parseDate(req.Date),
		Items:    toItemParams(req.Items),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.learn(r.Context(), tx)
	h.tracker.TrackRequest(r, analytics.Event{
		Name:     analytics.TxCreate,
		Category: analytics.CategoryAction,
		Label:    tx.ID.String(),
		Extra:    map[string]any{"client_id": tx.ClientID.String(), "items": len(tx.Items)},
	})

	respond.JSON(w, http.StatusCreated, toResponse(tx))
}

// learn feeds the product catalog. A failure only costs a suggestion.
func (h *Handler) learn(ctx context.Context, tx *transaction.Transaction) {
	if h.prices == nil {
		return
	}

	if err := h.prices.Learn(ctx, tx.Items); err != nil {
		slog.WarnContext(ctx, "failed to learn prices", "transaction_id", tx.ID, "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := transaction.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("client_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respond.BadRequest(w, "invalid client_id")
			return
		}

		filter.ClientID = new(id)
	}

	if s := q.Get("paid"); s != "" {
		paid, err := strconv.ParseBool(s)
		if err != nil {
			respond.BadRequest(w, "invalid paid")
			return
		}

		filter.Paid = new(paid)
	}

	var err error

	filter.StartDate, filter.EndBefore, err = transaction.DayRange(q.Get("start_date"), q.Get("end_date"), h.svc.Location())
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(txs))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateTransactionRequest struct {
	Type     *transaction.Type `json:"type,omitempty"`
	Campaign *string           `json:"campaign,omitempty"`
	Date     *string           `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateTransactionRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	params := transaction.UpdateParams{
		Type:     req.Type,
		Campaign: req.Campaign,
	}

	if req.Date != nil {
		params.Date = new(h.parseDate(*req.Date))
	}

	tx, err := h.svc.Update(r.Context(), id, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{Name: analytics.TxUpdate, Category: analytics.CategoryAction, Label: tx.ID.String()})

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

type updateItemsRequest struct {
	Items []lineItemRequest `json:"items" validate:"dive"`
}

func (h *Handler) updateItems(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateItemsRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	tx, err := h.svc.UpdateItems(r.Context(), id, toItemParams(req.Items))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.learn(r.Context(), tx)
	h.tracker.TrackRequest(r, analytics.Event{
		Name:     analytics.TxUpdate,
		Category: analytics.CategoryAction,
		Label:    tx.ID.String(),
		Extra:    map[string]any{"items": len(tx.Items)},
	})

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.MarkPaid(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{Name: analytics.TxPaid, Category: analytics.CategoryAction, Label: tx.ID.String()})

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

// recompute re-derives the paid state from the payments on file, for rows
// changed outside the API.
func (h *Handler) recompute(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Recompute(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

type recordPaymentRequest struct {
	Value        decimal.Decimal           `json:"value"`
	Method       transaction.PaymentMethod `json:"method" validate:"required"`
	MethodDetail string                    `json:"method_detail" validate:"max=255"`
	Note         string                    `json:"note" validate:"max=500"`
	PaidOn       string                    `json:"paid_on" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req recordPaymentRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	res, err := h.payments.Record(r.Context(), payment.RecordParams{
		TransactionID: id,
		Value:         req.Value,
		Method:        req.Method,
		MethodDetail:  req.MethodDetail,
		Note:          req.Note,
		PaidOn:        h.parseDate(req.PaidOn),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{
		Name:     analytics.PaymentCreate,
		Category: analytics.CategoryAction,
		Label:    id.String(),
		Value:    new(res.Payment.Value.InexactFloat64()),
		Extra:    map[string]any{"method": string(res.Payment.Method), "paid_changed": res.PaidChanged},
	})

	respond.JSON(w, http.StatusCreated, ToPaymentResult(res))
}
