package client

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cartera/internal/analytics"
	"github.com/MrJamesThe3rd/cartera/internal/client"
	"github.com/MrJamesThe3rd/cartera/internal/http/respond"
	"github.com/MrJamesThe3rd/cartera/internal/statement"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

type Handler struct {
	svc        *client.Service
	statements *statement.Service
	tracker    *analytics.Tracker
}

func NewHandler(svc *client.Service, statements *statement.Service, tracker *analytics.Tracker) *Handler {
	return &Handler{svc: svc, statements: statements, tracker: tracker}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/balance", h.balance)
	r.Get("/{id}/statement", h.statement)
}

type createClientRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"max=40"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	c, err := h.svc.Create(r.Context(), client.CreateParams{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{Name: analytics.ClientCreate, Category: analytics.CategoryAction, Label: c.ID.String()})

	respond.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := client.ListFilter{Query: q.Get("q")}

	if s := q.Get("active"); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			respond.BadRequest(w, "invalid active")
			return
		}

		filter.ActiveOnly = active
	}

	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	entries, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{
		Name:     analytics.ClientsList,
		Category: analytics.CategoryView,
		Label:    filter.Query,
		Extra:    map[string]any{"results": len(entries)},
	})

	respond.JSON(w, http.StatusOK, toEntryList(entries))
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

	sum, err := h.svc.Summary(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{Name: analytics.ClientDetail, Category: analytics.CategoryView, Label: id.String()})

	respond.JSON(w, http.StatusOK, toSummaryResponse(sum))
}

type updateClientRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone  *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email  *string `json:"email,omitempty" validate:"omitempty,max=254"`
	Active *bool   `json:"active,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateClientRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	c, err := h.svc.Update(r.Context(), id, client.UpdateParams{
		Name:   req.Name,
		Phone:  req.Phone,
		Email:  req.Email,
		Active: req.Active,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{Name: analytics.ClientUpdate, Category: analytics.CategoryAction, Label: c.ID.String()})

	respond.JSON(w, http.StatusOK, toResponse(c))
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

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	owed, err := h.svc.OutstandingBalance(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, balanceResponse{ClientID: id, Outstanding: owed})
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	format := statement.Format(q.Get("format"))

	renderer, err := statement.RendererFor(format)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	if format == "" {
		format = statement.FormatPDF
	}

	var period statement.Period

	period.Start, period.Before, err = transaction.DayRange(q.Get("start_date"), q.Get("end_date"), h.statements.Location())
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	var buf bytes.Buffer

	st, err := h.statements.Export(r.Context(), id, period, format, &buf)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.tracker.TrackRequest(r, analytics.Event{
		Name:     analytics.StatementExport,
		Category: analytics.CategoryAction,
		Label:    id.String(),
		Extra:    map[string]any{"format": string(format), "rows": len(st.Rows)},
	})

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", statement.Filename(st, format)))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write statement", "client_id", id, "error", err)
	}
}
