package catalog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/catalog"
	"github.com/MrJamesThe3rd/cartera/internal/http/respond"
)

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
	r.Get("/products", h.search)
}

type priceResponse struct {
	Product   string          `json:"product"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Uses      int             `json:"uses"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toResponse(p catalog.Price) priceResponse {
	return priceResponse{
		Product:   p.Product,
		UnitPrice: p.UnitPrice,
		Uses:      p.Uses,
		UpdatedAt: p.UpdatedAt,
	}
}

// suggest answers 204 when the product has never been sold.
func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("product")
	if product == "" {
		respond.BadRequest(w, "product is required")
		return
	}

	price, err := h.svc.Suggest(r.Context(), product)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if price == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(*price))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	prices, err := h.svc.Search(r.Context(), r.URL.Query().Get("prefix"), limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]priceResponse, len(prices))
	for i, p := range prices {
		resp[i] = toResponse(p)
	}

	respond.JSON(w, http.StatusOK, resp)
}
