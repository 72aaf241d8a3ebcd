package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cartera/internal/catalog"
	cataloghttp "github.com/MrJamesThe3rd/cartera/internal/http/catalog"
)

func newRouter(t *testing.T) (chi.Router, *catalog.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	r := chi.NewRouter()
	cataloghttp.NewHandler(catalog.NewService(repo)).Routes(r)

	return r, repo
}

func TestHandler_Suggest(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		setup      func(repo *catalog.MockRepository)
		wantStatus int
		wantPrice  string
	}{
		{
			name:  "Known",
			query: "?product=kaiak%20",
			setup: func(repo *catalog.MockRepository) {
				repo.EXPECT().FindPrice(gomock.Any(), "Kaiak").Return(&catalog.Price{
					Product:   "Kaiak",
					UnitPrice: decimal.NewFromInt(50000),
					Uses:      3,
					UpdatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantPrice:  "50000",
		},
		{
			name:  "Unknown",
			query: "?product=Ekos",
			setup: func(repo *catalog.MockRepository) {
				repo.EXPECT().FindPrice(gomock.Any(), "Ekos").Return(nil, nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "MissingProduct",
			query:      "",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, repo := newRouter(t)
			if tt.setup != nil {
				tt.setup(repo)
			}

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suggest"+tt.query, nil))

			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantPrice != "" {
				var body struct {
					Product   string `json:"product"`
					UnitPrice string `json:"unit_price"`
					Uses      int    `json:"uses"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "Kaiak", body.Product)
				assert.Equal(t, tt.wantPrice, body.UnitPrice)
				assert.Equal(t, 3, body.Uses)
			}
		})
	}
}

func TestHandler_Search(t *testing.T) {
	r, repo := newRouter(t)

	repo.EXPECT().SearchProducts(gomock.Any(), "Ka", 10).Return([]catalog.Price{
		{Product: "Kaiak", UnitPrice: decimal.NewFromInt(50000), Uses: 3},
		{Product: "Kaiak aventura", UnitPrice: decimal.NewFromInt(62000), Uses: 1},
	}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?prefix=ka", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "Kaiak aventura", body[1]["product"])
}
