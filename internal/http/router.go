package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/cartera/internal/http/catalog"
	"github.com/MrJamesThe3rd/cartera/internal/http/client"
	"github.com/MrJamesThe3rd/cartera/internal/http/importcsv"
	"github.com/MrJamesThe3rd/cartera/internal/http/payment"
	"github.com/MrJamesThe3rd/cartera/internal/http/transaction"
)

type Handlers struct {
	Clients      *client.Handler
	Transactions *transaction.Handler
	Payments     *payment.Handler
	Catalog      *catalog.Handler
	Import       *importcsv.Handler
}

func New(allowedOrigins []string, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Clients.Routes(r)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Transactions.Routes(r)
		})

		r.Route("/payments", h.Payments.Routes)
		r.Route("/catalog", h.Catalog.Routes)
		r.Route("/import", h.Import.Routes)
	})

	return router
}
