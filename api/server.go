/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/shops/*          Shop management and per-shop views
  /api/sales            Record sales
  /api/transactions/*   History and edits
  /api/stock/*          Inventory pools
  /api/summary          Period aggregation
  /api/outstanding      Credit overview

SECURITY NOTE:
  No authentication middleware. This runs for a single operator on a
  trusted network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Shop routes
		r.Route("/shops", func(r chi.Router) {
			r.Get("/", h.ListShops)
			r.Post("/", h.CreateShop)
			r.Get("/{id}", h.GetShop)
			r.Put("/{id}", h.EditShop)
			r.Get("/{id}/balance", h.GetShopBalance)
			r.Get("/{id}/transactions", h.GetShopTransactions)
			r.Get("/{id}/trend", h.GetShopTrend)
		})

		// Sale routes
		r.Post("/sales", h.RecordSale)
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Put("/{id}", h.EditTransaction)
		})

		// Stock routes
		r.Route("/stock", func(r chi.Router) {
			r.Get("/", h.GetStock)
			r.Get("/movements", h.ListMovements)
			r.Post("/movements", h.AddStock)
			r.Post("/reconcile", h.ReconcileStock)
		})

		// Reporting routes
		r.Get("/summary", h.GetSummary)
		r.Get("/outstanding", h.GetOutstanding)
	})

	return r
}
