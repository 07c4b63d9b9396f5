/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the stand frontend

ROUTE GROUPS:
  /api/commissions/*   Config, summary, per-employee breakdowns
  /api/sales/*         Sale recording and rescoring
  /api/employees/*     Employee directory
  /api/clients/*       Client directory
  /api/ranking/*       Monthly team ranking
  /api/scenarios/*     Demo data (dev only)

SECURITY NOTE:
  No authentication middleware. Auth lives in the gateway in front of this
  service; every endpoint here is public.

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
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Commission routes
		r.Route("/commissions", func(r chi.Router) {
			r.Get("/config/{year}/{month}", h.GetConfig)
			r.Put("/config/{year}/{month}", h.PutConfig)
			r.Post("/config/{year}/{month}/duplicate", h.DuplicateConfig)
			r.Get("/summary/{year}/{month}", h.GetSummary)
			r.Get("/employee/{id}/{year}/{month}", h.GetEmployeeDetail)
			r.Get("/categories/defaults", h.DefaultCategories)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/statuses", h.ListSaleStatuses)
			r.Get("/{id}", h.GetSale)
			r.Put("/{id}", h.UpdateSale)
			r.Put("/{id}/status", h.UpdateSaleStatus)
		})

		// Directory routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
		})
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
		})

		// Ranking routes
		r.Get("/ranking/{year}/{month}", h.GetRanking)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
