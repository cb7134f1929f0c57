/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the desk frontend

ROUTE GROUPS:
  /api/records/*   Booking rows: intake, reads, cell edits, invoices
  /api/rooms/*     Derived room states and maintenance overrides
  /api/guests/*    Guest history search
  /api/bulk/*      Batch operations over selected rows
  /api/schema      Resolved column mapping

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Booking rows
		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Post("/", h.CreateRecord)
			r.Get("/{row}", h.GetRecord)
			r.Post("/{row}/edits", h.ApplyEdit)
			r.Post("/{row}/invoice", h.GenerateInvoice)
		})

		// Derived room states
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Get("/{room}", h.GetRoom)
			r.Put("/{room}/override", h.PutOverride)
		})

		// Guest history
		r.Get("/guests/{name}/history", h.GuestHistory)

		// Bulk operations
		r.Route("/bulk", func(r chi.Router) {
			r.Post("/checkout", h.BulkCheckout)
			r.Post("/tax-rate", h.BulkTaxRate)
			r.Post("/invoices", h.BulkInvoices)
		})

		// Column mapping
		r.Get("/schema", h.GetSchema)
	})

	return r
}
