package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/transactions", h.HandleRecordTransaction)
		r.Get("/transactions", h.HandleGetTransactions)
		r.Get("/symbols", h.HandleGetSymbols)
	})
}
