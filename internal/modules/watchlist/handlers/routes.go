package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all watchlist routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/watchlist", func(r chi.Router) {
		r.Post("/", h.HandleAddEntry)
		r.Get("/", h.HandleGetWatchlist)
		r.Get("/quotes", h.HandleGetQuotes)
		r.Put("/{id}/notification", h.HandleSetNotification)
		r.Delete("/{id}", h.HandleRemoveEntry)
	})
}
