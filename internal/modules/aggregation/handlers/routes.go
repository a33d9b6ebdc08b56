package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all aggregation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio/summary", h.HandleGetPortfolioSummary)
	r.Get("/dashboard", h.HandleGetDashboard)
}
