package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all goal routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/goals", func(r chi.Router) {
		r.Post("/", h.HandleCreateGoal)
		r.Get("/", h.HandleGetGoals)
		r.Post("/{id}/contribute", h.HandleContribute)
		r.Delete("/{id}", h.HandleDeleteGoal)
	})
}
