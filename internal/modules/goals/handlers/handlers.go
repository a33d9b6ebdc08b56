// Package handlers provides HTTP handlers for goal tracking.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/goals"
)

// Handler handles goal HTTP requests
type Handler struct {
	service *goals.Service
	log     zerolog.Logger
}

// NewHandler creates a new goals handler
func NewHandler(service *goals.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "goals").Logger(),
	}
}

type createGoalRequest struct {
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	Deadline      string  `json:"deadline"`
	Priority      string  `json:"priority"`
	GoalType      string  `json:"goal_type"`
}

// HandleCreateGoal handles POST /api/goals
func (h *Handler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	goal := domain.Goal{
		UserID:        req.UserID,
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Priority:      domain.GoalPriority(req.Priority),
		GoalType:      req.GoalType,
	}

	if req.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "deadline must be RFC3339")
			return
		}
		goal.Deadline = deadline
	}

	created, err := h.service.Create(r.Context(), goal)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to create goal")
		h.writeError(w, http.StatusInternalServerError, "failed to create goal")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": created,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetGoals handles GET /api/goals
func (h *Handler) HandleGetGoals(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	goalList, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list goals")
		h.writeError(w, http.StatusInternalServerError, "failed to list goals")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"goals": goalList,
			"count": len(goalList),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

type contributeRequest struct {
	Amount float64 `json:"amount"`
}

// HandleContribute handles POST /api/goals/{id}/contribute
func (h *Handler) HandleContribute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	goal, err := h.service.Contribute(r.Context(), userID, id, req.Amount)
	if err != nil {
		var validationErr *domain.ValidationError
		var notFoundErr *domain.NotFoundError

		switch {
		case errors.As(err, &validationErr):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &notFoundErr):
			h.writeError(w, http.StatusNotFound, err.Error())
		default:
			h.log.Error().Err(err).Msg("Failed to contribute to goal")
			h.writeError(w, http.StatusInternalServerError, "failed to contribute to goal")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": goal,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDeleteGoal handles DELETE /api/goals/{id}
func (h *Handler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		var notFoundErr *domain.NotFoundError
		if errors.As(err, &notFoundErr) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to delete goal")
		h.writeError(w, http.StatusInternalServerError, "failed to delete goal")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]string{"status": "deleted"},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
