// Package handlers provides HTTP handlers for the watchlist.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/watchlist"
)

// Handler handles watchlist HTTP requests
type Handler struct {
	service *watchlist.Service
	prices  domain.PriceProvider
	log     zerolog.Logger
}

// NewHandler creates a new watchlist handler
func NewHandler(service *watchlist.Service, prices domain.PriceProvider, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		prices:  prices,
		log:     log.With().Str("handler", "watchlist").Logger(),
	}
}

type addRequest struct {
	UserID    string `json:"user_id"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	AssetType string `json:"asset_type"`
}

// HandleAddEntry handles POST /api/watchlist
func (h *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := h.service.Add(r.Context(), req.UserID, req.Symbol, req.Name, domain.AssetType(req.AssetType))
	if err != nil {
		var validationErr *domain.ValidationError
		var duplicateErr *domain.DuplicateEntryError

		switch {
		case errors.As(err, &validationErr):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &duplicateErr):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.log.Error().Err(err).Msg("Failed to add watchlist entry")
			h.writeError(w, http.StatusInternalServerError, "failed to add watchlist entry")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": entry,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetWatchlist handles GET /api/watchlist
func (h *Handler) HandleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	entries, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list watchlist")
		h.writeError(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"entries": entries,
			"count":   len(entries),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetQuotes handles GET /api/watchlist/quotes.
// Entries without a fresh quote come back with quoted=false; they are
// never padded with zeros or stale prices.
func (h *Handler) HandleGetQuotes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	entries, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list watchlist")
		h.writeError(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}

	quotes := map[string]domain.PriceQuote{}
	if len(entries) > 0 {
		symbols := make([]string, 0, len(entries))
		for _, e := range entries {
			symbols = append(symbols, e.Symbol)
		}
		quotes, err = h.prices.GetQuotes(r.Context(), symbols)
		if err != nil {
			h.log.Warn().Err(err).Msg("Watchlist quotes degraded")
		}
	}

	quoted := watchlist.RefreshQuotes(entries, quotes)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"entries": quoted,
			"count":   len(quoted),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

type notificationRequest struct {
	UserID  string `json:"user_id"`
	Enabled bool   `json:"enabled"`
}

// HandleSetNotification handles PUT /api/watchlist/{id}/notification
func (h *Handler) HandleSetNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.service.SetNotification(r.Context(), req.UserID, id, req.Enabled); err != nil {
		var notFoundErr *domain.NotFoundError
		if errors.As(err, &notFoundErr) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to update notification setting")
		h.writeError(w, http.StatusInternalServerError, "failed to update notification setting")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"id":                    id,
			"notifications_enabled": req.Enabled,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRemoveEntry handles DELETE /api/watchlist/{id}
func (h *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.service.Remove(r.Context(), userID, id); err != nil {
		var notFoundErr *domain.NotFoundError
		if errors.As(err, &notFoundErr) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to remove watchlist entry")
		h.writeError(w, http.StatusInternalServerError, "failed to remove watchlist entry")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]string{"status": "removed"},
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
