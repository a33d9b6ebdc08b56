// Package handlers provides the read-only aggregation HTTP endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/aggregation"
)

// Handler handles aggregation HTTP requests
type Handler struct {
	service *aggregation.Service
	log     zerolog.Logger
}

// NewHandler creates a new aggregation handler
func NewHandler(service *aggregation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "aggregation").Logger(),
	}
}

// HandleGetPortfolioSummary handles GET /api/portfolio/summary.
// A degraded price feed still returns the holdings that valued; the
// affected symbols are listed under metadata.warnings.
func (h *Handler) HandleGetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	summary, valErr := h.service.GetPortfolioSummary(r.Context(), userID)
	if valErr != nil && !isQuoteFailure(valErr) {
		h.log.Error().Err(valErr).Msg("Failed to build portfolio summary")
		h.writeError(w, http.StatusInternalServerError, "failed to build portfolio summary")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(summary, valErr))
}

// HandleGetDashboard handles GET /api/dashboard
func (h *Handler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	dashboard, valErr := h.service.GetDashboard(r.Context(), userID)
	if valErr != nil && !isQuoteFailure(valErr) {
		h.log.Error().Err(valErr).Msg("Failed to build dashboard")
		h.writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(dashboard, valErr))
}

// isQuoteFailure reports whether the error is a per-symbol valuation
// problem (feed gap, stale quote, or an invalid history for one symbol)
// rather than a storage failure. Valuation problems degrade the response;
// storage failures abort it.
func isQuoteFailure(err error) bool {
	var missingErr *domain.MissingPriceError
	var staleErr *domain.StaleQuoteError
	var inconsistentErr *domain.InconsistentLedgerError
	return errors.As(err, &missingErr) || errors.As(err, &staleErr) || errors.As(err, &inconsistentErr)
}

// envelope wraps data with valuation warnings, one per affected symbol
func envelope(data interface{}, valErr error) map[string]interface{} {
	metadata := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if valErr != nil {
		var warnings []string
		if joined, ok := valErr.(interface{ Unwrap() []error }); ok {
			for _, err := range joined.Unwrap() {
				warnings = append(warnings, err.Error())
			}
		} else {
			warnings = []string{valErr.Error()}
		}
		metadata["warnings"] = warnings
	}

	return map[string]interface{}{
		"data":     data,
		"metadata": metadata,
	}
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
