// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/ledger"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

type recordRequest struct {
	UserID     string  `json:"user_id"`
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	AssetType  string  `json:"asset_type"`
	ExecutedAt string  `json:"executed_at"`
}

// HandleRecordTransaction handles POST /api/ledger/transactions
func (h *Handler) HandleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx := domain.Transaction{
		UserID:    req.UserID,
		Symbol:    req.Symbol,
		Name:      req.Name,
		Kind:      domain.TransactionKind(req.Kind),
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		AssetType: domain.AssetType(req.AssetType),
	}

	if req.ExecutedAt != "" {
		executedAt, err := time.Parse(time.RFC3339, req.ExecutedAt)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "executed_at must be RFC3339")
			return
		}
		tx.ExecutedAt = executedAt
	}

	id, err := h.service.Record(r.Context(), tx)
	if err != nil {
		var validationErr *domain.ValidationError
		var insufficientErr *domain.InsufficientHoldingsError

		switch {
		case errors.As(err, &validationErr):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &insufficientErr):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.log.Error().Err(err).Msg("Failed to record transaction")
			h.writeError(w, http.StatusInternalServerError, "failed to record transaction")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id": id,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetTransactions handles GET /api/ledger/transactions
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	symbol := r.URL.Query().Get("symbol")

	txs, err := h.service.ListTransactions(r.Context(), userID, symbol)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		h.writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"transactions": txs,
			"count":        len(txs),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetSymbols handles GET /api/ledger/symbols
func (h *Handler) HandleGetSymbols(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	symbols, err := h.service.Symbols(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		h.writeError(w, http.StatusInternalServerError, "failed to list symbols")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbols": symbols,
			"count":   len(symbols),
		},
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
