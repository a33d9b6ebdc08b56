package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/aggregation"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/goals"
)

type stubLedger struct {
	txs []domain.Transaction
}

func (s *stubLedger) ListTransactions(ctx context.Context, userID, symbol string) ([]domain.Transaction, error) {
	return s.txs, nil
}

type stubGoals struct{}

func (s *stubGoals) List(ctx context.Context, userID string) ([]goals.GoalWithProjection, error) {
	return nil, nil
}

type stubWatchlist struct{}

func (s *stubWatchlist) List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	return nil, nil
}

type stubPrices struct {
	quotes map[string]domain.PriceQuote
}

func (s *stubPrices) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.PriceQuote, error) {
	return s.quotes, nil
}

func setupRouter(txs []domain.Transaction, quotes map[string]domain.PriceQuote) chi.Router {
	service := aggregation.NewService(
		&stubLedger{txs: txs},
		&stubGoals{},
		&stubWatchlist{},
		&stubPrices{quotes: quotes},
		0,
		zerolog.Nop(),
	)

	router := chi.NewRouter()
	NewHandler(service, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func buyTx(id, symbol string, quantity, price float64) domain.Transaction {
	return domain.Transaction{
		ID:         id,
		UserID:     "user-1",
		Symbol:     symbol,
		Kind:       domain.KindBuy,
		Quantity:   quantity,
		UnitPrice:  price,
		AssetType:  domain.AssetStocks,
		ExecutedAt: time.Now().Add(-24 * time.Hour),
	}
}

func TestHandleGetPortfolioSummary(t *testing.T) {
	router := setupRouter(
		[]domain.Transaction{buyTx("tx-1", "AAPL", 10, 100)},
		map[string]domain.PriceQuote{"AAPL": {Symbol: "AAPL", Price: 150, AsOf: time.Now()}},
	)

	req := httptest.NewRequest(http.MethodGet, "/portfolio/summary?user_id=user-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			TotalInvested float64 `json:"total_invested"`
			TotalCurrent  float64 `json:"total_current"`
		} `json:"data"`
		Metadata struct {
			Warnings []string `json:"warnings"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.InDelta(t, 1000.0, response.Data.TotalInvested, 1e-6)
	assert.InDelta(t, 1500.0, response.Data.TotalCurrent, 1e-6)
	assert.Empty(t, response.Metadata.Warnings)
}

func TestHandleGetPortfolioSummaryWarnings(t *testing.T) {
	router := setupRouter(
		[]domain.Transaction{
			buyTx("tx-1", "AAPL", 10, 100),
			buyTx("tx-2", "MSFT", 5, 300),
		},
		map[string]domain.PriceQuote{"AAPL": {Symbol: "AAPL", Price: 150, AsOf: time.Now()}},
	)

	req := httptest.NewRequest(http.MethodGet, "/portfolio/summary?user_id=user-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Degraded, not failed: the quoted holdings still come back
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Metadata struct {
			Warnings []string `json:"warnings"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Metadata.Warnings, 1)
	assert.Contains(t, response.Metadata.Warnings[0], "MSFT")
}

func TestHandleGetPortfolioSummaryRequiresUser(t *testing.T) {
	router := setupRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/portfolio/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetDashboard(t *testing.T) {
	router := setupRouter(
		[]domain.Transaction{buyTx("tx-1", "AAPL", 10, 100)},
		map[string]domain.PriceQuote{"AAPL": {Symbol: "AAPL", Price: 150, AsOf: time.Now()}},
	)

	req := httptest.NewRequest(http.MethodGet, "/dashboard?user_id=user-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Summary struct {
				TotalCurrent float64 `json:"total_current"`
			} `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.InDelta(t, 1500.0, response.Data.Summary.TotalCurrent, 1e-6)
}
