package aggregation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/goals"
)

var aggNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeLedger struct {
	txs []domain.Transaction
	err error
}

func (f *fakeLedger) ListTransactions(ctx context.Context, userID, symbol string) ([]domain.Transaction, error) {
	return f.txs, f.err
}

type fakeGoals struct {
	goals []goals.GoalWithProjection
	err   error
}

func (f *fakeGoals) List(ctx context.Context, userID string) ([]goals.GoalWithProjection, error) {
	return f.goals, f.err
}

type fakeWatchlist struct {
	entries []domain.WatchlistEntry
	err     error
}

func (f *fakeWatchlist) List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	return f.entries, f.err
}

type fakePrices struct {
	quotes map[string]domain.PriceQuote
	err    error
}

func (f *fakePrices) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.PriceQuote, error) {
	return f.quotes, f.err
}

func buyTx(id, symbol string, assetType domain.AssetType, quantity, price float64) domain.Transaction {
	return domain.Transaction{
		ID:         id,
		UserID:     "user-1",
		Symbol:     symbol,
		Name:       symbol + " Inc",
		Kind:       domain.KindBuy,
		Quantity:   quantity,
		UnitPrice:  price,
		AssetType:  assetType,
		ExecutedAt: aggNow.Add(-24 * time.Hour),
	}
}

func quote(symbol string, price float64) domain.PriceQuote {
	return domain.PriceQuote{Symbol: symbol, Price: price, AsOf: aggNow.Add(-time.Minute)}
}

func newTestService(ledger *fakeLedger, goalSvc *fakeGoals, watch *fakeWatchlist, prices *fakePrices) *Service {
	return NewService(ledger, goalSvc, watch, prices, 0, zerolog.Nop())
}

func TestGetPortfolioSummary(t *testing.T) {
	ledger := &fakeLedger{txs: []domain.Transaction{
		buyTx("tx-1", "AAPL", domain.AssetStocks, 10, 100),
		buyTx("tx-2", "BTC", domain.AssetCrypto, 1, 500),
	}}
	prices := &fakePrices{quotes: map[string]domain.PriceQuote{
		"AAPL": quote("AAPL", 150),
		"BTC":  quote("BTC", 500),
	}}

	svc := newTestService(ledger, &fakeGoals{}, &fakeWatchlist{}, prices)

	summary, err := svc.GetPortfolioSummary(context.Background(), "user-1")
	require.NoError(t, err)

	assert.InDelta(t, 1500.0, summary.TotalInvested, 1e-6)
	assert.InDelta(t, 2000.0, summary.TotalCurrent, 1e-6)
	assert.InDelta(t, 500.0, summary.TotalReturn, 1e-6)
	assert.InDelta(t, 33.333, summary.TotalReturnPercent, 0.01)
	require.Len(t, summary.Holdings, 2)

	var sum float64
	for _, slice := range summary.Allocation {
		sum += slice.Percent
	}
	assert.InDelta(t, 100.0, sum, 0.01)

	// Largest wedge first
	assert.Equal(t, domain.AssetStocks, summary.Allocation[0].Type)
}

func TestGetPortfolioSummaryPartialFailure(t *testing.T) {
	ledger := &fakeLedger{txs: []domain.Transaction{
		buyTx("tx-1", "AAPL", domain.AssetStocks, 10, 100),
		buyTx("tx-2", "MSFT", domain.AssetStocks, 5, 300),
	}}
	prices := &fakePrices{quotes: map[string]domain.PriceQuote{
		"AAPL": quote("AAPL", 150),
	}}

	svc := newTestService(ledger, &fakeGoals{}, &fakeWatchlist{}, prices)

	summary, err := svc.GetPortfolioSummary(context.Background(), "user-1")

	var missingErr *domain.MissingPriceError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "MSFT", missingErr.Symbol)

	// The quoted symbol is still in the summary
	require.Len(t, summary.Holdings, 1)
	assert.Equal(t, "AAPL", summary.Holdings[0].Symbol)
}

func TestGetPortfolioSummaryEmptyLedger(t *testing.T) {
	svc := newTestService(&fakeLedger{}, &fakeGoals{}, &fakeWatchlist{}, &fakePrices{})

	summary, err := svc.GetPortfolioSummary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, summary.Holdings)
	assert.Equal(t, 0.0, summary.TotalInvested)
	assert.Equal(t, 0.0, summary.TotalReturnPercent)
}

func TestGetPortfolioSummaryLedgerFailure(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("disk gone")}
	svc := newTestService(ledger, &fakeGoals{}, &fakeWatchlist{}, &fakePrices{})

	_, err := svc.GetPortfolioSummary(context.Background(), "user-1")
	require.Error(t, err)

	var missingErr *domain.MissingPriceError
	assert.False(t, errors.As(err, &missingErr))
}

func TestGetDashboard(t *testing.T) {
	ledger := &fakeLedger{txs: []domain.Transaction{
		buyTx("tx-1", "AAPL", domain.AssetStocks, 10, 100),
	}}

	goalList := make([]goals.GoalWithProjection, 0, 5)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		goalList = append(goalList, goals.GoalWithProjection{
			Goal: domain.Goal{ID: name, UserID: "user-1", Name: name, TargetAmount: 100},
		})
	}

	watch := &fakeWatchlist{entries: []domain.WatchlistEntry{
		{ID: "w-1", Symbol: "TSLA", Name: "Tesla"},
	}}
	prices := &fakePrices{quotes: map[string]domain.PriceQuote{
		"AAPL": quote("AAPL", 150),
		"TSLA": quote("TSLA", 200),
	}}

	svc := newTestService(ledger, &fakeGoals{goals: goalList}, watch, prices)

	dashboard, err := svc.GetDashboard(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Len(t, dashboard.TopGoals, 3)
	assert.InDelta(t, 1500.0, dashboard.Summary.TotalCurrent, 1e-6)

	require.Len(t, dashboard.Watchlist, 1)
	assert.True(t, dashboard.Watchlist[0].Quoted)
	assert.InDelta(t, 200.0, dashboard.Watchlist[0].Price, 1e-9)
}

func TestGetDashboardDegradedFeed(t *testing.T) {
	ledger := &fakeLedger{txs: []domain.Transaction{
		buyTx("tx-1", "AAPL", domain.AssetStocks, 10, 100),
	}}
	watch := &fakeWatchlist{entries: []domain.WatchlistEntry{
		{ID: "w-1", Symbol: "TSLA", Name: "Tesla"},
	}}
	prices := &fakePrices{quotes: map[string]domain.PriceQuote{}, err: errors.New("feed down")}

	svc := newTestService(ledger, &fakeGoals{}, watch, prices)

	dashboard, err := svc.GetDashboard(context.Background(), "user-1")
	require.Error(t, err)

	// The dashboard still carries goals and the unquoted watchlist
	require.Len(t, dashboard.Watchlist, 1)
	assert.False(t, dashboard.Watchlist[0].Quoted)
}
