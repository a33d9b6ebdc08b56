// Package aggregation assembles read-only projections for the presentation
// layer. It composes the other modules and carries no business logic of its
// own; every mutation goes through the ledger, goal, or watchlist services
// directly.
package aggregation

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/goals"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/valuation"
	"github.com/sagarwalke-dev/portfolio-engine/internal/modules/watchlist"
)

// topGoalCount bounds how many goals appear on the dashboard
const topGoalCount = 3

// TransactionLister is the slice of the ledger service the façade reads from
type TransactionLister interface {
	ListTransactions(ctx context.Context, userID, symbol string) ([]domain.Transaction, error)
}

// GoalLister is the slice of the goal service the façade reads from
type GoalLister interface {
	List(ctx context.Context, userID string) ([]goals.GoalWithProjection, error)
}

// WatchlistLister is the slice of the watchlist service the façade reads from
type WatchlistLister interface {
	List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error)
}

// AllocationSlice is one wedge of the allocation breakdown
type AllocationSlice struct {
	Type    domain.AssetType `json:"type"`
	Percent float64          `json:"percent"`
}

// PortfolioSummary is the read-only portfolio projection
type PortfolioSummary struct {
	TotalInvested      float64           `json:"total_invested"`
	TotalCurrent       float64           `json:"total_current"`
	TotalReturn        float64           `json:"total_return"`
	TotalReturnPercent float64           `json:"total_return_percent"`
	Holdings           []domain.Holding  `json:"holdings"`
	Allocation         []AllocationSlice `json:"allocation"`
}

// Dashboard is the combined landing-page projection
type Dashboard struct {
	Summary   PortfolioSummary          `json:"summary"`
	TopGoals  []goals.GoalWithProjection `json:"top_goals"`
	Watchlist []watchlist.QuotedEntry    `json:"watchlist"`
}

// Service is the read-only aggregation façade
type Service struct {
	ledger      TransactionLister
	goals       GoalLister
	watchlist   WatchlistLister
	prices      domain.PriceProvider
	quoteMaxAge time.Duration
	log         zerolog.Logger
}

// NewService creates a new aggregation service
func NewService(
	ledger TransactionLister,
	goalSvc GoalLister,
	watchlistSvc WatchlistLister,
	prices domain.PriceProvider,
	quoteMaxAge time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		ledger:      ledger,
		goals:       goalSvc,
		watchlist:   watchlistSvc,
		prices:      prices,
		quoteMaxAge: quoteMaxAge,
		log:         log.With().Str("service", "aggregation").Logger(),
	}
}

// GetPortfolioSummary composes the valuation engine output for a user.
//
// A non-nil error alongside a non-empty summary is a partial failure:
// symbols without a fresh quote are missing from the holdings and the error
// says which (MissingPriceError / StaleQuoteError per symbol).
func (s *Service) GetPortfolioSummary(ctx context.Context, userID string) (PortfolioSummary, error) {
	txs, err := s.ledger.ListTransactions(ctx, userID, "")
	if err != nil {
		return PortfolioSummary{}, err
	}

	symbols := heldSymbols(txs)

	quotes := map[string]domain.PriceQuote{}
	if len(symbols) > 0 {
		quotes, err = s.prices.GetQuotes(ctx, symbols)
		if err != nil {
			// Keep going with whatever was quoted; valuation reports the
			// missing symbols explicitly.
			s.log.Warn().Err(err).Str("user_id", userID).Msg("Price feed degraded")
		}
	}

	holdings, valErr := valuation.ComputeHoldings(txs, quotes, valuation.Options{
		MaxQuoteAge: s.quoteMaxAge,
	})

	summary := summarize(holdings)
	return summary, valErr
}

// GetDashboard combines the portfolio summary with top goals and the
// watchlist snapshot. Read-only.
func (s *Service) GetDashboard(ctx context.Context, userID string) (Dashboard, error) {
	summary, valErr := s.GetPortfolioSummary(ctx, userID)

	goalList, err := s.goals.List(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	if len(goalList) > topGoalCount {
		goalList = goalList[:topGoalCount]
	}

	entries, err := s.watchlist.List(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	quotes := map[string]domain.PriceQuote{}
	if len(entries) > 0 {
		symbols := make([]string, 0, len(entries))
		for _, e := range entries {
			symbols = append(symbols, e.Symbol)
		}
		quotes, err = s.prices.GetQuotes(ctx, symbols)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("Watchlist quotes degraded")
		}
	}

	return Dashboard{
		Summary:   summary,
		TopGoals:  goalList,
		Watchlist: watchlist.RefreshQuotes(entries, quotes),
	}, valErr
}

// summarize folds holdings into portfolio totals and an allocation breakdown
func summarize(holdings []domain.Holding) PortfolioSummary {
	summary := PortfolioSummary{Holdings: holdings}

	for _, h := range holdings {
		summary.TotalInvested += h.CostBasis()
		summary.TotalCurrent += h.MarketValue
	}
	summary.TotalReturn = summary.TotalCurrent - summary.TotalInvested
	if summary.TotalInvested > 0 {
		summary.TotalReturnPercent = summary.TotalReturn / summary.TotalInvested * 100
	}

	byType := valuation.AllocationByType(holdings)
	for assetType, percent := range byType {
		summary.Allocation = append(summary.Allocation, AllocationSlice{Type: assetType, Percent: percent})
	}
	sort.Slice(summary.Allocation, func(i, j int) bool {
		return summary.Allocation[i].Percent > summary.Allocation[j].Percent
	})

	return summary
}

// heldSymbols returns symbols with a positive net quantity
func heldSymbols(txs []domain.Transaction) []string {
	net := make(map[string]float64)
	var order []string
	for _, tx := range txs {
		if _, ok := net[tx.Symbol]; !ok {
			order = append(order, tx.Symbol)
		}
		if tx.Kind == domain.KindBuy {
			net[tx.Symbol] += tx.Quantity
		} else if tx.Kind.Reduces() {
			net[tx.Symbol] -= tx.Quantity
		}
	}

	var symbols []string
	for _, symbol := range order {
		if net[symbol] > 0 {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}
