// Package domain contains the pure domain model for the portfolio engine.
// No infrastructure dependencies are allowed here.
package domain

import "time"

// TransactionKind is the type of a ledger transaction
type TransactionKind string

const (
	// KindBuy adds quantity to a position and moves its average cost
	KindBuy TransactionKind = "buy"
	// KindSell reduces quantity; average cost is unchanged
	KindSell TransactionKind = "sell"
	// KindWithdrawal liquidates part of a position to cash out
	KindWithdrawal TransactionKind = "withdrawal"
)

// Valid reports whether the kind is one of the known transaction kinds
func (k TransactionKind) Valid() bool {
	switch k {
	case KindBuy, KindSell, KindWithdrawal:
		return true
	}
	return false
}

// Reduces reports whether the kind reduces the held quantity
func (k TransactionKind) Reduces() bool {
	return k == KindSell || k == KindWithdrawal
}

// AssetType categorizes an instrument for allocation breakdowns
type AssetType string

const (
	AssetStocks      AssetType = "stocks"
	AssetMutualFunds AssetType = "mutual_funds"
	AssetCrypto      AssetType = "crypto"
	AssetGold        AssetType = "gold"
	AssetCash        AssetType = "cash"
)

// Transaction is an immutable ledger record. Once recorded it is never
// updated or deleted; holdings are always derived by replaying transactions.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Kind       TransactionKind `json:"kind"`
	Quantity   float64         `json:"quantity"`
	UnitPrice  float64         `json:"unit_price"`
	AssetType  AssetType       `json:"asset_type"`
	ExecutedAt time.Time       `json:"executed_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Holding is a derived position. It is recomputed on demand from the
// transaction history plus a price feed and is never stored.
type Holding struct {
	Symbol                string    `json:"symbol"`
	Name                  string    `json:"name"`
	AssetType             AssetType `json:"asset_type"`
	Quantity              float64   `json:"quantity"`
	AverageCost           float64   `json:"average_cost"`
	CurrentPrice          float64   `json:"current_price"`
	MarketValue           float64   `json:"market_value"`
	UnrealizedGain        float64   `json:"unrealized_gain"`
	UnrealizedGainPercent float64   `json:"unrealized_gain_percent"`
	AllocationPercent     float64   `json:"allocation_percent"`
}

// CostBasis returns the total amount invested in the remaining position
func (h Holding) CostBasis() float64 {
	return h.Quantity * h.AverageCost
}

// GoalPriority ranks goals for dashboard ordering
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

// Valid reports whether the priority is one of the known levels
func (p GoalPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank returns a sortable weight, highest priority first
func (p GoalPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Goal is a financial goal owned by a user. CurrentAmount is mutable via
// explicit contributions; everything else is set at creation.
type Goal struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	Name          string       `json:"name"`
	TargetAmount  float64      `json:"target_amount"`
	CurrentAmount float64      `json:"current_amount"`
	Deadline      time.Time    `json:"deadline"`
	Priority      GoalPriority `json:"priority"`
	GoalType      string       `json:"goal_type"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// GoalProjection is the derived progress report for a goal.
// Overdue is a distinct outcome: when the deadline has arrived with the goal
// unmet, no monthly contribution is recommended (never Inf or NaN).
type GoalProjection struct {
	MonthsRemaining                int     `json:"months_remaining"`
	AmountRemaining                float64 `json:"amount_remaining"`
	RecommendedMonthlyContribution float64 `json:"recommended_monthly_contribution"`
	ProgressPercent                float64 `json:"progress_percent"`
	Overdue                        bool    `json:"overdue"`
}

// WatchlistEntry tracks a symbol independent of holdings. It owns no price
// state; quotes are always recomputed from the feed.
type WatchlistEntry struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Symbol              string    `json:"symbol"`
	Name                string    `json:"name"`
	AssetType           AssetType `json:"asset_type"`
	NotificationEnabled bool      `json:"notification_enabled"`
	CreatedAt           time.Time `json:"created_at"`
}

// PriceQuote is market data supplied by an external collaborator.
// The engine never fabricates prices except in test doubles.
type PriceQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	AsOf          time.Time `json:"as_of"`
}

// Fresh reports whether the quote is younger than maxAge at the given time.
// A zero maxAge disables the staleness check.
func (q PriceQuote) Fresh(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return true
	}
	return now.Sub(q.AsOf) <= maxAge
}
