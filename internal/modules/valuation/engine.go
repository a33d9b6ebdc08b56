// Package valuation computes derived holdings from the transaction ledger
// and a price feed. Everything here is pure: no persistence, no clocks
// beyond the caller-supplied Now, freely parallelizable across users.
package valuation

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// Options controls quote freshness checking.
type Options struct {
	// Now anchors the staleness check. Zero means time.Now().
	Now time.Time
	// MaxQuoteAge rejects quotes older than this. Zero disables the check.
	MaxQuoteAge time.Duration
}

// position is the running state of one symbol during replay
type position struct {
	symbol    string
	name      string
	assetType domain.AssetType
	quantity  decimal.Decimal
	avgCost   decimal.Decimal

	// dippedNegative records a reduce that drove the running quantity below
	// zero at some point, even if later buys recovered it
	dippedNegative bool
}

// ComputeHoldings replays transactions in chronological order with a
// weighted-average cost basis, then joins against the supplied quotes.
//
// On each buy: newAvgCost = (oldQty*oldAvg + buyQty*buyPrice) / (oldQty+buyQty).
// Sells and withdrawals reduce quantity; average cost is unchanged.
//
// Zero-quantity positions are excluded from the output. Allocation
// percentages are normalized over the returned set so they sum to 100.
//
// A held symbol with no quote (or a stale one) is a partial failure: the
// remaining symbols are still valued and returned, and the error joins one
// MissingPriceError or StaleQuoteError per affected symbol. Stale or absent
// prices are never silently substituted with zero or a last-known value.
//
// A history whose replay drives a position below zero at any point is
// reported per symbol as an InconsistentLedgerError and that symbol is
// excluded, so quantity always equals buys minus sells for every returned
// holding.
func ComputeHoldings(txs []domain.Transaction, quotes map[string]domain.PriceQuote, opts Options) ([]domain.Holding, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	positions := replay(txs)

	var (
		holdings []domain.Holding
		errs     []error
		total    decimal.Decimal
	)

	for _, pos := range positions {
		if pos.dippedNegative {
			errs = append(errs, &domain.InconsistentLedgerError{Symbol: pos.symbol})
			continue
		}
		if pos.quantity.IsZero() {
			continue
		}

		quote, ok := quotes[pos.symbol]
		if !ok {
			errs = append(errs, &domain.MissingPriceError{Symbol: pos.symbol})
			continue
		}
		if !quote.Fresh(now, opts.MaxQuoteAge) {
			errs = append(errs, &domain.StaleQuoteError{
				Symbol: pos.symbol,
				AsOf:   quote.AsOf,
				MaxAge: opts.MaxQuoteAge,
			})
			continue
		}

		price := decimal.NewFromFloat(quote.Price)
		marketValue := pos.quantity.Mul(price)
		costBasis := pos.quantity.Mul(pos.avgCost)
		gain := marketValue.Sub(costBasis)

		var gainPct decimal.Decimal
		if !costBasis.IsZero() {
			gainPct = gain.Div(costBasis).Mul(decimal.NewFromInt(100))
		}

		holdings = append(holdings, domain.Holding{
			Symbol:                pos.symbol,
			Name:                  pos.name,
			AssetType:             pos.assetType,
			Quantity:              pos.quantity.InexactFloat64(),
			AverageCost:           pos.avgCost.InexactFloat64(),
			CurrentPrice:          quote.Price,
			MarketValue:           marketValue.InexactFloat64(),
			UnrealizedGain:        gain.InexactFloat64(),
			UnrealizedGainPercent: gainPct.InexactFloat64(),
		})
		total = total.Add(marketValue)
	}

	// Allocation over the returned set only
	if !total.IsZero() {
		for i := range holdings {
			value := decimal.NewFromFloat(holdings[i].MarketValue)
			holdings[i].AllocationPercent = value.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
	}

	return holdings, errors.Join(errs...)
}

// AllocationByType aggregates holdings into allocation percentages per
// asset type, over the given set only.
func AllocationByType(holdings []domain.Holding) map[domain.AssetType]float64 {
	var total float64
	for _, h := range holdings {
		total += h.MarketValue
	}

	out := make(map[domain.AssetType]float64)
	if total == 0 {
		return out
	}
	for _, h := range holdings {
		out[h.AssetType] += h.MarketValue / total * 100
	}
	return out
}

// replay folds transactions into per-symbol positions. Input order does not
// matter; transactions are sorted chronologically first.
func replay(txs []domain.Transaction) []position {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ExecutedAt.Equal(sorted[j].ExecutedAt) {
			return sorted[i].ExecutedAt.Before(sorted[j].ExecutedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	bySymbol := make(map[string]*position)
	var order []*position

	for _, tx := range sorted {
		pos, ok := bySymbol[tx.Symbol]
		if !ok {
			pos = &position{
				symbol:    tx.Symbol,
				name:      tx.Name,
				assetType: tx.AssetType,
			}
			bySymbol[tx.Symbol] = pos
			order = append(order, pos)
		}
		if pos.name == "" && tx.Name != "" {
			pos.name = tx.Name
		}

		qty := decimal.NewFromFloat(tx.Quantity)
		price := decimal.NewFromFloat(tx.UnitPrice)

		switch {
		case tx.Kind == domain.KindBuy:
			newQty := pos.quantity.Add(qty)
			if newQty.IsPositive() {
				// Weighted-average cost: the only place avgCost moves
				pos.avgCost = pos.quantity.Mul(pos.avgCost).Add(qty.Mul(price)).Div(newQty)
			}
			pos.quantity = newQty

		case tx.Kind.Reduces():
			pos.quantity = pos.quantity.Sub(qty)
			if pos.quantity.IsNegative() {
				// The ledger rejects oversells at record time; a history
				// written by another system may not have been checked.
				// The position is poisoned rather than clamped to zero.
				pos.dippedNegative = true
			}
		}
	}

	result := make([]position, 0, len(order))
	for _, pos := range order {
		result = append(result, *pos)
	}
	return result
}
