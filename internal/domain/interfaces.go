package domain

import "context"

// PriceProvider supplies current quotes for a set of symbols.
// Implementations must honor context cancellation and deadlines; a symbol
// that could not be quoted in time is simply absent from the result map,
// which valuation surfaces as a MissingPriceError for that symbol.
type PriceProvider interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]PriceQuote, error)
}
