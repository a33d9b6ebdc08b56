package domain

import (
	"fmt"
	"time"
)

// All engine errors are typed so callers can branch on kind with errors.As.
// Nothing in the engine retries automatically; transient feed failures are
// the caller's responsibility.

// ValidationError reports malformed or out-of-range input. It is returned
// before any mutation, so the caller can correct the input and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// InsufficientHoldingsError reports a sell or withdrawal that exceeds the
// currently held quantity. No partial sale occurs.
type InsufficientHoldingsError struct {
	Symbol    string
	Requested float64
	Held      float64
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings for %s: requested %g, held %g", e.Symbol, e.Requested, e.Held)
}

// MissingPriceError reports that no quote was available for a held symbol.
// Valuation fails explicitly rather than defaulting to zero or a stale value.
// It is a partial failure: other symbols may still have valued successfully.
type MissingPriceError struct {
	Symbol string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("no price quote for %s", e.Symbol)
}

// StaleQuoteError reports a quote older than the freshness threshold.
// Stale valuations must never be presented as current.
type StaleQuoteError struct {
	Symbol string
	AsOf   time.Time
	MaxAge time.Duration
}

func (e *StaleQuoteError) Error() string {
	return fmt.Sprintf("quote for %s is stale (as of %s, max age %s)", e.Symbol, e.AsOf.Format(time.RFC3339), e.MaxAge)
}

// InconsistentLedgerError reports a transaction history whose chronological
// replay drives a position below zero. The ledger rejects such histories at
// record time, so this only occurs for records written by another system.
// The affected symbol is excluded from valuation rather than clamped to zero.
type InconsistentLedgerError struct {
	Symbol string
}

func (e *InconsistentLedgerError) Error() string {
	return fmt.Sprintf("transaction history for %s replays to a negative quantity", e.Symbol)
}

// DuplicateEntryError reports a watchlist add for a symbol the user already
// tracks. Adds are idempotent-safe by rejecting rather than silently merging.
type DuplicateEntryError struct {
	UserID string
	Symbol string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("symbol %s is already on the watchlist", e.Symbol)
}

// NotFoundError reports a lookup for an entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
