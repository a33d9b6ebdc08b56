// Package quotecache provides persistent caching for price quotes.
// Quotes are stored as msgpack blobs with expiration timestamps. Reads are
// fresh-only: an expired quote is treated as absent, never served. Stale
// prices must never leak into a valuation.
package quotecache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// TTL constants for cached quote data.
const (
	// TTLQuote bounds how long a quote may serve valuation requests
	TTLQuote = 10 * time.Minute
)

// cachedQuote is the blob layout stored in cache.db
type cachedQuote struct {
	Price         float64   `msgpack:"price"`
	ChangePercent float64   `msgpack:"change_percent"`
	AsOf          time.Time `msgpack:"as_of"`
}

// Repository provides cache operations for quotes
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new quote cache repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Store saves a quote with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert.
func (r *Repository) Store(quote domain.PriceQuote, ttl time.Duration) error {
	blob, err := msgpack.Marshal(cachedQuote{
		Price:         quote.Price,
		ChangePercent: quote.ChangePercent,
		AsOf:          quote.AsOf,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	now := time.Now()
	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO quotes (symbol, data, expires_at, updated_at) VALUES (?, ?, ?, ?)",
		quote.Symbol, blob, now.Add(ttl).Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store quote: %w", err)
	}

	return nil
}

// GetIfFresh returns the cached quote for a symbol if it has not expired.
// Returns (nil, nil) on a miss or an expired entry.
func (r *Repository) GetIfFresh(symbol string) (*domain.PriceQuote, error) {
	var blob []byte
	var expiresAt int64

	err := r.db.QueryRow(
		"SELECT data, expires_at FROM quotes WHERE symbol = ?",
		symbol,
	).Scan(&blob, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached quote: %w", err)
	}

	if time.Now().Unix() >= expiresAt {
		return nil, nil
	}

	var cached cachedQuote
	if err := msgpack.Unmarshal(blob, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}

	return &domain.PriceQuote{
		Symbol:        symbol,
		Price:         cached.Price,
		ChangePercent: cached.ChangePercent,
		AsOf:          cached.AsOf,
	}, nil
}

// DeleteExpired removes entries past their expiration.
// Returns the number of rows removed.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM quotes WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired quotes: %w", err)
	}

	removed, _ := result.RowsAffected()
	return removed, nil
}
