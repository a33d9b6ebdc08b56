// Package watchlist maintains per-user lists of tracked symbols,
// independent of holdings. The watchlist owns no price state.
package watchlist

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// Repository handles watchlist persistence in core.db
type Repository struct {
	coreDB *sql.DB
	log    zerolog.Logger
}

// NewRepository creates a new watchlist repository
func NewRepository(coreDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		coreDB: coreDB,
		log:    log.With().Str("repo", "watchlist").Logger(),
	}
}

// Insert stores a new watchlist entry. The UNIQUE(user_id, symbol)
// constraint backs the duplicate check in the service.
func (r *Repository) Insert(entry domain.WatchlistEntry) error {
	query := `
		INSERT INTO watchlist
		(id, user_id, symbol, name, asset_type, notification_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.coreDB.Exec(query,
		entry.ID,
		entry.UserID,
		entry.Symbol,
		entry.Name,
		string(entry.AssetType),
		boolToInt(entry.NotificationEnabled),
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return &domain.DuplicateEntryError{UserID: entry.UserID, Symbol: entry.Symbol}
		}
		return fmt.Errorf("failed to insert watchlist entry: %w", err)
	}

	r.log.Info().Str("id", entry.ID).Str("user_id", entry.UserID).Str("symbol", entry.Symbol).Msg("Watchlist entry added")
	return nil
}

// Exists reports whether the user already tracks the symbol
func (r *Repository) Exists(userID, symbol string) (bool, error) {
	var count int
	err := r.coreDB.QueryRow(
		"SELECT COUNT(*) FROM watchlist WHERE user_id = ? AND symbol = ?",
		userID, symbol,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist entry: %w", err)
	}
	return count > 0, nil
}

// ListByUser returns a user's watchlist entries, oldest first
func (r *Repository) ListByUser(userID string) ([]domain.WatchlistEntry, error) {
	query := `SELECT id, user_id, symbol, name, asset_type, notification_enabled, created_at
		FROM watchlist WHERE user_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := r.coreDB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var entries []domain.WatchlistEntry
	for rows.Next() {
		var entry domain.WatchlistEntry
		var assetType string
		var notify int
		var createdAtUnix int64

		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Symbol, &entry.Name,
			&assetType, &notify, &createdAtUnix,
		); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}

		entry.AssetType = domain.AssetType(assetType)
		entry.NotificationEnabled = notify != 0
		entry.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Delete removes an entry owned by the given user
func (r *Repository) Delete(userID, id string) error {
	result, err := r.coreDB.Exec("DELETE FROM watchlist WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return &domain.NotFoundError{Entity: "watchlist entry", ID: id}
	}

	r.log.Info().Str("id", id).Str("user_id", userID).Msg("Watchlist entry removed")
	return nil
}

// SetNotification toggles the notification flag on an entry
func (r *Repository) SetNotification(userID, id string, enabled bool) error {
	result, err := r.coreDB.Exec(
		"UPDATE watchlist SET notification_enabled = ? WHERE id = ? AND user_id = ?",
		boolToInt(enabled), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification flag: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return &domain.NotFoundError{Entity: "watchlist entry", ID: id}
	}

	return nil
}

// AllSymbols returns the distinct symbols across all users' watchlists.
// Used by the quote refresh job.
func (r *Repository) AllSymbols() ([]string, error) {
	rows, err := r.coreDB.Query("SELECT DISTINCT symbol FROM watchlist ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}

	return symbols, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
