// Package ledger implements the append-only transaction ledger.
// The ledger is the source of truth: holdings are never stored, they are
// derived by replaying a user's transactions.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// Repository handles transaction persistence in ledger.db.
// Records are append-only; there are no update or delete methods.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "ledger").Logger(),
	}
}

// Insert appends a transaction to the ledger. The write is a single atomic
// INSERT; there are no partial records.
func (r *Repository) Insert(tx domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, user_id, symbol, name, kind, quantity, unit_price, asset_type, executed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.Exec(query,
		tx.ID,
		tx.UserID,
		tx.Symbol,
		tx.Name,
		string(tx.Kind),
		tx.Quantity,
		tx.UnitPrice,
		string(tx.AssetType),
		tx.ExecutedAt.Unix(),
		tx.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	r.log.Info().
		Str("id", tx.ID).
		Str("user_id", tx.UserID).
		Str("symbol", tx.Symbol).
		Str("kind", string(tx.Kind)).
		Float64("quantity", tx.Quantity).
		Msg("Transaction recorded")

	return nil
}

// ListByUser returns a user's transactions in chronological order.
// The (executed_at, id) ordering is stable, so iteration is restartable.
// An empty symbol returns all of the user's transactions.
func (r *Repository) ListByUser(userID, symbol string) ([]domain.Transaction, error) {
	query := `SELECT id, user_id, symbol, name, kind, quantity, unit_price, asset_type,
		executed_at, created_at
		FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}

	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, normalizeSymbol(symbol))
	}

	query += " ORDER BY executed_at ASC, id ASC"

	rows, err := r.ledgerDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// Symbols returns the distinct symbols a user has ever transacted in
func (r *Repository) Symbols(userID string) ([]string, error) {
	rows, err := r.ledgerDB.Query("SELECT DISTINCT symbol FROM transactions WHERE user_id = ? ORDER BY symbol", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
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

// scanTransaction scans a database row into a domain.Transaction
func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var tx domain.Transaction
	var kind, assetType string
	var executedAtUnix, createdAtUnix int64

	err := rows.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Symbol,
		&tx.Name,
		&kind,
		&tx.Quantity,
		&tx.UnitPrice,
		&assetType,
		&executedAtUnix,
		&createdAtUnix,
	)
	if err != nil {
		return tx, err
	}

	tx.Kind = domain.TransactionKind(kind)
	tx.AssetType = domain.AssetType(assetType)
	tx.ExecutedAt = time.Unix(executedAtUnix, 0).UTC()
	tx.CreatedAt = time.Unix(createdAtUnix, 0).UTC()

	return tx, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
