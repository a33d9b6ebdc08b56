package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateLedgerSchema(t *testing.T) {
	db := openTestDB(t, "ledger", ProfileLedger)
	require.NoError(t, db.Migrate())

	// Migration is idempotent
	require.NoError(t, db.Migrate())

	_, err := db.Conn().Exec(`
		INSERT INTO transactions (id, user_id, symbol, kind, quantity, unit_price, executed_at, created_at)
		VALUES ('tx-1', 'user-1', 'AAPL', 'buy', 10, 150, 1700000000, 1700000000)
	`)
	require.NoError(t, err)

	// The CHECK constraint rejects unknown kinds
	_, err = db.Conn().Exec(`
		INSERT INTO transactions (id, user_id, symbol, kind, quantity, unit_price, executed_at, created_at)
		VALUES ('tx-2', 'user-1', 'AAPL', 'transfer', 10, 150, 1700000000, 1700000000)
	`)
	assert.Error(t, err)
}

func TestMigrateCoreSchema(t *testing.T) {
	db := openTestDB(t, "core", ProfileStandard)
	require.NoError(t, db.Migrate())

	_, err := db.Conn().Exec(`
		INSERT INTO watchlist (id, user_id, symbol, created_at)
		VALUES ('w-1', 'user-1', 'AAPL', 1700000000)
	`)
	require.NoError(t, err)

	// UNIQUE(user_id, symbol)
	_, err = db.Conn().Exec(`
		INSERT INTO watchlist (id, user_id, symbol, created_at)
		VALUES ('w-2', 'user-1', 'AAPL', 1700000000)
	`)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t, "cache", ProfileCache)
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.QuickCheck(context.Background()))
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestSnapshot(t *testing.T) {
	db := openTestDB(t, "ledger", ProfileLedger)
	require.NoError(t, db.Migrate())

	_, err := db.Conn().Exec(`
		INSERT INTO transactions (id, user_id, symbol, kind, quantity, unit_price, executed_at, created_at)
		VALUES ('tx-1', 'user-1', 'AAPL', 'buy', 10, 150, 1700000000, 1700000000)
	`)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, db.Snapshot(dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// The snapshot is a readable database with the data in it
	snap, err := New(Config{Path: dest, Profile: ProfileStandard, Name: "snapshot"})
	require.NoError(t, err)
	defer snap.Close()

	var count int
	require.NoError(t, snap.Conn().QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := openTestDB(t, "core", ProfileStandard)
	require.NoError(t, db.Migrate())

	boom := errors.New("boom")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO goals (id, user_id, name, target_amount, deadline, created_at, updated_at)
			VALUES ('g-1', 'user-1', 'House', 1000, 1800000000, 1700000000, 1700000000)
		`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM goals").Scan(&count))
	assert.Equal(t, 0, count)
}
