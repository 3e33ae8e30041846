package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createMarketplaceTransactionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE marketplace_transactions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		action TEXT NOT NULL,
		token_id TEXT NOT NULL,
		tx_hash TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		error TEXT,
		block_number INTEGER,
		confirmed_at DATETIME,
		last_checked_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}
