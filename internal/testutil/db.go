// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalcoach/internal/db"
)

// NewTestDB returns a migrated SQLite database in a temporary directory.
func NewTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	conn, err := db.Init(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), conn.DB, db.DriverSQLite))
	return conn
}
