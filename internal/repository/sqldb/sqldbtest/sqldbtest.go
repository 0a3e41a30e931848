// Package sqldbtest opens a migrated sqlite store for tests.
package sqldbtest

import (
	"alcyxob/fittrack/internal/db"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/repository/sqldb"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// Open returns a fresh sqlite database under t.TempDir with every migration
// applied. It is closed when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fittrack.db")
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)

	conn, err := db.Init(db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(conn.DB, db.DriverSQLite))
	return conn
}

// NewStore returns the repositories over a fresh sqlite database.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	return sqldb.NewStore(Open(t))
}
