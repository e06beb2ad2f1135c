// Package testutil opens migrated SQLite databases for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/garyjia/expense-approvals/migrations"
	"github.com/garyjia/expense-approvals/pkg/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewDB returns a freshly migrated SQLite database under t.TempDir()
func NewDB(t *testing.T) *database.DB {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dir, err := migrations.Dir(db.Driver())
	require.NoError(t, err)
	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(context.Background(), migrations.FS, dir))

	return db
}
