package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSplitStatements(t *testing.T) {
	sql := `
-- header comment
CREATE TABLE a (id INTEGER);

-- only a comment;
CREATE TABLE b (
    id INTEGER
);
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INTEGER)", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE b")
}

func TestLoadMigrations_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_second.sql": {Data: []byte("SELECT 2;")},
		"m/001_first.sql":  {Data: []byte("SELECT 1;")},
		"m/README.md":      {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestLoadMigrations_BadFilename(t *testing.T) {
	fsys := fstest.MapFS{"m/init.sql": {Data: []byte("SELECT 1;")}}

	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := New(Config{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "nested", "m.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"m/001_items.sql": {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY);")},
		"m/002_seed.sql":  {Data: []byte("INSERT INTO items (id) VALUES (1);\nINSERT INTO items (id) VALUES (2);")},
	}

	ctx := context.Background()
	migrator := NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations(ctx, fsys, "m"))
	require.NoError(t, migrator.RunMigrations(ctx, fsys, "m"))

	var items, applied int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&items))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, items)
	assert.Equal(t, 2, applied)
}

func TestDataSourceName(t *testing.T) {
	_, err := dataSourceName(DriverSQLite, Config{})
	assert.Error(t, err)

	_, err = dataSourceName(DriverMySQL, Config{})
	assert.Error(t, err)

	_, err = dataSourceName("postgres", Config{DSN: "x"})
	assert.Error(t, err)

	dsn, err := dataSourceName(DriverMySQL, Config{DSN: "u:p@tcp(db)/x?parseTime=true"})
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(db)/x?parseTime=true", dsn)
}
