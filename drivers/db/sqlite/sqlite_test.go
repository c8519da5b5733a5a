package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"masonry"
	"masonry/drivers/db/sqlite"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "masonry_test.db") + "?_busy_timeout=5000"
	db, err := sqlite.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenRejectsBadPath(t *testing.T) {
	_, err := sqlite.Open(filepath.Join(t.TempDir(), "no", "such", "dir", "x.db"))
	assert.Error(t, err)
}

func TestDialectName(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, "sqlite", db.DialectName())
}

func TestExistsAndHasColumn(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Exec(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name VARCHAR(255) NOT NULL)"))

	ok, err := db.Exists(ctx, "items")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.HasColumn(ctx, "items", "name")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.HasColumn(ctx, "items", "price")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryScalar(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Exec(ctx, "CREATE TABLE counters (batch INT NOT NULL)"))

	// Aggregates always yield a row, even over an empty table.
	v, err := db.QueryScalar(ctx, "SELECT COALESCE(MAX(batch), 0) FROM counters")
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)

	require.NoError(t, db.Exec(ctx, "INSERT INTO counters (batch) VALUES (3), (7)"))
	v, err = db.QueryScalar(ctx, "SELECT COALESCE(MAX(batch), 0) FROM counters")
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)

	// A rowless query comes back as nil, not an error.
	v, err = db.QueryScalar(ctx, "SELECT batch FROM counters WHERE batch = 42")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestInsertAndSelect(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Exec(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name VARCHAR(255) NOT NULL)"))

	id, err := db.Insert(ctx, "items", []string{"name"}, []any{"hammer"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	id, err = db.Insert(ctx, "items", []string{"name"}, []any{"chisel"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, id)

	type item struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	var items []item
	require.NoError(t, db.Select(ctx, &items, "SELECT id, name FROM items ORDER BY id"))
	require.Len(t, items, 2)
	assert.Equal(t, "hammer", items[0].Name)
	assert.Equal(t, "chisel", items[1].Name)
}

func TestInsertRejectsMismatchedValues(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Insert(context.Background(), "items", []string{"a", "b"}, []any{1})
	assert.Error(t, err)
}

func TestClosedExecutorRejectsCalls(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	ctx := context.Background()
	_, err := db.Exists(ctx, "items")
	assert.Error(t, err)
	assert.Error(t, db.Exec(ctx, "CREATE TABLE items (id INT)"))
	_, err = db.QueryScalar(ctx, "SELECT 1")
	assert.Error(t, err)
	_, err = db.Insert(ctx, "items", []string{"id"}, []any{1})
	assert.Error(t, err)
}

func TestConcurrentAppendsHitUniqueColumn(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ledger := masonry.NewLedger(db, "migrations")
	require.NoError(t, ledger.Ensure(ctx))

	// Two runners record the same name; the unique migration column lets
	// exactly one through.
	errs := make([]error, 2)
	var g errgroup.Group
	for i := range errs {
		i := i
		g.Go(func() error {
			errs[i] = ledger.Append(ctx, "0001_create_users", 1)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.Contains(t, err.Error(), "UNIQUE")
		}
	}
	assert.Equal(t, 1, failures)

	v, err := db.QueryScalar(ctx, "SELECT COUNT(*) FROM migrations")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}
