package masonry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"masonry/internal/sqlfmt"
)

// Record is one applied-migration row in the ledger table.
type Record struct {
	ID        int64  `db:"id"`
	Migration string `db:"migration"`
	Batch     int    `db:"batch"`
	CreatedAt string `db:"created_at"`
}

// Ledger reads and writes the migration record table. The migration column
// carries a storage-level UNIQUE constraint, so two runners racing on the
// same unit cannot both record it; the loser's insert fails and the Migrator
// decides what to do with the conflict.
type Ledger struct {
	exec  Executor
	table string
}

// NewLedger binds a ledger to an executor and record table name.
func NewLedger(exec Executor, table string) *Ledger {
	return &Ledger{exec: exec, table: table}
}

// Table returns the ledger's record table name.
func (l *Ledger) Table() string { return l.table }

// Ensure creates the record table when missing. Only the id column follows
// the executor's dialect; the rest of the DDL is shared.
func (l *Ledger) Ensure(ctx context.Context) error {
	id := "id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
	if l.exec.DialectName() == "sqlite" {
		id = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	stmt := "CREATE TABLE IF NOT EXISTS " + l.table + " (\n" +
		"  " + id + ",\n" +
		"  migration VARCHAR(255) NOT NULL UNIQUE,\n" +
		"  batch INT NOT NULL,\n" +
		"  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP\n" +
		")"
	if err := l.exec.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("masonry: ensuring ledger table %s: %w", l.table, err)
	}
	return nil
}

// Records returns every ledger row in application order.
func (l *Ledger) Records(ctx context.Context) ([]Record, error) {
	var recs []Record
	query := "SELECT id, migration, batch, created_at FROM " + l.table + " ORDER BY id"
	if err := l.exec.Select(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("masonry: reading ledger %s: %w", l.table, err)
	}
	return recs, nil
}

// MaxBatch returns the highest recorded batch number, or 0 when the ledger is
// empty.
func (l *Ledger) MaxBatch(ctx context.Context) (int, error) {
	v, err := l.exec.QueryScalar(ctx, "SELECT COALESCE(MAX(batch), 0) FROM "+l.table)
	if err != nil {
		return 0, fmt.Errorf("masonry: reading max batch from %s: %w", l.table, err)
	}
	return scalarInt(v)
}

// Append records one applied migration.
func (l *Ledger) Append(ctx context.Context, name string, batch int) error {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	_, err := l.exec.Insert(ctx, l.table,
		[]string{"migration", "batch", "created_at"},
		[]any{name, batch, now})
	if err != nil {
		return fmt.Errorf("masonry: recording migration %q: %w", name, err)
	}
	return nil
}

// Delete removes the record for one migration name.
func (l *Ledger) Delete(ctx context.Context, name string) error {
	stmt := "DELETE FROM " + l.table + " WHERE migration = " + sqlfmt.QuoteString(name)
	if err := l.exec.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("masonry: deleting migration record %q: %w", name, err)
	}
	return nil
}

// scalarInt coerces the driver-dependent types a scalar aggregate can come
// back as.
func scalarInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case []byte:
		return strconv.Atoi(string(n))
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("masonry: unexpected scalar type %T", v)
	}
}
