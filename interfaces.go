// interfaces.go
// Core interfaces for masonry: Executor and Locker.
// These are public and intended for use by users and driver developers.

package masonry

import (
	"context"
	"time"
)

// Executor is the database collaborator that Schema and Migrator run
// statements through. Implementations live under drivers/db and are injected
// explicitly; masonry holds no package-level connection state.
//
// DDL text reaching Exec interpolates table and column names directly, so
// identifiers must be pre-validated by the caller. String literal values are
// already quoted by the builder.
type Executor interface {
	// DialectName reports the driver's dialect identifier, e.g. "sqlite" or
	// "mysql".
	DialectName() string
	// Exists reports whether the table is present in the connected database.
	Exists(ctx context.Context, table string) (bool, error)
	// HasColumn reports whether the table has the named column.
	HasColumn(ctx context.Context, table, column string) (bool, error)
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, statement string) error
	// QueryScalar runs a query expected to yield one value. An empty result
	// set yields (nil, nil).
	QueryScalar(ctx context.Context, query string, args ...any) (any, error)
	// Insert adds one row and returns the generated id.
	Insert(ctx context.Context, table string, columns []string, values []any) (int64, error)
	// Select runs a query and scans all rows into dest, which must be a
	// pointer to a slice.
	Select(ctx context.Context, dest any, query string, args ...any) error
	// Close releases the underlying connection pool.
	Close() error
}

// Locker guards a migration run against concurrent runners on other
// processes. It is optional: the ledger's unique migration column remains the
// storage-level backstop, the lock only keeps losers from doing wasted work.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
