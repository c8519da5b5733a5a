// Package sqlite backs a masonry.Executor with an SQLite database via
// mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"masonry"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
)

// Compile-time check to ensure DB implements the masonry.Executor interface.
var _ masonry.Executor = (*DB)(nil)

var errClosed = errors.New("sqlite executor is closed")

// DB runs schema statements against an SQLite connection pool.
type DB struct {
	db      *sqlx.DB
	closeMx sync.Mutex
	closed  bool
}

// Open connects to the SQLite database at dsn and verifies the connection.
func Open(dsn string) (*DB, error) {
	// sqlx.Connect combines sql.Open and Ping.
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite database (%s): %w", dsn, err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	return &DB{db: db}, nil
}

// DialectName identifies the SQL dialect this executor speaks.
func (d *DB) DialectName() string {
	return "sqlite"
}

// Exists reports whether a table with the given name is present.
func (d *DB) Exists(ctx context.Context, table string) (bool, error) {
	if d.isClosed() {
		return false, errClosed
	}
	var n int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	if err := d.db.GetContext(ctx, &n, query, table); err != nil {
		return false, fmt.Errorf("sqlite table lookup failed: %w", err)
	}
	return n > 0, nil
}

// HasColumn reports whether the table has a column with the given name.
func (d *DB) HasColumn(ctx context.Context, table, column string) (bool, error) {
	if d.isClosed() {
		return false, errClosed
	}
	var n int
	query := "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?"
	if err := d.db.GetContext(ctx, &n, query, table, column); err != nil {
		return false, fmt.Errorf("sqlite column lookup failed: %w", err)
	}
	return n > 0, nil
}

// Exec runs one statement that returns no rows.
func (d *DB) Exec(ctx context.Context, statement string) error {
	if d.isClosed() {
		return errClosed
	}
	if _, err := d.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("sqlite Exec failed: %w", err)
	}
	return nil
}

// QueryScalar runs a query expected to yield at most one value. A query with
// no rows returns nil without error.
func (d *DB) QueryScalar(ctx context.Context, query string, args ...any) (any, error) {
	if d.isClosed() {
		return nil, errClosed
	}
	var v any
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite scalar query failed: %w", err)
	}
	return v, nil
}

// Insert adds one row and returns its generated id.
func (d *DB) Insert(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	if d.isClosed() {
		return 0, errClosed
	}
	if len(columns) != len(values) {
		return 0, fmt.Errorf("sqlite Insert: %d columns with %d values", len(columns), len(values))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + placeholders + ")"
	res, err := d.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, fmt.Errorf("sqlite Insert failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite Insert failed reading generated id: %w", err)
	}
	return id, nil
}

// Select runs a query and scans every row into dest, a pointer to a slice.
func (d *DB) Select(ctx context.Context, dest any, query string, args ...any) error {
	if d.isClosed() {
		return errClosed
	}
	if err := d.db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("sqlite Select failed: %w", err)
	}
	return nil
}

// Close closes the connection pool. Further calls are no-ops.
func (d *DB) Close() error {
	d.closeMx.Lock()
	defer d.closeMx.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

func (d *DB) isClosed() bool {
	d.closeMx.Lock()
	defer d.closeMx.Unlock()
	return d.closed
}

// Unwrap returns the underlying pool for use outside the Executor surface.
func (d *DB) Unwrap() *sqlx.DB {
	return d.db
}
