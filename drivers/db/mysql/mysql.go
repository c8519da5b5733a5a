// Package mysql backs a masonry.Executor with a MySQL database via
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"masonry"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = time.Hour
)

// Compile-time check to ensure DB implements the masonry.Executor interface.
var _ masonry.Executor = (*DB)(nil)

var errClosed = errors.New("mysql executor is closed")

// DB runs schema statements against a MySQL connection pool. Table lookups
// are scoped to the schema the DSN selects, so the DSN must name a database.
type DB struct {
	db      *sqlx.DB
	closeMx sync.Mutex
	closed  bool
}

// Open connects to the MySQL database the DSN describes and verifies the
// connection.
func Open(dsn string) (*DB, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	return &DB{db: db}, nil
}

// DialectName identifies the SQL dialect this executor speaks.
func (d *DB) DialectName() string {
	return "mysql"
}

// Exists reports whether the current schema has a table with the given name.
func (d *DB) Exists(ctx context.Context, table string) (bool, error) {
	if d.isClosed() {
		return false, errClosed
	}
	var n int
	query := "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	if err := d.db.GetContext(ctx, &n, query, table); err != nil {
		return false, fmt.Errorf("mysql table lookup failed: %w", err)
	}
	return n > 0, nil
}

// HasColumn reports whether the table has a column with the given name.
func (d *DB) HasColumn(ctx context.Context, table, column string) (bool, error) {
	if d.isClosed() {
		return false, errClosed
	}
	var n int
	query := "SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?"
	if err := d.db.GetContext(ctx, &n, query, table, column); err != nil {
		return false, fmt.Errorf("mysql column lookup failed: %w", err)
	}
	return n > 0, nil
}

// Exec runs one statement that returns no rows.
func (d *DB) Exec(ctx context.Context, statement string) error {
	if d.isClosed() {
		return errClosed
	}
	if _, err := d.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("mysql Exec failed: %w", err)
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
		return nil, fmt.Errorf("mysql scalar query failed: %w", err)
	}
	return v, nil
}

// Insert adds one row and returns its generated id.
func (d *DB) Insert(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	if d.isClosed() {
		return 0, errClosed
	}
	if len(columns) != len(values) {
		return 0, fmt.Errorf("mysql Insert: %d columns with %d values", len(columns), len(values))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + placeholders + ")"
	res, err := d.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, fmt.Errorf("mysql Insert failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("mysql Insert failed reading generated id: %w", err)
	}
	return id, nil
}

// Select runs a query and scans every row into dest, a pointer to a slice.
func (d *DB) Select(ctx context.Context, dest any, query string, args ...any) error {
	if d.isClosed() {
		return errClosed
	}
	if err := d.db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("mysql Select failed: %w", err)
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
