package masonry

import "errors"

// Package-level errors. Callers match them with errors.Is to tell a bad
// declaration apart from an execution failure reported by the database
// executor.
var (
	// ErrEmptyEnum is reported when an enum column is declared with no
	// allowed values.
	ErrEmptyEnum = errors.New("masonry: enum column requires at least one allowed value")
	// ErrEnumDefault is reported when a default value is not a member of the
	// enum column's allowed set.
	ErrEnumDefault     = errors.New("masonry: enum default value is not in the allowed set")
	ErrNilExecutor     = errors.New("masonry: database executor not set")
	ErrLockNotAcquired = errors.New("masonry: could not acquire lock")
)
