// Package sqlfmt renders SQL literals and the derived names of schema
// objects, shared by the table builder and the migration ledger.
package sqlfmt

import (
	"fmt"
	"strings"
	"time"
)

// Raw marks a value that must be emitted into SQL text verbatim, without
// quoting (e.g. CURRENT_TIMESTAMP).
type Raw string

// QuoteString returns a single-quoted SQL string literal with embedded quotes
// doubled.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders a Go value as a SQL literal. Strings are quoted, booleans
// become 1/0, nil becomes NULL, and everything else uses its plain textual
// form.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case Raw:
		return string(x)
	case string:
		return QuoteString(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return QuoteString(x.UTC().Format("2006-01-02 15:04:05"))
	case []byte:
		return QuoteString(string(x))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IndexName derives the deterministic name for an index or constraint: the
// table name and column names joined by underscores.
func IndexName(table string, columns ...string) string {
	parts := append([]string{table}, columns...)
	return strings.Join(parts, "_")
}

// ForeignKeyName derives the constraint name for a foreign key declaration.
func ForeignKeyName(table, column string) string {
	return "fk_" + table + "_" + column
}

// ColumnList joins column names for use inside parentheses.
func ColumnList(columns []string) string {
	return strings.Join(columns, ", ")
}
