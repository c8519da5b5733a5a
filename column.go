package masonry

import (
	"fmt"
	"slices"
	"strings"

	"masonry/internal/sqlfmt"
)

// Raw marks a default value that is emitted into SQL verbatim, without
// quoting, e.g. masonry.Raw("CURRENT_TIMESTAMP").
type Raw = sqlfmt.Raw

// Column is a handle to one Add or Modify entry of a table's definition
// sequence. Every column method on Table returns one, so modifier calls name
// the entry they rewrite instead of targeting whichever column happens to be
// last. A handle stays valid after further columns are appended and only ever
// touches its own entry.
//
// All methods are no-ops on an invalid handle, matching the forgiving fluent
// contract of the builder.
type Column struct {
	table *Table
	idx   int
	name  string
	enum  []string
	// def remembers the DEFAULT clause this handle appended last, so Default
	// can replace rather than stack it.
	def string
}

// op resolves the handle to its operation, or nil for an invalid handle.
func (c *Column) op() *Operation {
	if c == nil || c.table == nil || c.idx < 0 || c.idx >= len(c.table.ops) {
		return nil
	}
	return &c.table.ops[c.idx]
}

// Type appends a raw SQL type to the fragment, followed by the usual NOT NULL
// marker. Intended for handles returned by ModifyColumn, whose fragment
// starts as just the column name.
func (c *Column) Type(sqlType string) *Column {
	if op := c.op(); op != nil {
		op.Definition += " " + sqlType + " NOT NULL"
	}
	return c
}

// Nullable replaces the fragment's NOT NULL marker so the column accepts
// NULLs. Other entries in the sequence are never touched.
func (c *Column) Nullable() *Column {
	if op := c.op(); op != nil {
		op.Definition = strings.Replace(op.Definition, " NOT NULL", " NULL", 1)
	}
	return c
}

// Default sets the column's DEFAULT clause, replacing any value this handle
// set before. Strings are quoted with embedded quotes doubled, booleans
// become 1/0, and Raw values pass through unquoted. On an enum column the
// value must be one of the allowed members; a miss is recorded on the table
// and surfaced before compilation.
func (c *Column) Default(v any) *Column {
	op := c.op()
	if op == nil {
		return c
	}
	if len(c.enum) > 0 {
		s, ok := v.(string)
		if !ok || !slices.Contains(c.enum, s) {
			c.table.fail(fmt.Errorf("column %q: default %v: %w", c.name, v, ErrEnumDefault))
			return c
		}
	}
	if c.def != "" {
		op.Definition = strings.Replace(op.Definition, c.def, "", 1)
	}
	c.def = " DEFAULT " + sqlfmt.Literal(v)
	op.Definition += c.def
	return c
}

// Comment attaches a COMMENT clause to the column.
func (c *Column) Comment(text string) *Column {
	if op := c.op(); op != nil {
		op.Definition += " COMMENT " + sqlfmt.QuoteString(text)
	}
	return c
}

// After positions the column after another one.
func (c *Column) After(column string) *Column {
	if op := c.op(); op != nil {
		op.Definition += " AFTER " + column
	}
	return c
}

// Unsigned marks an integer column unsigned. The keyword lands right after
// the type token.
func (c *Column) Unsigned() *Column {
	op := c.op()
	if op == nil {
		return c
	}
	for _, marker := range []string{" NOT NULL", " NULL"} {
		if i := strings.Index(op.Definition, marker); i >= 0 {
			op.Definition = op.Definition[:i] + " UNSIGNED" + op.Definition[i:]
			return c
		}
	}
	op.Definition += " UNSIGNED"
	return c
}

// Index adds a secondary index over this column, named table_column.
func (c *Column) Index() *Column {
	if c.op() != nil {
		c.table.indexOp("INDEX", []string{c.name})
	}
	return c
}

// Unique adds a unique constraint over this column.
func (c *Column) Unique() *Column {
	if c.op() != nil {
		c.table.indexOp("UNIQUE", []string{c.name})
	}
	return c
}

// Primary adds a primary key constraint over this column.
func (c *Column) Primary() *Column {
	if c.op() != nil {
		c.table.indexOp("PRIMARY", []string{c.name})
	}
	return c
}
