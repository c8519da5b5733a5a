package masonry

import (
	"context"
	"fmt"
	"strings"
)

// Schema compiles table definitions into DDL statements and runs them through
// an injected Executor. Create and Table are idempotent against the current
// database state: an existing table is never overwritten and an absent table
// is never altered.
type Schema struct {
	exec Executor
	opts Options
}

// New builds a Schema around the given executor.
func New(exec Executor, opts Options) (*Schema, error) {
	if exec == nil {
		return nil, ErrNilExecutor
	}
	opts.normalize()
	return &Schema{exec: exec, opts: opts}, nil
}

// Executor returns the injected database executor.
func (s *Schema) Executor() Executor { return s.exec }

func (s *Schema) logf(format string, args ...any) {
	s.opts.Logf(format, args...)
}

func (s *Schema) debugf(format string, args ...any) {
	if s.opts.Verbose {
		s.opts.Logf(format, args...)
	}
}

// qualify applies the configured table prefix.
func (s *Schema) qualify(name string) string {
	return s.opts.Prefix + name
}

// Create defines a new table through the build callback and executes the
// resulting CREATE TABLE statement once. If the table already exists the call
// returns before the callback runs and nothing is executed.
func (s *Schema) Create(ctx context.Context, name string, fn func(*Table)) error {
	full := s.qualify(name)
	exists, err := s.exec.Exists(ctx, full)
	if err != nil {
		return fmt.Errorf("masonry: checking table %s: %w", full, err)
	}
	if exists {
		s.debugf("masonry: table %s already exists, skipping create", full)
		return nil
	}
	t := newTable(full)
	t.prefix = s.opts.Prefix
	fn(t)
	if t.err != nil {
		return t.err
	}
	t.finalizeForeignKeys()
	stmt := s.createStatement(t)
	s.debugf("masonry: %s", stmt)
	if err := s.exec.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("masonry: creating table %s: %w", full, err)
	}
	return nil
}

// createStatement joins every Add fragment in declaration order inside one
// CREATE TABLE statement, carrying the configured engine and charset options.
func (s *Schema) createStatement(t *Table) string {
	frags := make([]string, 0, len(t.ops))
	for _, op := range t.ops {
		if op.Kind == OpAdd {
			frags = append(frags, op.Definition)
		}
	}
	var b strings.Builder
	b.WriteString("CREATE TABLE " + t.name + " (\n  ")
	b.WriteString(strings.Join(frags, ",\n  "))
	b.WriteString("\n)")
	if s.opts.Engine != "" {
		b.WriteString(" ENGINE=" + s.opts.Engine)
	}
	if s.opts.Charset != "" {
		b.WriteString(" DEFAULT CHARSET=" + s.opts.Charset)
	}
	if s.opts.Collation != "" {
		b.WriteString(" COLLATE=" + s.opts.Collation)
	}
	return b.String()
}

// Table alters an existing table. If the table is absent the call returns
// before the callback runs. Every accumulated operation compiles to its own
// ALTER statement, executed in declaration order, so a rename takes effect
// before a later modify that refers to the new name. Operations of an unknown
// kind are skipped with a warning.
func (s *Schema) Table(ctx context.Context, name string, fn func(*Table)) error {
	full := s.qualify(name)
	exists, err := s.exec.Exists(ctx, full)
	if err != nil {
		return fmt.Errorf("masonry: checking table %s: %w", full, err)
	}
	if !exists {
		s.debugf("masonry: table %s does not exist, skipping alter", full)
		return nil
	}
	t := newTable(full)
	t.prefix = s.opts.Prefix
	fn(t)
	if t.err != nil {
		return t.err
	}
	t.finalizeForeignKeys()
	for _, op := range t.ops {
		stmt, ok := alterStatement(full, op)
		if !ok {
			s.logf("masonry: skipping operation of unknown kind %d on table %s", op.Kind, full)
			continue
		}
		s.debugf("masonry: %s", stmt)
		if err := s.exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("masonry: altering table %s: %w", full, err)
		}
	}
	return nil
}

// alterStatement compiles one operation into an ALTER TABLE statement. The
// second return is false for operation kinds the compiler does not know.
func alterStatement(table string, op Operation) (string, bool) {
	switch op.Kind {
	case OpAdd:
		if op.constraint {
			return "ALTER TABLE " + table + " ADD " + op.Definition, true
		}
		return "ALTER TABLE " + table + " ADD COLUMN " + op.Definition, true
	case OpModify:
		return "ALTER TABLE " + table + " MODIFY COLUMN " + op.Definition, true
	case OpDrop:
		return "ALTER TABLE " + table + " DROP COLUMN " + op.Column, true
	case OpRename:
		return "ALTER TABLE " + table + " RENAME COLUMN " + op.Column + " TO " + op.NewName, true
	default:
		return "", false
	}
}

// Drop removes a table.
func (s *Schema) Drop(ctx context.Context, name string) error {
	full := s.qualify(name)
	if err := s.exec.Exec(ctx, "DROP TABLE "+full); err != nil {
		return fmt.Errorf("masonry: dropping table %s: %w", full, err)
	}
	return nil
}

// DropIfExists removes a table when present.
func (s *Schema) DropIfExists(ctx context.Context, name string) error {
	full := s.qualify(name)
	if err := s.exec.Exec(ctx, "DROP TABLE IF EXISTS "+full); err != nil {
		return fmt.Errorf("masonry: dropping table %s: %w", full, err)
	}
	return nil
}

// Rename moves a table to a new name.
func (s *Schema) Rename(ctx context.Context, from, to string) error {
	a, b := s.qualify(from), s.qualify(to)
	if err := s.exec.Exec(ctx, "ALTER TABLE "+a+" RENAME TO "+b); err != nil {
		return fmt.Errorf("masonry: renaming table %s to %s: %w", a, b, err)
	}
	return nil
}

// HasTable reports whether the (prefixed) table exists.
func (s *Schema) HasTable(ctx context.Context, name string) (bool, error) {
	return s.exec.Exists(ctx, s.qualify(name))
}

// HasColumn reports whether the (prefixed) table has the named column.
func (s *Schema) HasColumn(ctx context.Context, name, column string) (bool, error) {
	return s.exec.HasColumn(ctx, s.qualify(name), column)
}
