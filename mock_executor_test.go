package masonry

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// mockExecutor is an in-memory Executor for builder and migrator tests. It
// records every statement and keeps just enough state to behave like a store:
// table existence flags and ledger rows with a unique migration column.
type mockExecutor struct {
	dialect     string
	tables      map[string]bool
	cols        map[string]map[string]bool
	stmts       []string
	existsCalls []string
	rows        []Record
	nextID      int64
	execErr     error // forced Exec failure
	insertErr   error // forced once on the next Insert
}

var _ Executor = (*mockExecutor)(nil)

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		dialect: "mysql",
		tables:  make(map[string]bool),
		cols:    make(map[string]map[string]bool),
	}
}

func (m *mockExecutor) DialectName() string { return m.dialect }

func (m *mockExecutor) Exists(_ context.Context, table string) (bool, error) {
	m.existsCalls = append(m.existsCalls, table)
	return m.tables[table], nil
}

func (m *mockExecutor) HasColumn(_ context.Context, table, column string) (bool, error) {
	return m.cols[table][column], nil
}

func (m *mockExecutor) Exec(_ context.Context, statement string) error {
	m.stmts = append(m.stmts, statement)
	if m.execErr != nil {
		return m.execErr
	}
	switch {
	case strings.HasPrefix(statement, "CREATE TABLE IF NOT EXISTS "):
		m.tables[firstWord(statement[len("CREATE TABLE IF NOT EXISTS "):])] = true
	case strings.HasPrefix(statement, "CREATE TABLE "):
		m.tables[firstWord(statement[len("CREATE TABLE "):])] = true
	case strings.HasPrefix(statement, "DROP TABLE IF EXISTS "):
		delete(m.tables, firstWord(statement[len("DROP TABLE IF EXISTS "):]))
	case strings.HasPrefix(statement, "DROP TABLE "):
		delete(m.tables, firstWord(statement[len("DROP TABLE "):]))
	case strings.HasPrefix(statement, "DELETE FROM "):
		// DELETE FROM <table> WHERE migration = '<name>'
		if i := strings.Index(statement, "'"); i >= 0 {
			name := strings.TrimSuffix(statement[i+1:], "'")
			kept := m.rows[:0]
			for _, r := range m.rows {
				if r.Migration != name {
					kept = append(kept, r)
				}
			}
			m.rows = kept
		}
	}
	return nil
}

func (m *mockExecutor) QueryScalar(_ context.Context, query string, _ ...any) (any, error) {
	if strings.Contains(query, "MAX(batch)") {
		max := 0
		for _, r := range m.rows {
			if r.Batch > max {
				max = r.Batch
			}
		}
		return int64(max), nil
	}
	return nil, nil
}

func (m *mockExecutor) Insert(_ context.Context, _ string, _ []string, values []any) (int64, error) {
	if m.insertErr != nil {
		err := m.insertErr
		m.insertErr = nil
		return 0, err
	}
	name, _ := values[0].(string)
	for _, r := range m.rows {
		if r.Migration == name {
			return 0, errors.New("UNIQUE constraint failed: migrations.migration")
		}
	}
	m.nextID++
	batch, _ := values[1].(int)
	created, _ := values[2].(string)
	m.rows = append(m.rows, Record{ID: m.nextID, Migration: name, Batch: batch, CreatedAt: created})
	return m.nextID, nil
}

func (m *mockExecutor) Select(_ context.Context, dest any, _ string, _ ...any) error {
	recs, ok := dest.(*[]Record)
	if !ok {
		return fmt.Errorf("mock: unsupported select destination %T", dest)
	}
	*recs = append([]Record(nil), m.rows...)
	return nil
}

func (m *mockExecutor) Close() error { return nil }

// firstWord cuts an identifier off the front of remaining statement text.
func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\n' || r == '(' {
			return s[:i]
		}
	}
	return s
}

// logCollector captures Logf lines for assertions.
type logCollector struct {
	lines []string
}

func (lc *logCollector) logf(format string, args ...any) {
	lc.lines = append(lc.lines, fmt.Sprintf(format, args...))
}

func (lc *logCollector) contains(substr string) bool {
	for _, l := range lc.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
