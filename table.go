package masonry

import (
	"fmt"
	"strconv"
	"strings"

	"masonry/internal/sqlfmt"
)

// Table accumulates the definition sequence for one table. A Table is created
// for each Schema.Create or Schema.Table call, handed to the caller's build
// callback, compiled, and never reused. New columns are NOT NULL unless
// Nullable is called on their handle.
type Table struct {
	name string
	// prefix is the schema's table prefix, applied to referenced table names
	// when foreign key drafts are finalized. The table's own name arrives
	// already qualified.
	prefix  string
	ops     []Operation
	foreign []*ForeignKey
	err     error
}

func newTable(name string) *Table {
	return &Table{name: name}
}

// Name returns the fully qualified (prefix applied) table name.
func (t *Table) Name() string { return t.name }

// Err reports the first declaration error recorded by a builder call, if any.
// Schema surfaces it before compiling anything.
func (t *Table) Err() error { return t.err }

// fail records a declaration error. The first one wins.
func (t *Table) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

// addColumn appends an Add entry and returns its handle.
func (t *Table) addColumn(name, definition string) *Column {
	t.ops = append(t.ops, Operation{Kind: OpAdd, Definition: definition})
	return &Column{table: t, idx: len(t.ops) - 1, name: name}
}

// Increments declares an auto-incrementing unsigned integer primary key.
func (t *Table) Increments(name string) *Column {
	return t.addColumn(name, name+" INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY")
}

// BigIncrements is Increments with BIGINT storage.
func (t *Table) BigIncrements(name string) *Column {
	return t.addColumn(name, name+" BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY")
}

// ID declares the conventional auto-incrementing "id" column.
func (t *Table) ID() *Column { return t.Increments("id") }

// String declares a VARCHAR column, 255 wide unless a length is given.
func (t *Table) String(name string, length ...int) *Column {
	n := 255
	if len(length) > 0 && length[0] > 0 {
		n = length[0]
	}
	return t.addColumn(name, name+" VARCHAR("+strconv.Itoa(n)+") NOT NULL")
}

// Char declares a fixed-width CHAR column.
func (t *Table) Char(name string, length int) *Column {
	return t.addColumn(name, fmt.Sprintf("%s CHAR(%d) NOT NULL", name, length))
}

// Text declares a TEXT column.
func (t *Table) Text(name string) *Column {
	return t.addColumn(name, name+" TEXT NOT NULL")
}

// LongText declares a LONGTEXT column.
func (t *Table) LongText(name string) *Column {
	return t.addColumn(name, name+" LONGTEXT NOT NULL")
}

// JSON declares a JSON document column.
func (t *Table) JSON(name string) *Column {
	return t.addColumn(name, name+" JSON NOT NULL")
}

// Blob declares a binary column.
func (t *Table) Blob(name string) *Column {
	return t.addColumn(name, name+" BLOB NOT NULL")
}

// Integer declares an INT column.
func (t *Table) Integer(name string) *Column {
	return t.addColumn(name, name+" INT NOT NULL")
}

// BigInteger declares a BIGINT column.
func (t *Table) BigInteger(name string) *Column {
	return t.addColumn(name, name+" BIGINT NOT NULL")
}

// Float declares a FLOAT column.
func (t *Table) Float(name string) *Column {
	return t.addColumn(name, name+" FLOAT NOT NULL")
}

// Double declares a DOUBLE column.
func (t *Table) Double(name string) *Column {
	return t.addColumn(name, name+" DOUBLE NOT NULL")
}

// Decimal declares a fixed-point column with the given precision and scale.
func (t *Table) Decimal(name string, precision, scale int) *Column {
	return t.addColumn(name, fmt.Sprintf("%s DECIMAL(%d,%d) NOT NULL", name, precision, scale))
}

// Enum declares a column restricted to the given values. The set must not be
// empty, and any Default set later on the handle must name one of its
// members. A violation is recorded on the table and surfaced by the owning
// Schema call before any statement is compiled.
func (t *Table) Enum(name string, values ...string) *Column {
	if len(values) == 0 {
		t.fail(fmt.Errorf("column %q: %w", name, ErrEmptyEnum))
		return &Column{table: t, idx: -1, name: name}
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = sqlfmt.QuoteString(v)
	}
	c := t.addColumn(name, name+" ENUM("+strings.Join(quoted, ", ")+") NOT NULL")
	c.enum = values
	return c
}

// Boolean declares a TINYINT(1) column.
func (t *Table) Boolean(name string) *Column {
	return t.addColumn(name, name+" TINYINT(1) NOT NULL")
}

// Date declares a DATE column.
func (t *Table) Date(name string) *Column {
	return t.addColumn(name, name+" DATE NOT NULL")
}

// Time declares a TIME column.
func (t *Table) Time(name string) *Column {
	return t.addColumn(name, name+" TIME NOT NULL")
}

// DateTime declares a DATETIME column.
func (t *Table) DateTime(name string) *Column {
	return t.addColumn(name, name+" DATETIME NOT NULL")
}

// Timestamp declares a TIMESTAMP column.
func (t *Table) Timestamp(name string) *Column {
	return t.addColumn(name, name+" TIMESTAMP NOT NULL")
}

// Timestamps declares the conventional created_at/updated_at pair with
// automatic stamping.
func (t *Table) Timestamps() *Table {
	t.addColumn("created_at", "created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP")
	t.addColumn("updated_at", "updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP")
	return t
}

// SoftDeletes declares a nullable deleted_at column.
func (t *Table) SoftDeletes() *Table {
	t.addColumn("deleted_at", "deleted_at TIMESTAMP NULL DEFAULT NULL")
	return t
}

// Index adds a secondary index over the given columns. The index name joins
// the table and column names with underscores. An empty column list is a
// no-op; use the handle returned by a column method to index a single column.
func (t *Table) Index(columns ...string) *Table {
	t.indexOp("INDEX", columns)
	return t
}

// Unique adds a unique constraint over the given columns, named like Index.
func (t *Table) Unique(columns ...string) *Table {
	t.indexOp("UNIQUE", columns)
	return t
}

// Primary adds a primary key constraint over the given columns.
func (t *Table) Primary(columns ...string) *Table {
	t.indexOp("PRIMARY", columns)
	return t
}

func (t *Table) indexOp(kind string, columns []string) {
	if len(columns) == 0 {
		return
	}
	name := sqlfmt.IndexName(t.name, columns...)
	list := sqlfmt.ColumnList(columns)
	var def string
	switch kind {
	case "INDEX":
		def = "INDEX " + name + " (" + list + ")"
	case "UNIQUE":
		def = "CONSTRAINT " + name + " UNIQUE (" + list + ")"
	case "PRIMARY":
		def = "CONSTRAINT " + name + " PRIMARY KEY (" + list + ")"
	}
	t.ops = append(t.ops, Operation{Kind: OpAdd, Definition: def, constraint: true})
}

// ModifyColumn opens a column rewrite. The returned handle starts from the
// bare column name; Type and the modifier methods grow the fragment exactly
// like a fresh definition.
func (t *Table) ModifyColumn(name string) *Column {
	t.ops = append(t.ops, Operation{Kind: OpModify, Column: name, Definition: name})
	return &Column{table: t, idx: len(t.ops) - 1, name: name}
}

// DropColumn schedules a column removal.
func (t *Table) DropColumn(name string) *Table {
	t.ops = append(t.ops, Operation{Kind: OpDrop, Column: name})
	return t
}

// RenameColumn schedules a column rename.
func (t *Table) RenameColumn(from, to string) *Table {
	t.ops = append(t.ops, Operation{Kind: OpRename, Column: from, NewName: to})
	return t
}
