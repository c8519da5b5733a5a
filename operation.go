package masonry

// OpKind discriminates the entries of a table definition sequence.
type OpKind int

const (
	// OpAdd introduces a new column, index, or constraint fragment.
	OpAdd OpKind = iota
	// OpModify rewrites an existing column in place.
	OpModify
	// OpDrop removes a column.
	OpDrop
	// OpRename renames a column.
	OpRename
)

// Operation is one entry in a table's definition sequence. Order is
// significant: it is the column order inside CREATE TABLE and the statement
// order on the alter path.
type Operation struct {
	Kind OpKind
	// Column is the OpModify/OpDrop target, or the old name for OpRename.
	Column string
	// NewName is the new column name for OpRename.
	NewName string
	// Definition holds the complete column or constraint fragment for OpAdd
	// and OpModify. Name, type, nullability, default, comment and position
	// are all folded in by the time the operation is compiled.
	Definition string

	// constraint marks OpAdd entries holding an index or table constraint
	// fragment rather than a column definition. On the alter path they
	// compile to ADD instead of ADD COLUMN.
	constraint bool
}
