package masonry

import (
	"strings"

	"masonry/internal/sqlfmt"
)

// ForeignKey is the draft of one foreign key declaration. ForeignID opens a
// fresh draft per call and each is judged on its own when the table is
// finalized, so an abandoned draft never bleeds into the next one. A draft
// missing References or On is dropped silently and contributes no constraint.
type ForeignKey struct {
	column   string
	refs     string
	table    string
	onDelete string
	onUpdate string
}

// ForeignID declares an unsigned BIGINT reference column and opens a foreign
// key draft for it. Complete the draft with References and On, optionally
// OnDelete and OnUpdate.
func (t *Table) ForeignID(column string) *ForeignKey {
	t.addColumn(column, column+" BIGINT UNSIGNED NOT NULL")
	fk := &ForeignKey{column: column}
	t.foreign = append(t.foreign, fk)
	return fk
}

// References names the referenced column.
func (fk *ForeignKey) References(column string) *ForeignKey {
	if fk != nil {
		fk.refs = column
	}
	return fk
}

// On names the referenced table.
func (fk *ForeignKey) On(table string) *ForeignKey {
	if fk != nil {
		fk.table = table
	}
	return fk
}

// OnDelete sets the referential delete action, e.g. "cascade" or "set null".
// Actions are normalized to upper case.
func (fk *ForeignKey) OnDelete(action string) *ForeignKey {
	if fk != nil {
		fk.onDelete = strings.ToUpper(action)
	}
	return fk
}

// OnUpdate sets the referential update action, normalized to upper case.
func (fk *ForeignKey) OnUpdate(action string) *ForeignKey {
	if fk != nil {
		fk.onUpdate = strings.ToUpper(action)
	}
	return fk
}

// finalizeForeignKeys promotes every complete draft to a named constraint
// entry appended after all other operations, then clears the draft list.
// Incomplete drafts are dropped. Referenced table names get the same prefix
// as the table itself, so drafts name tables logically.
func (t *Table) finalizeForeignKeys() {
	for _, fk := range t.foreign {
		if fk.refs == "" || fk.table == "" {
			continue
		}
		def := "CONSTRAINT " + sqlfmt.ForeignKeyName(t.name, fk.column) +
			" FOREIGN KEY (" + fk.column + ") REFERENCES " + t.prefix + fk.table + "(" + fk.refs + ")"
		if fk.onDelete != "" {
			def += " ON DELETE " + fk.onDelete
		}
		if fk.onUpdate != "" {
			def += " ON UPDATE " + fk.onUpdate
		}
		t.ops = append(t.ops, Operation{Kind: OpAdd, Definition: def, constraint: true})
	}
	t.foreign = nil
}
