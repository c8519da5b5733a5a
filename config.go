package masonry

import "log"

// Options configures a Schema and the Migrator built on it. The zero value
// targets unprefixed tables with no storage engine or charset clause. There
// is no package-level configuration; every Schema carries its own copy.
type Options struct {
	// Prefix is prepended to every table name, the migration ledger included.
	Prefix string
	// Engine, Charset and Collation are emitted on CREATE TABLE when set.
	Engine    string
	Charset   string
	Collation string
	// LedgerTable names the migration record table. Defaults to "migrations";
	// the Prefix applies to it as well.
	LedgerTable string
	// Logf receives warning and progress lines. Defaults to log.Printf. Tests
	// can swap in a collector; passing a no-op silences the package.
	Logf func(format string, args ...any)
	// Verbose additionally logs issued statements and skipped units.
	Verbose bool
}

func (o *Options) normalize() {
	if o.LedgerTable == "" {
		o.LedgerTable = "migrations"
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
}
