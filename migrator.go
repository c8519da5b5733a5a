package masonry

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Migration is one migration unit. Name must be stable across runs; it is the
// identity the ledger tracks. The tracker never calls Down on its own,
// rollback is an explicit caller action.
type Migration interface {
	Name() string
	Up(ctx context.Context, s *Schema) error
	Down(ctx context.Context, s *Schema) error
}

// MigrationFunc adapts plain functions to the Migration interface. A nil UpFn
// or DownFn is a no-op.
type MigrationFunc struct {
	ID     string
	UpFn   func(ctx context.Context, s *Schema) error
	DownFn func(ctx context.Context, s *Schema) error
}

func (m MigrationFunc) Name() string { return m.ID }

func (m MigrationFunc) Up(ctx context.Context, s *Schema) error {
	if m.UpFn == nil {
		return nil
	}
	return m.UpFn(ctx, s)
}

func (m MigrationFunc) Down(ctx context.Context, s *Schema) error {
	if m.DownFn == nil {
		return nil
	}
	return m.DownFn(ctx, s)
}

// MigrationStatus pairs a registered unit with its ledger state.
type MigrationStatus struct {
	Name  string
	Ran   bool
	Batch int
}

const defaultLockTTL = 5 * time.Minute

// Migrator replays an ordered migration list, skipping what the ledger
// already records and stamping new applications with the next batch number.
// Construct one per target database; there is no package-level instance.
type Migrator struct {
	schema  *Schema
	ledger  *Ledger
	units   []Migration
	locker  Locker
	lockKey string
	lockTTL time.Duration
}

// NewMigrator builds a migrator over the schema's executor. Units run in the
// order given here and to Register.
func NewMigrator(schema *Schema, units ...Migration) *Migrator {
	table := schema.qualify(schema.opts.LedgerTable)
	return &Migrator{
		schema:  schema,
		ledger:  NewLedger(schema.exec, table),
		units:   units,
		lockKey: "masonry:migrate:" + table,
		lockTTL: defaultLockTTL,
	}
}

// Register appends units to the run list.
func (m *Migrator) Register(units ...Migration) {
	m.units = append(m.units, units...)
}

// WithLock guards Run with a cross-process lock. An empty key keeps the
// default derived from the ledger table name; a ttl of zero keeps the five
// minute default.
func (m *Migrator) WithLock(l Locker, key string, ttl time.Duration) *Migrator {
	m.locker = l
	if key != "" {
		m.lockKey = key
	}
	if ttl > 0 {
		m.lockTTL = ttl
	}
	return m
}

// Ledger exposes the migrator's record store.
func (m *Migrator) Ledger() *Ledger { return m.ledger }

func (m *Migrator) logf(format string, args ...any) {
	m.schema.logf(format, args...)
}

func (m *Migrator) debugf(format string, args ...any) {
	m.schema.debugf(format, args...)
}

// Run applies every pending unit in order. All units applied by one call
// share a batch number one above the highest in the ledger. A unit whose name
// is already recorded is skipped without re-running it. An error from Up
// stops the run before that unit is recorded, so the next Run retries it.
//
// When another runner records a unit between this run's pending check and its
// own record write, the ledger's unique migration column rejects the second
// write; Run logs the lost race and moves on.
func (m *Migrator) Run(ctx context.Context) error {
	if m.locker != nil {
		ok, err := m.locker.Acquire(ctx, m.lockKey, m.lockTTL)
		if err != nil {
			return fmt.Errorf("masonry: acquiring migration lock: %w", err)
		}
		if !ok {
			return ErrLockNotAcquired
		}
		defer func() {
			if err := m.locker.Release(context.WithoutCancel(ctx), m.lockKey); err != nil {
				m.logf("masonry: releasing migration lock: %v", err)
			}
		}()
	}

	if err := m.ledger.Ensure(ctx); err != nil {
		return err
	}
	applied, err := m.appliedSet(ctx)
	if err != nil {
		return err
	}
	maxBatch, err := m.ledger.MaxBatch(ctx)
	if err != nil {
		return err
	}
	batch := maxBatch + 1

	ran := 0
	for i, u := range m.units {
		if u == nil {
			m.logf("masonry: skipping migration at position %d: unit is nil", i)
			continue
		}
		name := u.Name()
		if name == "" {
			m.logf("masonry: skipping migration at position %d: empty name", i)
			continue
		}
		if _, ok := applied[name]; ok {
			m.debugf("masonry: migration %s already applied, skipping", name)
			continue
		}
		if err := u.Up(ctx, m.schema); err != nil {
			return fmt.Errorf("masonry: migration %s: %w", name, err)
		}
		if err := m.ledger.Append(ctx, name, batch); err != nil {
			if isDuplicate(err) {
				m.logf("masonry: migration %s was recorded by a concurrent run, continuing", name)
				continue
			}
			return err
		}
		ran++
	}
	if ran > 0 {
		m.debugf("masonry: applied %d migrations in batch %d", ran, batch)
	}
	return nil
}

// Rollback undoes the newest batches, one unless more steps are asked for.
// Within a batch the units come back in reverse application order. A recorded
// name with no registered unit is skipped with a warning and its record kept.
func (m *Migrator) Rollback(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	if err := m.ledger.Ensure(ctx); err != nil {
		return err
	}
	recs, err := m.ledger.Records(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	batches := distinctBatchesDesc(recs)
	if steps < len(batches) {
		batches = batches[:steps]
	}
	byName := m.unitIndex()
	for _, batch := range batches {
		for i := len(recs) - 1; i >= 0; i-- {
			r := recs[i]
			if r.Batch != batch {
				continue
			}
			u, ok := byName[r.Migration]
			if !ok {
				m.logf("masonry: no registered migration named %s, keeping its record", r.Migration)
				continue
			}
			if err := u.Down(ctx, m.schema); err != nil {
				return fmt.Errorf("masonry: rolling back %s: %w", r.Migration, err)
			}
			if err := m.ledger.Delete(ctx, r.Migration); err != nil {
				return err
			}
			m.debugf("masonry: rolled back %s (batch %d)", r.Migration, batch)
		}
	}
	return nil
}

// Reset rolls back every recorded batch.
func (m *Migrator) Reset(ctx context.Context) error {
	return m.Rollback(ctx, math.MaxInt)
}

// Status reports each registered unit with its ledger state, in registration
// order.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ledger.Ensure(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedSet(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(m.units))
	for _, u := range m.units {
		if u == nil {
			continue
		}
		batch, ran := applied[u.Name()]
		out = append(out, MigrationStatus{Name: u.Name(), Ran: ran, Batch: batch})
	}
	return out, nil
}

// appliedSet loads the ledger once into a name to batch map.
func (m *Migrator) appliedSet(ctx context.Context) (map[string]int, error) {
	recs, err := m.ledger.Records(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]int, len(recs))
	for _, r := range recs {
		applied[r.Migration] = r.Batch
	}
	return applied, nil
}

// unitIndex maps registered unit names to their units.
func (m *Migrator) unitIndex() map[string]Migration {
	byName := make(map[string]Migration, len(m.units))
	for _, u := range m.units {
		if u != nil && u.Name() != "" {
			byName[u.Name()] = u
		}
	}
	return byName
}

// distinctBatchesDesc lists the batch numbers present in the records, newest
// first.
func distinctBatchesDesc(recs []Record) []int {
	seen := make(map[int]bool)
	var batches []int
	for _, r := range recs {
		if !seen[r.Batch] {
			seen[r.Batch] = true
			batches = append(batches, r.Batch)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(batches)))
	return batches
}

// isDuplicate spots unique constraint violations across drivers: sqlite says
// "UNIQUE constraint failed", mysql "Duplicate entry".
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
