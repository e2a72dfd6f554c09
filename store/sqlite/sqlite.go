/*
Package sqlite provides a SQLite-backed planner.Store.

PURPOSE:
  Persists bills, income sources and the audit trail of allocation runs for
  the HTTP server and the CLI. The planner reads a snapshot through
  LoadBills / LoadIncomeSources and writes back only assignment changes.

KEY TABLES:
  bills:            One row per bill; rule_json holds the factory.RuleJSON
  income_sources:   One row per income source
  allocation_runs:  One row per applied ApplyAssignments call

ORDERING:
  Rows are returned in insertion order (rowid). Upserts keep the rowid, so
  editing a record never changes its position. Income source order breaks
  ties between paychecks that land on the same day.

ATOMICITY:
  ApplyAssignments runs in one SQL transaction. An unknown bill id rolls the
  whole batch back with planner.ErrBillNotFound.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers do not block the
  single writer.

USAGE:
  store, err := sqlite.New("./data/planner.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  p := planner.NewPlanner(store, log)

SEE ALSO:
  - planner/repository.go: Repository and Store interfaces
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/paycheck-planner/factory"
	"github.com/warp/paycheck-planner/generic"
	"github.com/warp/paycheck-planner/planner"
)

// Store implements planner.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		due TEXT NOT NULL,
		rule_json TEXT,
		anchor TEXT,
		cycle TEXT NOT NULL DEFAULT 'current',
		assigned_paycheck_id TEXT NOT NULL DEFAULT 'unassigned',
		paid INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bills_due
		ON bills(due);
	CREATE INDEX IF NOT EXISTS idx_bills_assigned
		ON bills(assigned_paycheck_id);

	CREATE TABLE IF NOT EXISTS income_sources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		rule_json TEXT NOT NULL,
		next_payday TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Audit trail of applied allocation passes
	CREATE TABLE IF NOT EXISTS allocation_runs (
		id TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL,
		change_count INTEGER NOT NULL,
		changes_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocation_runs_applied
		ON allocation_runs(applied_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// REPOSITORY (planner.Repository interface)
// =============================================================================

// LoadBills returns every bill in insertion order.
func (s *Store) LoadBills(ctx context.Context) ([]planner.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, due, rule_json, anchor, cycle, assigned_paycheck_id, paid
		FROM bills ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var bills []planner.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// LoadIncomeSources returns every income source in insertion order.
func (s *Store) LoadIncomeSources(ctx context.Context) ([]planner.IncomeSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, rule_json, next_payday
		FROM income_sources ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query income sources: %w", err)
	}
	defer rows.Close()

	var sources []planner.IncomeSource
	for rows.Next() {
		src, err := scanIncomeSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// ApplyAssignments writes all changes and the run record atomically.
func (s *Store) ApplyAssignments(ctx context.Context, changes []planner.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range changes {
		res, err := sqlTx.ExecContext(ctx,
			`UPDATE bills SET assigned_paycheck_id = ?, updated_at = ? WHERE id = ?`,
			string(c.PaycheckID), now, string(c.BillID),
		)
		if err != nil {
			return fmt.Errorf("failed to assign bill %s: %w", c.BillID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("bill %s: %w", c.BillID, planner.ErrBillNotFound)
		}
	}

	if err := s.insertRun(ctx, sqlTx, changes, now); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// BILLS
// =============================================================================

// SaveBill inserts or updates a bill.
func (s *Store) SaveBill(ctx context.Context, b planner.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ruleJSON sql.NullString
	if b.Rule != nil {
		encoded, err := factory.FormatRule(*b.Rule)
		if err != nil {
			return err
		}
		ruleJSON = nullString(encoded)
	}
	var anchor sql.NullString
	if !b.Anchor.IsZero() {
		anchor = nullString(b.Anchor.String())
	}
	cycle := b.Cycle
	if cycle == "" {
		cycle = planner.CycleCurrent
	}
	assigned := b.AssignedPaycheckID
	if assigned == "" {
		assigned = planner.Unassigned
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills (id, name, amount, due, rule_json, anchor, cycle, assigned_paycheck_id, paid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount = excluded.amount,
			due = excluded.due,
			rule_json = excluded.rule_json,
			anchor = excluded.anchor,
			cycle = excluded.cycle,
			assigned_paycheck_id = excluded.assigned_paycheck_id,
			paid = excluded.paid,
			updated_at = excluded.updated_at
	`,
		string(b.ID), b.Name, b.Amount.Value.String(), b.Due.String(),
		ruleJSON, anchor, string(cycle), string(assigned), b.Paid,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save bill: %w", err)
	}
	return nil
}

// GetBill retrieves a bill by ID.
func (s *Store) GetBill(ctx context.Context, id planner.BillID) (*planner.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, amount, due, rule_json, anchor, cycle, assigned_paycheck_id, paid
		FROM bills WHERE id = ?
	`, string(id))

	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, planner.ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBill removes a bill.
func (s *Store) DeleteBill(ctx context.Context, id planner.BillID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteByID(ctx, s.db, "bills", string(id), planner.ErrBillNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (planner.Bill, error) {
	var (
		b                            planner.Bill
		id, amount, due, cycle, asgn string
		ruleJSON, anchor             sql.NullString
	)
	if err := row.Scan(&id, &b.Name, &amount, &due, &ruleJSON, &anchor, &cycle, &asgn, &b.Paid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("failed to scan bill: %w", err)
	}

	var err error
	b.ID = planner.BillID(id)
	b.Cycle = planner.Cycle(cycle)
	b.AssignedPaycheckID = planner.PaycheckID(asgn)
	if b.Amount, err = generic.ParseMoney(amount); err != nil {
		return b, fmt.Errorf("bill %s: %w", id, err)
	}
	if b.Due, err = generic.ParseDate(due); err != nil {
		return b, fmt.Errorf("bill %s: %w", id, err)
	}
	if anchor.Valid {
		if b.Anchor, err = generic.ParseDate(anchor.String); err != nil {
			return b, fmt.Errorf("bill %s: %w", id, err)
		}
	}
	if ruleJSON.Valid {
		rule, err := factory.ParseRule(ruleJSON.String)
		if err != nil {
			return b, fmt.Errorf("bill %s: %w", id, err)
		}
		b.Rule = &rule
	}
	return b, nil
}

// =============================================================================
// INCOME SOURCES
// =============================================================================

// SaveIncomeSource inserts or updates an income source.
func (s *Store) SaveIncomeSource(ctx context.Context, src planner.IncomeSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ruleJSON, err := factory.FormatRule(src.Rule)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO income_sources (id, name, amount, rule_json, next_payday, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount = excluded.amount,
			rule_json = excluded.rule_json,
			next_payday = excluded.next_payday,
			updated_at = excluded.updated_at
	`,
		string(src.ID), src.Name, src.Amount.Value.String(), ruleJSON, src.NextPayday.String(),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save income source: %w", err)
	}
	return nil
}

// GetIncomeSource retrieves an income source by ID.
func (s *Store) GetIncomeSource(ctx context.Context, id planner.IncomeSourceID) (*planner.IncomeSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, amount, rule_json, next_payday
		FROM income_sources WHERE id = ?
	`, string(id))

	src, err := scanIncomeSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, planner.ErrIncomeSourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// DeleteIncomeSource removes an income source.
func (s *Store) DeleteIncomeSource(ctx context.Context, id planner.IncomeSourceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteByID(ctx, s.db, "income_sources", string(id), planner.ErrIncomeSourceNotFound)
}

func scanIncomeSource(row scanner) (planner.IncomeSource, error) {
	var (
		src                         planner.IncomeSource
		id, amount, ruleJSON, payday string
	)
	if err := row.Scan(&id, &src.Name, &amount, &ruleJSON, &payday); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return src, err
		}
		return src, fmt.Errorf("failed to scan income source: %w", err)
	}

	var err error
	src.ID = planner.IncomeSourceID(id)
	if src.Amount, err = generic.ParseMoney(amount); err != nil {
		return src, fmt.Errorf("income source %s: %w", id, err)
	}
	if src.NextPayday, err = generic.ParseDate(payday); err != nil {
		return src, fmt.Errorf("income source %s: %w", id, err)
	}
	if src.Rule, err = factory.ParseRule(ruleJSON); err != nil {
		return src, fmt.Errorf("income source %s: %w", id, err)
	}
	return src, nil
}

// =============================================================================
// ALLOCATION RUNS
// =============================================================================

func (s *Store) insertRun(ctx context.Context, db execer, changes []planner.Change, appliedAt string) error {
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to encode changes: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO allocation_runs (id, applied_at, change_count, changes_json)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), appliedAt, len(changes), string(changesJSON))
	if err != nil {
		return fmt.Errorf("failed to record allocation run: %w", err)
	}
	return nil
}

// AllocationRuns returns applied runs, newest first. limit <= 0 returns all.
func (s *Store) AllocationRuns(ctx context.Context, limit int) ([]planner.AllocationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, applied_at, changes_json
		FROM allocation_runs
		ORDER BY applied_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation runs: %w", err)
	}
	defer rows.Close()

	var runs []planner.AllocationRun
	for rows.Next() {
		var (
			run                   planner.AllocationRun
			appliedAt, changesRaw string
		)
		if err := rows.Scan(&run.ID, &appliedAt, &changesRaw); err != nil {
			return nil, fmt.Errorf("failed to scan allocation run: %w", err)
		}
		applied, err := time.Parse(time.RFC3339, appliedAt)
		if err != nil {
			return nil, fmt.Errorf("allocation run %s: applied_at: %w", run.ID, err)
		}
		run.AppliedAt = applied
		if err := json.Unmarshal([]byte(changesRaw), &run.Changes); err != nil {
			return nil, fmt.Errorf("allocation run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data (for testing and re-imports).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"bills", "income_sources", "allocation_runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func deleteByID(ctx context.Context, db execer, table, id string, notFound error) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ planner.Store = (*Store)(nil)
