/*
Package sqlite provides a SQLite-backed implementation of roster.Repository.

PURPOSE:
  Persists contracts, their weekly schedule rows, shifts and expenses using
  SQLite. The PostgreSQL store in store/postgres follows the same schema
  with minor dialect differences.

INTERFACES IMPLEMENTED:
  roster.Repository:   Contract, schedule, shift and expense persistence
  roster.TxRepository: Atomic contract-write + reconciliation

KEY TABLES:
  contracts:     One row per contract (rates stored as decimal TEXT)
  schedule_days: 7 rows per contract, UNIQUE(contract_id, weekday)
  shifts:        Seeded and manual shifts
  expenses:      Work-related costs

SEED UNIQUENESS:
  idx_shifts_unique_seed is a partial unique index on
  (contract_id, local_date) WHERE source = 'contract_seed'. InsertSeedShift
  relies on it: a UNIQUE violation is reported as inserted=false, so two
  concurrent reconciliations can never both create the row.

DELETES:
  Deleting a contract cascades to schedule_days and sets shifts.contract_id
  and expenses.contract_id to NULL (foreign keys are enabled in the DSN).

CONCURRENCY:
  The pool is capped at one connection. SQLite allows a single writer anyway,
  and WithTx holds that connection until commit, so statements from other
  goroutines wait instead of failing with SQLITE_BUSY. It also keeps
  ":memory:" databases on one connection.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/shifts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - roster/store.go:        Interface definitions
  - roster/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/roster"
)

// timeLayout is fixed-width so stored instants sort as text.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Store implements roster.TxRepository using SQLite.
type Store struct {
	*queries
	db *sql.DB
}

var _ roster.TxRepository = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{queries: &queries{q: db}, db: db}
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
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		facility TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		base_rate TEXT NOT NULL,
		overtime_rate TEXT,
		target_hours_per_week TEXT,
		status TEXT NOT NULL DEFAULT 'planned',
		timezone TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_date >= start_date)
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_user
		ON contracts(user_id, start_date);

	-- Weekly schedule: exactly one row per (contract, weekday)
	CREATE TABLE IF NOT EXISTS schedule_days (
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		enabled INTEGER NOT NULL DEFAULT 0,
		start_local TEXT NOT NULL,
		end_local TEXT NOT NULL,
		UNIQUE(contract_id, weekday)
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		contract_id TEXT REFERENCES contracts(id) ON DELETE SET NULL,
		start_utc TEXT NOT NULL,
		end_utc TEXT NOT NULL,
		local_date TEXT NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_utc > start_utc)
	);

	-- CRITICAL: at most one seeded shift per contract per local date
	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_unique_seed
		ON shifts(contract_id, local_date) WHERE source = 'contract_seed';

	CREATE INDEX IF NOT EXISTS idx_shifts_contract_date
		ON shifts(contract_id, local_date);
	CREATE INDEX IF NOT EXISTS idx_shifts_user_date
		ON shifts(user_id, local_date);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		contract_id TEXT REFERENCES contracts(id) ON DELETE SET NULL,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		deductible INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_user_date
		ON expenses(user_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (roster.TxRepository interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(roster.Repository) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"shifts", "expenses", "schedule_days", "contracts"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// QUERIES - Shared by the pool and by transactions
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements roster.Repository on top of a *sql.DB or *sql.Tx.
type queries struct {
	q querier
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

const contractColumns = `id, user_id, name, facility, start_date, end_date, base_rate,
	overtime_rate, target_hours_per_week, status, timezone, created_at, updated_at`

func (s *queries) GetContract(ctx context.Context, id string) (roster.Contract, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Contract{}, roster.ContractNotFound(id)
	}
	return c, err
}

func (s *queries) ListContracts(ctx context.Context, userID string) ([]roster.Contract, error) {
	return s.queryContracts(ctx, `SELECT `+contractColumns+` FROM contracts WHERE user_id = ? ORDER BY start_date, id`, userID)
}

func (s *queries) ListAllContracts(ctx context.Context) ([]roster.Contract, error) {
	return s.queryContracts(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY start_date, id`)
}

func (s *queries) queryContracts(ctx context.Context, query string, args ...any) ([]roster.Contract, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var out []roster.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *queries) SaveContract(ctx context.Context, c roster.Contract) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	query := `
		INSERT INTO contracts (` + contractColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			facility = excluded.facility,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			base_rate = excluded.base_rate,
			overtime_rate = excluded.overtime_rate,
			target_hours_per_week = excluded.target_hours_per_week,
			status = excluded.status,
			timezone = excluded.timezone,
			updated_at = excluded.updated_at
	`
	_, err := s.q.ExecContext(ctx, query,
		c.ID, c.UserID, c.Name, c.Facility,
		c.StartDate.String(), c.EndDate.String(),
		c.BaseRate.String(),
		nullDecimal(c.OvertimeRate), nullDecimal(c.TargetHoursPerWeek),
		string(c.Status), c.Timezone,
		formatTime(c.CreatedAt), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

func (s *queries) DeleteContract(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roster.ContractNotFound(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (roster.Contract, error) {
	var (
		c                        roster.Contract
		start, end, base         string
		overtime, target         sql.NullString
		status, created, updated string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Facility, &start, &end, &base,
		&overtime, &target, &status, &c.Timezone, &created, &updated); err != nil {
		return roster.Contract{}, err
	}
	var err error
	if c.StartDate, err = roster.ParseDate(start); err != nil {
		return roster.Contract{}, fmt.Errorf("contract %s: %w", c.ID, err)
	}
	if c.EndDate, err = roster.ParseDate(end); err != nil {
		return roster.Contract{}, fmt.Errorf("contract %s: %w", c.ID, err)
	}
	if c.BaseRate, err = decimal.NewFromString(base); err != nil {
		return roster.Contract{}, fmt.Errorf("contract %s base rate: %w", c.ID, err)
	}
	if c.OvertimeRate, err = parseNullDecimal(overtime); err != nil {
		return roster.Contract{}, fmt.Errorf("contract %s overtime rate: %w", c.ID, err)
	}
	if c.TargetHoursPerWeek, err = parseNullDecimal(target); err != nil {
		return roster.Contract{}, fmt.Errorf("contract %s target hours: %w", c.ID, err)
	}
	c.Status = roster.ContractStatus(status)
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

func (s *queries) ListScheduleDays(ctx context.Context, contractID string) ([]roster.DaySchedule, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT weekday, enabled, start_local, end_local
		FROM schedule_days WHERE contract_id = ? ORDER BY weekday`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	var out []roster.DaySchedule
	for rows.Next() {
		var (
			d          roster.DaySchedule
			weekday    int
			start, end string
		)
		if err := rows.Scan(&weekday, &d.Enabled, &start, &end); err != nil {
			return nil, err
		}
		d.Weekday = time.Weekday(weekday)
		if d.Start, err = roster.ParseClock(start); err != nil {
			return nil, fmt.Errorf("schedule %s/%d: %w", contractID, weekday, err)
		}
		if d.End, err = roster.ParseClock(end); err != nil {
			return nil, fmt.Errorf("schedule %s/%d: %w", contractID, weekday, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *queries) UpsertScheduleDay(ctx context.Context, contractID string, day roster.DaySchedule) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO schedule_days (contract_id, weekday, enabled, start_local, end_local)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(contract_id, weekday) DO UPDATE SET
			enabled = excluded.enabled,
			start_local = excluded.start_local,
			end_local = excluded.end_local`,
		contractID, int(day.Weekday), day.Enabled, day.Start.String(), day.End.String())
	if err != nil {
		if isForeignKeyError(err) {
			return roster.ContractNotFound(contractID)
		}
		return fmt.Errorf("failed to upsert schedule day: %w", err)
	}
	return nil
}

// =============================================================================
// SHIFT STORE
// =============================================================================

const shiftColumns = `id, user_id, contract_id, start_utc, end_utc, local_date,
	source, status, notes, created_at, updated_at`

func (s *queries) GetShiftsForContractInRange(ctx context.Context, contractID string, from, to roster.Date, source roster.Source) ([]roster.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
		WHERE contract_id = ? AND local_date >= ? AND local_date <= ?`
	args := []any{contractID, from.String(), to.String()}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, string(source))
	}
	query += ` ORDER BY local_date, start_utc, id`
	return s.queryShifts(ctx, query, args...)
}

func (s *queries) InsertSeedShift(ctx context.Context, contractID string, occ roster.Occurrence) (bool, error) {
	now := formatTime(time.Now())
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		SELECT ?, user_id, id, ?, ?, ?, 'contract_seed', 'planned', '', ?, ?
		FROM contracts WHERE id = ?`,
		uuid.NewString(), formatTime(occ.StartUTC), formatTime(occ.EndUTC), occ.LocalDate.String(),
		now, now, contractID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert seed shift: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, roster.ContractNotFound(contractID)
	}
	return true, nil
}

func (s *queries) DeleteSeedShiftsByDates(ctx context.Context, contractID string, dates []roster.Date, onlyStatuses []roster.Status) (int, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	query := `DELETE FROM shifts WHERE contract_id = ? AND source = 'contract_seed'
		AND local_date IN (` + placeholders(len(dates)) + `)`
	args := []any{contractID}
	for _, d := range dates {
		args = append(args, d.String())
	}
	query, args = withStatuses(query, args, onlyStatuses)

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete seed shifts: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *queries) UpdateSeedShiftTimes(ctx context.Context, contractID string, date roster.Date, startUTC, endUTC time.Time, onlyStatuses []roster.Status) (bool, error) {
	query := `UPDATE shifts SET start_utc = ?, end_utc = ?, updated_at = ?
		WHERE contract_id = ? AND source = 'contract_seed' AND local_date = ?`
	args := []any{formatTime(startUTC), formatTime(endUTC), formatTime(time.Now()), contractID, date.String()}
	query, args = withStatuses(query, args, onlyStatuses)

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update seed shift: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SaveShift upserts by id. A second contract_seed row for an already seeded
// date violates idx_shifts_unique_seed and returns ErrDuplicateSeed.
func (s *queries) SaveShift(ctx context.Context, sh roster.Shift) error {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			contract_id = excluded.contract_id,
			start_utc = excluded.start_utc,
			end_utc = excluded.end_utc,
			local_date = excluded.local_date,
			source = excluded.source,
			status = excluded.status,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		sh.ID, sh.UserID, nullString(sh.ContractID),
		formatTime(sh.StartUTC), formatTime(sh.EndUTC), sh.LocalDate.String(),
		string(sh.Source), string(sh.Status), sh.Notes,
		formatTime(sh.CreatedAt), formatTime(now))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("shift %s on %s: %w", sh.ID, sh.LocalDate, roster.ErrDuplicateSeed)
		}
		if isForeignKeyError(err) {
			return roster.ContractNotFound(sh.ContractID)
		}
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

func (s *queries) GetShift(ctx context.Context, id string) (roster.Shift, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id)
	sh, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Shift{}, &roster.NotFoundError{Kind: "shift", ID: id}
	}
	return sh, err
}

func (s *queries) DeleteShift(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &roster.NotFoundError{Kind: "shift", ID: id}
	}
	return nil
}

func (s *queries) GetShiftsInDateRange(ctx context.Context, userID string, from, to roster.Date) ([]roster.Shift, error) {
	return s.queryShifts(ctx, `SELECT `+shiftColumns+` FROM shifts
		WHERE user_id = ? AND local_date >= ? AND local_date <= ?
		ORDER BY local_date, start_utc, id`, userID, from.String(), to.String())
}

func (s *queries) GetAllShiftsForUser(ctx context.Context, userID string) ([]roster.Shift, error) {
	return s.queryShifts(ctx, `SELECT `+shiftColumns+` FROM shifts
		WHERE user_id = ? ORDER BY local_date, start_utc, id`, userID)
}

func (s *queries) queryShifts(ctx context.Context, query string, args ...any) ([]roster.Shift, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var out []roster.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func scanShift(row scanner) (roster.Shift, error) {
	var (
		sh                roster.Shift
		contractID        sql.NullString
		start, end, local string
		source, status    string
		created, updated  string
	)
	if err := row.Scan(&sh.ID, &sh.UserID, &contractID, &start, &end, &local,
		&source, &status, &sh.Notes, &created, &updated); err != nil {
		return roster.Shift{}, err
	}
	var err error
	if sh.LocalDate, err = roster.ParseDate(local); err != nil {
		return roster.Shift{}, fmt.Errorf("shift %s: %w", sh.ID, err)
	}
	sh.ContractID = contractID.String
	sh.StartUTC = parseTime(start)
	sh.EndUTC = parseTime(end)
	sh.Source = roster.Source(source)
	sh.Status = roster.Status(status)
	sh.CreatedAt = parseTime(created)
	sh.UpdatedAt = parseTime(updated)
	return sh, nil
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

func (s *queries) SaveExpense(ctx context.Context, e roster.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, contract_id, date, amount, category, description, deductible, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contract_id = excluded.contract_id,
			date = excluded.date,
			amount = excluded.amount,
			category = excluded.category,
			description = excluded.description,
			deductible = excluded.deductible`,
		e.ID, e.UserID, nullString(e.ContractID), e.Date.String(), e.Amount.String(),
		e.Category, e.Description, e.Deductible, formatTime(e.CreatedAt))
	if err != nil {
		if isForeignKeyError(err) {
			return roster.ContractNotFound(e.ContractID)
		}
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

const expenseColumns = `id, user_id, contract_id, date, amount, category, description, deductible, created_at`

func (s *queries) GetExpense(ctx context.Context, id string) (roster.Expense, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Expense{}, &roster.NotFoundError{Kind: "expense", ID: id}
	}
	return e, err
}

func (s *queries) ListExpensesInRange(ctx context.Context, userID string, from, to roster.Date) ([]roster.Expense, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date, id`, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var out []roster.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanExpense(row scanner) (roster.Expense, error) {
	var (
		e                     roster.Expense
		contractID            sql.NullString
		date, amount, created string
	)
	if err := row.Scan(&e.ID, &e.UserID, &contractID, &date, &amount,
		&e.Category, &e.Description, &e.Deductible, &created); err != nil {
		return roster.Expense{}, err
	}
	var err error
	if e.Date, err = roster.ParseDate(date); err != nil {
		return roster.Expense{}, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return roster.Expense{}, fmt.Errorf("expense %s amount: %w", e.ID, err)
	}
	e.ContractID = contractID.String
	e.CreatedAt = parseTime(created)
	return e, nil
}

func (s *queries) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &roster.NotFoundError{Kind: "expense", ID: id}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// withStatuses appends a status IN (...) filter. An empty set matches all.
func withStatuses(query string, args []any, statuses []roster.Status) (string, []any) {
	if len(statuses) == 0 {
		return query, args
	}
	query += ` AND status IN (` + placeholders(len(statuses)) + `)`
	for _, st := range statuses {
		args = append(args, string(st))
	}
	return query, args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t.UTC()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
