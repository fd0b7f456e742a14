/*
Package postgres provides a PostgreSQL-backed roster.Repository using pgx.

PURPOSE:
  Same schema and semantics as store/sqlite, with native column types
  (DATE, TIMESTAMPTZ, NUMERIC) and a pgxpool connection pool. Intended for
  multi-instance deployments where SQLite's single writer is a limit.

SEED UNIQUENESS:
  idx_shifts_unique_seed is a partial unique index on
  (contract_id, local_date) WHERE source = 'contract_seed'. InsertSeedShift
  uses INSERT ... ON CONFLICT DO NOTHING against it, so a conflict never
  aborts the surrounding transaction.

PARAMETERS:
  Dates and decimals are sent as text and cast server side
  ($1::text::date, $2::text::numeric) and read back with ::text, so no
  custom pgtype codecs are needed.

SEE ALSO:
  - store/sqlite/sqlite.go: Reference schema
  - roster/store.go:        Interface definitions
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/roster"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store implements roster.TxRepository on PostgreSQL.
type Store struct {
	*queries
	pool *pgxpool.Pool
}

var _ roster.TxRepository = (*Store)(nil)

// New connects to dsn, pings, and migrates the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{queries: &queries{q: pool}, pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		facility TEXT NOT NULL DEFAULT '',
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		base_rate NUMERIC(12,2) NOT NULL,
		overtime_rate NUMERIC(12,2),
		target_hours_per_week NUMERIC(6,2),
		status TEXT NOT NULL DEFAULT 'planned',
		timezone TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (end_date >= start_date)
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_user ON contracts(user_id, start_date);

	CREATE TABLE IF NOT EXISTS schedule_days (
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		weekday SMALLINT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		start_local TEXT NOT NULL,
		end_local TEXT NOT NULL,
		UNIQUE (contract_id, weekday)
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		contract_id TEXT REFERENCES contracts(id) ON DELETE SET NULL,
		start_utc TIMESTAMPTZ NOT NULL,
		end_utc TIMESTAMPTZ NOT NULL,
		local_date DATE NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (end_utc > start_utc)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_unique_seed
		ON shifts(contract_id, local_date) WHERE source = 'contract_seed';
	CREATE INDEX IF NOT EXISTS idx_shifts_contract_date ON shifts(contract_id, local_date);
	CREATE INDEX IF NOT EXISTS idx_shifts_user_date ON shifts(user_id, local_date);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		contract_id TEXT REFERENCES contracts(id) ON DELETE SET NULL,
		date DATE NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		deductible BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// WithTx executes fn inside a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(roster.Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE shifts, expenses, schedule_days, contracts`)
	return err
}

type queries struct {
	q Querier
}

// =============================================================================
// CONTRACTS
// =============================================================================

const contractSelect = `SELECT id, user_id, name, facility, start_date::text, end_date::text,
	base_rate::text, overtime_rate::text, target_hours_per_week::text,
	status, timezone, created_at, updated_at FROM contracts`

func (s *queries) GetContract(ctx context.Context, id string) (roster.Contract, error) {
	c, err := scanContract(s.q.QueryRow(ctx, contractSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return roster.Contract{}, roster.ContractNotFound(id)
	}
	return c, err
}

func (s *queries) ListContracts(ctx context.Context, userID string) ([]roster.Contract, error) {
	return s.queryContracts(ctx, contractSelect+` WHERE user_id = $1 ORDER BY start_date, id`, userID)
}

func (s *queries) ListAllContracts(ctx context.Context) ([]roster.Contract, error) {
	return s.queryContracts(ctx, contractSelect+` ORDER BY start_date, id`)
}

func (s *queries) queryContracts(ctx context.Context, query string, args ...interface{}) ([]roster.Contract, error) {
	rows, err := s.q.Query(ctx, query, args...)
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
	_, err := s.q.Exec(ctx, `
		INSERT INTO contracts (id, user_id, name, facility, start_date, end_date, base_rate,
			overtime_rate, target_hours_per_week, status, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::text::date, $6::text::date, $7::text::numeric,
			$8::text::numeric, $9::text::numeric, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			name = EXCLUDED.name,
			facility = EXCLUDED.facility,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			base_rate = EXCLUDED.base_rate,
			overtime_rate = EXCLUDED.overtime_rate,
			target_hours_per_week = EXCLUDED.target_hours_per_week,
			status = EXCLUDED.status,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.UserID, c.Name, c.Facility, c.StartDate.String(), c.EndDate.String(),
		c.BaseRate.String(), nullDecimal(c.OvertimeRate), nullDecimal(c.TargetHoursPerWeek),
		string(c.Status), c.Timezone, c.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

func (s *queries) DeleteContract(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return roster.ContractNotFound(id)
	}
	return nil
}

func scanContract(row pgx.Row) (roster.Contract, error) {
	var (
		c                roster.Contract
		start, end, base string
		overtime, target *string
		status           string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Facility, &start, &end, &base,
		&overtime, &target, &status, &c.Timezone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return roster.Contract{}, err
	}
	var err error
	if c.StartDate, err = roster.ParseDate(start); err != nil {
		return roster.Contract{}, err
	}
	if c.EndDate, err = roster.ParseDate(end); err != nil {
		return roster.Contract{}, err
	}
	if c.BaseRate, err = decimal.NewFromString(base); err != nil {
		return roster.Contract{}, err
	}
	if c.OvertimeRate, err = parseNullDecimal(overtime); err != nil {
		return roster.Contract{}, err
	}
	if c.TargetHoursPerWeek, err = parseNullDecimal(target); err != nil {
		return roster.Contract{}, err
	}
	c.Status = roster.ContractStatus(status)
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return c, nil
}

// =============================================================================
// SCHEDULE
// =============================================================================

func (s *queries) ListScheduleDays(ctx context.Context, contractID string) ([]roster.DaySchedule, error) {
	rows, err := s.q.Query(ctx, `
		SELECT weekday, enabled, start_local, end_local
		FROM schedule_days WHERE contract_id = $1 ORDER BY weekday`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	var out []roster.DaySchedule
	for rows.Next() {
		var (
			d          roster.DaySchedule
			weekday    int16
			start, end string
		)
		if err := rows.Scan(&weekday, &d.Enabled, &start, &end); err != nil {
			return nil, err
		}
		d.Weekday = time.Weekday(weekday)
		if d.Start, err = roster.ParseClock(start); err != nil {
			return nil, err
		}
		if d.End, err = roster.ParseClock(end); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *queries) UpsertScheduleDay(ctx context.Context, contractID string, day roster.DaySchedule) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO schedule_days (contract_id, weekday, enabled, start_local, end_local)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contract_id, weekday) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			start_local = EXCLUDED.start_local,
			end_local = EXCLUDED.end_local`,
		contractID, int16(day.Weekday), day.Enabled, day.Start.String(), day.End.String())
	if err != nil {
		if isForeignKeyViolation(err) {
			return roster.ContractNotFound(contractID)
		}
		return fmt.Errorf("failed to upsert schedule day: %w", err)
	}
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

const shiftSelect = `SELECT id, user_id, contract_id, start_utc, end_utc, local_date::text,
	source, status, notes, created_at, updated_at FROM shifts`

func (s *queries) GetShiftsForContractInRange(ctx context.Context, contractID string, from, to roster.Date, source roster.Source) ([]roster.Shift, error) {
	return s.queryShifts(ctx, shiftSelect+`
		WHERE contract_id = $1 AND local_date BETWEEN $2::text::date AND $3::text::date
		  AND ($4 = '' OR source = $4)
		ORDER BY local_date, start_utc, id`,
		contractID, from.String(), to.String(), string(source))
}

func (s *queries) InsertSeedShift(ctx context.Context, contractID string, occ roster.Occurrence) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.q.Exec(ctx, `
		INSERT INTO shifts (id, user_id, contract_id, start_utc, end_utc, local_date,
			source, status, notes, created_at, updated_at)
		SELECT $1::text, user_id, id, $2::timestamptz, $3::timestamptz, $4::text::date,
			'contract_seed', 'planned', '', $5::timestamptz, $5::timestamptz
		FROM contracts WHERE id = $6::text
		ON CONFLICT (contract_id, local_date) WHERE source = 'contract_seed' DO NOTHING`,
		uuid.NewString(), occ.StartUTC.UTC(), occ.EndUTC.UTC(), occ.LocalDate.String(), now, contractID)
	if err != nil {
		return false, fmt.Errorf("failed to insert seed shift: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	// Nothing inserted: either already seeded or the contract is unknown.
	var exists bool
	if err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE id = $1)`, contractID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check contract: %w", err)
	}
	if !exists {
		return false, roster.ContractNotFound(contractID)
	}
	return false, nil
}

func (s *queries) DeleteSeedShiftsByDates(ctx context.Context, contractID string, dates []roster.Date, onlyStatuses []roster.Status) (int, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	tag, err := s.q.Exec(ctx, `
		DELETE FROM shifts
		WHERE contract_id = $1 AND source = 'contract_seed'
		  AND local_date = ANY($2::text[]::date[])
		  AND (cardinality($3::text[]) = 0 OR status = ANY($3::text[]))`,
		contractID, dateStrings(dates), statusStrings(onlyStatuses))
	if err != nil {
		return 0, fmt.Errorf("failed to delete seed shifts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *queries) UpdateSeedShiftTimes(ctx context.Context, contractID string, date roster.Date, startUTC, endUTC time.Time, onlyStatuses []roster.Status) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE shifts SET start_utc = $1, end_utc = $2, updated_at = $3
		WHERE contract_id = $4 AND source = 'contract_seed' AND local_date = $5::text::date
		  AND (cardinality($6::text[]) = 0 OR status = ANY($6::text[]))`,
		startUTC.UTC(), endUTC.UTC(), time.Now().UTC(), contractID, date.String(), statusStrings(onlyStatuses))
	if err != nil {
		return false, fmt.Errorf("failed to update seed shift: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *queries) SaveShift(ctx context.Context, sh roster.Shift) error {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO shifts (id, user_id, contract_id, start_utc, end_utc, local_date,
			source, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::text::date, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			contract_id = EXCLUDED.contract_id,
			start_utc = EXCLUDED.start_utc,
			end_utc = EXCLUDED.end_utc,
			local_date = EXCLUDED.local_date,
			source = EXCLUDED.source,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		sh.ID, sh.UserID, nullText(sh.ContractID), sh.StartUTC.UTC(), sh.EndUTC.UTC(), sh.LocalDate.String(),
		string(sh.Source), string(sh.Status), sh.Notes, sh.CreatedAt, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("shift %s on %s: %w", sh.ID, sh.LocalDate, roster.ErrDuplicateSeed)
		}
		if isForeignKeyViolation(err) {
			return roster.ContractNotFound(sh.ContractID)
		}
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

func (s *queries) GetShift(ctx context.Context, id string) (roster.Shift, error) {
	sh, err := scanShift(s.q.QueryRow(ctx, shiftSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return roster.Shift{}, &roster.NotFoundError{Kind: "shift", ID: id}
	}
	return sh, err
}

func (s *queries) DeleteShift(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &roster.NotFoundError{Kind: "shift", ID: id}
	}
	return nil
}

func (s *queries) GetShiftsInDateRange(ctx context.Context, userID string, from, to roster.Date) ([]roster.Shift, error) {
	return s.queryShifts(ctx, shiftSelect+`
		WHERE user_id = $1 AND local_date BETWEEN $2::text::date AND $3::text::date
		ORDER BY local_date, start_utc, id`, userID, from.String(), to.String())
}

func (s *queries) GetAllShiftsForUser(ctx context.Context, userID string) ([]roster.Shift, error) {
	return s.queryShifts(ctx, shiftSelect+` WHERE user_id = $1 ORDER BY local_date, start_utc, id`, userID)
}

func (s *queries) queryShifts(ctx context.Context, query string, args ...interface{}) ([]roster.Shift, error) {
	rows, err := s.q.Query(ctx, query, args...)
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

func scanShift(row pgx.Row) (roster.Shift, error) {
	var (
		sh             roster.Shift
		contractID     *string
		local          string
		source, status string
	)
	if err := row.Scan(&sh.ID, &sh.UserID, &contractID, &sh.StartUTC, &sh.EndUTC, &local,
		&source, &status, &sh.Notes, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
		return roster.Shift{}, err
	}
	var err error
	if sh.LocalDate, err = roster.ParseDate(local); err != nil {
		return roster.Shift{}, err
	}
	if contractID != nil {
		sh.ContractID = *contractID
	}
	sh.Source = roster.Source(source)
	sh.Status = roster.Status(status)
	sh.StartUTC, sh.EndUTC = sh.StartUTC.UTC(), sh.EndUTC.UTC()
	sh.CreatedAt, sh.UpdatedAt = sh.CreatedAt.UTC(), sh.UpdatedAt.UTC()
	return sh, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

func (s *queries) SaveExpense(ctx context.Context, e roster.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO expenses (id, user_id, contract_id, date, amount, category, description, deductible, created_at)
		VALUES ($1, $2, $3, $4::text::date, $5::text::numeric, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			contract_id = EXCLUDED.contract_id,
			date = EXCLUDED.date,
			amount = EXCLUDED.amount,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			deductible = EXCLUDED.deductible`,
		e.ID, e.UserID, nullText(e.ContractID), e.Date.String(), e.Amount.String(),
		e.Category, e.Description, e.Deductible, e.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return roster.ContractNotFound(e.ContractID)
		}
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

const expenseSelect = `
		SELECT id, user_id, contract_id, date::text, amount::text, category, description, deductible, created_at
		FROM expenses`

func (s *queries) GetExpense(ctx context.Context, id string) (roster.Expense, error) {
	e, err := scanExpense(s.q.QueryRow(ctx, expenseSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return roster.Expense{}, &roster.NotFoundError{Kind: "expense", ID: id}
	}
	return e, err
}

func (s *queries) ListExpensesInRange(ctx context.Context, userID string, from, to roster.Date) ([]roster.Expense, error) {
	rows, err := s.q.Query(ctx, expenseSelect+`
		WHERE user_id = $1 AND date BETWEEN $2::text::date AND $3::text::date
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

func scanExpense(row pgx.Row) (roster.Expense, error) {
	var (
		e            roster.Expense
		contractID   *string
		date, amount string
	)
	if err := row.Scan(&e.ID, &e.UserID, &contractID, &date, &amount,
		&e.Category, &e.Description, &e.Deductible, &e.CreatedAt); err != nil {
		return roster.Expense{}, err
	}
	var err error
	if e.Date, err = roster.ParseDate(date); err != nil {
		return roster.Expense{}, err
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return roster.Expense{}, err
	}
	if contractID != nil {
		e.ContractID = *contractID
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (s *queries) DeleteExpense(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &roster.NotFoundError{Kind: "expense", ID: id}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func dateStrings(ds []roster.Date) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func statusStrings(ss []roster.Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func parseNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
