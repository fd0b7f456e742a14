/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines the interface between the engine and the database. The generator,
  payroll aggregator and delta computation are pure; only the reconciler,
  auditor, contract service and reporter touch a Repository, and they get it
  injected through their constructors.

KEY INTERFACES:
  ContractStore: Contract CRUD and per-user listing
  ScheduleStore: The 7 weekday rows of each contract
  ShiftStore:    Seed-shift upsert/delete/update plus range queries
  ExpenseStore:  Expense CRUD with the same date-range query pattern
  Repository:    All of the above
  TxRepository:  Repository with atomic multi-write support

SEED UNIQUENESS CONTRACT:
  At most one shift exists per (contract, local date, source=contract_seed).
  InsertSeedShift MUST enforce this atomically (unique index in SQL stores)
  and report an existing row as inserted=false with a nil error. Concurrent
  reconciliations of the same contract therefore never create duplicates.

STATUS GUARDS:
  DeleteSeedShiftsByDates and UpdateSeedShiftTimes only touch rows whose
  status is in onlyStatuses (normally PendingStatuses). Protected rows are
  left alone.

IMPLEMENTATIONS:
  - roster/store/memory.go:     In-memory for testing
  - store/sqlite/sqlite.go:     SQLite (mattn/go-sqlite3)
  - store/postgres/postgres.go: PostgreSQL (pgx)

SEE ALSO:
  - reconcile/apply.go: Main writer of seed shifts
  - audit/audit.go:     Read-only consumer
*/
package roster

import (
	"context"
	"time"
)

// =============================================================================
// CONTRACTS
// =============================================================================

type ContractStore interface {
	// GetContract returns a NotFoundError for unknown ids.
	GetContract(ctx context.Context, id string) (Contract, error)

	// ListContracts returns a user's contracts ordered by start date.
	ListContracts(ctx context.Context, userID string) ([]Contract, error)

	// ListAllContracts returns every contract (background audits).
	ListAllContracts(ctx context.Context) ([]Contract, error)

	// SaveContract inserts or replaces a contract.
	SaveContract(ctx context.Context, c Contract) error

	// DeleteContract removes the contract and its schedule rows. Shifts that
	// still reference it are detached (become contractless).
	DeleteContract(ctx context.Context, id string) error
}

// =============================================================================
// WEEKLY SCHEDULE ROWS
// =============================================================================

type ScheduleStore interface {
	// ListScheduleDays returns the stored rows ordered by weekday.
	ListScheduleDays(ctx context.Context, contractID string) ([]DaySchedule, error)

	// UpsertScheduleDay writes the row for (contract, weekday).
	UpsertScheduleDay(ctx context.Context, contractID string, day DaySchedule) error
}

// =============================================================================
// SHIFTS
// =============================================================================

type ShiftStore interface {
	// GetShiftsForContractInRange returns the contract's shifts with
	// from <= LocalDate <= to, ordered by LocalDate then StartUTC. An empty
	// source matches every source.
	GetShiftsForContractInRange(ctx context.Context, contractID string, from, to Date, source Source) ([]Shift, error)

	// InsertSeedShift persists a contract_seed shift for the occurrence.
	// Returns inserted=false (nil error) when one already exists for
	// (contract, LocalDate). Unknown contracts yield a NotFoundError.
	InsertSeedShift(ctx context.Context, contractID string, occ Occurrence) (inserted bool, err error)

	// DeleteSeedShiftsByDates deletes contract_seed shifts at dates whose
	// status is in onlyStatuses. Returns the number deleted.
	DeleteSeedShiftsByDates(ctx context.Context, contractID string, dates []Date, onlyStatuses []Status) (int, error)

	// UpdateSeedShiftTimes rewrites the UTC bounds of the contract_seed shift
	// at date if its status is in onlyStatuses. Returns whether a row changed.
	UpdateSeedShiftTimes(ctx context.Context, contractID string, date Date, startUTC, endUTC time.Time, onlyStatuses []Status) (bool, error)

	// SaveShift inserts or replaces a shift by ID.
	SaveShift(ctx context.Context, s Shift) error

	// GetShift returns a NotFoundError for unknown ids.
	GetShift(ctx context.Context, id string) (Shift, error)

	DeleteShift(ctx context.Context, id string) error

	// GetShiftsInDateRange returns a user's shifts with from <= LocalDate <= to.
	GetShiftsInDateRange(ctx context.Context, userID string, from, to Date) ([]Shift, error)

	GetAllShiftsForUser(ctx context.Context, userID string) ([]Shift, error)
}

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseStore interface {
	SaveExpense(ctx context.Context, e Expense) error
	GetExpense(ctx context.Context, id string) (Expense, error)
	ListExpensesInRange(ctx context.Context, userID string, from, to Date) ([]Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// =============================================================================
// REPOSITORY
// =============================================================================

type Repository interface {
	ContractStore
	ScheduleStore
	ShiftStore
	ExpenseStore
}

// TxRepository wraps Repository with transaction support.
type TxRepository interface {
	Repository

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Repository) error) error
}

// InTx runs fn inside a transaction when repo supports one, otherwise
// directly against repo.
func InTx(ctx context.Context, repo Repository, fn func(Repository) error) error {
	if tx, ok := repo.(TxRepository); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(repo)
}
