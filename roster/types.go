/*
Package roster provides the core data model of the shift engine.

PURPOSE:
  This package contains the types every other package speaks: contracts,
  weekly schedules, shifts and expenses, plus the pure local-time and
  timezone utilities the generator, reconciler and payroll aggregator share.
  It performs no I/O; persistence lives behind the interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Contract:   A recurring work agreement (facility, rates, date range, zone)
  - Shift:      One concrete worked or planned occurrence
  - Occurrence: Generator output (local date + UTC bounds), before persistence
  - Expense:    Work-related cost, optionally linked to a contract

DESIGN PRINCIPLES:
  1. Local dates are first-class: a shift's LocalDate is the calendar date of
     its start in the contract zone, never a truncated UTC instant
  2. Precision: rates and money use decimal.Decimal
  3. One status enum with explicit membership sets (see status.go)
  4. All local <-> UTC conversion goes through timezone.go

SEE ALSO:
  - time.go:     Date, Clock and day arithmetic
  - schedule.go: WeeklySchedule and its wire shape
  - store.go:    Repository interfaces
  - errors.go:   Error taxonomy
*/
package roster

import (
	"time"

	"github.com/shopspring/decimal"
)

// OvertimeThresholdMinutes is the weekly base-rate allowance (40 hours).
const OvertimeThresholdMinutes = 40 * 60

// =============================================================================
// CONTRACT
// =============================================================================

type Contract struct {
	ID       string
	UserID   string
	Name     string
	Facility string

	StartDate Date
	EndDate   Date

	BaseRate           decimal.Decimal
	OvertimeRate       decimal.NullDecimal // falls back to BaseRate when unset
	TargetHoursPerWeek decimal.NullDecimal

	Status   ContractStatus
	Timezone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Range returns the contract's inclusive date range.
func (c Contract) Range() Range {
	return Range{Start: c.StartDate, End: c.EndDate}
}

// EffectiveOvertimeRate is the overtime rate, or the base rate when none is
// configured.
func (c Contract) EffectiveOvertimeRate() decimal.Decimal {
	if c.OvertimeRate.Valid {
		return c.OvertimeRate.Decimal
	}
	return c.BaseRate
}

// Location loads the contract's timezone.
func (c Contract) Location() (*time.Location, error) {
	return LoadZone(c.Timezone)
}

// Validate checks the contract's own invariants.
func (c Contract) Validate() error {
	if c.Name == "" {
		return Invalid("name", "name is required")
	}
	if err := c.Range().Validate(); err != nil {
		return err
	}
	if c.BaseRate.IsNegative() {
		return Invalid("base_rate", "base rate must not be negative")
	}
	if c.OvertimeRate.Valid && c.OvertimeRate.Decimal.IsNegative() {
		return Invalid("overtime_rate", "overtime rate must not be negative")
	}
	if c.TargetHoursPerWeek.Valid && c.TargetHoursPerWeek.Decimal.IsNegative() {
		return Invalid("target_hours_per_week", "target hours must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// CheckDate returns an OutOfRangeError when d is outside the contract range.
func (c Contract) CheckDate(d Date) error {
	if !c.Range().Contains(d) {
		return &OutOfRangeError{ContractID: c.ID, Date: d, Range: c.Range()}
	}
	return nil
}

// =============================================================================
// OCCURRENCE - Generator output
// =============================================================================

// Occurrence is one concrete (LocalDate, StartUTC, EndUTC) triple produced by
// expanding a weekly schedule.
type Occurrence struct {
	LocalDate Date
	StartUTC  time.Time
	EndUTC    time.Time
}

func (o Occurrence) Duration() time.Duration { return o.EndUTC.Sub(o.StartUTC) }

// =============================================================================
// SHIFT
// =============================================================================

type Shift struct {
	ID         string
	UserID     string
	ContractID string // empty for contractless (manual) shifts

	StartUTC  time.Time
	EndUTC    time.Time
	LocalDate Date

	Source Source
	Status Status
	Notes  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Shift) HasContract() bool { return s.ContractID != "" }

// Validate checks the shift's own invariants.
func (s Shift) Validate() error {
	if s.LocalDate.IsZero() {
		return Invalid("local_date", "local date is required")
	}
	if !s.EndUTC.After(s.StartUTC) {
		return Invalid("end", "shift must end after it starts")
	}
	if !s.Status.Valid() {
		return Invalid("status", "unknown shift status %q", s.Status)
	}
	if s.Source != SourceContractSeed && s.Source != SourceManual {
		return Invalid("source", "unknown shift source %q", s.Source)
	}
	return nil
}

// SeedShift builds the persisted form of a generated occurrence.
func SeedShift(c Contract, o Occurrence) Shift {
	return Shift{
		UserID:     c.UserID,
		ContractID: c.ID,
		StartUTC:   o.StartUTC,
		EndUTC:     o.EndUTC,
		LocalDate:  o.LocalDate,
		Source:     SourceContractSeed,
		Status:     StatusPlanned,
	}
}

// =============================================================================
// EXPENSE
// =============================================================================

type Expense struct {
	ID          string
	UserID      string
	ContractID  string
	Date        Date
	Amount      decimal.Decimal
	Category    string
	Description string
	Deductible  bool
	CreatedAt   time.Time
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return Invalid("date", "date is required")
	}
	if !e.Amount.IsPositive() {
		return Invalid("amount", "amount must be positive")
	}
	return nil
}
