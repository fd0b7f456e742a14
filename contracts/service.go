/*
Package contracts drives the contract lifecycle on top of the engine.

PURPOSE:
  Service is the write path used by the HTTP layer. It validates input,
  persists contracts and their 7 schedule rows, and keeps seeded shifts in
  sync by running the reconciler inside the same transaction as the
  contract write.

FLOWS:
  Create: validate -> save contract + schedule rows -> optional Seed
  Update: load stored terms -> resolve new schedule against stored rows
          -> ComputeDelta -> save + Apply (one transaction)
  Delete: drop pending seed shifts -> delete contract (remaining shifts
          are detached and become contractless)

MANUAL SHIFTS:
  AddShift uses the generator's overnight rule (end at or before start ends
  the next day). A shift whose date is outside its contract's range is an
  OutOfRangeError, distinct from a ValidationError.

SEE ALSO:
  - reconcile/apply.go: Reconciler
  - factory/contract.go: Wire JSON -> Contract + ScheduleConfig
*/
package contracts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/warp/shift-engine/logging"
	"github.com/warp/shift-engine/reconcile"
	"github.com/warp/shift-engine/roster"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Repo        roster.Repository
	Logger      *slog.Logger
	DefaultZone *time.Location // zone for contractless manual shifts
}

func NewService(repo roster.Repository, logger *slog.Logger, defaultZone *time.Location) *Service {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &Service{Repo: repo, Logger: logging.OrDefault(logger), DefaultZone: defaultZone}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.Logger)
}

// Get returns a contract owned by userID. Contracts of other users are
// reported as not found.
func (s *Service) Get(ctx context.Context, userID, id string) (roster.Contract, error) {
	c, err := s.Repo.GetContract(ctx, id)
	if err != nil {
		return roster.Contract{}, err
	}
	if userID != "" && c.UserID != userID {
		return roster.Contract{}, roster.ContractNotFound(id)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]roster.Contract, error) {
	return s.Repo.ListContracts(ctx, userID)
}

// Schedule returns the stored weekly schedule of a contract.
func (s *Service) Schedule(ctx context.Context, id string) (roster.WeeklySchedule, error) {
	return loadSchedule(ctx, s.Repo, id)
}

func loadSchedule(ctx context.Context, repo roster.Repository, id string) (roster.WeeklySchedule, error) {
	days, err := repo.ListScheduleDays(ctx, id)
	if err != nil {
		return roster.WeeklySchedule{}, fmt.Errorf("failed to load schedule: %w", err)
	}
	return roster.ScheduleFromDays(days), nil
}

// =============================================================================
// CREATE / UPDATE / DELETE
// =============================================================================

// Create stores a new contract with its schedule and, when seed is set,
// materializes its shifts.
func (s *Service) Create(ctx context.Context, c roster.Contract, cfg roster.ScheduleConfig, seed bool) (roster.Contract, reconcile.Result, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = roster.ContractPlanned
	}
	if err := c.Validate(); err != nil {
		return roster.Contract{}, reconcile.Result{}, err
	}
	sched, err := cfg.Resolve()
	if err != nil {
		return roster.Contract{}, reconcile.Result{}, err
	}

	var res reconcile.Result
	err = roster.InTx(ctx, s.Repo, func(repo roster.Repository) error {
		if err := saveTerms(ctx, repo, c, sched); err != nil {
			return err
		}
		if !seed {
			return nil
		}
		res, err = reconcile.NewReconciler(repo, s.Logger).Seed(ctx, c, sched)
		return err
	})
	if err != nil {
		return roster.Contract{}, reconcile.Result{}, err
	}

	s.log(ctx).InfoContext(ctx, "created contract",
		"contract_id", c.ID, "user_id", c.UserID, "seeded", res.Added)
	return c, res, nil
}

// Update replaces a contract's terms. A nil cfg keeps the stored schedule.
// Disabled days without explicit times keep their stored times. The stored
// terms are read inside the same transaction that applies the delta.
func (s *Service) Update(ctx context.Context, next roster.Contract, cfg *roster.ScheduleConfig) (roster.Contract, reconcile.Result, error) {
	var res reconcile.Result
	err := roster.InTx(ctx, s.Repo, func(repo roster.Repository) error {
		stored, err := repo.GetContract(ctx, next.ID)
		if err != nil {
			return err
		}
		if next.UserID != "" && next.UserID != stored.UserID {
			return roster.ContractNotFound(next.ID)
		}
		prior, err := loadSchedule(ctx, repo, stored.ID)
		if err != nil {
			return err
		}

		next.UserID = stored.UserID
		next.CreatedAt = stored.CreatedAt
		if next.Status == "" {
			next.Status = stored.Status
		}
		if err := next.Validate(); err != nil {
			return err
		}
		sched := prior
		if cfg != nil {
			if sched, err = cfg.ResolveWith(&prior); err != nil {
				return err
			}
		}

		delta := reconcile.ComputeDelta(reconcile.TermsOf(stored, prior), reconcile.TermsOf(next, sched))
		if err := saveTerms(ctx, repo, next, sched); err != nil {
			return err
		}
		res, err = reconcile.NewReconciler(repo, s.Logger).Apply(ctx, next, sched, delta)
		return err
	})
	if err != nil {
		return roster.Contract{}, reconcile.Result{}, err
	}
	return next, res, nil
}

// Preview computes the delta an update would apply, without writing.
func (s *Service) Preview(ctx context.Context, next roster.Contract, cfg *roster.ScheduleConfig) (reconcile.Delta, error) {
	stored, err := s.Repo.GetContract(ctx, next.ID)
	if err != nil {
		return reconcile.Delta{}, err
	}
	prior, err := s.Schedule(ctx, stored.ID)
	if err != nil {
		return reconcile.Delta{}, err
	}
	if next.Timezone == "" {
		next.Timezone = stored.Timezone
	}
	if next.StartDate.IsZero() {
		next.StartDate = stored.StartDate
	}
	if next.EndDate.IsZero() {
		next.EndDate = stored.EndDate
	}
	if err := next.Range().Validate(); err != nil {
		return reconcile.Delta{}, err
	}
	if _, err := roster.LoadZone(next.Timezone); err != nil {
		return reconcile.Delta{}, err
	}
	sched := prior
	if cfg != nil {
		if sched, err = cfg.ResolveWith(&prior); err != nil {
			return reconcile.Delta{}, err
		}
	}
	return reconcile.ComputeDelta(reconcile.TermsOf(stored, prior), reconcile.TermsOf(next, sched)), nil
}

// DeleteResult reports what happened to a deleted contract's shifts.
type DeleteResult struct {
	Removed  int `json:"removed"`
	Detached int `json:"detached"`
}

// Delete removes a contract. Pending seed shifts go with it; every other
// shift is kept as a contractless shift.
func (s *Service) Delete(ctx context.Context, userID, id string) (DeleteResult, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return DeleteResult{}, err
	}

	var res DeleteResult
	err := roster.InTx(ctx, s.Repo, func(repo roster.Repository) error {
		shifts, err := repo.GetShiftsForContractInRange(ctx, id, minDate, maxDate, "")
		if err != nil {
			return fmt.Errorf("failed to load shifts: %w", err)
		}
		var dates []roster.Date
		for _, sh := range shifts {
			if sh.Source == roster.SourceContractSeed && sh.Status.IsPending() {
				dates = append(dates, sh.LocalDate)
			}
		}
		if len(dates) > 0 {
			if res.Removed, err = repo.DeleteSeedShiftsByDates(ctx, id, dates, roster.PendingStatuses); err != nil {
				return fmt.Errorf("failed to delete seed shifts: %w", err)
			}
		}
		res.Detached = len(shifts) - res.Removed
		return repo.DeleteContract(ctx, id)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	s.log(ctx).InfoContext(ctx, "deleted contract",
		"contract_id", id, "removed", res.Removed, "detached", res.Detached)
	return res, nil
}

var (
	minDate = roster.NewDate(1, time.January, 1)
	maxDate = roster.NewDate(9999, time.December, 31)
)

func saveTerms(ctx context.Context, repo roster.Repository, c roster.Contract, sched roster.WeeklySchedule) error {
	if err := repo.SaveContract(ctx, c); err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	for _, day := range sched.Days() {
		if err := repo.UpsertScheduleDay(ctx, c.ID, day); err != nil {
			return fmt.Errorf("failed to save schedule day %d: %w", day.Weekday, err)
		}
	}
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

// ShiftInput describes a manual shift in local wall-clock terms.
type ShiftInput struct {
	UserID     string
	ContractID string // optional
	Date       roster.Date
	Start      roster.Clock
	End        roster.Clock
	Status     roster.Status
	Notes      string
}

// AddShift records a manual shift. Unknown contracts are NotFoundErrors and
// dates outside the contract range are OutOfRangeErrors.
func (s *Service) AddShift(ctx context.Context, in ShiftInput) (roster.Shift, error) {
	if in.Date.IsZero() {
		return roster.Shift{}, roster.Invalid("date", "date is required")
	}
	if in.Start == in.End {
		return roster.Shift{}, roster.Invalid("end", "shift end must differ from its start")
	}
	if in.Status == "" {
		in.Status = roster.StatusPlanned
	}

	loc := s.DefaultZone
	userID := in.UserID
	if in.ContractID != "" {
		c, err := s.Get(ctx, in.UserID, in.ContractID)
		if err != nil {
			return roster.Shift{}, err
		}
		if err := c.CheckDate(in.Date); err != nil {
			return roster.Shift{}, err
		}
		if loc, err = c.Location(); err != nil {
			return roster.Shift{}, err
		}
		userID = c.UserID
	}

	start, end := roster.ShiftWindow(in.Date, in.Start, in.End, loc)
	sh := roster.Shift{
		ID:         uuid.NewString(),
		UserID:     userID,
		ContractID: in.ContractID,
		StartUTC:   start,
		EndUTC:     end,
		LocalDate:  in.Date,
		Source:     roster.SourceManual,
		Status:     in.Status,
		Notes:      in.Notes,
	}
	if err := sh.Validate(); err != nil {
		return roster.Shift{}, err
	}
	if err := s.Repo.SaveShift(ctx, sh); err != nil {
		return roster.Shift{}, fmt.Errorf("failed to save shift: %w", err)
	}
	return sh, nil
}

// SetShiftStatus moves a shift to status.
func (s *Service) SetShiftStatus(ctx context.Context, userID, id string, status roster.Status) (roster.Shift, error) {
	if !status.Valid() {
		return roster.Shift{}, roster.Invalid("status", "unknown shift status %q", status)
	}
	sh, err := s.getShift(ctx, userID, id)
	if err != nil {
		return roster.Shift{}, err
	}
	sh.Status = status
	if err := s.Repo.SaveShift(ctx, sh); err != nil {
		return roster.Shift{}, fmt.Errorf("failed to save shift: %w", err)
	}
	return sh, nil
}

func (s *Service) DeleteShift(ctx context.Context, userID, id string) error {
	if _, err := s.getShift(ctx, userID, id); err != nil {
		return err
	}
	return s.Repo.DeleteShift(ctx, id)
}

// ShiftsForContract lists a contract's shifts between from and to. Zero
// bounds default to the contract range.
func (s *Service) ShiftsForContract(ctx context.Context, userID, id string, from, to roster.Date) ([]roster.Shift, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = c.StartDate
	}
	if to.IsZero() {
		to = c.EndDate
	}
	if to.Before(from) {
		return nil, roster.Invalid("to", "end %s is before start %s", to, from)
	}
	return s.Repo.GetShiftsForContractInRange(ctx, id, from, to, "")
}

func (s *Service) getShift(ctx context.Context, userID, id string) (roster.Shift, error) {
	sh, err := s.Repo.GetShift(ctx, id)
	if err != nil {
		return roster.Shift{}, err
	}
	if userID != "" && sh.UserID != userID {
		return roster.Shift{}, &roster.NotFoundError{Kind: "shift", ID: id}
	}
	return sh, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

// AddExpense validates and stores an expense. A referenced contract must
// exist.
func (s *Service) AddExpense(ctx context.Context, e roster.Expense) (roster.Expense, error) {
	if err := e.Validate(); err != nil {
		return roster.Expense{}, err
	}
	if e.ContractID != "" {
		if _, err := s.Get(ctx, e.UserID, e.ContractID); err != nil {
			return roster.Expense{}, err
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.Repo.SaveExpense(ctx, e); err != nil {
		return roster.Expense{}, fmt.Errorf("failed to save expense: %w", err)
	}
	return e, nil
}

func (s *Service) ListExpenses(ctx context.Context, userID string, r roster.Range) ([]roster.Expense, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.Repo.ListExpensesInRange(ctx, userID, r.Start, r.End)
}

// DeleteExpense removes one of the user's expenses. Expenses of other users
// are reported as not found.
func (s *Service) DeleteExpense(ctx context.Context, userID, id string) error {
	e, err := s.Repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if e.UserID != userID {
		return &roster.NotFoundError{Kind: "expense", ID: id}
	}
	return s.Repo.DeleteExpense(ctx, id)
}
