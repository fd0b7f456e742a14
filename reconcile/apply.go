package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/warp/shift-engine/logging"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// RECONCILER - Executes a Delta against a Repository
// =============================================================================

// Reconciler seeds and re-syncs a contract's contract_seed shifts.
type Reconciler struct {
	Repo   roster.Repository
	Logger *slog.Logger
}

func NewReconciler(repo roster.Repository, logger *slog.Logger) *Reconciler {
	return &Reconciler{Repo: repo, Logger: logging.OrDefault(logger)}
}

// log prefers the request logger carried by ctx.
func (r *Reconciler) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, r.Logger)
}

// Result summarizes what Apply or Seed did.
type Result struct {
	Delta   Delta `json:"delta"`
	Added   int   `json:"added"`
	Skipped int   `json:"skipped"` // add dates that were already seeded
	Removed int   `json:"removed"`
	Updated int   `json:"updated"`

	// Protected lists remove/update dates whose seed shift was left alone
	// because it is finalized or cancelled.
	Protected []ProtectedShift `json:"protected,omitempty"`
}

// ProtectedShift is a shift reconciliation refused to touch.
type ProtectedShift struct {
	ShiftID string        `json:"shiftId"`
	Date    roster.Date   `json:"date"`
	Status  roster.Status `json:"status"`
	Action  string        `json:"action"` // "remove" or "update"
}

// Seed materializes every occurrence of a new contract. A schedule without
// enabled days is a ValidationError.
func (r *Reconciler) Seed(ctx context.Context, c roster.Contract, sched roster.WeeklySchedule) (Result, error) {
	if err := schedule.RequireEnabled(sched); err != nil {
		return Result{}, err
	}
	occs, err := schedule.GenerateForContract(c, sched)
	if err != nil {
		return Result{}, err
	}
	res := Result{}
	for _, o := range occs {
		res.Delta.Add = append(res.Delta.Add, o.LocalDate)
	}
	if err := r.insert(ctx, r.Repo, c.ID, occs, &res); err != nil {
		return res, err
	}
	r.log(ctx).InfoContext(ctx, "seeded contract shifts",
		"contract_id", c.ID, "added", res.Added, "skipped", res.Skipped)
	return res, nil
}

// Apply executes delta for contract c whose current schedule is sched.
// It runs inside a transaction when the repository supports one.
func (r *Reconciler) Apply(ctx context.Context, c roster.Contract, sched roster.WeeklySchedule, delta Delta) (Result, error) {
	res := Result{Delta: delta}
	if delta.IsEmpty() {
		return res, nil
	}
	loc, err := c.Location()
	if err != nil {
		return res, err
	}

	err = roster.InTx(ctx, r.Repo, func(repo roster.Repository) error {
		res = Result{Delta: delta}
		return r.apply(ctx, repo, c, sched, loc, delta, &res)
	})
	if err != nil {
		return res, err
	}

	r.log(ctx).InfoContext(ctx, "reconciled contract shifts",
		"contract_id", c.ID,
		"added", res.Added, "skipped", res.Skipped,
		"removed", res.Removed, "updated", res.Updated,
		"protected", len(res.Protected))
	for _, p := range res.Protected {
		r.log(ctx).InfoContext(ctx, "left protected shift untouched",
			"contract_id", c.ID, "shift_id", p.ShiftID, "date", p.Date.String(),
			"status", string(p.Status), "action", p.Action)
	}
	return res, nil
}

func (r *Reconciler) apply(ctx context.Context, repo roster.Repository, c roster.Contract, sched roster.WeeklySchedule, loc *time.Location, delta Delta, res *Result) error {
	// Add
	if len(delta.Add) > 0 {
		occs := make([]roster.Occurrence, 0, len(delta.Add))
		for _, d := range delta.Add {
			occs = append(occs, schedule.OccurrenceOn(d, sched.Day(d.Weekday()), loc))
		}
		if err := r.insert(ctx, repo, c.ID, occs, res); err != nil {
			return err
		}
	}

	// Look up what is stored at remove/update dates so protected rows can be
	// reported rather than silently orphaned.
	touched := append(append([]roster.Date{}, delta.Remove...), delta.Update...)
	existing, err := seedShiftsAt(ctx, repo, c.ID, touched)
	if err != nil {
		return err
	}

	// Remove
	if len(delta.Remove) > 0 {
		n, err := repo.DeleteSeedShiftsByDates(ctx, c.ID, delta.Remove, roster.PendingStatuses)
		if err != nil {
			return fmt.Errorf("failed to delete seed shifts: %w", err)
		}
		res.Removed = n
		res.Protected = append(res.Protected, protectedAt(existing, delta.Remove, "remove")...)
	}

	// Update
	for _, d := range delta.Update {
		o := schedule.OccurrenceOn(d, sched.Day(d.Weekday()), loc)
		ok, err := repo.UpdateSeedShiftTimes(ctx, c.ID, d, o.StartUTC, o.EndUTC, roster.PendingStatuses)
		if err != nil {
			return fmt.Errorf("failed to update seed shift %s: %w", d, err)
		}
		if ok {
			res.Updated++
		}
	}
	res.Protected = append(res.Protected, protectedAt(existing, delta.Update, "update")...)
	return nil
}

// insert seeds occurrences; an existing row is an expected idempotent skip.
func (r *Reconciler) insert(ctx context.Context, repo roster.Repository, contractID string, occs []roster.Occurrence, res *Result) error {
	for _, o := range occs {
		inserted, err := repo.InsertSeedShift(ctx, contractID, o)
		if err != nil {
			return fmt.Errorf("failed to insert seed shift %s: %w", o.LocalDate, err)
		}
		if inserted {
			res.Added++
		} else {
			res.Skipped++
		}
	}
	return nil
}

func seedShiftsAt(ctx context.Context, repo roster.Repository, contractID string, dates []roster.Date) (map[roster.Date][]roster.Shift, error) {
	out := make(map[roster.Date][]roster.Shift)
	if len(dates) == 0 {
		return out, nil
	}
	from, to := dates[0], dates[0]
	for _, d := range dates {
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	shifts, err := repo.GetShiftsForContractInRange(ctx, contractID, from, to, roster.SourceContractSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed shifts: %w", err)
	}
	for _, s := range shifts {
		out[s.LocalDate] = append(out[s.LocalDate], s)
	}
	return out, nil
}

func protectedAt(existing map[roster.Date][]roster.Shift, dates []roster.Date, action string) []ProtectedShift {
	var out []ProtectedShift
	for _, d := range dates {
		for _, s := range existing[d] {
			if s.Status.IsPending() {
				continue
			}
			out = append(out, ProtectedShift{ShiftID: s.ID, Date: d, Status: s.Status, Action: action})
		}
	}
	return out
}
