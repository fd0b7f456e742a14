/*
Package audit compares a contract's stored seed shifts with what its current
terms would generate.

PURPOSE:
  The audit is a read-only diagnostic. It regenerates the expected
  occurrence dates and groups the stored contract_seed shifts by local date:

    Missing:          expected dates with no seed row
    Duplicates:       dates with more than one seed row (an upstream
                      integrity bug, the unique index should prevent it)
    Unexpected:       seed dates outside the expected set (informational)
    FinalizedTouched: finalized shifts sitting on a missing or duplicate
                      date, i.e. what a naive delete-and-regenerate would
                      destroy

  Status is has_issues when Missing or Duplicates is non-empty.

  Findings are returned as data. Nothing here mutates the repository.

SEE ALSO:
  - schedule/generator.go: Expected set
  - api/scheduler.go:      Periodic sweep over all contracts
*/
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/warp/shift-engine/logging"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/schedule"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusHasIssues Status = "has_issues"
)

// Report is the audit outcome for one contract.
type Report struct {
	ContractID       string        `json:"contractId"`
	Missing          []roster.Date `json:"missing"`
	Duplicates       []roster.Date `json:"duplicates"`
	Unexpected       []roster.Date `json:"unexpected"`
	FinalizedTouched int           `json:"finalizedTouched"`
	ExpectedCount    int           `json:"expectedCount"`
	ActualCount      int           `json:"actualCount"`
	Status           Status        `json:"status"`
	CheckedAt        time.Time     `json:"checkedAt"`
}

func (r Report) Healthy() bool { return r.Status == StatusHealthy }

// allTime bounds the seed-row query so rows left behind by older ranges are
// still seen.
var allTime = roster.Range{Start: roster.NewDate(1, time.January, 1), End: roster.NewDate(9999, time.December, 31)}

// =============================================================================
// AUDITOR
// =============================================================================

type Auditor struct {
	Repo   roster.Repository
	Logger *slog.Logger
	Now    func() time.Time
}

func NewAuditor(repo roster.Repository, logger *slog.Logger) *Auditor {
	return &Auditor{Repo: repo, Logger: logging.OrDefault(logger), Now: time.Now}
}

// AuditContract audits one contract. Unknown ids return a NotFoundError.
func (a *Auditor) AuditContract(ctx context.Context, contractID string) (Report, error) {
	c, err := a.Repo.GetContract(ctx, contractID)
	if err != nil {
		return Report{}, err
	}
	return a.audit(ctx, c)
}

// AuditUser audits every contract owned by userID.
func (a *Auditor) AuditUser(ctx context.Context, userID string) ([]Report, error) {
	contracts, err := a.Repo.ListContracts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return a.auditMany(ctx, contracts)
}

// AuditAll audits every stored contract.
func (a *Auditor) AuditAll(ctx context.Context) ([]Report, error) {
	contracts, err := a.Repo.ListAllContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return a.auditMany(ctx, contracts)
}

func (a *Auditor) auditMany(ctx context.Context, contracts []roster.Contract) ([]Report, error) {
	out := make([]Report, 0, len(contracts))
	for _, c := range contracts {
		r, err := a.audit(ctx, c)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (a *Auditor) audit(ctx context.Context, c roster.Contract) (Report, error) {
	days, err := a.Repo.ListScheduleDays(ctx, c.ID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load schedule for %s: %w", c.ID, err)
	}
	occs, err := schedule.GenerateForContract(c, roster.ScheduleFromDays(days))
	if err != nil {
		return Report{}, err
	}
	shifts, err := a.Repo.GetShiftsForContractInRange(ctx, c.ID, allTime.Start, allTime.End, "")
	if err != nil {
		return Report{}, fmt.Errorf("failed to load shifts for %s: %w", c.ID, err)
	}

	r := Diff(schedule.ExpectedDates(occs), shifts)
	r.ContractID = c.ID
	r.CheckedAt = a.now()

	if !r.Healthy() {
		logging.FromContextOr(ctx, a.Logger).WarnContext(ctx, "contract audit found issues",
			"contract_id", c.ID,
			"missing", len(r.Missing), "duplicates", len(r.Duplicates),
			"finalized_touched", r.FinalizedTouched)
	}
	return r, nil
}

func (a *Auditor) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

// =============================================================================
// DIFF - Pure comparison
// =============================================================================

// Diff compares the expected dates with a contract's stored shifts. Only
// contract_seed rows count as actual; finalized shifts of any source are
// counted toward FinalizedTouched.
func Diff(expected map[roster.Date]roster.Occurrence, shifts []roster.Shift) Report {
	r := Report{
		Missing:       []roster.Date{},
		Duplicates:    []roster.Date{},
		Unexpected:    []roster.Date{},
		ExpectedCount: len(expected),
	}

	seeds := make(map[roster.Date]int)
	finalized := make(map[roster.Date]int)
	for _, s := range shifts {
		if s.Status == roster.StatusFinalized {
			finalized[s.LocalDate]++
		}
		if s.Source != roster.SourceContractSeed {
			continue
		}
		seeds[s.LocalDate]++
		r.ActualCount++
	}

	for d := range expected {
		if seeds[d] == 0 {
			r.Missing = append(r.Missing, d)
			r.FinalizedTouched += finalized[d]
		}
	}
	for d, n := range seeds {
		if n > 1 {
			r.Duplicates = append(r.Duplicates, d)
			r.FinalizedTouched += finalized[d]
		}
		if _, ok := expected[d]; !ok {
			r.Unexpected = append(r.Unexpected, d)
		}
	}

	sortDates(r.Missing)
	sortDates(r.Duplicates)
	sortDates(r.Unexpected)

	r.Status = StatusHealthy
	if len(r.Missing) > 0 || len(r.Duplicates) > 0 {
		r.Status = StatusHasIssues
	}
	return r
}

func sortDates(ds []roster.Date) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
}
