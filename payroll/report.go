package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/roster"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// DASHBOARD - Period totals for one user
// =============================================================================

// Dashboard is the period summary plus expenses and per-contract progress.
type Dashboard struct {
	Summary

	ShiftCount      int              `json:"shiftCount"`
	ExpenseTotal    decimal.Decimal  `json:"expenseTotal"`
	DeductibleTotal decimal.Decimal  `json:"deductibleTotal"`
	Contracts       []ContractPeriod `json:"contracts"`
	Expenses        []roster.Expense `json:"-"`
}

// ContractPeriod is one contract's share of the period and its progress
// against the weekly hour target.
type ContractPeriod struct {
	ContractID  string              `json:"contractId"`
	Name        string              `json:"name"`
	Facility    string              `json:"facility"`
	Minutes     int                 `json:"minutes"`
	Hours       decimal.Decimal     `json:"hours"`
	Earnings    decimal.Decimal     `json:"earnings"`
	TargetHours decimal.NullDecimal `json:"targetHours"`
}

// Reporter loads a user's data and aggregates it.
type Reporter struct {
	Repo       roster.Repository
	Aggregator Aggregator
}

func NewReporter(repo roster.Repository, agg Aggregator) *Reporter {
	return &Reporter{Repo: repo, Aggregator: agg}
}

// Dashboard builds the period report for userID.
func (r *Reporter) Dashboard(ctx context.Context, userID string, period roster.Range) (Dashboard, error) {
	if err := period.Validate(); err != nil {
		return Dashboard{}, err
	}

	var (
		contracts []roster.Contract
		shifts    []roster.Shift
		expenses  []roster.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contracts, err = r.Repo.ListContracts(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list contracts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// One extra day back: a Saturday overnight spills into a Sunday
		// period start.
		var err error
		shifts, err = r.Repo.GetShiftsInDateRange(gctx, userID, period.Start.AddDays(-1), period.End)
		if err != nil {
			return fmt.Errorf("failed to load shifts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = r.Repo.ListExpensesInRange(gctx, userID, period.Start, period.End)
		if err != nil {
			return fmt.Errorf("failed to load expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	byID := make(map[string]roster.Contract, len(contracts))
	for _, c := range contracts {
		byID[c.ID] = c
	}

	summary, err := r.Aggregator.PeriodSummary(period, shifts, byID)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Summary:         summary,
		ExpenseTotal:    decimal.Zero,
		DeductibleTotal: decimal.Zero,
		Expenses:        expenses,
	}
	for _, s := range shifts {
		if s.Status.IsCounted() && period.Contains(s.LocalDate) {
			d.ShiftCount++
		}
	}
	for _, e := range expenses {
		d.ExpenseTotal = d.ExpenseTotal.Add(e.Amount)
		if e.Deductible {
			d.DeductibleTotal = d.DeductibleTotal.Add(e.Amount)
		}
	}
	d.Contracts = contractPeriods(summary, contracts)
	return d, nil
}

func contractPeriods(summary Summary, contracts []roster.Contract) []ContractPeriod {
	minutes := make(map[string]int)
	earnings := make(map[string]decimal.Decimal)
	for _, w := range summary.Weeks {
		for _, cw := range w.Contracts {
			minutes[cw.ContractID] += cw.Minutes
			earnings[cw.ContractID] = earnings[cw.ContractID].Add(cw.Earnings)
		}
	}

	weeks := decimal.NewFromInt(int64(len(summary.Weeks)))
	var out []ContractPeriod
	for _, c := range contracts {
		if _, overlaps := summary.Period.Overlap(c.Range()); !overlaps && minutes[c.ID] == 0 {
			continue
		}
		cp := ContractPeriod{
			ContractID: c.ID,
			Name:       c.Name,
			Facility:   c.Facility,
			Minutes:    minutes[c.ID],
			Hours:      decimal.NewFromInt(int64(minutes[c.ID])).Div(sixty).Round(1),
			Earnings:   earnings[c.ID].Round(2),
		}
		if c.TargetHoursPerWeek.Valid {
			cp.TargetHours = decimal.NewNullDecimal(c.TargetHoursPerWeek.Decimal.Mul(weeks))
		}
		out = append(out, cp)
	}
	return out
}
