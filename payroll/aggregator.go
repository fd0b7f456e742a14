/*
Package payroll turns shifts into hours and pay.

PURPOSE:
  PeriodSummary buckets shift minutes into Sunday-start weeks, applies the
  fixed 40-hour base/overtime split per contract per week, and totals the
  period.

WEEK DEFINITION:
  Weeks start on Sunday 00:00 local time. The first bucket of a period starts
  at roster.WeekStartSunday(period.Start).

WEEK BOUNDARY SPLIT:
  A shift whose local start and end fall in different weeks is split at the
  Sunday midnight between them: the minutes before midnight count toward
  the earlier week, the rest toward the later one. This is the only place a
  shift's duration lands in two buckets.

  Saturday 23:00 -> Sunday 07:00  =  60 min (week A) + 420 min (week B)

MINUTES:
  Wall-clock minutes in the contract's zone: days between local dates x 1440
  plus the clock difference. For shifts under 24h this equals
  roster.MinutesBetweenLocal.

OVERTIME:
  Per (week, contract): the first 2400 minutes bill at BaseRate, the rest at
  EffectiveOvertimeRate(). Contractless shifts add hours but no earnings.
  Cancelled shifts are ignored.

ROUNDING:
  Earnings accumulate as exact minute x rate products and are divided by 60
  once. Hours round to 1 decimal and earnings to 2 decimals only in the
  final Summary fields.

SEE ALSO:
  - report.go: Loads shifts/contracts/expenses and builds the dashboard
*/
package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/roster"
)

var sixty = decimal.NewFromInt(60)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Summary is the period total plus its weekly breakdown.
type Summary struct {
	Period   roster.Range    `json:"period"`
	Hours    decimal.Decimal `json:"hours"`    // rounded to 1 decimal
	Earnings decimal.Decimal `json:"earnings"` // rounded to 2 decimals

	TotalMinutes        int           `json:"totalMinutes"`
	ContractlessMinutes int           `json:"contractlessMinutes"`
	Weeks               []WeekSummary `json:"weeks"`
}

// WeekSummary is one Sunday-start bucket. Earnings here are unrounded.
type WeekSummary struct {
	Week      roster.Range    `json:"week"`
	Minutes   int             `json:"minutes"`
	Earnings  decimal.Decimal `json:"earnings"`
	Contracts []ContractWeek  `json:"contracts"`
}

// ContractWeek is one contract's minutes and pay inside one week.
type ContractWeek struct {
	ContractID      string          `json:"contractId"`
	Minutes         int             `json:"minutes"`
	BaseMinutes     int             `json:"baseMinutes"`
	OvertimeMinutes int             `json:"overtimeMinutes"`
	Earnings        decimal.Decimal `json:"earnings"`
}

// Segment is the part of one shift that falls inside one week.
type Segment struct {
	ShiftID    string
	ContractID string
	Date       roster.Date // local date the segment starts on
	Minutes    int
}

func (s Segment) WeekStart() roster.Date { return roster.WeekStartSunday(s.Date) }

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator is stateless apart from the zone used for contractless shifts.
type Aggregator struct {
	DefaultZone *time.Location
}

func NewAggregator(defaultZone *time.Location) Aggregator {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return Aggregator{DefaultZone: defaultZone}
}

// PeriodSummary computes hours and earnings for the shifts inside period.
func (a Aggregator) PeriodSummary(period roster.Range, shifts []roster.Shift, contractsByID map[string]roster.Contract) (Summary, error) {
	if err := period.Validate(); err != nil {
		return Summary{}, err
	}

	type bucketKey struct {
		week       roster.Date
		contractID string
	}
	minutes := make(map[bucketKey]int)
	contractless := make(map[roster.Date]int)

	for _, s := range shifts {
		if !s.Status.IsCounted() {
			continue
		}
		c, hasContract := contractsByID[s.ContractID]
		hasContract = hasContract && s.HasContract()

		loc := a.zone()
		if hasContract {
			l, err := c.Location()
			if err != nil {
				return Summary{}, err
			}
			loc = l
		}

		for _, seg := range SplitByWeek(s, loc) {
			if !period.Contains(seg.Date) {
				continue
			}
			if hasContract {
				minutes[bucketKey{week: seg.WeekStart(), contractID: c.ID}] += seg.Minutes
			} else {
				contractless[seg.WeekStart()] += seg.Minutes
			}
		}
	}

	summary := Summary{Period: period}
	numerator := decimal.Zero // sum of minute x rate products

	for _, week := range period.Weeks() {
		ws := WeekSummary{Week: week, Earnings: decimal.Zero}
		weekNumerator := decimal.Zero

		var ids []string
		for k := range minutes {
			if k.week == week.Start {
				ids = append(ids, k.contractID)
			}
		}
		sort.Strings(ids)

		for _, id := range ids {
			m := minutes[bucketKey{week: week.Start, contractID: id}]
			cw, n := contractWeek(m, contractsByID[id])
			ws.Contracts = append(ws.Contracts, cw)
			ws.Minutes += m
			weekNumerator = weekNumerator.Add(n)
		}

		cm := contractless[week.Start]
		ws.Minutes += cm
		summary.ContractlessMinutes += cm

		ws.Earnings = weekNumerator.Div(sixty)
		summary.TotalMinutes += ws.Minutes
		numerator = numerator.Add(weekNumerator)
		summary.Weeks = append(summary.Weeks, ws)
	}

	summary.Hours = decimal.NewFromInt(int64(summary.TotalMinutes)).Div(sixty).Round(1)
	summary.Earnings = numerator.Div(sixty).Round(2)
	return summary, nil
}

func (a Aggregator) zone() *time.Location {
	if a.DefaultZone == nil {
		return time.UTC
	}
	return a.DefaultZone
}

// WeeklyEarningsForContract applies the overtime rule to one contract's
// minutes in one week. The result is unrounded.
func WeeklyEarningsForContract(minutes int, c roster.Contract) decimal.Decimal {
	_, n := contractWeek(minutes, c)
	return n.Div(sixty)
}

// contractWeek returns the breakdown and the exact minute x rate numerator.
func contractWeek(minutes int, c roster.Contract) (ContractWeek, decimal.Decimal) {
	base := minutes
	overtime := 0
	if minutes > roster.OvertimeThresholdMinutes {
		base = roster.OvertimeThresholdMinutes
		overtime = minutes - roster.OvertimeThresholdMinutes
	}
	n := c.BaseRate.Mul(decimal.NewFromInt(int64(base))).
		Add(c.EffectiveOvertimeRate().Mul(decimal.NewFromInt(int64(overtime))))
	return ContractWeek{
		ContractID:      c.ID,
		Minutes:         minutes,
		BaseMinutes:     base,
		OvertimeMinutes: overtime,
		Earnings:        n.Div(sixty),
	}, n
}

// =============================================================================
// WEEK SPLITTING
// =============================================================================

// SplitByWeek converts a shift to local wall-clock in loc and cuts it at
// each Sunday midnight it crosses. The first segment is anchored on the
// shift's stored LocalDate.
func SplitByWeek(s roster.Shift, loc *time.Location) []Segment {
	startDate, startClock := roster.UTCToLocal(s.StartUTC, loc)
	endDate, endClock := roster.UTCToLocal(s.EndUTC, loc)

	// Anchor on the stored local date, keeping the wall-clock day span.
	span := roster.DaysBetween(startDate, endDate)
	if !s.LocalDate.IsZero() {
		startDate = s.LocalDate
		endDate = startDate.AddDays(span)
	}

	total := span*roster.MinutesPerDay + endClock.Minutes() - startClock.Minutes()
	if total <= 0 {
		// Wall clock can run backwards across a DST fall-back; fall back to
		// elapsed time.
		total = int(s.EndUTC.Sub(s.StartUTC) / time.Minute)
		if total <= 0 {
			return nil
		}
		return []Segment{{ShiftID: s.ID, ContractID: s.ContractID, Date: startDate, Minutes: total}}
	}

	var segments []Segment
	cursor, cursorMin := startDate, startClock.Minutes()
	remaining := total
	for boundary := roster.WeekStartSunday(startDate).AddDays(7); boundary.BeforeOrEqual(endDate); boundary = boundary.AddDays(7) {
		if boundary == endDate && endClock.Minutes() == 0 {
			break // ends exactly at the boundary
		}
		m := roster.DaysBetween(cursor, boundary)*roster.MinutesPerDay - cursorMin
		segments = append(segments, Segment{ShiftID: s.ID, ContractID: s.ContractID, Date: cursor, Minutes: m})
		remaining -= m
		cursor, cursorMin = boundary, 0
	}
	if remaining > 0 {
		segments = append(segments, Segment{ShiftID: s.ID, ContractID: s.ContractID, Date: cursor, Minutes: remaining})
	}
	return segments
}

// ShiftMinutes is the wall-clock length of a shift in loc.
func ShiftMinutes(s roster.Shift, loc *time.Location) int {
	total := 0
	for _, seg := range SplitByWeek(s, loc) {
		total += seg.Minutes
	}
	return total
}
