/*
Package schedule expands a contract's weekly schedule into concrete shifts.

PURPOSE:
  Given a date range, an IANA timezone and a WeeklySchedule, Generate walks
  every calendar date in the range and emits one Occurrence for each date
  whose weekday is enabled. Output is eager and finite: contracts always
  have an end date, which is what bounds the work.

OVERNIGHT RULE:
  When a day's end clock is at or before its start clock the shift ends on
  the next calendar date (19:00-07:00 is 12 hours, not -12). The occurrence
  is still keyed by the start date.

TIMEZONES:
  Wall-clock times are converted to UTC through roster.ShiftWindow, which
  uses the Go zone database. DST gaps/overlaps resolve the way time.Date
  resolves them; no manual offset arithmetic.

ORDERING:
  Ascending by LocalDate, which is also ascending by StartUTC.

SEE ALSO:
  - roster/timezone.go: ShiftWindow
  - reconcile/delta.go: Uses Occurrences to fill in added/updated dates
  - audit/audit.go:     Uses the expected date set
*/
package schedule

import (
	"time"

	"github.com/warp/shift-engine/roster"
)

// Generate returns the occurrences of sched within r, in zone.
func Generate(r roster.Range, zone string, sched roster.WeeklySchedule) ([]roster.Occurrence, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	loc, err := roster.LoadZone(zone)
	if err != nil {
		return nil, err
	}
	return GenerateIn(r, loc, sched), nil
}

// GenerateIn is Generate with an already-resolved location and range.
func GenerateIn(r roster.Range, loc *time.Location, sched roster.WeeklySchedule) []roster.Occurrence {
	occurrences := make([]roster.Occurrence, 0, r.Len()*sched.EnabledCount()/7+1)
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		day := sched.Day(d.Weekday())
		if !day.Enabled {
			continue
		}
		occurrences = append(occurrences, OccurrenceOn(d, day, loc))
	}
	return occurrences
}

// GenerateFromConfig resolves a wire-shape config and generates.
func GenerateFromConfig(start, end roster.Date, zone string, cfg roster.ScheduleConfig) ([]roster.Occurrence, error) {
	sched, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	return Generate(roster.Range{Start: start, End: end}, zone, sched)
}

// GenerateForContract generates over the contract's own range and zone.
func GenerateForContract(c roster.Contract, sched roster.WeeklySchedule) ([]roster.Occurrence, error) {
	return Generate(c.Range(), c.Timezone, sched)
}

// OccurrenceOn builds the occurrence for one date.
func OccurrenceOn(d roster.Date, day roster.DaySchedule, loc *time.Location) roster.Occurrence {
	start, end := roster.ShiftWindow(d, day.Start, day.End, loc)
	return roster.Occurrence{LocalDate: d, StartUTC: start, EndUTC: end}
}

// RequireEnabled rejects schedules with no enabled weekday. Called before
// seeding; generation itself happily returns zero occurrences.
func RequireEnabled(sched roster.WeeklySchedule) error {
	if !sched.HasEnabled() {
		return &roster.ValidationError{
			Field:   "days",
			Message: "at least one weekday must be enabled to seed shifts",
			Cause:   roster.ErrNoEnabledDays,
		}
	}
	return nil
}

// ExpectedDates returns the occurrence dates as a set.
func ExpectedDates(occs []roster.Occurrence) map[roster.Date]roster.Occurrence {
	out := make(map[roster.Date]roster.Occurrence, len(occs))
	for _, o := range occs {
		out[o.LocalDate] = o
	}
	return out
}
