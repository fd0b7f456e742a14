/*
Package reconcile keeps a contract's seeded shifts in sync with its terms.

PURPOSE:
  When a contract's date range, weekly schedule or timezone changes,
  ComputeDelta works out which local dates must gain a shift, lose one, or
  have their times rewritten. Reconciler.Apply then executes that delta
  against a Repository without ever touching finalized or cancelled shifts.

RULES (unioned, evaluated per date):
  1. Expansion: a date in the new range but not the old one is added when
     its weekday is enabled in the new schedule.
  2. Narrowing: a date in the old range but not the new one is removed,
     whatever its weekday.
  3. Toggle (overlap only): disabled -> enabled adds, enabled -> disabled
     removes.
  4. Time change (overlap only, enabled in both): a different effective
     start or end updates. A zone change moves every UTC instant, so it
     updates every such date too.
  Rules 1-2 only see dates outside the overlap and rules 3-4 only dates
  inside it, so a date lands in at most one set.

SEE ALSO:
  - apply.go:              Executes a Delta
  - schedule/generator.go: Builds the occurrences for added/updated dates
*/
package reconcile

import (
	"sort"

	"github.com/warp/shift-engine/roster"
)

// Terms are the parts of a contract that determine its seeded shifts.
type Terms struct {
	Range    roster.Range
	Schedule roster.WeeklySchedule
	Timezone string
}

// TermsOf extracts Terms from a stored contract and its schedule.
func TermsOf(c roster.Contract, sched roster.WeeklySchedule) Terms {
	return Terms{Range: c.Range(), Schedule: sched, Timezone: c.Timezone}
}

// Delta is the minimal change set between two Terms. Each slice is sorted
// ascending and the three are disjoint.
type Delta struct {
	Add    []roster.Date `json:"addDates"`
	Remove []roster.Date `json:"removeDates"`
	Update []roster.Date `json:"updateDates"`
}

func (d Delta) IsEmpty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0 && len(d.Update) == 0
}

// Size is the total number of dates touched.
func (d Delta) Size() int {
	return len(d.Add) + len(d.Remove) + len(d.Update)
}

// ComputeDelta compares prev and next terms. It is pure and total over valid
// ranges; an invalid prev or next range contributes no dates.
func ComputeDelta(prev, next Terms) Delta {
	var delta Delta
	overlap, hasOverlap := prev.Range.Overlap(next.Range)
	zoneChanged := prev.Timezone != next.Timezone

	// Rule 1: expansion
	for _, d := range next.Range.Days() {
		if prev.Range.Contains(d) {
			continue
		}
		if next.Schedule.Day(d.Weekday()).Enabled {
			delta.Add = append(delta.Add, d)
		}
	}

	// Rule 2: narrowing
	for _, d := range prev.Range.Days() {
		if !next.Range.Contains(d) {
			delta.Remove = append(delta.Remove, d)
		}
	}

	if hasOverlap {
		for _, d := range overlap.Days() {
			before := prev.Schedule.Day(d.Weekday())
			after := next.Schedule.Day(d.Weekday())
			switch {
			case !before.Enabled && after.Enabled:
				delta.Add = append(delta.Add, d) // rule 3
			case before.Enabled && !after.Enabled:
				delta.Remove = append(delta.Remove, d) // rule 3
			case before.Enabled && after.Enabled:
				if zoneChanged || before.Start != after.Start || before.End != after.End {
					delta.Update = append(delta.Update, d) // rule 4
				}
			}
		}
	}

	sortDates(delta.Add)
	sortDates(delta.Remove)
	sortDates(delta.Update)
	return delta
}

func sortDates(ds []roster.Date) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
}
