package roster

import "time"

// =============================================================================
// RANGE - Inclusive span of local dates
// =============================================================================

// Range is an inclusive [Start, End] span of calendar dates. Contract date
// ranges, payroll periods and report windows are all Ranges.
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewRange builds and validates a range.
func NewRange(start, end Date) (Range, error) {
	r := Range{Start: start, End: end}
	return r, r.Validate()
}

// ParseRange parses two YYYY-MM-DD strings into a validated range.
func ParseRange(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return NewRange(s, e)
}

// Validate rejects ranges whose end precedes their start.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return Invalid("range", "start and end dates are required")
	}
	if r.End.Before(r.Start) {
		return Invalid("range", "end %s is before start %s", r.End, r.Start)
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (r Range) Contains(d Date) bool {
	return InRange(d, r.Start, r.End)
}

// Days returns every date in the range in ascending order.
func (r Range) Days() []Date {
	if r.empty() {
		return nil
	}
	days := make([]Date, 0, r.Len())
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Len is the number of dates in the range.
func (r Range) Len() int {
	if r.empty() {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

func (r Range) empty() bool {
	return r.Start.IsZero() || r.End.IsZero() || r.End.Before(r.Start)
}

// Overlap returns the intersection and whether it is non-empty.
func (r Range) Overlap(o Range) (Range, bool) {
	out := Range{Start: r.Start, End: r.End}
	if o.Start.After(out.Start) {
		out.Start = o.Start
	}
	if o.End.Before(out.End) {
		out.End = o.End
	}
	return out, !r.empty() && !o.empty() && !out.empty()
}

// Widen extends the range by n days on each side.
func (r Range) Widen(n int) Range {
	return Range{Start: r.Start.AddDays(-n), End: r.End.AddDays(n)}
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// PERIOD CONSTRUCTORS
// =============================================================================

// WeekOf returns the Sunday-start week containing d.
func WeekOf(d Date) Range {
	start := WeekStartSunday(d)
	return Range{Start: start, End: start.AddDays(6)}
}

// MonthOf returns the calendar month.
func MonthOf(year int, month time.Month) Range {
	start := NewDate(year, month, 1)
	return Range{Start: start, End: NewDate(year, month+1, 0)}
}

// Weeks partitions the range into consecutive Sunday-start weeks covering
// it. The first week starts at WeekStartSunday(r.Start).
func (r Range) Weeks() []Range {
	if r.empty() {
		return nil
	}
	var weeks []Range
	for start := WeekStartSunday(r.Start); start.BeforeOrEqual(r.End); start = start.AddDays(7) {
		weeks = append(weeks, Range{Start: start, End: start.AddDays(6)})
	}
	return weeks
}
