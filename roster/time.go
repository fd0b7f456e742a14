package roster

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Naive calendar date (no zone, no time of day)
// =============================================================================

// Date is a local calendar date. It is comparable and safe as a map key.
// Local dates are never derived by truncating a UTC instant.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate normalizes out-of-range components the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return dateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Message: fmt.Sprintf("%q is not YYYY-MM-DD", s), Cause: err}
	}
	return dateOf(t), nil
}

// MustParseDate panics on malformed input. Only for fixtures and presets.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string { return d.midnight().Format(dateLayout) }
func (d Date) IsZero() bool { return d == Date{} }
func (d Date) Weekday() time.Weekday { return d.midnight().Weekday() }
func (d Date) AddDays(n int) Date { return AddDays(d, n) }

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }
func (d Date) BeforeOrEqual(o Date) bool { return d.Compare(o) <= 0 }
func (d Date) AfterOrEqual(o Date) bool { return d.Compare(o) >= 0 }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// CLOCK - Local wall-clock time of day (HH:mm)
// =============================================================================

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a strict 24-hour "HH:mm" string.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' || !digits(s[0:2]) || !digits(s[3:5]) {
		return Clock{}, Invalid("time", "%q is not HH:mm", s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return Clock{}, Invalid("time", "%q is not a valid 24-hour time", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// MustParseClock panics on malformed input. Only for fixtures and presets.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) Before(o Clock) bool { return c.Minutes() < o.Minutes() }

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// =============================================================================
// LOCAL TIME UTILITIES
// =============================================================================

const MinutesPerDay = 24 * 60

// WeekStartSunday returns the Sunday on or before d.
func WeekStartSunday(d Date) Date {
	return AddDays(d, -int(d.Weekday()))
}

// AddDays is calendar arithmetic with month and year rollover.
func AddDays(d Date, n int) Date {
	return dateOf(d.midnight().AddDate(0, 0, n))
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int {
	return int(to.midnight().Sub(from.midnight()).Hours() / 24)
}

// MinutesBetweenLocal is the single overnight rule: an end before the start
// crosses midnight. Equal clocks yield zero.
func MinutesBetweenLocal(start, end Clock) int {
	s, e := start.Minutes(), end.Minutes()
	if e < s {
		e += MinutesPerDay
	}
	return e - s
}

// InRange reports start <= d <= end.
func InRange(d, start, end Date) bool {
	return d.AfterOrEqual(start) && d.BeforeOrEqual(end)
}
