package roster

import (
	"sort"
	"strconv"
	"time"
)

// =============================================================================
// WEEKLY SCHEDULE - Closed, total 7-slot structure used internally
// =============================================================================

// DaySchedule is one weekday row of a contract's schedule. When Enabled is
// false the times are kept as the last known values for re-enabling.
type DaySchedule struct {
	Weekday time.Weekday
	Enabled bool
	Start   Clock
	End     Clock
}

// WeeklySchedule holds exactly one DaySchedule per weekday, indexed by
// time.Weekday (Sunday = 0).
type WeeklySchedule [7]DaySchedule

// NewWeeklySchedule returns a schedule with every day disabled.
func NewWeeklySchedule() WeeklySchedule {
	var w WeeklySchedule
	for i := range w {
		w[i].Weekday = time.Weekday(i)
	}
	return w
}

// UniformSchedule enables the given weekdays with the same hours.
func UniformSchedule(start, end Clock, days ...time.Weekday) WeeklySchedule {
	w := NewWeeklySchedule()
	for i := range w {
		w[i].Start, w[i].End = start, end
	}
	for _, d := range days {
		w[d].Enabled = true
	}
	return w
}

// ScheduleFromDays builds a schedule from stored rows. Weekdays without a
// row are disabled.
func ScheduleFromDays(rows []DaySchedule) WeeklySchedule {
	w := NewWeeklySchedule()
	for _, r := range rows {
		if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			continue
		}
		w[r.Weekday] = r
	}
	return w
}

func (w WeeklySchedule) Day(d time.Weekday) DaySchedule { return w[d] }

// Days returns the 7 rows in weekday order.
func (w WeeklySchedule) Days() []DaySchedule {
	out := make([]DaySchedule, 7)
	copy(out, w[:])
	return out
}

func (w WeeklySchedule) EnabledCount() int {
	n := 0
	for _, d := range w {
		if d.Enabled {
			n++
		}
	}
	return n
}

func (w WeeklySchedule) HasEnabled() bool { return w.EnabledCount() > 0 }

// =============================================================================
// SCHEDULE CONFIG - Wire/request shape
// =============================================================================

// DayConfig is one weekday entry of a ScheduleConfig.
type DayConfig struct {
	Enabled bool    `json:"enabled"`
	Start   *string `json:"start,omitempty"`
	End     *string `json:"end,omitempty"`
}

// ScheduleConfig is the schedule as exchanged with clients:
//
//	{"defaultStart": "07:00", "defaultEnd": "19:00",
//	 "days": {"1": {"enabled": true}, "3": {"enabled": true, "end": "15:00"}}}
type ScheduleConfig struct {
	DefaultStart string               `json:"defaultStart"`
	DefaultEnd   string               `json:"defaultEnd"`
	Days         map[string]DayConfig `json:"days"`
}

// Resolve validates the config once and converts it to a WeeklySchedule.
func (c ScheduleConfig) Resolve() (WeeklySchedule, error) {
	return c.ResolveWith(nil)
}

// ResolveWith is Resolve where a disabled day without explicit times keeps
// the times from prior, so they survive as last known values. A day
// re-enabled with neither its own times nor defaults takes them from prior.
func (c ScheduleConfig) ResolveWith(prior *WeeklySchedule) (WeeklySchedule, error) {
	var defStart, defEnd *Clock
	if c.DefaultStart != "" {
		clk, err := ParseClock(c.DefaultStart)
		if err != nil {
			return WeeklySchedule{}, fieldError("defaultStart", err)
		}
		defStart = &clk
	}
	if c.DefaultEnd != "" {
		clk, err := ParseClock(c.DefaultEnd)
		if err != nil {
			return WeeklySchedule{}, fieldError("defaultEnd", err)
		}
		defEnd = &clk
	}

	w := NewWeeklySchedule()
	if prior != nil {
		w = *prior
	}
	for i := range w {
		w[i].Weekday = time.Weekday(i)
		w[i].Enabled = false
		if prior == nil {
			if defStart != nil {
				w[i].Start = *defStart
			}
			if defEnd != nil {
				w[i].End = *defEnd
			}
		}
	}

	for key, day := range c.Days {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx > 6 {
			return WeeklySchedule{}, Invalid("days", "weekday key %q must be 0..6", key)
		}
		field := "days." + key
		slot := w[idx]
		slot.Enabled = day.Enabled

		start, end := defStart, defEnd
		if !day.Enabled && prior != nil {
			// keep the prior row's times unless overridden
			start, end = nil, nil
		}
		if day.Enabled && prior != nil && slot.known() {
			// re-enabled without defaults: fall back to the last known times
			if start == nil {
				start = &slot.Start
			}
			if end == nil {
				end = &slot.End
			}
		}
		if day.Start != nil {
			clk, err := ParseClock(*day.Start)
			if err != nil {
				return WeeklySchedule{}, fieldError(field+".start", err)
			}
			start = &clk
		}
		if day.End != nil {
			clk, err := ParseClock(*day.End)
			if err != nil {
				return WeeklySchedule{}, fieldError(field+".end", err)
			}
			end = &clk
		}
		if day.Enabled && (start == nil || end == nil) {
			return WeeklySchedule{}, Invalid(field, "enabled day needs start and end (or defaults)")
		}
		if start != nil {
			slot.Start = *start
		}
		if end != nil {
			slot.End = *end
		}
		w[idx] = slot
	}
	return w, nil
}

// known reports whether the row ever carried times. A never-configured
// row is 00:00-00:00.
func (d DaySchedule) known() bool {
	return d.Start != (Clock{}) || d.End != (Clock{})
}

func fieldError(field string, err error) error {
	if ve, ok := err.(*ValidationError); ok {
		return &ValidationError{Field: field, Message: ve.Message, Cause: ve.Cause}
	}
	return &ValidationError{Field: field, Message: err.Error(), Cause: err}
}

// ToConfig renders the schedule in wire form. The defaults are taken from
// the most common enabled hours.
func (w WeeklySchedule) ToConfig() ScheduleConfig {
	counts := map[[2]Clock]int{}
	for _, d := range w {
		if d.Enabled {
			counts[[2]Clock{d.Start, d.End}]++
		}
	}
	keys := make([][2]Clock, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		if keys[i][0] != keys[j][0] {
			return keys[i][0].Minutes() < keys[j][0].Minutes()
		}
		return keys[i][1].Minutes() < keys[j][1].Minutes()
	})

	cfg := ScheduleConfig{Days: make(map[string]DayConfig, 7)}
	if len(keys) > 0 {
		cfg.DefaultStart, cfg.DefaultEnd = keys[0][0].String(), keys[0][1].String()
	}
	for _, d := range w {
		start, end := d.Start.String(), d.End.String()
		cfg.Days[strconv.Itoa(int(d.Weekday))] = DayConfig{Enabled: d.Enabled, Start: &start, End: &end}
	}
	return cfg
}
