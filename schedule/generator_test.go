package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const chicago = "America/Chicago"

func rng(start, end string) roster.Range {
	return roster.Range{Start: roster.MustParseDate(start), End: roster.MustParseDate(end)}
}

func icuSchedule() roster.WeeklySchedule {
	return roster.UniformSchedule(roster.MustParseClock("07:00"), roster.MustParseClock("19:00"),
		time.Monday, time.Wednesday, time.Friday)
}

// =============================================================================
// GENERATION
// =============================================================================

func TestGenerate_ICUWeek(t *testing.T) {
	// GIVEN: Mon/Wed/Fri 07:00-19:00 in Chicago, Sep 1-7 2025
	occs, err := schedule.Generate(rng("2025-09-01", "2025-09-07"), chicago, icuSchedule())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: three 12-hour occurrences starting 12:00Z
	want := []string{"2025-09-01", "2025-09-03", "2025-09-05"}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(occs), len(want))
	}
	for i, o := range occs {
		if o.LocalDate.String() != want[i] {
			t.Errorf("occ[%d] date = %s, want %s", i, o.LocalDate, want[i])
		}
		if o.StartUTC.Hour() != 12 || o.StartUTC.Location() != time.UTC {
			t.Errorf("occ[%d] start = %s, want 12:00Z", i, o.StartUTC)
		}
		if o.Duration() != 12*time.Hour {
			t.Errorf("occ[%d] duration = %v", i, o.Duration())
		}
	}
}

func TestGenerate_Overnight(t *testing.T) {
	// GIVEN: Monday night 19:00-07:00
	sched := roster.UniformSchedule(roster.MustParseClock("19:00"), roster.MustParseClock("07:00"), time.Monday)

	// WHEN: generating one week
	occs, err := schedule.Generate(rng("2025-09-01", "2025-09-07"), chicago, sched)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: one 12-hour occurrence ending Tuesday morning
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences", len(occs))
	}
	o := occs[0]
	if o.LocalDate.String() != "2025-09-01" {
		t.Errorf("occurrence keyed by %s, want start date", o.LocalDate)
	}
	if o.Duration() != 12*time.Hour || !o.EndUTC.After(o.StartUTC) {
		t.Errorf("window = %s..%s", o.StartUTC, o.EndUTC)
	}
	if got := o.EndUTC.Format(time.RFC3339); got != "2025-09-02T12:00:00Z" {
		t.Errorf("end = %s", got)
	}
}

func TestGenerate_SingleDay(t *testing.T) {
	occs, err := schedule.Generate(rng("2025-09-03", "2025-09-03"), chicago, icuSchedule())
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 1 || occs[0].LocalDate.String() != "2025-09-03" {
		t.Errorf("got %+v", occs)
	}

	// Tuesday is not enabled.
	occs, err = schedule.Generate(rng("2025-09-02", "2025-09-02"), chicago, icuSchedule())
	if err != nil || len(occs) != 0 {
		t.Errorf("got %d occurrences, err %v", len(occs), err)
	}
}

func TestGenerate_NoEnabledDays(t *testing.T) {
	none := roster.NewWeeklySchedule()

	occs, err := schedule.Generate(rng("2025-09-01", "2025-09-30"), chicago, none)
	if err != nil {
		t.Fatalf("generation with no days should not fail: %v", err)
	}
	if len(occs) != 0 {
		t.Errorf("got %d occurrences", len(occs))
	}

	err = schedule.RequireEnabled(none)
	if !errors.Is(err, roster.ErrNoEnabledDays) || !roster.IsValidation(err) {
		t.Errorf("RequireEnabled = %v", err)
	}
	if err := schedule.RequireEnabled(icuSchedule()); err != nil {
		t.Errorf("RequireEnabled(icu) = %v", err)
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	if _, err := schedule.Generate(rng("2025-09-07", "2025-09-01"), chicago, icuSchedule()); !roster.IsValidation(err) {
		t.Errorf("reversed range: %v", err)
	}
	if _, err := schedule.Generate(rng("2025-09-01", "2025-09-07"), "Nowhere/Land", icuSchedule()); !roster.IsValidation(err) {
		t.Errorf("bad zone: %v", err)
	}
}

func TestGenerate_AcrossFallBack(t *testing.T) {
	// Saturday nights around the 2025-11-02 change.
	sched := roster.UniformSchedule(roster.MustParseClock("19:00"), roster.MustParseClock("07:00"), time.Saturday)
	occs, err := schedule.Generate(rng("2025-10-25", "2025-11-08"), chicago, sched)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]time.Duration{
		"2025-10-25": 12 * time.Hour,
		"2025-11-01": 13 * time.Hour,
		"2025-11-08": 12 * time.Hour,
	}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences", len(occs))
	}
	for _, o := range occs {
		if o.Duration() != want[o.LocalDate.String()] {
			t.Errorf("%s: duration %v, want %v", o.LocalDate, o.Duration(), want[o.LocalDate.String()])
		}
	}
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestGenerate_Properties(t *testing.T) {
	zones := []string{chicago, "Europe/London", "Australia/Sydney"}
	scheds := map[string]roster.WeeklySchedule{
		"icu":       icuSchedule(),
		"overnight": roster.UniformSchedule(roster.MustParseClock("19:00"), roster.MustParseClock("07:00"), time.Friday, time.Saturday),
		"daily":     roster.UniformSchedule(roster.MustParseClock("08:00"), roster.MustParseClock("16:00"), time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday),
		"dst-gap":   roster.UniformSchedule(roster.MustParseClock("01:45"), roster.MustParseClock("02:15"), time.Sunday),
	}
	r := rng("2025-01-01", "2025-12-31")

	for _, zone := range zones {
		for name, sched := range scheds {
			occs, err := schedule.Generate(r, zone, sched)
			if err != nil {
				t.Fatalf("%s/%s: %v", zone, name, err)
			}

			expected := 0
			for _, d := range r.Days() {
				if sched.Day(d.Weekday()).Enabled {
					expected++
				}
			}
			if len(occs) != expected {
				t.Errorf("%s/%s: %d occurrences, want %d", zone, name, len(occs), expected)
			}

			for i, o := range occs {
				if !r.Contains(o.LocalDate) {
					t.Errorf("%s/%s: %s outside range", zone, name, o.LocalDate)
				}
				if !sched.Day(o.LocalDate.Weekday()).Enabled {
					t.Errorf("%s/%s: %s weekday not enabled", zone, name, o.LocalDate)
				}
				if !o.EndUTC.After(o.StartUTC) {
					t.Errorf("%s/%s: %s ends before it starts", zone, name, o.LocalDate)
				}
				if i > 0 && !occs[i-1].LocalDate.Before(o.LocalDate) {
					t.Errorf("%s/%s: not strictly ascending at %d", zone, name, i)
				}
			}
		}
	}
}

func TestExpectedDates(t *testing.T) {
	occs, _ := schedule.Generate(rng("2025-09-01", "2025-09-14"), chicago, icuSchedule())
	set := schedule.ExpectedDates(occs)
	if len(set) != 6 {
		t.Fatalf("got %d dates", len(set))
	}
	if _, ok := set[roster.MustParseDate("2025-09-10")]; !ok {
		t.Error("missing 2025-09-10")
	}
}
