package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(s string) roster.Date { return roster.MustParseDate(s) }

func saveContract(t *testing.T, s *sqlite.Store) roster.Contract {
	t.Helper()
	c := roster.Contract{
		ID:                 "icu",
		UserID:             "nurse-1",
		Name:               "ICU Travel",
		Facility:           "Mercy General",
		StartDate:          day("2025-09-01"),
		EndDate:            day("2025-09-07"),
		BaseRate:           decimal.RequireFromString("45.00"),
		OvertimeRate:       decimal.NewNullDecimal(decimal.RequireFromString("67.50")),
		TargetHoursPerWeek: decimal.NullDecimal{},
		Status:             roster.ContractActive,
		Timezone:           "America/Chicago",
	}
	require.NoError(t, s.SaveContract(context.Background(), c))
	return c
}

func occ(date string) roster.Occurrence {
	d := day(date)
	start := time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
	return roster.Occurrence{LocalDate: d, StartUTC: start, EndUTC: start.Add(12 * time.Hour)}
}

// =============================================================================
// CONTRACTS AND SCHEDULE
// =============================================================================

func TestStore_ContractRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)

	got, err := s.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.StartDate, got.StartDate)
	assert.True(t, got.BaseRate.Equal(c.BaseRate))
	assert.True(t, got.OvertimeRate.Valid)
	assert.False(t, got.TargetHoursPerWeek.Valid)
	assert.Equal(t, roster.ContractActive, got.Status)

	_, err = s.GetContract(ctx, "ghost")
	assert.True(t, roster.IsNotFound(err))

	list, err := s.ListContracts(ctx, "nurse-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.ListContracts(ctx, "nurse-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_ScheduleDaysUpsert(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)

	sched := roster.UniformSchedule(roster.MustParseClock("07:00"), roster.MustParseClock("19:00"), time.Monday, time.Wednesday)
	for _, d := range sched.Days() {
		require.NoError(t, s.UpsertScheduleDay(ctx, c.ID, d))
	}
	// Second write replaces, never duplicates.
	wed := sched.Day(time.Wednesday)
	wed.End = roster.MustParseClock("15:00")
	require.NoError(t, s.UpsertScheduleDay(ctx, c.ID, wed))

	rows, err := s.ListScheduleDays(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	got := roster.ScheduleFromDays(rows)
	assert.Equal(t, 2, got.EnabledCount())
	assert.Equal(t, "15:00", got.Day(time.Wednesday).End.String())
}

// =============================================================================
// SEED SHIFTS
// =============================================================================

func TestStore_InsertSeedShiftUnique(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)

	inserted, err := s.InsertSeedShift(ctx, c.ID, occ("2025-09-01"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// WHEN: the same date is seeded again
	inserted, err = s.InsertSeedShift(ctx, c.ID, occ("2025-09-01"))

	// THEN: reported as not inserted, not as an error
	require.NoError(t, err)
	assert.False(t, inserted)

	_, err = s.InsertSeedShift(ctx, "ghost", occ("2025-09-01"))
	assert.True(t, roster.IsNotFound(err))

	shifts, err := s.GetShiftsForContractInRange(ctx, c.ID, day("2025-09-01"), day("2025-09-07"), roster.SourceContractSeed)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "nurse-1", shifts[0].UserID)
	assert.Equal(t, roster.StatusPlanned, shifts[0].Status)
	assert.True(t, shifts[0].StartUTC.Equal(occ("2025-09-01").StartUTC))
}

func TestStore_InsertSeedShiftConcurrent(t *testing.T) {
	const workers = 10
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)

	// WHEN: many goroutines seed the same date
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		skipped  int
	)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.InsertSeedShift(ctx, c.ID, occ("2025-09-03"))
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				inserted++
			} else {
				skipped++
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// THEN: exactly one row exists
	assert.Equal(t, 1, inserted)
	assert.Equal(t, workers-1, skipped)
	shifts, err := s.GetShiftsForContractInRange(ctx, c.ID, day("2025-09-03"), day("2025-09-03"), roster.SourceContractSeed)
	require.NoError(t, err)
	assert.Len(t, shifts, 1)
}

func TestStore_SaveShiftDuplicateSeed(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)
	_, err := s.InsertSeedShift(ctx, c.ID, occ("2025-09-03"))
	require.NoError(t, err)

	dup := roster.SeedShift(c, occ("2025-09-03"))
	err = s.SaveShift(ctx, dup)

	assert.True(t, errors.Is(err, roster.ErrDuplicateSeed), "got %v", err)

	// A manual shift on the same date is fine.
	manual := dup
	manual.Source = roster.SourceManual
	assert.NoError(t, s.SaveShift(ctx, manual))
}

func TestStore_StatusGuards(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)
	for _, d := range []string{"2025-09-01", "2025-09-03", "2025-09-05"} {
		_, err := s.InsertSeedShift(ctx, c.ID, occ(d))
		require.NoError(t, err)
	}

	// GIVEN: Monday finalized
	shifts, err := s.GetShiftsForContractInRange(ctx, c.ID, day("2025-09-01"), day("2025-09-07"), "")
	require.NoError(t, err)
	monday := shifts[0]
	monday.Status = roster.StatusFinalized
	require.NoError(t, s.SaveShift(ctx, monday))

	// WHEN: deleting and updating pending rows only
	n, err := s.DeleteSeedShiftsByDates(ctx, c.ID, []roster.Date{day("2025-09-01"), day("2025-09-03")}, roster.PendingStatuses)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	later := occ("2025-09-01")
	ok, err := s.UpdateSeedShiftTimes(ctx, c.ID, day("2025-09-01"), later.StartUTC.Add(time.Hour), later.EndUTC.Add(time.Hour), roster.PendingStatuses)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.UpdateSeedShiftTimes(ctx, c.ID, day("2025-09-05"), later.StartUTC, later.EndUTC.Add(time.Hour), roster.PendingStatuses)
	require.NoError(t, err)
	assert.True(t, ok)

	// THEN
	got, err := s.GetShift(ctx, monday.ID)
	require.NoError(t, err)
	assert.Equal(t, roster.StatusFinalized, got.Status)
	assert.True(t, got.StartUTC.Equal(monday.StartUTC))

	remaining, err := s.GetShiftsForContractInRange(ctx, c.ID, day("2025-09-01"), day("2025-09-07"), "")
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

// =============================================================================
// DELETE, EXPENSES, TX, RESET
// =============================================================================

func TestStore_DeleteContractDetaches(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)
	_, err := s.InsertSeedShift(ctx, c.ID, occ("2025-09-01"))
	require.NoError(t, err)
	require.NoError(t, s.SaveExpense(ctx, roster.Expense{
		ID: "e1", UserID: "nurse-1", ContractID: c.ID, Date: day("2025-09-02"), Amount: decimal.NewFromInt(20),
	}))

	require.NoError(t, s.DeleteContract(ctx, c.ID))

	shifts, err := s.GetAllShiftsForUser(ctx, "nurse-1")
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.False(t, shifts[0].HasContract())

	expenses, err := s.ListExpensesInRange(ctx, "nurse-1", day("2025-09-01"), day("2025-09-30"))
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Empty(t, expenses[0].ContractID)

	rows, err := s.ListScheduleDays(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.True(t, roster.IsNotFound(s.DeleteContract(ctx, c.ID)))
}

func TestStore_WithTxRollback(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(repo roster.Repository) error {
		if _, err := repo.InsertSeedShift(ctx, c.ID, occ("2025-09-01")); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	shifts, err := s.GetAllShiftsForUser(ctx, "nurse-1")
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestStore_Reset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := saveContract(t, s)
	_, err := s.InsertSeedShift(ctx, c.ID, occ("2025-09-01"))
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	all, err := s.ListAllContracts(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	shifts, err := s.GetAllShiftsForUser(ctx, "nurse-1")
	require.NoError(t, err)
	assert.Empty(t, shifts)
}
