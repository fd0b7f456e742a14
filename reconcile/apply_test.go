package reconcile_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-engine/reconcile"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/roster/store"
	"github.com/warp/shift-engine/schedule"
	"github.com/warp/shift-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newReconciler(t *testing.T) (*reconcile.Reconciler, *store.Memory) {
	t.Helper()
	repo := store.NewMemory()
	return reconcile.NewReconciler(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func saveContract(t *testing.T, repo *store.Memory, r roster.Range, zone string) roster.Contract {
	t.Helper()
	c := roster.Contract{
		ID:        "icu",
		UserID:    "nurse-1",
		Name:      "ICU Travel",
		StartDate: r.Start,
		EndDate:   r.End,
		BaseRate:  decimal.RequireFromString("45.00"),
		Status:    roster.ContractActive,
		Timezone:  zone,
	}
	require.NoError(t, repo.SaveContract(context.Background(), c))
	return c
}

func seedShifts(t *testing.T, repo *store.Memory, c roster.Contract) []roster.Shift {
	t.Helper()
	shifts, err := repo.GetShiftsForContractInRange(context.Background(), c.ID,
		roster.MustParseDate("2000-01-01"), roster.MustParseDate("2100-01-01"), roster.SourceContractSeed)
	require.NoError(t, err)
	return shifts
}

// =============================================================================
// SEED
// =============================================================================

func TestSeed_Idempotent(t *testing.T) {
	rec, repo := newReconciler(t)
	ctx := context.Background()
	c := saveContract(t, repo, rng("2025-09-01", "2025-09-07"), chicago)

	// WHEN: seeding twice
	first, err := rec.Seed(ctx, c, mwf())
	require.NoError(t, err)
	second, err := rec.Seed(ctx, c, mwf())
	require.NoError(t, err)

	// THEN: the second run inserts nothing
	assert.Equal(t, 3, first.Added)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 3, second.Skipped)
	assert.Len(t, seedShifts(t, repo, c), 3)
}

func TestSeed_ConcurrentSameContract(t *testing.T) {
	const workers = 8

	repos := map[string]func(t *testing.T) roster.Repository{
		"memory": func(*testing.T) roster.Repository { return store.NewMemory() },
		"sqlite": func(t *testing.T) roster.Repository {
			s, err := sqlite.New(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
	for name, open := range repos {
		t.Run(name, func(t *testing.T) {
			// GIVEN: one Mon/Wed/Fri contract week
			repo := open(t)
			ctx := context.Background()
			c := roster.Contract{
				ID:        "icu",
				UserID:    "nurse-1",
				Name:      "ICU Travel",
				StartDate: day("2025-09-01"),
				EndDate:   day("2025-09-07"),
				BaseRate:  decimal.RequireFromString("45.00"),
				Status:    roster.ContractActive,
				Timezone:  chicago,
			}
			require.NoError(t, repo.SaveContract(ctx, c))
			rec := reconcile.NewReconciler(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

			// WHEN: several reconciliations seed it at once
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				added   int
				skipped int
			)
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := rec.Seed(ctx, c, mwf())
					if err != nil {
						errs <- err
						return
					}
					mu.Lock()
					added += res.Added
					skipped += res.Skipped
					mu.Unlock()
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			// THEN: each date has exactly one seed row; every other insert was skipped
			assert.Equal(t, 3, added)
			assert.Equal(t, 3*(workers-1), skipped)
			shifts, err := repo.GetShiftsForContractInRange(ctx, c.ID,
				day("2025-09-01"), day("2025-09-07"), roster.SourceContractSeed)
			require.NoError(t, err)
			assert.Len(t, shifts, 3)
		})
	}
}

func TestSeed_NoEnabledDays(t *testing.T) {
	rec, repo := newReconciler(t)
	c := saveContract(t, repo, rng("2025-09-01", "2025-09-07"), chicago)

	_, err := rec.Seed(context.Background(), c, roster.NewWeeklySchedule())

	assert.ErrorIs(t, err, roster.ErrNoEnabledDays)
	assert.Empty(t, seedShifts(t, repo, c))
}

// =============================================================================
// APPLY
// =============================================================================

func TestApply_Completeness(t *testing.T) {
	tests := []struct {
		name string
		next reconcile.Terms
	}{
		{"extend and enable sunday", reconcile.Terms{
			Range:    rng("2025-09-01", "2025-09-14"),
			Schedule: weekly("07:00", "19:00", time.Sunday, time.Monday, time.Wednesday, time.Friday),
			Timezone: chicago,
		}},
		{"narrow", reconcile.Terms{Range: rng("2025-09-03", "2025-09-05"), Schedule: mwf(), Timezone: chicago}},
		{"new hours", reconcile.Terms{Range: rng("2025-09-01", "2025-09-07"), Schedule: weekly("19:00", "07:00", time.Monday, time.Wednesday, time.Friday), Timezone: chicago}},
		{"new zone", reconcile.Terms{Range: rng("2025-09-01", "2025-09-07"), Schedule: mwf(), Timezone: "America/Los_Angeles"}},
		{"shift months", reconcile.Terms{Range: rng("2025-09-05", "2025-10-10"), Schedule: weekly("06:00", "18:00", time.Tuesday, time.Friday), Timezone: chicago}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, repo := newReconciler(t)
			ctx := context.Background()

			// GIVEN: a contract seeded under the old terms
			prev := reconcile.Terms{Range: rng("2025-09-01", "2025-09-07"), Schedule: mwf(), Timezone: chicago}
			c := saveContract(t, repo, prev.Range, prev.Timezone)
			_, err := rec.Seed(ctx, c, prev.Schedule)
			require.NoError(t, err)

			// WHEN: the contract moves to the new terms
			c = saveContract(t, repo, tt.next.Range, tt.next.Timezone)
			delta := reconcile.ComputeDelta(prev, tt.next)
			_, err = rec.Apply(ctx, c, tt.next.Schedule, delta)
			require.NoError(t, err)

			// THEN: storage matches a fresh generation under the new terms
			want, err := schedule.Generate(tt.next.Range, tt.next.Timezone, tt.next.Schedule)
			require.NoError(t, err)
			got := seedShifts(t, repo, c)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].LocalDate, got[i].LocalDate)
				assert.True(t, want[i].StartUTC.Equal(got[i].StartUTC), "start %s", want[i].LocalDate)
				assert.True(t, want[i].EndUTC.Equal(got[i].EndUTC), "end %s", want[i].LocalDate)
			}
		})
	}
}

func TestApply_EmptyDeltaIsNoop(t *testing.T) {
	rec, repo := newReconciler(t)
	c := saveContract(t, repo, rng("2025-09-01", "2025-09-07"), chicago)

	res, err := rec.Apply(context.Background(), c, mwf(), reconcile.Delta{})

	require.NoError(t, err)
	assert.Zero(t, res.Added+res.Removed+res.Updated+res.Skipped)
}

func TestApply_ProtectsFinalizedShifts(t *testing.T) {
	rec, repo := newReconciler(t)
	ctx := context.Background()

	// GIVEN: a seeded week where Monday was worked
	prev := reconcile.Terms{Range: rng("2025-09-01", "2025-09-07"), Schedule: mwf(), Timezone: chicago}
	c := saveContract(t, repo, prev.Range, chicago)
	_, err := rec.Seed(ctx, c, prev.Schedule)
	require.NoError(t, err)

	shifts := seedShifts(t, repo, c)
	monday := shifts[0]
	require.Equal(t, "2025-09-01", monday.LocalDate.String())
	monday.Status = roster.StatusFinalized
	require.NoError(t, repo.SaveShift(ctx, monday))

	t.Run("update", func(t *testing.T) {
		// WHEN: hours move to 08:00-20:00
		next := prev
		next.Schedule = weekly("08:00", "20:00", time.Monday, time.Wednesday, time.Friday)
		res, err := rec.Apply(ctx, c, next.Schedule, reconcile.ComputeDelta(prev, next))
		require.NoError(t, err)

		// THEN: Monday keeps its times and is reported
		assert.Equal(t, 2, res.Updated)
		require.Len(t, res.Protected, 1)
		assert.Equal(t, reconcile.ProtectedShift{
			ShiftID: monday.ID,
			Date:    monday.LocalDate,
			Status:  roster.StatusFinalized,
			Action:  "update",
		}, res.Protected[0])

		got, err := repo.GetShift(ctx, monday.ID)
		require.NoError(t, err)
		assert.True(t, got.StartUTC.Equal(monday.StartUTC))
		prev = next
	})

	t.Run("remove", func(t *testing.T) {
		// WHEN: Monday is disabled
		next := prev
		next.Schedule = weekly("08:00", "20:00", time.Wednesday, time.Friday)
		res, err := rec.Apply(ctx, c, next.Schedule, reconcile.ComputeDelta(prev, next))
		require.NoError(t, err)

		// THEN: the finalized row survives
		assert.Equal(t, 0, res.Removed)
		require.Len(t, res.Protected, 1)
		assert.Equal(t, "remove", res.Protected[0].Action)
		_, err = repo.GetShift(ctx, monday.ID)
		assert.NoError(t, err)
	})
}

func TestApply_DuplicateInsertCountsAsSkipped(t *testing.T) {
	rec, repo := newReconciler(t)
	ctx := context.Background()
	c := saveContract(t, repo, rng("2025-09-01", "2025-09-07"), chicago)
	_, err := rec.Seed(ctx, c, mwf())
	require.NoError(t, err)

	// A delta that re-adds an already seeded date.
	delta := reconcile.Delta{Add: []roster.Date{day("2025-09-03"), day("2025-09-04")}}
	sched := mwf()
	sched[time.Thursday].Enabled = true

	res, err := rec.Apply(ctx, c, sched, delta)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, seedShifts(t, repo, c), 4)
}
