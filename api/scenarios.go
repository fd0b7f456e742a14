/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	contracts and shifts. Every contract goes through the factory and the
	contracts service, so scenario data is seeded exactly like client data.

AVAILABLE SCENARIOS:

	icu-travel:      12-hour day contract, first week finalized
	night-shift:     Overnight Fri/Sat contract whose Saturday shifts cross
	                 the Sunday payroll week boundary
	multi-contract:  Two overlapping contracts, a contractless shift and
	                 expenses
	audit-drift:     A seeded contract with a deleted seed shift, so the
	                 audit reports has_issues
	dst-fall-back:   Overnight shifts across the November DST change

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build contract JSON from factory presets
 3. Create and seed through contracts.Service
 4. Optionally drive shifts through status changes

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "multi-contract"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler context
  - factory/presets.go: Contract JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/contracts"
	"github.com/warp/shift-engine/factory"
	"github.com/warp/shift-engine/logging"
	"github.com/warp/shift-engine/roster"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "icu-travel",
		Name:        "ICU Travel",
		Description: "Mon/Wed/Fri 07:00-19:00 for four weeks, first week finalized",
		Category:    "schedule",
	},
	{
		ID:          "night-shift",
		Name:        "Night Shift",
		Description: "Fri/Sat 19:00-07:00; Saturday nights split across payroll weeks",
		Category:    "payroll",
	},
	{
		ID:          "multi-contract",
		Name:        "Multi-Contract",
		Description: "Two overlapping contracts, a manual shift and expenses",
		Category:    "payroll",
	},
	{
		ID:          "audit-drift",
		Name:        "Audit Drift",
		Description: "A seeded contract missing one of its seed shifts",
		Category:    "audit",
	},
	{
		ID:          "dst-fall-back",
		Name:        "DST Fall Back",
		Description: "Overnight shifts across the November daylight saving change",
		Category:    "schedule",
	},
}

// ListScenarios returns all available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario for the
// caller.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "Invalid request body", err)
		return
	}

	var load func(context.Context, string) error
	switch req.ScenarioID {
	case "icu-travel":
		load = h.loadICUTravelScenario
	case "night-shift":
		load = h.loadNightShiftScenario
	case "multi-contract":
		load = h.loadMultiContractScenario
	case "audit-drift":
		load = h.loadAuditDriftScenario
	case "dst-fall-back":
		load = h.loadDSTScenario
	default:
		h.respondError(w, r, "Unknown scenario", roster.Invalid("scenarioId", "unknown scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.respondError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx, userID(r)); err != nil {
		h.respondError(w, r, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID
	logging.FromContextOr(ctx, h.Logger).InfoContext(ctx, "loaded scenario", "scenario", req.ScenarioID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.respondError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadICUTravelScenario(ctx context.Context, user string) error {
	c, err := h.createFromJSON(ctx, user, factory.ICUTravelJSON(factory.ContractPreset{
		ID:       "icu-travel",
		Name:     "ICU Travel",
		Facility: "Mercy General",
		Start:    roster.NewDate(2025, time.September, 1),
		End:      roster.NewDate(2025, time.September, 28),
		Timezone: "America/Chicago",
	}))
	if err != nil {
		return err
	}
	return h.finalizeThrough(ctx, user, c, roster.NewDate(2025, time.September, 6))
}

func (h *Handler) loadNightShiftScenario(ctx context.Context, user string) error {
	_, err := h.createFromJSON(ctx, user, factory.NightShiftJSON(factory.ContractPreset{
		ID:       "night-shift",
		Name:     "Night Float",
		Facility: "St. Luke's",
		Start:    roster.NewDate(2025, time.September, 5),
		End:      roster.NewDate(2025, time.September, 27),
		Timezone: "America/Chicago",
	}, int(time.Friday), int(time.Saturday)))
	return err
}

func (h *Handler) loadMultiContractScenario(ctx context.Context, user string) error {
	icu, err := h.createFromJSON(ctx, user, factory.ICUTravelJSON(factory.ContractPreset{
		ID:       "icu-travel",
		Name:     "ICU Travel",
		Facility: "Mercy General",
		Start:    roster.NewDate(2025, time.September, 1),
		End:      roster.NewDate(2025, time.September, 28),
		Timezone: "America/Chicago",
	}))
	if err != nil {
		return err
	}
	if _, err := h.createFromJSON(ctx, user, factory.PerDiemJSON(factory.ContractPreset{
		ID:       "per-diem",
		Name:     "Per Diem Float Pool",
		Facility: "County Hospital",
		Start:    roster.NewDate(2025, time.September, 1),
		End:      roster.NewDate(2025, time.September, 28),
		Timezone: "America/Chicago",
	})); err != nil {
		return err
	}

	// A picked-up shift with no contract.
	if _, err := h.Contracts.AddShift(ctx, contracts.ShiftInput{
		UserID: user,
		Date:   roster.NewDate(2025, time.September, 7),
		Start:  roster.MustParseClock("08:00"),
		End:    roster.MustParseClock("14:00"),
		Status: roster.StatusFinalized,
		Notes:  "Community clinic",
	}); err != nil {
		return err
	}

	expenses := []roster.Expense{
		{ContractID: icu.ID, Date: roster.NewDate(2025, time.September, 2), Amount: decimal.RequireFromString("42.18"), Category: "mileage", Description: "Round trip to Mercy General", Deductible: true},
		{ContractID: icu.ID, Date: roster.NewDate(2025, time.September, 10), Amount: decimal.RequireFromString("89.99"), Category: "uniform", Description: "Scrubs", Deductible: true},
		{Date: roster.NewDate(2025, time.September, 15), Amount: decimal.RequireFromString("14.50"), Category: "meals"},
	}
	for _, e := range expenses {
		e.UserID = user
		if _, err := h.Contracts.AddExpense(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadAuditDriftScenario(ctx context.Context, user string) error {
	c, err := h.createFromJSON(ctx, user, factory.ICUTravelJSON(factory.ContractPreset{
		ID:       "icu-drift",
		Name:     "ICU Travel",
		Facility: "Mercy General",
		Start:    roster.NewDate(2025, time.September, 1),
		End:      roster.NewDate(2025, time.September, 14),
		Timezone: "America/Chicago",
	}))
	if err != nil {
		return err
	}
	// Remove a seed row behind the service's back.
	_, err = h.Store.DeleteSeedShiftsByDates(ctx, c.ID,
		[]roster.Date{roster.NewDate(2025, time.September, 3)}, roster.PendingStatuses)
	return err
}

func (h *Handler) loadDSTScenario(ctx context.Context, user string) error {
	// Chicago falls back on Sunday 2025-11-02 at 02:00.
	c, err := h.createFromJSON(ctx, user, factory.NightShiftJSON(factory.ContractPreset{
		ID:       "night-dst",
		Name:     "Night Float",
		Facility: "St. Luke's",
		Start:    roster.NewDate(2025, time.October, 25),
		End:      roster.NewDate(2025, time.November, 8),
		Timezone: "America/Chicago",
	}, int(time.Saturday)))
	if err != nil {
		return err
	}
	return h.finalizeThrough(ctx, user, c, roster.NewDate(2025, time.November, 1))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createFromJSON(ctx context.Context, user, contractJSON string) (roster.Contract, error) {
	c, cfg, err := h.Factory.ParseContract(contractJSON)
	if err != nil {
		return roster.Contract{}, err
	}
	if cfg == nil {
		return roster.Contract{}, roster.Invalid("schedule", "preset %s has no schedule", c.ID)
	}
	c.UserID = user
	now := h.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	created, _, err := h.Contracts.Create(ctx, c, *cfg, true)
	return created, err
}

// finalizeThrough marks the contract's shifts up to and including date as
// worked.
func (h *Handler) finalizeThrough(ctx context.Context, user string, c roster.Contract, date roster.Date) error {
	shifts, err := h.Contracts.ShiftsForContract(ctx, user, c.ID, c.StartDate, date)
	if err != nil {
		return err
	}
	for _, sh := range shifts {
		if _, err := h.Contracts.SetShiftStatus(ctx, user, sh.ID, roster.StatusFinalized); err != nil {
			return err
		}
	}
	return nil
}
