// Package store provides Repository implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/shift-engine/roster"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	st *state
}

type seedKey struct {
	ContractID string
	Date       roster.Date
}

// state holds the data and implements roster.Repository without locking.
// Memory locks around it; txView uses it while WithTx holds the lock.
type state struct {
	contracts map[string]roster.Contract
	schedule  map[string]map[time.Weekday]roster.DaySchedule
	shifts    map[string]roster.Shift
	seeds     map[seedKey]string // enforces one contract_seed row per date
	expenses  map[string]roster.Expense
}

func newState() *state {
	return &state{
		contracts: make(map[string]roster.Contract),
		schedule:  make(map[string]map[time.Weekday]roster.DaySchedule),
		shifts:    make(map[string]roster.Shift),
		seeds:     make(map[seedKey]string),
		expenses:  make(map[string]roster.Expense),
	}
}

func NewMemory() *Memory {
	return &Memory{st: newState()}
}

var _ roster.TxRepository = (*Memory)(nil)

// =============================================================================
// CONTRACTS
// =============================================================================

func (m *Memory) GetContract(ctx context.Context, id string) (roster.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetContract(ctx, id)
}

func (m *Memory) ListContracts(ctx context.Context, userID string) ([]roster.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListContracts(ctx, userID)
}

func (m *Memory) ListAllContracts(ctx context.Context) ([]roster.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListAllContracts(ctx)
}

func (m *Memory) SaveContract(ctx context.Context, c roster.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveContract(ctx, c)
}

func (m *Memory) DeleteContract(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteContract(ctx, id)
}

func (s *state) GetContract(_ context.Context, id string) (roster.Contract, error) {
	c, ok := s.contracts[id]
	if !ok {
		return roster.Contract{}, roster.ContractNotFound(id)
	}
	return c, nil
}

func (s *state) ListContracts(_ context.Context, userID string) ([]roster.Contract, error) {
	var out []roster.Contract
	for _, c := range s.contracts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sortContracts(out)
	return out, nil
}

func (s *state) ListAllContracts(_ context.Context) ([]roster.Contract, error) {
	out := make([]roster.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	sortContracts(out)
	return out, nil
}

func sortContracts(cs []roster.Contract) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].StartDate != cs[j].StartDate {
			return cs[i].StartDate.Before(cs[j].StartDate)
		}
		return cs[i].ID < cs[j].ID
	})
}

func (s *state) SaveContract(_ context.Context, c roster.Contract) error {
	now := time.Now().UTC()
	if existing, ok := s.contracts[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.contracts[c.ID] = c
	return nil
}

func (s *state) DeleteContract(_ context.Context, id string) error {
	if _, ok := s.contracts[id]; !ok {
		return roster.ContractNotFound(id)
	}
	delete(s.contracts, id)
	delete(s.schedule, id)
	for sid, sh := range s.shifts {
		if sh.ContractID != id {
			continue
		}
		if sh.Source == roster.SourceContractSeed {
			delete(s.seeds, seedKey{ContractID: id, Date: sh.LocalDate})
		}
		sh.ContractID = ""
		s.shifts[sid] = sh
	}
	return nil
}

// =============================================================================
// SCHEDULE ROWS
// =============================================================================

func (m *Memory) ListScheduleDays(ctx context.Context, contractID string) ([]roster.DaySchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListScheduleDays(ctx, contractID)
}

func (m *Memory) UpsertScheduleDay(ctx context.Context, contractID string, day roster.DaySchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpsertScheduleDay(ctx, contractID, day)
}

func (s *state) ListScheduleDays(_ context.Context, contractID string) ([]roster.DaySchedule, error) {
	rows := s.schedule[contractID]
	out := make([]roster.DaySchedule, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (s *state) UpsertScheduleDay(_ context.Context, contractID string, day roster.DaySchedule) error {
	if _, ok := s.contracts[contractID]; !ok {
		return roster.ContractNotFound(contractID)
	}
	rows := s.schedule[contractID]
	if rows == nil {
		rows = make(map[time.Weekday]roster.DaySchedule, 7)
		s.schedule[contractID] = rows
	}
	rows[day.Weekday] = day
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

func (m *Memory) GetShiftsForContractInRange(ctx context.Context, contractID string, from, to roster.Date, source roster.Source) ([]roster.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetShiftsForContractInRange(ctx, contractID, from, to, source)
}

func (m *Memory) InsertSeedShift(ctx context.Context, contractID string, occ roster.Occurrence) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.InsertSeedShift(ctx, contractID, occ)
}

func (m *Memory) DeleteSeedShiftsByDates(ctx context.Context, contractID string, dates []roster.Date, onlyStatuses []roster.Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteSeedShiftsByDates(ctx, contractID, dates, onlyStatuses)
}

func (m *Memory) UpdateSeedShiftTimes(ctx context.Context, contractID string, date roster.Date, startUTC, endUTC time.Time, onlyStatuses []roster.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpdateSeedShiftTimes(ctx, contractID, date, startUTC, endUTC, onlyStatuses)
}

func (m *Memory) SaveShift(ctx context.Context, sh roster.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveShift(ctx, sh)
}

func (m *Memory) GetShift(ctx context.Context, id string) (roster.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetShift(ctx, id)
}

func (m *Memory) DeleteShift(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteShift(ctx, id)
}

func (m *Memory) GetShiftsInDateRange(ctx context.Context, userID string, from, to roster.Date) ([]roster.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetShiftsInDateRange(ctx, userID, from, to)
}

func (m *Memory) GetAllShiftsForUser(ctx context.Context, userID string) ([]roster.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetAllShiftsForUser(ctx, userID)
}

func (s *state) GetShiftsForContractInRange(_ context.Context, contractID string, from, to roster.Date, source roster.Source) ([]roster.Shift, error) {
	return s.filterShifts(func(sh roster.Shift) bool {
		return sh.ContractID == contractID &&
			roster.InRange(sh.LocalDate, from, to) &&
			(source == "" || sh.Source == source)
	}), nil
}

func (s *state) InsertSeedShift(_ context.Context, contractID string, occ roster.Occurrence) (bool, error) {
	c, ok := s.contracts[contractID]
	if !ok {
		return false, roster.ContractNotFound(contractID)
	}
	k := seedKey{ContractID: contractID, Date: occ.LocalDate}
	if _, exists := s.seeds[k]; exists {
		return false, nil
	}
	sh := roster.SeedShift(c, occ)
	sh.ID = uuid.NewString()
	sh.CreatedAt = time.Now().UTC()
	sh.UpdatedAt = sh.CreatedAt
	s.shifts[sh.ID] = sh
	s.seeds[k] = sh.ID
	return true, nil
}

func (s *state) DeleteSeedShiftsByDates(_ context.Context, contractID string, dates []roster.Date, onlyStatuses []roster.Status) (int, error) {
	wanted := make(map[roster.Date]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}
	deleted := 0
	for id, sh := range s.shifts {
		if sh.ContractID != contractID || sh.Source != roster.SourceContractSeed || !wanted[sh.LocalDate] {
			continue
		}
		if !roster.StatusIn(sh.Status, onlyStatuses) {
			continue
		}
		delete(s.shifts, id)
		if s.seeds[seedKey{ContractID: contractID, Date: sh.LocalDate}] == id {
			delete(s.seeds, seedKey{ContractID: contractID, Date: sh.LocalDate})
		}
		deleted++
	}
	return deleted, nil
}

func (s *state) UpdateSeedShiftTimes(_ context.Context, contractID string, date roster.Date, startUTC, endUTC time.Time, onlyStatuses []roster.Status) (bool, error) {
	id, ok := s.seeds[seedKey{ContractID: contractID, Date: date}]
	if !ok {
		return false, nil
	}
	sh := s.shifts[id]
	if !roster.StatusIn(sh.Status, onlyStatuses) {
		return false, nil
	}
	sh.StartUTC, sh.EndUTC = startUTC.UTC(), endUTC.UTC()
	sh.UpdatedAt = time.Now().UTC()
	s.shifts[id] = sh
	return true, nil
}

// SaveShift accepts any source. A second contract_seed row for the same date
// is allowed here on purpose: fixtures use it to model the integrity bugs
// the audit looks for.
func (s *state) SaveShift(_ context.Context, sh roster.Shift) error {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if existing, ok := s.shifts[sh.ID]; ok {
		sh.CreatedAt = existing.CreatedAt
	} else if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now
	}
	sh.UpdatedAt = now
	s.shifts[sh.ID] = sh
	if sh.Source == roster.SourceContractSeed && sh.ContractID != "" {
		k := seedKey{ContractID: sh.ContractID, Date: sh.LocalDate}
		if _, taken := s.seeds[k]; !taken {
			s.seeds[k] = sh.ID
		}
	}
	return nil
}

func (s *state) GetShift(_ context.Context, id string) (roster.Shift, error) {
	sh, ok := s.shifts[id]
	if !ok {
		return roster.Shift{}, &roster.NotFoundError{Kind: "shift", ID: id}
	}
	return sh, nil
}

func (s *state) DeleteShift(_ context.Context, id string) error {
	sh, ok := s.shifts[id]
	if !ok {
		return &roster.NotFoundError{Kind: "shift", ID: id}
	}
	delete(s.shifts, id)
	k := seedKey{ContractID: sh.ContractID, Date: sh.LocalDate}
	if s.seeds[k] == id {
		delete(s.seeds, k)
	}
	return nil
}

func (s *state) GetShiftsInDateRange(_ context.Context, userID string, from, to roster.Date) ([]roster.Shift, error) {
	return s.filterShifts(func(sh roster.Shift) bool {
		return sh.UserID == userID && roster.InRange(sh.LocalDate, from, to)
	}), nil
}

func (s *state) GetAllShiftsForUser(_ context.Context, userID string) ([]roster.Shift, error) {
	return s.filterShifts(func(sh roster.Shift) bool { return sh.UserID == userID }), nil
}

func (s *state) filterShifts(keep func(roster.Shift) bool) []roster.Shift {
	var out []roster.Shift
	for _, sh := range s.shifts {
		if keep(sh) {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocalDate != out[j].LocalDate {
			return out[i].LocalDate.Before(out[j].LocalDate)
		}
		if !out[i].StartUTC.Equal(out[j].StartUTC) {
			return out[i].StartUTC.Before(out[j].StartUTC)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// =============================================================================
// EXPENSES
// =============================================================================

func (m *Memory) SaveExpense(ctx context.Context, e roster.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveExpense(ctx, e)
}

func (m *Memory) GetExpense(ctx context.Context, id string) (roster.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetExpense(ctx, id)
}

func (m *Memory) ListExpensesInRange(ctx context.Context, userID string, from, to roster.Date) ([]roster.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListExpensesInRange(ctx, userID, from, to)
}

func (m *Memory) DeleteExpense(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteExpense(ctx, id)
}

func (s *state) SaveExpense(_ context.Context, e roster.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *state) GetExpense(_ context.Context, id string) (roster.Expense, error) {
	e, ok := s.expenses[id]
	if !ok {
		return roster.Expense{}, &roster.NotFoundError{Kind: "expense", ID: id}
	}
	return e, nil
}

func (s *state) ListExpensesInRange(_ context.Context, userID string, from, to roster.Date) ([]roster.Expense, error) {
	var out []roster.Expense
	for _, e := range s.expenses {
		if e.UserID == userID && roster.InRange(e.Date, from, to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *state) DeleteExpense(_ context.Context, id string) error {
	if _, ok := s.expenses[id]; !ok {
		return &roster.NotFoundError{Kind: "expense", ID: id}
	}
	delete(s.expenses, id)
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// txView exposes the locked state to a WithTx callback.
type txView struct {
	*state
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(roster.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(txView{state: m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.contracts {
		c.contracts[k] = v
	}
	for k, rows := range s.schedule {
		cp := make(map[time.Weekday]roster.DaySchedule, len(rows))
		for wd, r := range rows {
			cp[wd] = r
		}
		c.schedule[k] = cp
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	for k, v := range s.seeds {
		c.seeds[k] = v
	}
	for k, v := range s.expenses {
		c.expenses[k] = v
	}
	return c
}

// Reset drops all data.
func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = newState()
	return nil
}
