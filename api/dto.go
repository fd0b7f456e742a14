/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The domain types in
  roster carry no JSON tags; everything the client sees is shaped here.
  All field names are camelCase.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Contracts:
    ContractDTO (wraps factory.ContractJSON), ContractRequest, PreviewRequest,
    ContractMutationResponse

  Shifts:
    ShiftDTO, CreateShiftRequest, UpdateShiftStatusRequest

  Expenses:
    ExpenseDTO, CreateExpenseRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by the factory and the contracts service, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/contract.go: ContractJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/factory"
	"github.com/warp/shift-engine/reconcile"
	"github.com/warp/shift-engine/roster"
)

// =============================================================================
// CONTRACTS
// =============================================================================

// ContractDTO represents a contract in API responses.
type ContractDTO struct {
	factory.ContractJSON
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ContractRequest is the body of POST and PUT /api/contracts. Seed defaults
// to true on create and is ignored on update.
type ContractRequest struct {
	factory.ContractJSON
	Seed *bool `json:"seed,omitempty"`
}

// PreviewRequest carries the terms to compare against the stored contract.
// Empty fields keep their stored values.
type PreviewRequest struct {
	StartDate string                 `json:"startDate,omitempty"`
	EndDate   string                 `json:"endDate,omitempty"`
	Timezone  string                 `json:"timezone,omitempty"`
	Schedule  *roster.ScheduleConfig `json:"schedule,omitempty"`
}

// ContractMutationResponse is returned by create and update.
type ContractMutationResponse struct {
	Contract ContractDTO      `json:"contract"`
	Result   reconcile.Result `json:"result"`
}

// =============================================================================
// SHIFTS
// =============================================================================

// ShiftDTO represents a shift in API responses.
type ShiftDTO struct {
	ID         string `json:"id"`
	ContractID string `json:"contractId,omitempty"`
	StartUTC   string `json:"startUtc"`
	EndUTC     string `json:"endUtc"`
	LocalDate  string `json:"localDate"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
}

// CreateShiftRequest describes a manual shift in local wall-clock terms.
type CreateShiftRequest struct {
	ContractID string `json:"contractId,omitempty"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Status     string `json:"status,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// UpdateShiftStatusRequest accepts either status vocabulary.
type UpdateShiftStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseDTO struct {
	ID          string          `json:"id"`
	ContractID  string          `json:"contractId,omitempty"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Deductible  bool            `json:"deductible"`
}

type CreateExpenseRequest struct {
	ContractID  string          `json:"contractId,omitempty"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Deductible  bool            `json:"deductible"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toContractDTO(f *factory.ContractFactory, c roster.Contract, sched *roster.WeeklySchedule) ContractDTO {
	dto := ContractDTO{
		ContractJSON: f.ToJSON(c, sched),
		UserID:       c.UserID,
	}
	if !c.CreatedAt.IsZero() {
		dto.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !c.UpdatedAt.IsZero() {
		dto.UpdatedAt = c.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toShiftDTO(s roster.Shift) ShiftDTO {
	return ShiftDTO{
		ID:         s.ID,
		ContractID: s.ContractID,
		StartUTC:   s.StartUTC.UTC().Format(time.RFC3339),
		EndUTC:     s.EndUTC.UTC().Format(time.RFC3339),
		LocalDate:  s.LocalDate.String(),
		Source:     string(s.Source),
		Status:     string(s.Status),
		Notes:      s.Notes,
	}
}

func toShiftDTOs(shifts []roster.Shift) []ShiftDTO {
	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	return dtos
}

func toExpenseDTO(e roster.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:          e.ID,
		ContractID:  e.ContractID,
		Date:        e.Date.String(),
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Deductible:  e.Deductible,
	}
}
