/*
Package factory provides JSON to Go contract conversion.

PURPOSE:
  Converts wire-format contract payloads into roster.Contract and
  roster.ScheduleConfig values. Every boundary concern lives here: date
  strings, decimal rates sent as strings or numbers, and contract status in
  either vocabulary. The engine only ever sees validated domain values.

JSON SCHEMA:
  {
    "id": "icu-travel",
    "name": "ICU Travel",
    "facility": "Mercy General",
    "startDate": "2025-09-01",
    "endDate": "2025-09-07",
    "baseRate": "45.00",
    "overtimeRate": "67.50",
    "targetHoursPerWeek": 36,
    "status": "unconfirmed",
    "timezone": "America/Chicago",
    "schedule": {
      "defaultStart": "07:00",
      "defaultEnd": "19:00",
      "days": {"1": {"enabled": true}, "3": {"enabled": true}, "5": {"enabled": true}}
    }
  }

USAGE:
  f := NewContractFactory("America/Chicago")
  contract, cfg, err := f.ParseContract(ICUTravelJSON(ContractPreset{ID: "icu", Start: start, End: end}))

SEE ALSO:
  - presets.go:           Demo contract JSON builders
  - roster/schedule.go:   ScheduleConfig resolution
  - contracts/service.go: Consumer
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/roster"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ContractJSON is the JSON representation of a contract.
type ContractJSON struct {
	ID                 string                 `json:"id,omitempty"`
	Name               string                 `json:"name"`
	Facility           string                 `json:"facility,omitempty"`
	StartDate          string                 `json:"startDate"`
	EndDate            string                 `json:"endDate"`
	BaseRate           decimal.Decimal        `json:"baseRate"`
	OvertimeRate       decimal.NullDecimal    `json:"overtimeRate"`
	TargetHoursPerWeek decimal.NullDecimal    `json:"targetHoursPerWeek"`
	Status             string                 `json:"status,omitempty"`
	Timezone           string                 `json:"timezone,omitempty"`
	Schedule           *roster.ScheduleConfig `json:"schedule,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// ContractFactory converts JSON to domain contracts.
type ContractFactory struct {
	// DefaultTimezone is used when a payload has no timezone.
	DefaultTimezone string
}

func NewContractFactory(defaultTimezone string) *ContractFactory {
	return &ContractFactory{DefaultTimezone: defaultTimezone}
}

// ParseContract parses a JSON string. The schedule is nil when the payload
// carries none.
func (f *ContractFactory) ParseContract(jsonStr string) (roster.Contract, *roster.ScheduleConfig, error) {
	var cj ContractJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return roster.Contract{}, nil, roster.Invalid("body", "invalid contract JSON: %v", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts an already-decoded payload and validates it.
func (f *ContractFactory) FromJSON(cj ContractJSON) (roster.Contract, *roster.ScheduleConfig, error) {
	start, err := roster.ParseDate(cj.StartDate)
	if err != nil {
		return roster.Contract{}, nil, field("startDate", err)
	}
	end, err := roster.ParseDate(cj.EndDate)
	if err != nil {
		return roster.Contract{}, nil, field("endDate", err)
	}
	status, err := roster.ParseContractStatus(cj.Status)
	if err != nil {
		return roster.Contract{}, nil, err
	}
	tz := cj.Timezone
	if tz == "" {
		tz = f.DefaultTimezone
	}

	c := roster.Contract{
		ID:                 cj.ID,
		Name:               cj.Name,
		Facility:           cj.Facility,
		StartDate:          start,
		EndDate:            end,
		BaseRate:           cj.BaseRate,
		OvertimeRate:       cj.OvertimeRate,
		TargetHoursPerWeek: cj.TargetHoursPerWeek,
		Status:             status,
		Timezone:           tz,
	}
	if err := c.Validate(); err != nil {
		return roster.Contract{}, nil, err
	}
	if cj.Schedule != nil {
		// Validate here so a bad schedule fails before anything is written.
		if _, err := cj.Schedule.Resolve(); err != nil {
			return roster.Contract{}, nil, err
		}
	}
	return c, cj.Schedule, nil
}

// ToJSON converts a contract and its schedule back to wire form.
func (f *ContractFactory) ToJSON(c roster.Contract, sched *roster.WeeklySchedule) ContractJSON {
	cj := ContractJSON{
		ID:                 c.ID,
		Name:               c.Name,
		Facility:           c.Facility,
		StartDate:          c.StartDate.String(),
		EndDate:            c.EndDate.String(),
		BaseRate:           c.BaseRate,
		OvertimeRate:       c.OvertimeRate,
		TargetHoursPerWeek: c.TargetHoursPerWeek,
		Status:             string(c.Status),
		Timezone:           c.Timezone,
	}
	if sched != nil {
		cfg := sched.ToConfig()
		cj.Schedule = &cfg
	}
	return cj
}

func field(name string, err error) error {
	if ve, ok := err.(*roster.ValidationError); ok {
		return &roster.ValidationError{Field: name, Message: ve.Message, Cause: ve.Cause}
	}
	return &roster.ValidationError{Field: name, Message: fmt.Sprint(err), Cause: err}
}
