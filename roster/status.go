package roster

import "strings"

// =============================================================================
// SHIFT STATUS - One canonical enum, converted at the boundary
// =============================================================================

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusInProcess Status = "in_process"
	StatusFinalized Status = "finalized"
	StatusCancelled Status = "cancelled"
)

// PendingStatuses may be rewritten or deleted by reconciliation.
var PendingStatuses = []Status{StatusPlanned, StatusInProcess}

// ParseStatus accepts the canonical values and both legacy vocabularies
// (Planned/In Process/Finalized/Cancelled and
// scheduled/unconfirmed/completed/cancelled).
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planned", "scheduled":
		return StatusPlanned, nil
	case "in_process", "in process", "unconfirmed":
		return StatusInProcess, nil
	case "finalized", "completed":
		return StatusFinalized, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", Invalid("status", "unknown shift status %q", s)
}

// IsPending: not yet worked, safe to rewrite or delete.
func (s Status) IsPending() bool {
	return s == StatusPlanned || s == StatusInProcess
}

// IsProtected: finalized or cancelled, never silently altered.
func (s Status) IsProtected() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// IsCounted: included in hours and pay.
func (s Status) IsCounted() bool {
	return s == StatusPlanned || s == StatusInProcess || s == StatusFinalized
}

func (s Status) Valid() bool {
	return s.IsCounted() || s == StatusCancelled
}

// StatusIn reports whether s is one of set. An empty set matches anything.
func StatusIn(s Status, set []Status) bool {
	if len(set) == 0 {
		return true
	}
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// =============================================================================
// CONTRACT STATUS
// =============================================================================

type ContractStatus string

const (
	ContractPlanned   ContractStatus = "planned"
	ContractActive    ContractStatus = "active"
	ContractCompleted ContractStatus = "completed"
	ContractArchived  ContractStatus = "archived"
)

// ParseContractStatus accepts "unconfirmed" as an alias of planned. Empty
// input defaults to planned.
func ParseContractStatus(s string) (ContractStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "planned", "unconfirmed":
		return ContractPlanned, nil
	case "active":
		return ContractActive, nil
	case "completed":
		return ContractCompleted, nil
	case "archived":
		return ContractArchived, nil
	}
	return "", Invalid("status", "unknown contract status %q", s)
}

// =============================================================================
// SHIFT SOURCE
// =============================================================================

type Source string

const (
	SourceContractSeed Source = "contract_seed"
	SourceManual       Source = "manual"
)
