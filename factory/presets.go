package factory

import (
	"encoding/json"
	"strconv"

	"github.com/warp/shift-engine/roster"
)

// =============================================================================
// PRESETS - Demo contract payloads
// =============================================================================

// ContractPreset is the common input of the JSON builders below.
type ContractPreset struct {
	ID       string
	Name     string
	Facility string
	Start    roster.Date
	End      roster.Date
	Timezone string
}

func (p ContractPreset) base() map[string]interface{} {
	return map[string]interface{}{
		"id":        p.ID,
		"name":      p.Name,
		"facility":  p.Facility,
		"startDate": p.Start.String(),
		"endDate":   p.End.String(),
		"timezone":  p.Timezone,
	}
}

func encode(m map[string]interface{}) string {
	b, _ := json.MarshalIndent(m, "", "  ")
	return string(b)
}

// ICUTravelJSON returns JSON for a 12-hour day contract on Mon/Wed/Fri.
func ICUTravelJSON(p ContractPreset) string {
	m := p.base()
	m["baseRate"] = "45.00"
	m["overtimeRate"] = "67.50"
	m["targetHoursPerWeek"] = 36
	m["status"] = "active"
	m["schedule"] = map[string]interface{}{
		"defaultStart": "07:00",
		"defaultEnd":   "19:00",
		"days": map[string]interface{}{
			"1": map[string]interface{}{"enabled": true},
			"3": map[string]interface{}{"enabled": true},
			"5": map[string]interface{}{"enabled": true},
		},
	}
	return encode(m)
}

// NightShiftJSON returns JSON for an overnight 19:00-07:00 contract.
func NightShiftJSON(p ContractPreset, days ...int) string {
	dayMap := map[string]interface{}{}
	for _, d := range days {
		dayMap[strconv.Itoa(d)] = map[string]interface{}{"enabled": true}
	}
	m := p.base()
	m["baseRate"] = "52.00"
	m["overtimeRate"] = "78.00"
	m["status"] = "active"
	m["schedule"] = map[string]interface{}{
		"defaultStart": "19:00",
		"defaultEnd":   "07:00",
		"days":         dayMap,
	}
	return encode(m)
}

// PerDiemJSON returns JSON for a contract with no overtime rate (overtime
// bills at base) and mixed hours.
func PerDiemJSON(p ContractPreset) string {
	m := p.base()
	m["baseRate"] = "38.50"
	m["status"] = "unconfirmed"
	m["schedule"] = map[string]interface{}{
		"defaultStart": "08:00",
		"defaultEnd":   "16:30",
		"days": map[string]interface{}{
			"2": map[string]interface{}{"enabled": true},
			"4": map[string]interface{}{"enabled": true, "start": "10:00", "end": "22:00"},
			"6": map[string]interface{}{"enabled": true},
		},
	}
	return encode(m)
}
