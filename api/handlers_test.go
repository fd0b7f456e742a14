/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Contract create/seed, schedule update, preview and delete round trips
- Error mapping (400 / 404 / 422)
- Dashboard totals
- Audit endpoints and demo scenarios
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/audit"
	"github.com/warp/shift-engine/factory"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/roster/store"
)

type mutationBody struct {
	Contract ContractDTO `json:"contract"`
	Result   struct {
		Added     int `json:"added"`
		Removed   int `json:"removed"`
		Updated   int `json:"updated"`
		Protected []struct {
			Date   string `json:"date"`
			Status string `json:"status"`
		} `json:"protected"`
		Delta struct {
			Add    []string `json:"addDates"`
			Remove []string `json:"removeDates"`
			Update []string `json:"updateDates"`
		} `json:"delta"`
	} `json:"result"`
}

func newTestAPI(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	zone, err := roster.LoadZone("America/Chicago")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(store.NewMemory(), zone, logger)
	h.Now = func() time.Time { return time.Date(2025, time.September, 3, 17, 0, 0, 0, time.UTC) }
	return h, NewRouter(h, RouterOptions{Logger: logger})
}

func do(t *testing.T, router http.Handler, method, path, body string, user ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(user) > 0 {
		req.Header.Set(UserHeader, user[0])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// icuWeek is Mon/Wed/Fri 07:00-19:00 for Sep 1-7 2025.
func icuWeek() string {
	return factory.ICUTravelJSON(factory.ContractPreset{
		ID:       "icu",
		Name:     "ICU Travel",
		Facility: "Mercy General",
		Start:    roster.NewDate(2025, time.September, 1),
		End:      roster.NewDate(2025, time.September, 7),
		Timezone: "America/Chicago",
	})
}

func createICU(t *testing.T, router http.Handler) mutationBody {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/contracts", icuWeek())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[mutationBody](t, rec)
}

func TestCreateContract_SeedsShifts(t *testing.T) {
	// GIVEN: an empty store
	_, router := newTestAPI(t)

	// WHEN: creating the ICU contract
	body := createICU(t, router)

	// THEN: Mon, Wed and Fri are seeded
	assert.Equal(t, 3, body.Result.Added)
	assert.Equal(t, []string{"2025-09-01", "2025-09-03", "2025-09-05"}, body.Result.Delta.Add)
	assert.Equal(t, "icu", body.Contract.ID)
	assert.Equal(t, DefaultUserID, body.Contract.UserID)
	assert.Equal(t, "active", body.Contract.Status)
	require.NotNil(t, body.Contract.Schedule)
	assert.Equal(t, "07:00", body.Contract.Schedule.DefaultStart)

	rec := do(t, router, http.MethodGet, "/api/contracts/icu/shifts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	shifts := decode[[]ShiftDTO](t, rec)
	require.Len(t, shifts, 3)
	// 07:00 CDT is 12:00 UTC
	assert.Equal(t, "2025-09-01T12:00:00Z", shifts[0].StartUTC)
	assert.Equal(t, "2025-09-02T00:00:00Z", shifts[0].EndUTC)
	assert.Equal(t, "contract_seed", shifts[0].Source)
	assert.Equal(t, "planned", shifts[0].Status)
}

func TestCreateContract_WithoutSeed(t *testing.T) {
	_, router := newTestAPI(t)

	body := strings.Replace(icuWeek(), `"id": "icu",`, `"id": "icu", "seed": false,`, 1)
	rec := do(t, router, http.MethodPost, "/api/contracts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 0, decode[mutationBody](t, rec).Result.Added)

	rec = do(t, router, http.MethodGet, "/api/contracts/icu/shifts", "")
	assert.Empty(t, decode[[]ShiftDTO](t, rec))
}

func TestCreateContract_ValidationErrors(t *testing.T) {
	_, router := newTestAPI(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"malformed json", "{", "body"},
		{"end before start", strings.Replace(icuWeek(), `"endDate": "2025-09-07"`, `"endDate": "2025-08-01"`, 1), ""},
		{"bad timezone", strings.Replace(icuWeek(), "America/Chicago", "Mars/Olympus", 1), "timezone"},
		{"bad clock", strings.Replace(icuWeek(), `"defaultStart": "07:00"`, `"defaultStart": "7am"`, 1), "defaultStart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/contracts", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, "validation_error", resp.Code)
			if tt.field != "" {
				assert.Equal(t, tt.field, resp.Field)
			}
		})
	}
}

func TestGetContract_OtherUserIsNotFound(t *testing.T) {
	_, router := newTestAPI(t)
	createICU(t, router)

	rec := do(t, router, http.MethodGet, "/api/contracts/icu", "", "someone-else")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Code)

	rec = do(t, router, http.MethodGet, "/api/contracts/icu", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateSchedule_RemovesDisabledDay(t *testing.T) {
	// GIVEN: the seeded ICU week
	_, router := newTestAPI(t)
	createICU(t, router)

	// WHEN: Wednesday is dropped
	rec := do(t, router, http.MethodPut, "/api/contracts/icu/schedule",
		`{"defaultStart":"07:00","defaultEnd":"19:00","days":{"1":{"enabled":true},"5":{"enabled":true}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: exactly the Wednesday shift goes away
	body := decode[mutationBody](t, rec)
	assert.Equal(t, []string{"2025-09-03"}, body.Result.Delta.Remove)
	assert.Equal(t, 1, body.Result.Removed)
	assert.Empty(t, body.Result.Delta.Add)

	shifts := decode[[]ShiftDTO](t, do(t, router, http.MethodGet, "/api/contracts/icu/shifts", ""))
	require.Len(t, shifts, 2)
	assert.Equal(t, "2025-09-01", shifts[0].LocalDate)
	assert.Equal(t, "2025-09-05", shifts[1].LocalDate)
}

func TestUpdateSchedule_ProtectsFinalizedShift(t *testing.T) {
	// GIVEN: Monday's shift is finalized
	_, router := newTestAPI(t)
	createICU(t, router)
	shifts := decode[[]ShiftDTO](t, do(t, router, http.MethodGet, "/api/contracts/icu/shifts", ""))
	rec := do(t, router, http.MethodPut, "/api/shifts/"+shifts[0].ID+"/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "finalized", decode[ShiftDTO](t, rec).Status)

	// WHEN: Monday is dropped and the day times change
	rec = do(t, router, http.MethodPut, "/api/contracts/icu/schedule",
		`{"defaultStart":"08:00","defaultEnd":"20:00","days":{"3":{"enabled":true},"5":{"enabled":true}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: the finalized shift is kept and reported
	body := decode[mutationBody](t, rec)
	assert.Equal(t, 0, body.Result.Removed)
	assert.Equal(t, 2, body.Result.Updated)
	require.Len(t, body.Result.Protected, 1)
	assert.Equal(t, "2025-09-01", body.Result.Protected[0].Date)
	assert.Equal(t, "finalized", body.Result.Protected[0].Status)

	after := decode[[]ShiftDTO](t, do(t, router, http.MethodGet, "/api/contracts/icu/shifts", ""))
	require.Len(t, after, 3)
	assert.Equal(t, "2025-09-01T12:00:00Z", after[0].StartUTC)
	assert.Equal(t, "2025-09-03T13:00:00Z", after[1].StartUTC)
}

func TestUpdateContract_KeepsStoredStatus(t *testing.T) {
	_, router := newTestAPI(t)
	createICU(t, router)

	body := strings.Replace(icuWeek(), `"status": "active",`, "", 1)
	body = strings.Replace(body, `"endDate": "2025-09-07"`, `"endDate": "2025-09-10"`, 1)
	rec := do(t, router, http.MethodPut, "/api/contracts/icu", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[mutationBody](t, rec)
	assert.Equal(t, "active", resp.Contract.Status)
	assert.Equal(t, []string{"2025-09-08", "2025-09-10"}, resp.Result.Delta.Add)
	assert.Equal(t, 2, resp.Result.Added)
}

func TestPreviewContract_DoesNotWrite(t *testing.T) {
	_, router := newTestAPI(t)
	createICU(t, router)

	rec := do(t, router, http.MethodPost, "/api/contracts/icu/preview", `{"endDate":"2025-09-10"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var delta struct {
		Add    []string `json:"addDates"`
		Remove []string `json:"removeDates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &delta))
	assert.Equal(t, []string{"2025-09-08", "2025-09-10"}, delta.Add)
	assert.Empty(t, delta.Remove)

	shifts := decode[[]ShiftDTO](t, do(t, router, http.MethodGet, "/api/contracts/icu/shifts?from=2025-09-01&to=2025-09-30", ""))
	assert.Len(t, shifts, 3)
}

func TestDeleteContract(t *testing.T) {
	_, router := newTestAPI(t)
	createICU(t, router)

	rec := do(t, router, http.MethodDelete, "/api/contracts/icu", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Removed  int `json:"removed"`
		Detached int `json:"detached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Removed)
	assert.Equal(t, 0, res.Detached)

	rec = do(t, router, http.MethodGet, "/api/contracts/icu", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateShift_ErrorMapping(t *testing.T) {
	_, router := newTestAPI(t)
	createICU(t, router)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown contract", `{"contractId":"nope","date":"2025-09-02","start":"07:00","end":"15:00"}`, http.StatusNotFound, "not_found"},
		{"outside contract range", `{"contractId":"icu","date":"2025-10-01","start":"07:00","end":"15:00"}`, http.StatusUnprocessableEntity, "out_of_range"},
		{"equal clocks", `{"date":"2025-09-02","start":"07:00","end":"07:00"}`, http.StatusBadRequest, "validation_error"},
		{"bad clock", `{"date":"2025-09-02","start":"25:00","end":"07:00"}`, http.StatusBadRequest, "validation_error"},
		{"bad status", `{"date":"2025-09-02","start":"07:00","end":"15:00","status":"maybe"}`, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/shifts", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCreateShift_OvernightManual(t *testing.T) {
	_, router := newTestAPI(t)
	createICU(t, router)

	rec := do(t, router, http.MethodPost, "/api/shifts",
		`{"contractId":"icu","date":"2025-09-06","start":"19:00","end":"07:00","notes":"extra night"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	sh := decode[ShiftDTO](t, rec)
	assert.Equal(t, "manual", sh.Source)
	assert.Equal(t, "2025-09-06", sh.LocalDate)
	assert.Equal(t, "2025-09-07T00:00:00Z", sh.StartUTC)
	assert.Equal(t, "2025-09-07T12:00:00Z", sh.EndUTC)

	rec = do(t, router, http.MethodDelete, "/api/shifts/"+sh.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodDelete, "/api/shifts/"+sh.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard_Week(t *testing.T) {
	// GIVEN: three 12-hour ICU shifts at 45.00
	_, router := newTestAPI(t)
	createICU(t, router)

	// WHEN: requesting the week of Wednesday Sep 3
	rec := do(t, router, http.MethodGet, "/api/dashboard?period=week&date=2025-09-03", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: 36 hours, 1620.00, no overtime
	var dash struct {
		Period     roster.Range    `json:"period"`
		Hours      decimal.Decimal `json:"hours"`
		Earnings   decimal.Decimal `json:"earnings"`
		ShiftCount int             `json:"shiftCount"`
		Contracts  []struct {
			ContractID  string              `json:"contractId"`
			TargetHours decimal.NullDecimal `json:"targetHours"`
		} `json:"contracts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, "2025-08-31", dash.Period.Start.String())
	assert.Equal(t, "2025-09-06", dash.Period.End.String())
	assert.True(t, decimal.NewFromInt(36).Equal(dash.Hours), dash.Hours.String())
	assert.True(t, decimal.RequireFromString("1620.00").Equal(dash.Earnings), dash.Earnings.String())
	assert.Equal(t, 3, dash.ShiftCount)
	require.Len(t, dash.Contracts, 1)
	assert.True(t, dash.Contracts[0].TargetHours.Valid)
	assert.True(t, decimal.NewFromInt(36).Equal(dash.Contracts[0].TargetHours.Decimal))
}

func TestDashboard_InvalidPeriod(t *testing.T) {
	_, router := newTestAPI(t)
	rec := do(t, router, http.MethodGet, "/api/dashboard?period=year", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/dashboard?date=09/03/2025", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "date", decode[ErrorResponse](t, rec).Field)
}

func TestExpenses_RoundTrip(t *testing.T) {
	_, router := newTestAPI(t)
	createICU(t, router)

	rec := do(t, router, http.MethodPost, "/api/expenses",
		`{"contractId":"icu","date":"2025-09-02","amount":"42.18","category":"mileage","deductible":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ExpenseDTO](t, rec)

	// Default window is the current month (Now is 2025-09-03).
	list := decode[[]ExpenseDTO](t, do(t, router, http.MethodGet, "/api/expenses", ""))
	require.Len(t, list, 1)
	assert.True(t, decimal.RequireFromString("42.18").Equal(list[0].Amount))

	rec = do(t, router, http.MethodPost, "/api/expenses", `{"date":"2025-09-02","amount":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/expenses/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, decode[[]ExpenseDTO](t, do(t, router, http.MethodGet, "/api/expenses?from=2025-09-01&to=2025-09-30", "")))
}

func TestAuditContract_Healthy(t *testing.T) {
	_, router := newTestAPI(t)
	createICU(t, router)

	rec := do(t, router, http.MethodGet, "/api/contracts/icu/audit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[audit.Report](t, rec)
	assert.Equal(t, audit.StatusHealthy, report.Status)
	assert.Equal(t, 3, report.ExpectedCount)
	assert.Equal(t, 3, report.ActualCount)
}

func TestScenarios_LoadEach(t *testing.T) {
	h, router := newTestAPI(t)

	list := decode[[]ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios", ""))
	require.Len(t, list, len(scenarios))

	for _, s := range list {
		t.Run(s.ID, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenarioId":"`+s.ID+`"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			current := decode[ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios/current", ""))
			assert.Equal(t, s.ID, current.ID)

			contracts := decode[[]ContractDTO](t, do(t, router, http.MethodGet, "/api/contracts", ""))
			assert.NotEmpty(t, contracts)
		})
	}

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenarioId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/scenarios/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.currentScenario)
}

func TestScenario_AuditDrift(t *testing.T) {
	_, router := newTestAPI(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenarioId":"audit-drift"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reports := decode[[]audit.Report](t, do(t, router, http.MethodGet, "/api/audit", ""))
	require.Len(t, reports, 1)
	assert.Equal(t, audit.StatusHasIssues, reports[0].Status)
	require.Len(t, reports[0].Missing, 1)
	assert.Equal(t, "2025-09-03", reports[0].Missing[0].String())
	assert.Empty(t, reports[0].Duplicates)
}

func TestScenario_MultiContractWeek(t *testing.T) {
	// GIVEN: ICU (36h) and per diem (Tue 8.5h, Thu 12h, Sat 8.5h) in one week
	_, router := newTestAPI(t)
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenarioId":"multi-contract"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: reading the first full week
	rec = do(t, router, http.MethodGet, "/api/dashboard?period=week&date=2025-09-03", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: overtime is per contract and neither passes 40h:
	// 36*45 + 29*38.50 = 1620 + 1116.50
	var dash struct {
		Hours        decimal.Decimal `json:"hours"`
		Earnings     decimal.Decimal `json:"earnings"`
		ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.True(t, decimal.NewFromInt(65).Equal(dash.Hours), dash.Hours.String())
	assert.True(t, decimal.RequireFromString("2736.50").Equal(dash.Earnings), dash.Earnings.String())
	assert.True(t, decimal.RequireFromString("42.18").Equal(dash.ExpenseTotal), dash.ExpenseTotal.String())
}

func TestHeartbeat(t *testing.T) {
	_, router := newTestAPI(t)
	rec := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ServiceLogsCarryRequestID(t *testing.T) {
	// GIVEN: a router whose logger writes JSON to a buffer
	zone, err := roster.LoadZone("America/Chicago")
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := NewHandler(store.NewMemory(), zone, logger)
	router := NewRouter(h, RouterOptions{Logger: logger})

	// WHEN: a contract is created
	rec := do(t, router, http.MethodPost, "/api/contracts", icuWeek())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: the service's record is tagged with the request id
	var found map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var r map[string]any
		if json.Unmarshal(line, &r) == nil && r["msg"] == "created contract" {
			found = r
		}
	}
	require.NotNil(t, found, buf.String())
	assert.NotEmpty(t, found["request_id"])
}
