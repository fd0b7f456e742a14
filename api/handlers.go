/*
handlers.go - HTTP API handlers for the shift engine

PURPOSE:
  Exposes contracts, shifts, payroll and audits via REST API. Handles HTTP
  request/response and JSON serialization, and delegates to the contracts
  service, the reporter and the auditor.

ENDPOINTS:
  Contracts:
    GET    /api/contracts                 List the user's contracts
    POST   /api/contracts                 Create (and seed) a contract
    GET    /api/contracts/{id}            Contract with its schedule
    PUT    /api/contracts/{id}            Replace terms, reconcile shifts
    DELETE /api/contracts/{id}            Delete, detach protected shifts
    GET    /api/contracts/{id}/schedule   Weekly schedule
    PUT    /api/contracts/{id}/schedule   Replace schedule, reconcile shifts
    POST   /api/contracts/{id}/preview    Dry-run delta
    GET    /api/contracts/{id}/shifts     Shifts, optional ?from&to
    GET    /api/contracts/{id}/audit      Audit one contract

  Shifts:
    POST   /api/shifts                    Manual shift
    PUT    /api/shifts/{id}/status        Change status
    DELETE /api/shifts/{id}

  Payroll and audit:
    GET    /api/dashboard                 ?period=week|month&date=YYYY-MM-DD
    GET    /api/audit                     Audit every contract of the user

  Expenses:
    GET    /api/expenses                  ?from&to (default current month)
    POST   /api/expenses
    DELETE /api/expenses/{id}

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Contracts: write path and ownership checks
  - Reporter:  payroll dashboard
  - Auditor:   seed-shift audits
  - Factory:   JSON to Contract conversion
  - Store:     database access for scenario loading and reset

USER IDENTITY:
  The caller is identified by the X-User-ID header, falling back to
  DefaultUserID. Records of other users are reported as 404.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input     (code validation_error)
  - 404: Resource not found                   (code not_found)
  - 422: Shift date outside contract range    (code out_of_range)
  - 500: Internal errors                      (code internal_error)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/shift-engine/audit"
	"github.com/warp/shift-engine/contracts"
	"github.com/warp/shift-engine/factory"
	"github.com/warp/shift-engine/logging"
	"github.com/warp/shift-engine/payroll"
	"github.com/warp/shift-engine/roster"
)

// DefaultUserID is used when a request carries no X-User-ID header.
const DefaultUserID = "demo-user"

// UserHeader names the caller identity header.
const UserHeader = "X-User-ID"

// Store is the persistence the API needs: the repository plus a full reset
// for demo scenarios.
type Store interface {
	roster.Repository
	Reset(ctx context.Context) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Contracts *contracts.Service
	Reporter  *payroll.Reporter
	Auditor   *audit.Auditor
	Factory   *factory.ContractFactory
	Logger    *slog.Logger

	// DefaultZone resolves "today" for dashboard and expense requests
	// without a date.
	DefaultZone *time.Location
	Now         func() time.Time

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the services on top of store.
func NewHandler(store Store, defaultZone *time.Location, logger *slog.Logger) *Handler {
	logger = logging.OrDefault(logger)
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &Handler{
		Store:       store,
		Contracts:   contracts.NewService(store, logger, defaultZone),
		Reporter:    payroll.NewReporter(store, payroll.NewAggregator(defaultZone)),
		Auditor:     audit.NewAuditor(store, logger),
		Factory:     factory.NewContractFactory(defaultZone.String()),
		Logger:      logger,
		DefaultZone: defaultZone,
		Now:         time.Now,
	}
}

func (h *Handler) today() roster.Date {
	d, _ := roster.UTCToLocal(h.Now(), h.DefaultZone)
	return d
}

func userID(r *http.Request) string {
	if id := r.Header.Get(UserHeader); id != "" {
		return id
	}
	return DefaultUserID
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// ListContracts returns the caller's contracts.
// GET /api/contracts
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Contracts.List(r.Context(), userID(r))
	if err != nil {
		h.respondError(w, r, "Failed to list contracts", err)
		return
	}
	dtos := make([]ContractDTO, len(list))
	for i, c := range list {
		dtos[i] = toContractDTO(h.Factory, c, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateContract creates a contract and seeds its shifts unless seed=false.
// POST /api/contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "Invalid request body", err)
		return
	}
	c, cfg, err := h.Factory.FromJSON(req.ContractJSON)
	if err != nil {
		h.respondError(w, r, "Invalid contract", err)
		return
	}
	if cfg == nil {
		h.respondError(w, r, "Invalid contract", roster.Invalid("schedule", "schedule is required"))
		return
	}
	c.UserID = userID(r)
	now := h.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	seed := req.Seed == nil || *req.Seed
	created, res, err := h.Contracts.Create(r.Context(), c, *cfg, seed)
	if err != nil {
		h.respondError(w, r, "Failed to create contract", err)
		return
	}
	sched, err := h.Contracts.Schedule(r.Context(), created.ID)
	if err != nil {
		h.respondError(w, r, "Failed to load schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, ContractMutationResponse{
		Contract: toContractDTO(h.Factory, created, &sched),
		Result:   res,
	})
}

// GetContract returns a contract with its schedule.
// GET /api/contracts/{id}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.Contracts.Get(ctx, userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to get contract", err)
		return
	}
	sched, err := h.Contracts.Schedule(ctx, c.ID)
	if err != nil {
		h.respondError(w, r, "Failed to load schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(h.Factory, c, &sched))
}

// UpdateContract replaces a contract's terms and reconciles its shifts.
// PUT /api/contracts/{id}
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "Invalid request body", err)
		return
	}
	c, cfg, err := h.Factory.FromJSON(req.ContractJSON)
	if err != nil {
		h.respondError(w, r, "Invalid contract", err)
		return
	}
	c.ID = chi.URLParam(r, "id")
	c.UserID = userID(r)
	c.UpdatedAt = h.Now().UTC()
	if req.Status == "" {
		// Keep the stored status.
		c.Status = ""
	}
	h.update(w, r, c, cfg)
}

// GetSchedule returns a contract's weekly schedule.
// GET /api/contracts/{id}/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.Contracts.Get(ctx, userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to get contract", err)
		return
	}
	sched, err := h.Contracts.Schedule(ctx, c.ID)
	if err != nil {
		h.respondError(w, r, "Failed to load schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, sched.ToConfig())
}

// UpdateSchedule replaces only the schedule of a contract.
// PUT /api/contracts/{id}/schedule
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var cfg roster.ScheduleConfig
	if err := decodeJSON(r, &cfg); err != nil {
		h.respondError(w, r, "Invalid request body", err)
		return
	}
	c, err := h.Contracts.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to get contract", err)
		return
	}
	c.UpdatedAt = h.Now().UTC()
	h.update(w, r, c, &cfg)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, c roster.Contract, cfg *roster.ScheduleConfig) {
	ctx := r.Context()
	updated, res, err := h.Contracts.Update(ctx, c, cfg)
	if err != nil {
		h.respondError(w, r, "Failed to update contract", err)
		return
	}
	sched, err := h.Contracts.Schedule(ctx, updated.ID)
	if err != nil {
		h.respondError(w, r, "Failed to load schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, ContractMutationResponse{
		Contract: toContractDTO(h.Factory, updated, &sched),
		Result:   res,
	})
}

// PreviewContract returns the delta an update would apply.
// POST /api/contracts/{id}/preview
func (h *Handler) PreviewContract(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "Invalid request body", err)
		return
	}
	ctx := r.Context()
	c, err := h.Contracts.Get(ctx, userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to get contract", err)
		return
	}

	next := roster.Contract{ID: c.ID, Timezone: req.Timezone}
	if req.StartDate != "" {
		if next.StartDate, err = roster.ParseDate(req.StartDate); err != nil {
			h.respondError(w, r, "Invalid startDate", err)
			return
		}
	}
	if req.EndDate != "" {
		if next.EndDate, err = roster.ParseDate(req.EndDate); err != nil {
			h.respondError(w, r, "Invalid endDate", err)
			return
		}
	}
	delta, err := h.Contracts.Preview(ctx, next, req.Schedule)
	if err != nil {
		h.respondError(w, r, "Failed to preview contract", err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

// DeleteContract removes a contract.
// DELETE /api/contracts/{id}
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	res, err := h.Contracts.Delete(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to delete contract", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListContractShifts returns a contract's shifts.
// GET /api/contracts/{id}/shifts?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ListContractShifts(w http.ResponseWriter, r *http.Request) {
	from, err := optionalDate(r, "from")
	if err != nil {
		h.respondError(w, r, "Invalid from", err)
		return
	}
	to, err := optionalDate(r, "to")
	if err != nil {
		h.respondError(w, r, "Invalid to", err)
		return
	}
	shifts, err := h.Contracts.ShiftsForContract(r.Context(), userID(r), chi.URLParam(r, "id"), from, to)
	if err != nil {
		h.respondError(w, r, "Failed to list shifts", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTOs(shifts))
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// AuditContract audits one contract.
// GET /api/contracts/{id}/audit
func (h *Handler) AuditContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.Contracts.Get(ctx, userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to get contract", err)
		return
	}
	report, err := h.Auditor.AuditContract(ctx, c.ID)
	if err != nil {
		h.respondError(w, r, "Failed to audit contract", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// AuditUser audits every contract of the caller.
// GET /api/audit
func (h *Handler) AuditUser(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Auditor.AuditUser(r.Context(), userID(r))
	if err != nil {
		h.respondError(w, r, "Failed to run audit", err)
		return
	}
	if reports == nil {
		reports = []audit.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// CreateShift records a manual shift.
// POST /api/shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "Invalid request body", err)
		return
	}
	in := contracts.ShiftInput{
		UserID:     userID(r),
		ContractID: req.ContractID,
		Notes:      req.Notes,
	}
	var err error
	if in.Date, err = roster.ParseDate(req.Date); err != nil {
		h.respondError(w, r, "Invalid date", err)
		return
	}
	if in.Start, err = roster.ParseClock(req.Start); err != nil {
		h.respondError(w, r, "Invalid start", err)
		return
	}
	if in.End, err = roster.ParseClock(req.End); err != nil {
		h.respondError(w, r, "Invalid end", err)
		return
	}
	if req.Status != "" {
		if in.Status, err = roster.ParseStatus(req.Status); err != nil {
			h.respondError(w, r, "Invalid status", err)
			return
		}
	}

	sh, err := h.Contracts.AddShift(r.Context(), in)
	if err != nil {
		h.respondError(w, r, "Failed to create shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(sh))
}

// UpdateShiftStatus changes a shift's status.
// PUT /api/shifts/{id}/status
func (h *Handler) UpdateShiftStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateShiftStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "Invalid request body", err)
		return
	}
	status, err := roster.ParseStatus(req.Status)
	if err != nil {
		h.respondError(w, r, "Invalid status", err)
		return
	}
	sh, err := h.Contracts.SetShiftStatus(r.Context(), userID(r), chi.URLParam(r, "id"), status)
	if err != nil {
		h.respondError(w, r, "Failed to update shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// DeleteShift removes a shift.
// DELETE /api/shifts/{id}
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.Contracts.DeleteShift(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "Failed to delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// GetDashboard returns hours and earnings for the week or month containing
// date.
// GET /api/dashboard?period=week|month&date=YYYY-MM-DD
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	date, err := optionalDate(r, "date")
	if err != nil {
		h.respondError(w, r, "Invalid date", err)
		return
	}
	if date.IsZero() {
		date = h.today()
	}

	var period roster.Range
	switch p := r.URL.Query().Get("period"); p {
	case "", "week":
		period = roster.WeekOf(date)
	case "month":
		period = roster.MonthOf(date.Year, date.Month)
	default:
		h.respondError(w, r, "Invalid period", roster.Invalid("period", "period must be week or month, got %q", p))
		return
	}

	dash, err := h.Reporter.Dashboard(r.Context(), userID(r), period)
	if err != nil {
		h.respondError(w, r, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// ListExpenses returns the caller's expenses in [from, to], defaulting to
// the current month.
// GET /api/expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	from, err := optionalDate(r, "from")
	if err != nil {
		h.respondError(w, r, "Invalid from", err)
		return
	}
	to, err := optionalDate(r, "to")
	if err != nil {
		h.respondError(w, r, "Invalid to", err)
		return
	}
	today := h.today()
	month := roster.MonthOf(today.Year, today.Month)
	if from.IsZero() {
		from = month.Start
	}
	if to.IsZero() {
		to = month.End
	}

	expenses, err := h.Contracts.ListExpenses(r.Context(), userID(r), roster.Range{Start: from, End: to})
	if err != nil {
		h.respondError(w, r, "Failed to list expenses", err)
		return
	}
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateExpense records an expense.
// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, "Invalid request body", err)
		return
	}
	date, err := roster.ParseDate(req.Date)
	if err != nil {
		h.respondError(w, r, "Invalid date", err)
		return
	}
	e, err := h.Contracts.AddExpense(r.Context(), roster.Expense{
		UserID:      userID(r),
		ContractID:  req.ContractID,
		Date:        date,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Deductible:  req.Deductible,
	})
	if err != nil {
		h.respondError(w, r, "Failed to create expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(e))
}

// DeleteExpense removes an expense.
// DELETE /api/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.Contracts.DeleteExpense(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "Failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: codeFor(status)}
	var ve *roster.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// respondError maps engine errors to HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContextOr(r.Context(), h.Logger).ErrorContext(r.Context(), message, "error", err, "path", r.URL.Path)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case roster.IsValidation(err):
		return http.StatusBadRequest
	case roster.IsNotFound(err):
		return http.StatusNotFound
	case roster.IsOutOfRange(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "out_of_range"
	}
	return "internal_error"
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &roster.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error(), Cause: err}
	}
	return nil
}

func optionalDate(r *http.Request, key string) (roster.Date, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return roster.Date{}, nil
	}
	d, err := roster.ParseDate(s)
	if err != nil {
		var ve *roster.ValidationError
		if errors.As(err, &ve) {
			return roster.Date{}, &roster.ValidationError{Field: key, Message: ve.Message, Cause: ve.Cause}
		}
		return roster.Date{}, &roster.ValidationError{Field: key, Message: err.Error(), Cause: err}
	}
	return d, nil
}
