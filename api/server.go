/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. CORS:           Cross-origin requests for frontend
  3. RequestLogger:  httplog structured request logs (ECS schema)
  4. ReqLogger:      Request-scoped slog.Logger tagged with request_id
  5. CleanPath:      Collapse duplicate slashes
  6. Recoverer:      Panic recovery (500 instead of crash)
  7. Heartbeat:      GET /health for load balancers

ROUTE GROUPS:
  /api/contracts/*      Contract lifecycle, schedule, shifts, audit
  /api/shifts/*         Manual shifts and status changes
  /api/dashboard        Payroll summary
  /api/audit            Audit of all the caller's contracts
  /api/expenses/*       Expenses
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. The X-User-ID header is trusted as-is.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/warp/shift-engine/logging"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = h.Logger
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", UserHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(logging.Middleware(logger, middleware.GetReqID))
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", h.ListContracts)
			r.Post("/", h.CreateContract)
			r.Get("/{id}", h.GetContract)
			r.Put("/{id}", h.UpdateContract)
			r.Delete("/{id}", h.DeleteContract)
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Put("/{id}/schedule", h.UpdateSchedule)
			r.Post("/{id}/preview", h.PreviewContract)
			r.Get("/{id}/shifts", h.ListContractShifts)
			r.Get("/{id}/audit", h.AuditContract)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.CreateShift)
			r.Put("/{id}/status", h.UpdateShiftStatus)
			r.Delete("/{id}", h.DeleteShift)
		})

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/audit", h.AuditUser)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
