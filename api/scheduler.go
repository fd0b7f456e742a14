/*
scheduler.go - Background audit sweeper

PURPOSE:
  Periodically audits every contract's seed shifts and logs the ones that
  drifted (missing or duplicate seed rows). The sweep is read-only; fixing
  drift is left to the next contract update or an operator.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps once immediately on Start
  - A sweep with has_issues reports logs its summary at warn

CONFIGURATION:
  - Interval: How often to sweep (AUDIT_INTERVAL, default 1 hour)
  - An interval of 0 disables the sweeper

USAGE:
  sweeper := NewAuditScheduler(auditor, time.Hour, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: AuditUser / AuditContract endpoints (on-demand audits)
  - audit/audit.go: Auditor
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/shift-engine/audit"
	"github.com/warp/shift-engine/logging"
)

// AuditScheduler runs audit.Auditor.AuditAll on a ticker.
type AuditScheduler struct {
	Auditor  *audit.Auditor
	Interval time.Duration
	Logger   *slog.Logger

	// Timeout bounds one sweep.
	Timeout time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAuditScheduler creates a new sweeper.
func NewAuditScheduler(auditor *audit.Auditor, interval time.Duration, logger *slog.Logger) *AuditScheduler {
	logger = logging.OrDefault(logger)
	return &AuditScheduler{
		Auditor:  auditor,
		Interval: interval,
		Logger:   logger.With(slog.String("component", "audit_scheduler")),
		Timeout:  5 * time.Minute,
	}
}

// Start begins the sweeper. It is a no-op when Interval is not positive or
// the sweeper is already running.
func (s *AuditScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.Logger.Info("audit scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.Logger.Info("audit scheduler started", "interval", s.Interval.String())
}

// Stop stops the sweeper and waits for a running sweep to finish.
func (s *AuditScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Logger.Info("audit scheduler stopped")
}

func (s *AuditScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow()

	for {
		select {
		case <-ticker.C:
			s.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one sweep and returns its reports.
func (s *AuditScheduler) RunNow() []audit.Report {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	reports, err := s.Auditor.AuditAll(ctx)
	if err != nil {
		s.Logger.Error("audit sweep failed", "error", err)
		return nil
	}

	// The auditor logs each has_issues report itself.
	issues := 0
	for _, rep := range reports {
		if !rep.Healthy() {
			issues++
		}
	}
	if issues > 0 {
		s.Logger.Warn("audit sweep completed", "contracts", len(reports), "has_issues", issues)
	} else {
		s.Logger.Info("audit sweep completed", "contracts", len(reports))
	}
	return reports
}
