package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"casesdash/sentinel/pkg/governance"
)

// Target is what a sweep acts on. Satisfied by *governance.Engine.
type Target interface {
	Cleanup(ctx context.Context) governance.CleanupReport
}

// Scheduler runs Target.Cleanup at scheduled intervals using cron syntax.
type Scheduler struct {
	target   Target
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a cleanup scheduler.
//
// Common cron expressions:
//   - "*/5 * * * *" - every 5 minutes
//   - "0 * * * *"   - hourly on the hour
func NewScheduler(target Target, schedule string) *Scheduler {
	return &Scheduler{
		target:   target,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "governance.sweep"),
	}
}

// Start begins the scheduled sweeps. An empty schedule disables the
// scheduler. The scheduler stops itself when the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("cleanup schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("cleanup scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce executes a single sweep immediately.
func (s *Scheduler) RunOnce(ctx context.Context) governance.CleanupReport {
	report := s.target.Cleanup(ctx)
	s.logger.Info("cleanup sweep completed",
		"user_keys_evicted", report.UserKeysEvicted,
		"global_keys_evicted", report.GlobalKeysEvicted,
		"blocks_expired", report.BlocksExpired,
		"quota_rollovers", report.QuotaRollovers,
		"queue_entries_dropped", report.QueueEntriesDropped,
	)
	return report
}

// Stop halts scheduled sweeps. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("cleanup scheduler stopped")
}
