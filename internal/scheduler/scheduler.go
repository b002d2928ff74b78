// Package scheduler runs remediation on a cron schedule. Used by watch
// mode to re-remediate a target periodically, e.g. after upstream
// merges land new regressions.
//
// Core invariant: only one remediation run per target at a time. A
// tick that fires while the previous run is still going is skipped.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one remediation run against the target.
type RunFunc func(ctx context.Context) error

// Scheduler triggers remediation runs on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler. Supports the standard 5-field cron syntax
// plus descriptors like @hourly and @every 30m.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Add registers a remediation run on the given schedule.
func (s *Scheduler) Add(ctx context.Context, spec string, run RunFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		if s.running {
			s.mu.Unlock()
			s.logger.Warn("skipping scheduled run, previous run still in progress", slog.String("schedule", spec))
			return
		}
		s.running = true
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		s.logger.Info("scheduled remediation run triggered", slog.String("schedule", spec))
		if err := run(ctx); err != nil {
			s.logger.Error("scheduled remediation run failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Start begins triggering scheduled runs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the scheduler and waits for any in-flight run to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
