package purge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"workdeck/pkg/logger"
)

// Scheduler runs the sweeper on a cron schedule. Lifecycle is
// Stopped → Running → Stopped; Start on a running scheduler warns and
// no-ops, Stop on a stopped one no-ops. Sweeps are single-flight per
// process: a tick landing while a sweep runs is skipped.
type Scheduler struct {
	sweeper  *Sweeper
	schedule string
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
	entry   cron.EntryID

	sweepMu sync.Mutex // single-flight
}

// NewScheduler creates a scheduler over the sweeper. An empty schedule
// falls back to the sweeper's policy, then to the default cadence.
func NewScheduler(sweeper *Sweeper, schedule string) *Scheduler {
	if schedule == "" {
		schedule = sweeper.Policy().Schedule
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start schedules periodic sweeps and kicks off an immediate one in the
// background, so a fresh deploy does not wait a full period to catch up
// on backlog.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logger.Warn(ctx, "purge scheduler already running", "schedule", s.schedule)
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	entry, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.entry = entry

	s.cron.Start()
	s.running = true
	logger.Info(ctx, "purge scheduler started", "schedule", s.schedule)

	go s.runSweep(ctx)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	// Drop the entry so a later Start does not stack a second one on
	// the same schedule.
	s.cron.Remove(s.entry)

	// Grab the single-flight lock to wait out an in-progress sweep.
	s.sweepMu.Lock()
	s.sweepMu.Unlock() //nolint:staticcheck // lock/unlock pairs as a barrier

	s.running = false
	logger.Info(ctx, "purge scheduler stopped")
}

// RunOnce runs one sweep immediately, regardless of lifecycle state.
// It shares the single-flight lock with scheduled sweeps.
func (s *Scheduler) RunOnce(ctx context.Context) (*SweepResult, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	return s.sweeper.Sweep(ctx)
}

// Schedule returns the effective cron expression.
func (s *Scheduler) Schedule() string {
	return s.schedule
}

// IsRunning reports whether the scheduler is in the Running state.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep time, nil when stopped.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// runSweep is the scheduled entry point: skip when one is in flight.
func (s *Scheduler) runSweep(ctx context.Context) {
	if !s.sweepMu.TryLock() {
		logger.Warn(ctx, "sweep already in progress, skipping tick")
		return
	}
	defer s.sweepMu.Unlock()

	if _, err := s.sweeper.Sweep(ctx); err != nil {
		logger.Error(ctx, "scheduled sweep failed", "error", err)
	}
}
