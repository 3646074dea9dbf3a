package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Backup frequencies.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
)

// CronSpec maps a backup frequency to a cron schedule.
func CronSpec(frequency string) (string, error) {
	switch frequency {
	case Daily:
		return "@daily", nil
	case Weekly:
		return "@weekly", nil
	case Monthly:
		return "@monthly", nil
	}
	return "", fmt.Errorf("unknown backup frequency %q (want daily, weekly or monthly)", frequency)
}

// Scheduler runs backups on a fixed frequency.
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	timeout time.Duration
}

// NewScheduler schedules runner at the given frequency. Nothing runs until
// Start is called.
func NewScheduler(runner *Runner, frequency string) (*Scheduler, error) {
	spec, err := CronSpec(frequency)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		timeout: 10 * time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("scheduling backup: %w", err)
	}
	return s, nil
}

// Start starts the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("backup scheduler started", "dir", s.runner.Dir(), "next", s.Next())
}

// Stop stops the scheduler and waits for a running backup to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("backup scheduler stop timed out")
	}
	slog.Info("backup scheduler stopped")
}

// Next returns the next scheduled run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	// Errors are logged and counted by Run.
	_, _ = s.runner.Run(ctx)
}
