// Package scheduler runs the periodic persistence flush on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/muurk/camcfg/internal/logging"
)

// DefaultSchedule flushes every 30 seconds
const DefaultSchedule = "@every 30s"

// Flusher is the part of the runtime the scheduler drives
type Flusher interface {
	PendingWrites() int
	Flush() error
}

// FlushScheduler periodically flushes pending configuration writes
type FlushScheduler struct {
	cron    *cron.Cron
	flusher Flusher
	entry   cron.EntryID
}

// NewFlushScheduler registers a flush job on schedule. The schedule accepts
// an optional seconds field and descriptors such as "@every 1m".
func NewFlushScheduler(f Flusher, schedule string) (*FlushScheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	s := &FlushScheduler{
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		flusher: f,
	}

	id, err := s.cron.AddFunc(schedule, s.RunOnce)
	if err != nil {
		return nil, fmt.Errorf("invalid flush schedule %q: %w", schedule, err)
	}
	s.entry = id
	return s, nil
}

// RunOnce flushes if anything is pending. Failures are logged; the
// entries stay queued for the next run.
func (s *FlushScheduler) RunOnce() {
	pending := s.flusher.PendingWrites()
	if pending == 0 {
		return
	}
	if err := s.flusher.Flush(); err != nil {
		logging.Warn("Periodic configuration flush failed",
			zap.Int("pending", pending),
			zap.Error(err),
		)
	}
}

// Start begins running the schedule in the background
func (s *FlushScheduler) Start() {
	logging.Info("Starting flush scheduler")
	s.cron.Start()
}

// Stop halts the schedule and returns a context that is done once a
// running flush has finished
func (s *FlushScheduler) Stop() context.Context {
	logging.Info("Stopping flush scheduler")
	return s.cron.Stop()
}
