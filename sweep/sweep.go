// Package sweep implements retention: a scheduled sweeper that purges
// terminal job states, their checkpoints, and any leftover timers after
// a configurable TTL. Without a sweeper, terminal states are retained
// indefinitely.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/alarm"
)

// cronParser supports standard 5-field cron and descriptors like "@every 1h".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithBatchSize sets how many terminal states are purged per run.
func WithBatchSize(n int) Option {
	return func(s *Sweeper) { s.batchSize = n }
}

// Sweeper purges expired terminal job states on a cron schedule.
type Sweeper struct {
	states    actor.Store
	timers    alarm.Store
	schedule  cronlib.Schedule
	ttl       time.Duration
	batchSize int
	logger    *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Sweeper. The schedule is a cron expression ("0 3 * * *")
// or descriptor ("@every 1h"); ttl is how long terminal states are kept
// after their last update.
func New(states actor.Store, timers alarm.Store, schedule string, ttl time.Duration, logger *slog.Logger, opts ...Option) (*Sweeper, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		states:    states,
		timers:    timers,
		schedule:  sched,
		ttl:       ttl,
		batchSize: 100,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the sweep goroutine.
func (s *Sweeper) Start(_ context.Context) error {
	s.wg.Add(1)
	go s.loop()
	s.logger.Info("retention sweeper started", slog.Duration("ttl", s.ttl))
	return nil
}

// Stop signals the sweeper to stop and waits for a running sweep to
// finish.
func (s *Sweeper) Stop(_ context.Context) error {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("retention sweeper stopped")
	return nil
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	for {
		next := s.schedule.Next(time.Now())
		select {
		case <-s.stopCh:
			return
		case <-time.After(time.Until(next)):
			if n, err := s.Sweep(context.Background()); err != nil {
				s.logger.Error("sweep error", slog.String("error", err.Error()))
			} else if n > 0 {
				s.logger.Info("swept expired jobs", slog.Int("purged", n))
			}
		}
	}
}

// Sweep purges one batch of expired terminal states and returns how many
// jobs were removed. Exported so operators can trigger a sweep manually.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	expired, err := s.states.ListTerminalStates(ctx, cutoff, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired jobs: %w", err)
	}

	purged := 0
	for _, st := range expired {
		// Checkpoint and timer first; a partial purge must leave the
		// state behind so the next sweep retries the whole job.
		if err := s.states.DeleteCheckpoint(ctx, st.JobID); err != nil {
			s.logger.Warn("purge checkpoint",
				slog.String("job_id", st.JobID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := s.timers.ClearTimer(ctx, st.JobID); err != nil {
			s.logger.Warn("purge timer",
				slog.String("job_id", st.JobID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := s.states.DeleteState(ctx, st.JobID); err != nil {
			s.logger.Warn("purge state",
				slog.String("job_id", st.JobID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		purged++
	}
	return purged, nil
}
