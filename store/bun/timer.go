package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/id"
)

// SetTimer upserts the job's timer, replacing any existing one.
func (s *Store) SetTimer(ctx context.Context, t *alarm.Timer) error {
	m := &timerModel{JobID: t.JobID.String(), FireAt: t.FireAt.UTC()}
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (job_id) DO UPDATE").
		Set("fire_at = EXCLUDED.fire_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stint/bun: set timer: %w", err)
	}
	return nil
}

// GetTimer retrieves the job's pending timer.
func (s *Store) GetTimer(ctx context.Context, jobID id.JobID) (*alarm.Timer, error) {
	m := new(timerModel)
	err := s.db.NewSelect().Model(m).
		Where("job_id = ?", jobID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, stint.ErrTimerNotFound
		}
		return nil, fmt.Errorf("stint/bun: get timer: %w", err)
	}

	parsed, err := id.ParseJobID(m.JobID)
	if err != nil {
		return nil, fmt.Errorf("stint/bun: parse timer job id %q: %w", m.JobID, err)
	}
	return &alarm.Timer{JobID: parsed, FireAt: m.FireAt}, nil
}

// DueTimers returns up to limit due timers, soonest first. Reading does
// not remove them.
func (s *Store) DueTimers(ctx context.Context, now time.Time, limit int) ([]*alarm.Timer, error) {
	var models []timerModel
	err := s.db.NewSelect().Model(&models).
		Where("fire_at <= ?", now).
		Order("fire_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("stint/bun: due timers: %w", err)
	}

	timers := make([]*alarm.Timer, 0, len(models))
	for i := range models {
		jobID, parseErr := id.ParseJobID(models[i].JobID)
		if parseErr != nil {
			return nil, fmt.Errorf("stint/bun: parse timer job id %q: %w", models[i].JobID, parseErr)
		}
		timers = append(timers, &alarm.Timer{JobID: jobID, FireAt: models[i].FireAt})
	}
	return timers, nil
}

// ClearTimer removes the job's timer.
func (s *Store) ClearTimer(ctx context.Context, jobID id.JobID) error {
	_, err := s.db.NewDelete().Model((*timerModel)(nil)).
		Where("job_id = ?", jobID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stint/bun: clear timer: %w", err)
	}
	return nil
}
