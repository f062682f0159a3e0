package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/id"
)

// SetTimer upserts the job's timer; the primary key on job_id gives the
// replace semantics the alarm contract requires.
func (s *Store) SetTimer(ctx context.Context, t *alarm.Timer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stint_timers (job_id, fire_at) VALUES (?, ?)
		ON CONFLICT (job_id) DO UPDATE SET fire_at = excluded.fire_at`,
		t.JobID.String(), formatTime(t.FireAt),
	)
	if err != nil {
		return fmt.Errorf("stint/sqlite: set timer: %w", err)
	}
	return nil
}

// GetTimer retrieves the job's pending timer.
func (s *Store) GetTimer(ctx context.Context, jobID id.JobID) (*alarm.Timer, error) {
	var fireAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT fire_at FROM stint_timers WHERE job_id = ?`, jobID.String()).Scan(&fireAt)
	if isNoRows(err) {
		return nil, stint.ErrTimerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: get timer: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, fireAt)
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: parse timer fire_at: %w", err)
	}
	return &alarm.Timer{JobID: jobID, FireAt: t}, nil
}

// DueTimers returns up to limit due timers, soonest first.
func (s *Store) DueTimers(ctx context.Context, now time.Time, limit int) ([]*alarm.Timer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, fire_at FROM stint_timers
		WHERE fire_at <= ?
		ORDER BY fire_at ASC
		LIMIT ?`, formatTime(now), limit)
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: due timers: %w", err)
	}
	defer rows.Close()

	var timers []*alarm.Timer
	for rows.Next() {
		var jobID, fireAt string
		if err := rows.Scan(&jobID, &fireAt); err != nil {
			return nil, fmt.Errorf("stint/sqlite: scan timer: %w", err)
		}
		jID, err := id.ParseJobID(jobID)
		if err != nil {
			return nil, fmt.Errorf("stint/sqlite: parse timer job id: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, fireAt)
		if err != nil {
			return nil, fmt.Errorf("stint/sqlite: parse timer fire_at: %w", err)
		}
		timers = append(timers, &alarm.Timer{JobID: jID, FireAt: t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stint/sqlite: due timers: %w", err)
	}
	return timers, nil
}

// ClearTimer removes the job's timer.
func (s *Store) ClearTimer(ctx context.Context, jobID id.JobID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stint_timers WHERE job_id = ?`, jobID.String()); err != nil {
		return fmt.Errorf("stint/sqlite: clear timer: %w", err)
	}
	return nil
}
