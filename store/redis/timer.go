package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/stint"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/id"
)

// timerScore encodes a fire time as a sorted-set score with millisecond
// precision.
func timerScore(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

// SetTimer adds the job to the timer Sorted Set. ZADD on an existing
// member updates its score, which is exactly the replace semantics the
// alarm contract requires.
func (s *Store) SetTimer(ctx context.Context, t *alarm.Timer) error {
	err := s.client.ZAdd(ctx, timersKey, goredis.Z{
		Score:  timerScore(t.FireAt),
		Member: t.JobID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("stint/redis: set timer: %w", err)
	}
	return nil
}

// GetTimer reads the job's timer score from the Sorted Set.
func (s *Store) GetTimer(ctx context.Context, jobID id.JobID) (*alarm.Timer, error) {
	score, err := s.client.ZScore(ctx, timersKey, jobID.String()).Result()
	if err == goredis.Nil {
		return nil, stint.ErrTimerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stint/redis: get timer: %w", err)
	}
	return &alarm.Timer{
		JobID:  jobID,
		FireAt: time.UnixMilli(int64(score * 1000)).UTC(),
	}, nil
}

// DueTimers returns up to limit timers due at or before now, soonest
// first. Reading does not remove them.
func (s *Store) DueTimers(ctx context.Context, now time.Time, limit int) ([]*alarm.Timer, error) {
	members, err := s.client.ZRangeByScoreWithScores(ctx, timersKey, &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%f", timerScore(now)),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("stint/redis: due timers: %w", err)
	}

	timers := make([]*alarm.Timer, 0, len(members))
	for _, z := range members {
		raw, ok := z.Member.(string)
		if !ok {
			continue
		}
		jobID, err := id.ParseJobID(raw)
		if err != nil {
			s.logger.Warn("skipping malformed timer member")
			continue
		}
		timers = append(timers, &alarm.Timer{
			JobID:  jobID,
			FireAt: time.UnixMilli(int64(z.Score * 1000)).UTC(),
		})
	}
	return timers, nil
}

// ClearTimer removes the job from the timer Sorted Set.
func (s *Store) ClearTimer(ctx context.Context, jobID id.JobID) error {
	if err := s.client.ZRem(ctx, timersKey, jobID.String()).Err(); err != nil {
		return fmt.Errorf("stint/redis: clear timer: %w", err)
	}
	return nil
}
