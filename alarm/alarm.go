package alarm

import (
	"context"
	"time"

	"github.com/xraph/stint/id"
)

// Timer is a durable wake-up for a single job. At most one Timer exists
// per job ID.
type Timer struct {
	JobID  id.JobID  `json:"jobId"`
	FireAt time.Time `json:"fireAt"`
}

// Store defines the persistence contract for timers.
type Store interface {
	// SetTimer persists a timer for the job, replacing any existing one.
	SetTimer(ctx context.Context, t *Timer) error

	// GetTimer retrieves the job's pending timer. Returns
	// stint.ErrTimerNotFound when no timer is set.
	GetTimer(ctx context.Context, jobID id.JobID) (*Timer, error)

	// DueTimers returns up to limit timers whose FireAt is at or before
	// now, ordered soonest first. Reading does not remove them: a timer
	// stays due until ClearTimer or a replacing SetTimer.
	DueTimers(ctx context.Context, now time.Time, limit int) ([]*Timer, error)

	// ClearTimer removes the job's timer. Clearing a missing timer is a
	// no-op.
	ClearTimer(ctx context.Context, jobID id.JobID) error
}
