// Package hook defines the lifecycle hook system for Stint.
// Hooks are notified of lifecycle events (job accepted, resumed,
// completed, failed, handed off) and can react to them — logging,
// metrics, audit, etc.
//
// Each lifecycle event is a separate interface so hooks opt in only
// to the events they care about.
package hook

import (
	"context"
	"time"

	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/id"
)

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// JobAccepted is called after a job's start request is accepted and its
// state persisted.
type JobAccepted interface {
	OnJobAccepted(ctx context.Context, st *actor.JobState) error
}

// JobResumed is called when a resumption slice begins.
type JobResumed interface {
	OnJobResumed(ctx context.Context, st *actor.JobState) error
}

// JobContinued is called when a slice ends with a continue outcome and
// the next resumption has been scheduled.
type JobContinued interface {
	OnJobContinued(ctx context.Context, st *actor.JobState, nextAt time.Time) error
}

// JobCompleted is called after a job finishes successfully.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, st *actor.JobState, outputs []string, elapsed time.Duration) error
}

// JobFailed is called when a job fails terminally.
type JobFailed interface {
	OnJobFailed(ctx context.Context, st *actor.JobState, err error) error
}

// HandoffDispatched is called after the flow interpreter has routed a
// completed job's outputs.
type HandoffDispatched interface {
	OnHandoffDispatched(ctx context.Context, jobID id.JobID, decision *flow.Decision) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
