package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/id"
)

// Named entry types pair a hook implementation with the hook name
// captured at registration time. This avoids type-asserting back to
// Hook inside the emit methods.
type jobAcceptedEntry struct {
	name string
	hook JobAccepted
}

type jobResumedEntry struct {
	name string
	hook JobResumed
}

type jobContinuedEntry struct {
	name string
	hook JobContinued
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type jobFailedEntry struct {
	name string
	hook JobFailed
}

type handoffDispatchedEntry struct {
	name string
	hook HandoffDispatched
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered hooks and dispatches lifecycle events to
// them. It type-caches hooks at registration time so emit calls iterate
// only over hooks that implement the relevant event.
type Registry struct {
	hooks  []Hook
	logger *slog.Logger

	// Type-cached slices for each lifecycle event.
	jobAccepted       []jobAcceptedEntry
	jobResumed        []jobResumedEntry
	jobContinued      []jobContinuedEntry
	jobCompleted      []jobCompletedEntry
	jobFailed         []jobFailedEntry
	handoffDispatched []handoffDispatchedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable event
// caches. Hooks are notified in registration order.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
	name := h.Name()

	if hk, ok := h.(JobAccepted); ok {
		r.jobAccepted = append(r.jobAccepted, jobAcceptedEntry{name, hk})
	}
	if hk, ok := h.(JobResumed); ok {
		r.jobResumed = append(r.jobResumed, jobResumedEntry{name, hk})
	}
	if hk, ok := h.(JobContinued); ok {
		r.jobContinued = append(r.jobContinued, jobContinuedEntry{name, hk})
	}
	if hk, ok := h.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, hk})
	}
	if hk, ok := h.(JobFailed); ok {
		r.jobFailed = append(r.jobFailed, jobFailedEntry{name, hk})
	}
	if hk, ok := h.(HandoffDispatched); ok {
		r.handoffDispatched = append(r.handoffDispatched, handoffDispatchedEntry{name, hk})
	}
	if hk, ok := h.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, hk})
	}
}

// Hooks returns all registered hooks.
func (r *Registry) Hooks() []Hook { return r.hooks }

// EmitJobAccepted notifies all hooks that implement JobAccepted.
func (r *Registry) EmitJobAccepted(ctx context.Context, st *actor.JobState) {
	for _, e := range r.jobAccepted {
		if err := e.hook.OnJobAccepted(ctx, st); err != nil {
			r.logHookError("OnJobAccepted", e.name, err)
		}
	}
}

// EmitJobResumed notifies all hooks that implement JobResumed.
func (r *Registry) EmitJobResumed(ctx context.Context, st *actor.JobState) {
	for _, e := range r.jobResumed {
		if err := e.hook.OnJobResumed(ctx, st); err != nil {
			r.logHookError("OnJobResumed", e.name, err)
		}
	}
}

// EmitJobContinued notifies all hooks that implement JobContinued.
func (r *Registry) EmitJobContinued(ctx context.Context, st *actor.JobState, nextAt time.Time) {
	for _, e := range r.jobContinued {
		if err := e.hook.OnJobContinued(ctx, st, nextAt); err != nil {
			r.logHookError("OnJobContinued", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all hooks that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, st *actor.JobState, outputs []string, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, st, outputs, elapsed); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitJobFailed notifies all hooks that implement JobFailed.
func (r *Registry) EmitJobFailed(ctx context.Context, st *actor.JobState, jobErr error) {
	for _, e := range r.jobFailed {
		if err := e.hook.OnJobFailed(ctx, st, jobErr); err != nil {
			r.logHookError("OnJobFailed", e.name, err)
		}
	}
}

// EmitHandoffDispatched notifies all hooks that implement HandoffDispatched.
func (r *Registry) EmitHandoffDispatched(ctx context.Context, jobID id.JobID, decision *flow.Decision) {
	for _, e := range r.handoffDispatched {
		if err := e.hook.OnHandoffDispatched(ctx, jobID, decision); err != nil {
			r.logHookError("OnHandoffDispatched", e.name, err)
		}
	}
}

// EmitShutdown notifies all hooks that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a hook error without interrupting the lifecycle.
// Hook failures never affect job outcomes.
func (r *Registry) logHookError(event, name string, err error) {
	r.logger.Warn("hook error",
		slog.String("event", event),
		slog.String("hook", name),
		slog.String("error", err.Error()),
	)
}
