package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/hook"
	"github.com/xraph/stint/id"
)

// Compile-time interface checks.
var (
	_ hook.Hook              = (*Hook)(nil)
	_ hook.JobAccepted       = (*Hook)(nil)
	_ hook.JobResumed        = (*Hook)(nil)
	_ hook.JobContinued      = (*Hook)(nil)
	_ hook.JobCompleted      = (*Hook)(nil)
	_ hook.JobFailed         = (*Hook)(nil)
	_ hook.HandoffDispatched = (*Hook)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audithook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
// Callers provide a RecorderFunc adapter that bridges to their audit backend.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants (mirror chronicle/audit).
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants (mirror chronicle/audit).
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Hook bridges Stint lifecycle events to an audit trail backend.
// Each lifecycle event emits a structured audit event through the [Recorder].
type Hook struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates a Hook that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Hook {
	h := &Hook{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "audit-hook" }

// OnJobAccepted implements hook.JobAccepted.
func (h *Hook) OnJobAccepted(ctx context.Context, st *actor.JobState) error {
	return h.record(ctx, ActionJobAccepted, SeverityInfo, OutcomeSuccess,
		ResourceJob, st.JobID.String(), CategoryJob, nil,
		"status", string(st.Status),
	)
}

// OnJobResumed implements hook.JobResumed.
func (h *Hook) OnJobResumed(ctx context.Context, st *actor.JobState) error {
	return h.record(ctx, ActionJobResumed, SeverityInfo, OutcomeSuccess,
		ResourceJob, st.JobID.String(), CategoryJob, nil,
		"status", string(st.Status),
	)
}

// OnJobContinued implements hook.JobContinued.
func (h *Hook) OnJobContinued(ctx context.Context, st *actor.JobState, nextAt time.Time) error {
	return h.record(ctx, ActionJobContinued, SeverityInfo, OutcomeSuccess,
		ResourceJob, st.JobID.String(), CategoryJob, nil,
		"next_resume_at", nextAt.Format(time.RFC3339),
	)
}

// OnJobCompleted implements hook.JobCompleted.
func (h *Hook) OnJobCompleted(ctx context.Context, st *actor.JobState, outputs []string, elapsed time.Duration) error {
	return h.record(ctx, ActionJobCompleted, SeverityInfo, OutcomeSuccess,
		ResourceJob, st.JobID.String(), CategoryJob, nil,
		"log_file_id", st.LogFileID,
		"outputs", len(outputs),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnJobFailed implements hook.JobFailed.
func (h *Hook) OnJobFailed(ctx context.Context, st *actor.JobState, jobErr error) error {
	return h.record(ctx, ActionJobFailed, SeverityCritical, OutcomeFailure,
		ResourceJob, st.JobID.String(), CategoryJob, jobErr,
		"log_file_id", st.LogFileID,
	)
}

// OnHandoffDispatched implements hook.HandoffDispatched.
func (h *Hook) OnHandoffDispatched(ctx context.Context, jobID id.JobID, decision *flow.Decision) error {
	return h.record(ctx, ActionHandoffDispatched, SeverityInfo, OutcomeSuccess,
		ResourceHandoff, jobID.String(), CategoryHandoff, nil,
		"action", decision.Action,
		"target", decision.Target,
		"target_type", decision.TargetType,
	)
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (h *Hook) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if h.enabled != nil && !h.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := h.recorder.Record(ctx, evt); recErr != nil {
		h.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
