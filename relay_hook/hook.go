package relayhook

import (
	"context"
	"time"

	"github.com/xraph/relay"
	"github.com/xraph/relay/event"

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

// Hook bridges Stint lifecycle events to Relay for webhook delivery.
// Each lifecycle event emits a typed event via [relay.Relay.Send].
type Hook struct {
	relay    *relay.Relay
	enabled  map[string]bool        // nil = all enabled
	payloads map[string]PayloadFunc // custom payload builders
	tenant   func(agentID string) string
}

// New creates a Hook that emits Stint lifecycle events through the
// provided Relay instance.
func New(r *relay.Relay, opts ...Option) *Hook {
	h := &Hook{relay: r}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "relay-hook" }

// OnJobAccepted implements hook.JobAccepted.
func (h *Hook) OnJobAccepted(ctx context.Context, st *actor.JobState) error {
	return h.send(ctx, EventJobAccepted, h.tenantFor(st), newJobPayload(st))
}

// OnJobResumed implements hook.JobResumed.
func (h *Hook) OnJobResumed(ctx context.Context, st *actor.JobState) error {
	return h.send(ctx, EventJobResumed, h.tenantFor(st), newJobPayload(st))
}

// OnJobContinued implements hook.JobContinued.
func (h *Hook) OnJobContinued(ctx context.Context, st *actor.JobState, nextAt time.Time) error {
	return h.send(ctx, EventJobContinued, h.tenantFor(st), &jobContinuedPayload{
		jobPayload:   *newJobPayload(st),
		NextResumeAt: nextAt.Format(time.RFC3339),
	})
}

// OnJobCompleted implements hook.JobCompleted.
func (h *Hook) OnJobCompleted(ctx context.Context, st *actor.JobState, outputs []string, elapsed time.Duration) error {
	return h.send(ctx, EventJobCompleted, h.tenantFor(st), &jobCompletedPayload{
		jobPayload: *newJobPayload(st),
		Outputs:    outputs,
		ElapsedMs:  elapsed.Milliseconds(),
	})
}

// OnJobFailed implements hook.JobFailed.
func (h *Hook) OnJobFailed(ctx context.Context, st *actor.JobState, jobErr error) error {
	return h.send(ctx, EventJobFailed, h.tenantFor(st), &jobFailedPayload{
		jobPayload: *newJobPayload(st),
		Error:      jobErr.Error(),
	})
}

// OnHandoffDispatched implements hook.HandoffDispatched.
func (h *Hook) OnHandoffDispatched(ctx context.Context, jobID id.JobID, decision *flow.Decision) error {
	return h.send(ctx, EventHandoffDispatched, "", &handoffPayload{
		JobID:      jobID.String(),
		Action:     decision.Action,
		Target:     decision.Target,
		TargetType: decision.TargetType,
	})
}

// send emits an event through Relay if the event type is enabled.
func (h *Hook) send(ctx context.Context, eventType, tenantID string, defaultData any) error {
	if h.enabled != nil && !h.enabled[eventType] {
		return nil
	}

	data := defaultData
	if fn, ok := h.payloads[eventType]; ok {
		custom, err := fn(defaultData)
		if err != nil {
			return err
		}
		data = custom
	}

	return h.relay.Send(ctx, &event.Event{
		Type:     eventType,
		TenantID: tenantID,
		Data:     data,
	})
}

// tenantFor derives the webhook tenant from the job's execution config.
func (h *Hook) tenantFor(st *actor.JobState) string {
	cfg, err := st.DecodeConfig()
	if err != nil {
		return ""
	}
	if h.tenant != nil {
		return h.tenant(cfg.AgentID)
	}
	return cfg.AgentID
}

// Default payload types.

type jobPayload struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	LogFileID string `json:"log_file_id,omitempty"`
}

func newJobPayload(st *actor.JobState) *jobPayload {
	return &jobPayload{
		JobID:     st.JobID.String(),
		Status:    string(st.Status),
		LogFileID: st.LogFileID,
	}
}

type jobContinuedPayload struct {
	jobPayload
	NextResumeAt string `json:"next_resume_at"`
}

type jobCompletedPayload struct {
	jobPayload
	Outputs   []string `json:"outputs,omitempty"`
	ElapsedMs int64    `json:"elapsed_ms"`
}

type jobFailedPayload struct {
	jobPayload
	Error string `json:"error"`
}

type handoffPayload struct {
	JobID      string `json:"job_id"`
	Action     string `json:"action"`
	Target     string `json:"target"`
	TargetType string `json:"target_type"`
}
