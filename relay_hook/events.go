package relayhook

import (
	"context"

	"github.com/xraph/relay"
	"github.com/xraph/relay/catalog"
)

// Stint lifecycle event types. Each constant maps to one hook lifecycle
// event and is used as the event.Event.Type when sending via Relay.
const (
	EventJobAccepted       = "stint.job.accepted"
	EventJobResumed        = "stint.job.resumed"
	EventJobContinued      = "stint.job.continued"
	EventJobCompleted      = "stint.job.completed"
	EventJobFailed         = "stint.job.failed"
	EventHandoffDispatched = "stint.job.handoff_dispatched"
)

// AllDefinitions returns webhook definitions for all Stint lifecycle
// event types. Pass these to relay.RegisterEventType to populate the catalog.
func AllDefinitions() []catalog.WebhookDefinition {
	return []catalog.WebhookDefinition{
		{
			Name:        EventJobAccepted,
			Description: "Fired when a job start request is accepted and persisted.",
			Group:       "jobs",
			Version:     "2025-01-01",
		},
		{
			Name:        EventJobResumed,
			Description: "Fired when a resumption slice begins executing.",
			Group:       "jobs",
			Version:     "2025-01-01",
		},
		{
			Name:        EventJobContinued,
			Description: "Fired when a slice checkpoints and schedules the next resumption.",
			Group:       "jobs",
			Version:     "2025-01-01",
		},
		{
			Name:        EventJobCompleted,
			Description: "Fired when a job finishes successfully.",
			Group:       "jobs",
			Version:     "2025-01-01",
		},
		{
			Name:        EventJobFailed,
			Description: "Fired when a job fails terminally.",
			Group:       "jobs",
			Version:     "2025-01-01",
		},
		{
			Name:        EventHandoffDispatched,
			Description: "Fired when a completed job's outputs are routed onward in a workflow.",
			Group:       "workflows",
			Version:     "2025-01-01",
		},
	}
}

// RegisterAll registers all Stint webhook event types in the Relay catalog.
// Call this once during application startup before sending events.
func RegisterAll(ctx context.Context, r *relay.Relay) error {
	for _, def := range AllDefinitions() {
		if _, err := r.RegisterEventType(ctx, def); err != nil {
			return err
		}
	}
	return nil
}
