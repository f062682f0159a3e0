package audithook

// Audit event actions. Each constant corresponds to one hook lifecycle
// event and becomes the Action field of the audit event.
const (
	ActionJobAccepted       = "job.accepted"
	ActionJobResumed        = "job.resumed"
	ActionJobContinued      = "job.continued"
	ActionJobCompleted      = "job.completed"
	ActionJobFailed         = "job.failed"
	ActionHandoffDispatched = "job.handoff_dispatched"
)

// Audit event categories group related actions.
const (
	CategoryJob     = "stint.job"
	CategoryHandoff = "stint.handoff"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceJob     = "job"
	ResourceHandoff = "handoff"
)

// AllActions returns every action this hook can emit.
func AllActions() []string {
	return []string{
		ActionJobAccepted,
		ActionJobResumed,
		ActionJobContinued,
		ActionJobCompleted,
		ActionJobFailed,
		ActionHandoffDispatched,
	}
}
