// Package audithook is a Stint hook that bridges job lifecycle events
// to an immutable audit trail backend such as Chronicle.
//
// Every lifecycle event emits a structured audit event through the
// [Recorder] interface. The hook assigns appropriate severity levels
// (info for normal operations, critical for terminal failures) and rich
// metadata (job kind, slice count, elapsed time, errors).
//
// # Usage with Chronicle
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return chronicle.Info(ctx, evt.Action, evt.Resource, evt.ResourceID).
//	        Category(evt.Category).
//	        Outcome(evt.Outcome).
//	        Record()
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionJobFailed,
//	        audithook.ActionJobCompleted,
//	    ),
//	)
package audithook
