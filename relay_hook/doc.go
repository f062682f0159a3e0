// Package relayhook bridges Stint lifecycle events to Relay for webhook
// delivery. When registered as a hook, it emits typed webhook events
// (stint.job.completed, stint.job.failed, etc.) at every lifecycle point.
//
// Usage:
//
//	r, _ := relay.New(relay.WithStore(store))
//	relayhook.RegisterAll(ctx, r)
//
//	engine.WithHook(relayhook.New(r))
//
// To restrict which events are emitted:
//
//	relayhook.New(r,
//	    relayhook.WithEvents(
//	        relayhook.EventJobCompleted,
//	        relayhook.EventJobFailed,
//	    ),
//	)
package relayhook
