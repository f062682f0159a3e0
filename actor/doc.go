// Package actor defines the persisted state of a durable job actor: the
// per-job state machine record, the checkpoint the processor uses to
// resume mid-task, the persistence contract, and the processor invocation
// types. The lifecycle controller that drives these lives in the runner
// package.
package actor
