// Package runner implements the job lifecycle controller: idempotent
// start, status queries, and the alarm-driven resumption loop that moves
// a job from accepted through processing to done or error.
//
// The controller serializes all operations per job with a keyed mutex,
// so a job never runs two resumption slices at once even when the alarm
// poller and an API call race. Different jobs proceed independently.
package runner
