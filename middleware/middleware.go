// Package middleware provides composable middleware for resumption slices.
// Middleware wraps processor invocations synchronously and can modify
// execution (recover from panics, log, enforce a slice budget, add
// tracing, etc.).
package middleware

import (
	"context"

	"github.com/xraph/stint/actor"
)

// Handler is the terminal function that executes the processor slice.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the job state being resumed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, st *actor.JobState, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, st *actor.JobState, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, st, prev)
			}
		}
		return h(ctx)
	}
}
