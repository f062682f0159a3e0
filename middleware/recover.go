package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/stint/actor"
)

// Recover returns middleware that recovers from panics in the processor
// chain. Panics are converted to errors and logged with a stack trace, so
// a panicking slice lands on the job's failure path instead of crashing
// the poller.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, st *actor.JobState, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("processor panicked",
					slog.String("job_id", st.JobID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in job %s: %v", st.JobID, r)
			}
		}()
		return next(ctx)
	}
}
