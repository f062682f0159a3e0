package middleware

import (
	"context"
	"time"

	"github.com/xraph/stint/actor"
)

// Timeout returns middleware that caps a single resumption slice at d.
// Processors are expected to checkpoint and request continuation well
// before any hard platform budget; this cap backstops a slice that fails
// to do so. When the deadline is exceeded the context is cancelled and
// the processor should return context.DeadlineExceeded.
//
// A zero duration disables the cap.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *actor.JobState, next Handler) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
