package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/stint/actor"
)

// Logging returns middleware that logs slice start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, st *actor.JobState, next Handler) error {
		logger.Info("resumption slice started",
			slog.String("job_id", st.JobID.String()),
			slog.String("status", string(st.Status)),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("resumption slice failed",
				slog.String("job_id", st.JobID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("resumption slice finished",
				slog.String("job_id", st.JobID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
