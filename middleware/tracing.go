package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/stint/actor"
)

// tracerName is the instrumentation scope name for stint tracing.
const tracerName = "github.com/xraph/stint"

// Tracing returns middleware that wraps each resumption slice in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a pass-through
// with zero overhead.
//
// Span attributes include: stint.job.id, stint.job.status. On error, the
// span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, st *actor.JobState, next Handler) error {
		ctx, span := tracer.Start(ctx, "stint.job.resume",
			trace.WithAttributes(
				attribute.String("stint.job.id", st.JobID.String()),
				attribute.String("stint.job.status", string(st.Status)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
