// Package observability provides a metrics hook for Stint. The
// MetricsHook implements lifecycle hooks to record system-wide counters
// for job acceptance, resumption, continuation, completion, failure, and
// handoff events.
//
// For per-slice tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
