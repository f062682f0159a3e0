// Package stint provides a durable per-job actor runtime for Go. A job is
// submitted once, persisted, and driven to completion through a series of
// time-bounded execution slices, each triggered by a durable resumption
// timer. The embedded processor checkpoints partial progress between slices,
// so a job survives process restarts and involuntary slice termination.
//
// Stint is designed as a library, not a service. Import it, configure a
// store, register a processor per job kind, and start jobs.
//
// # Quick Start
//
//	rt, err := stint.New(
//	    stint.WithStore(memStore),
//	    stint.WithLogger(logger),
//	)
//
// # Architecture
//
// Stint follows a composable store pattern where each subsystem (actor,
// alarm, content) defines its own store interface. A single backend
// implements all of them.
//
// The lifecycle controller lives in the runner package; the engine package
// wires the controller, the alarm poller, the handoff orchestrator, and the
// log recorder together.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package stint
