package actor

import (
	"context"
	"sync"
)

// Outcome is the processor's verdict for one resumption slice.
type Outcome string

const (
	// OutcomeContinue means the processor checkpointed partial progress
	// and needs another resumption to finish.
	OutcomeContinue Outcome = "continue"
	// OutcomeDone means the job is fully complete and Outputs holds the
	// produced entity references.
	OutcomeDone Outcome = "done"
)

// Result is the successful return of one resumption slice. Failure is an
// ordinary error return from Process; the controller maps it to the job's
// failure path.
type Result struct {
	Outcome Outcome
	Outputs []string
}

// Continue signals the processor needs another resumption slice.
func Continue() Result {
	return Result{Outcome: OutcomeContinue}
}

// Done signals full completion with the produced outputs.
func Done(outputs ...string) Result {
	return Result{Outcome: OutcomeDone, Outputs: outputs}
}

// Processor is the pluggable business-processing step the controller
// invokes on each resumption. Implementations must be resumption-safe:
// given the checkpoint left by a prior slice (or none on the first run),
// determine exactly how much work remains and never redo committed side
// effects. A processor approaching its slice time budget checkpoints and
// returns Continue(); on full completion it clears its checkpoint and
// returns Done(outputs...).
type Processor interface {
	Process(ctx context.Context, inv *Invocation) (Result, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, inv *Invocation) (Result, error)

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, inv *Invocation) (Result, error) {
	return f(ctx, inv)
}

// Registry maps job kinds to processors. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	procs map[string]Processor
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]Processor)}
}

// Register binds a processor to a job kind, replacing any previous
// binding for that kind.
func (r *Registry) Register(kind string, p Processor) {
	r.mu.Lock()
	r.procs[kind] = p
	r.mu.Unlock()
}

// Get returns the processor for a job kind.
func (r *Registry) Get(kind string) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[kind]
	return p, ok
}

// Kinds returns all registered job kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.procs))
	for k := range r.procs {
		kinds = append(kinds, k)
	}
	return kinds
}
