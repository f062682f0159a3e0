package flow

import (
	"context"
	"fmt"
	"log/slog"
)

// Orchestrator resolves a completed job's workflow step and hands the
// job's outputs to the external flow interpreter.
type Orchestrator struct {
	graphs GraphSource
	interp Interpreter
	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(graphs GraphSource, interp Interpreter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{graphs: graphs, interp: interp, logger: logger}
}

// Dispatch resolves the binding's current step against the workflow graph
// and, when the step declares a continuation, invokes the interpreter.
//
// A nil binding, an empty path, an unknown step, or a step without a
// continuation all skip the handoff and return (nil, nil); none of these
// is an error. Graph fetch and interpreter errors propagate to the caller,
// which routes them into the job's failure path.
func (o *Orchestrator) Dispatch(ctx context.Context, b *Binding, hc *HandoffContext) (*Decision, error) {
	step := b.CurrentStep()
	if step == "" {
		return nil, nil
	}

	graph, err := o.graphs.StepGraph(ctx, b.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("fetch step graph for workflow %q: %w", b.WorkflowID, err)
	}

	s, ok := graph.Step(step)
	if !ok || s.Continuation == nil {
		o.logger.Debug("no continuation for step, skipping handoff",
			slog.String("workflow_id", b.WorkflowID),
			slog.String("step", step),
		)
		return nil, nil
	}

	decision, err := o.interp.Interpret(ctx, s.Continuation, hc)
	if err != nil {
		return nil, fmt.Errorf("interpret continuation for step %q: %w", step, err)
	}
	if decision == nil {
		return nil, nil
	}

	o.logger.Info("handoff dispatched",
		slog.String("workflow_id", b.WorkflowID),
		slog.String("step", step),
		slog.String("action", decision.Action),
		slog.String("target", decision.Target),
	)

	return decision, nil
}
