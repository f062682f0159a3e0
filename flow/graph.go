package flow

import (
	"context"
	"encoding/json"
	"time"
)

// Continuation is the directive a workflow step declares for what happens
// after the step's job completes. Its Directive payload is opaque to Stint;
// only the external interpreter reads it.
type Continuation struct {
	Kind      string          `json:"kind"`
	Directive json.RawMessage `json:"directive"`
}

// Step is one node of a workflow graph.
type Step struct {
	Name         string        `json:"name"`
	Continuation *Continuation `json:"continuation,omitempty"`
}

// Graph is the step graph of one workflow.
type Graph struct {
	WorkflowID string `json:"workflow_id"`
	Steps      []Step `json:"steps"`
}

// Step returns the named step, if present.
func (g *Graph) Step(name string) (*Step, bool) {
	for i := range g.Steps {
		if g.Steps[i].Name == name {
			return &g.Steps[i], true
		}
	}
	return nil, false
}

// GraphSource fetches workflow step graphs. External collaborator.
type GraphSource interface {
	StepGraph(ctx context.Context, workflowID string) (*Graph, error)
}

// Batch carries fan-out context when the job is one branch of a
// fan-out step.
type Batch struct {
	GroupID string `json:"group_id"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
}

// Binding records a job's position inside a workflow. The last Path
// segment names the job's current step.
type Binding struct {
	WorkflowID  string            `json:"workflow_id"`
	AgentID     string            `json:"agent_id"`
	Path        []string          `json:"path"`
	Collections map[string]string `json:"collections,omitempty"`
	Batch       *Batch            `json:"batch,omitempty"`
}

// CurrentStep returns the step name the job occupies: the last segment
// of the workflow path. Empty when the binding has no path.
func (b *Binding) CurrentStep() string {
	if b == nil || len(b.Path) == 0 {
		return ""
	}
	return b.Path[len(b.Path)-1]
}

// HandoffRecord describes one handoff appended to the job's log after
// the interpreter has routed the outputs.
type HandoffRecord struct {
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	TargetType string    `json:"target_type"`
	At         time.Time `json:"at"`
}
