package flow

import (
	"context"

	"github.com/xraph/stint/id"
)

// HandoffContext bundles everything the external interpreter needs to
// route a completed job's outputs to the next workflow step.
type HandoffContext struct {
	Outputs     []string          `json:"outputs"`
	WorkflowID  string            `json:"workflow_id"`
	AgentID     string            `json:"agent_id"`
	JobID       id.JobID          `json:"job_id"`
	Collections map[string]string `json:"collections,omitempty"`
	LogFileID   string            `json:"log_file_id,omitempty"`
	Path        []string          `json:"path"`
	Batch       *Batch            `json:"batch,omitempty"`
	Token       string            `json:"-"`
}

// Decision is the interpreter's verdict: what action the flow graph takes
// with the outputs, and optionally a record to append to the job's log.
type Decision struct {
	Action        string         `json:"action"`
	Target        string         `json:"target"`
	TargetType    string         `json:"target_type"`
	HandoffRecord *HandoffRecord `json:"handoff_record,omitempty"`
}

// Interpreter resolves a continuation directive against a handoff context.
// External collaborator.
type Interpreter interface {
	Interpret(ctx context.Context, c *Continuation, hc *HandoffContext) (*Decision, error)
}

// InterpreterFunc adapts a function to the Interpreter interface.
type InterpreterFunc func(ctx context.Context, c *Continuation, hc *HandoffContext) (*Decision, error)

// Interpret implements Interpreter.
func (f InterpreterFunc) Interpret(ctx context.Context, c *Continuation, hc *HandoffContext) (*Decision, error) {
	return f(ctx, c, hc)
}
