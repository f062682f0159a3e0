package actor

import (
	"encoding/json"
	"fmt"

	"github.com/xraph/stint"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/id"
)

// Status is the lifecycle status of a job actor.
type Status string

const (
	// StatusAccepted means the job was accepted and is waiting for its
	// first resumption.
	StatusAccepted Status = "accepted"
	// StatusProcessing means at least one resumption slice has started.
	StatusProcessing Status = "processing"
	// StatusDone means the job finished successfully. Terminal.
	StatusDone Status = "done"
	// StatusError means the job failed. Terminal; failed jobs are not
	// retried automatically.
	StatusError Status = "error"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// JobState is the single durable record of one job actor. Request and
// Config are opaque at the storage boundary and immutable after creation;
// LogFileID is set at most once.
type JobState struct {
	stint.Entity

	JobID     id.JobID `json:"job_id"`
	Request   []byte   `json:"request"`
	Config    []byte   `json:"config"`
	LogID     id.LogID `json:"log_id"`
	LogFileID string   `json:"log_file_id,omitempty"`
	Status    Status   `json:"status"`
	Error     string   `json:"error,omitempty"`
}

// Request is the decoded shape of a job's request payload. The controller
// stores it as opaque bytes; the processor, the log recorder, and the
// handoff orchestrator interpret it.
type Request struct {
	// Kind selects the registered processor.
	Kind string `json:"kind"`
	// Target references the entity the job operates on.
	Target string `json:"target,omitempty"`
	// Collections maps routing roles to collection identifiers.
	Collections map[string]string `json:"collections,omitempty"`
	// Workflow is set when the job occupies a step of a workflow.
	Workflow *flow.Binding `json:"workflow,omitempty"`
	// Payload carries processor-specific input.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ExecConfig is the decoded shape of a job's execution configuration.
type ExecConfig struct {
	AgentID string `json:"agent_id"`
	Version string `json:"version,omitempty"`
	Token   string `json:"token,omitempty"`
}

// DecodeRequest parses the state's opaque request payload. A request
// without a kind is invalid: there is no processor to route it to.
func (st *JobState) DecodeRequest() (*Request, error) {
	var req Request
	if err := json.Unmarshal(st.Request, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", stint.ErrInvalidRequest, err)
	}
	if req.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind", stint.ErrInvalidRequest)
	}
	return &req, nil
}

// DecodeConfig parses the state's opaque execution configuration.
func (st *JobState) DecodeConfig() (*ExecConfig, error) {
	if len(st.Config) == 0 {
		return &ExecConfig{}, nil
	}
	var cfg ExecConfig
	if err := json.Unmarshal(st.Config, &cfg); err != nil {
		return nil, fmt.Errorf("%w: config: %v", stint.ErrInvalidRequest, err)
	}
	return &cfg, nil
}

// StatusReport is the answer to a status query.
type StatusReport struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}
