package joblog

import (
	"context"
	"time"

	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/id"
)

// Status is the terminal-or-running status of a job log record.
type Status string

const (
	// StatusRunning means the job is still processing.
	StatusRunning Status = "running"
	// StatusDone means the job finished successfully.
	StatusDone Status = "done"
	// StatusError means the job failed.
	StatusError Status = "error"
)

// Entry describes the job a log record belongs to. Written once, before
// the record is finalized.
type Entry struct {
	JobID      id.JobID  `json:"job_id"`
	LogID      id.LogID  `json:"log_id"`
	Kind       string    `json:"kind"`
	AgentID    string    `json:"agent_id,omitempty"`
	WorkflowID string    `json:"workflow_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// Recorder writes and finalizes job log records. The returned log file ID
// identifies the persisted record; it is written into the job's state and
// never changes afterwards.
type Recorder interface {
	// WriteInitial persists the initial log record for a job and returns
	// its log file ID. Called at most once per job.
	WriteInitial(ctx context.Context, e *Entry, messages []string) (string, error)

	// UpdateStatus finalizes the record to the given status with the
	// accumulated messages.
	UpdateStatus(ctx context.Context, logFileID string, status Status, messages []string) error

	// RecordFailure finalizes the record as failed, capturing the error
	// and any fan-out batch context.
	RecordFailure(ctx context.Context, logFileID string, batch *flow.Batch, jobErr error, messages []string) error

	// AppendHandoffRecords appends workflow handoff records to the log.
	AppendHandoffRecords(ctx context.Context, logFileID string, records []flow.HandoffRecord) error
}
