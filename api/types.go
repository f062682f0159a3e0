package api

import "encoding/json"

// StartJobRequest is the body of a start-job call. Request and Config are
// passed through to the processor verbatim.
type StartJobRequest struct {
	Request json.RawMessage `json:"request"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// StartJobResponse acknowledges job acceptance.
type StartJobResponse struct {
	Accepted bool   `json:"accepted"`
	JobID    string `json:"jobId"`
}

// GetJobStatusRequest is the (empty) request for the status endpoint; the
// job ID comes from the path.
type GetJobStatusRequest struct{}

// GetJobLogRequest is the (empty) request for the job log endpoint.
type GetJobLogRequest struct{}

// JobLogResponse is the stored execution log record of a job.
type JobLogResponse struct {
	LogFileID  string         `json:"logFileId"`
	Properties map[string]any `json:"properties"`
}

// HealthResponse reports backing store health.
type HealthResponse struct {
	Status string `json:"status"`
}
