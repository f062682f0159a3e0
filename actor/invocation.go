package actor

import (
	"context"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xraph/stint/id"
)

// Invocation is the execution context passed to the processor on each
// resumption slice. It carries the same request and config every slice,
// checkpoint access scoped to this job, and a message sink collected into
// the job's log record on finalization.
type Invocation struct {
	jobID  id.JobID
	req    *Request
	cfg    *ExecConfig
	store  Store

	mu       sync.Mutex
	messages []string
}

// NewInvocation builds an Invocation. Called by the lifecycle controller,
// not by users.
func NewInvocation(jobID id.JobID, req *Request, cfg *ExecConfig, store Store) *Invocation {
	return &Invocation{jobID: jobID, req: req, cfg: cfg, store: store}
}

// JobID returns the job's ID.
func (inv *Invocation) JobID() id.JobID { return inv.jobID }

// Request returns the decoded job request. The same value every slice.
func (inv *Invocation) Request() *Request { return inv.req }

// Config returns the decoded execution configuration.
func (inv *Invocation) Config() *ExecConfig { return inv.cfg }

// Log appends a message to the job's log sink. Messages accumulate across
// a slice and are written into the log record when the job finalizes.
func (inv *Invocation) Log(format string, args ...any) {
	inv.mu.Lock()
	inv.messages = append(inv.messages, fmt.Sprintf(format, args...))
	inv.mu.Unlock()
}

// Messages returns a copy of the accumulated log messages.
func (inv *Invocation) Messages() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]string, len(inv.messages))
	copy(out, inv.messages)
	return out
}

// SaveCheckpoint persists raw checkpoint data for this job, replacing any
// previous checkpoint.
func (inv *Invocation) SaveCheckpoint(ctx context.Context, data []byte) error {
	return inv.store.SaveCheckpoint(ctx, inv.jobID, data)
}

// LoadCheckpoint retrieves this job's raw checkpoint data. Returns
// (nil, nil) when no checkpoint exists — the first slice of a job.
func (inv *Invocation) LoadCheckpoint(ctx context.Context) ([]byte, error) {
	return inv.store.GetCheckpoint(ctx, inv.jobID)
}

// ClearCheckpoint removes this job's checkpoint. Processors must call
// this on successful full completion.
func (inv *Invocation) ClearCheckpoint(ctx context.Context) error {
	return inv.store.DeleteCheckpoint(ctx, inv.jobID)
}

// SaveCheckpointValue serializes v via msgpack and saves it as this job's
// checkpoint.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func SaveCheckpointValue[T any](ctx context.Context, inv *Invocation, v T) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode checkpoint for job %s: %w", inv.jobID, err)
	}
	return inv.SaveCheckpoint(ctx, data)
}

// LoadCheckpointValue deserializes this job's checkpoint into T. The
// second return value reports whether a checkpoint existed.
func LoadCheckpointValue[T any](ctx context.Context, inv *Invocation) (T, bool, error) {
	var zero T

	data, err := inv.LoadCheckpoint(ctx)
	if err != nil {
		return zero, false, err
	}
	if data == nil {
		return zero, false, nil
	}

	var v T
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return zero, false, fmt.Errorf("decode checkpoint for job %s: %w", inv.jobID, err)
	}
	return v, true, nil
}
