package actor

import (
	"context"
	"time"

	"github.com/xraph/stint/id"
)

// Store defines the persistence contract for job actor state and
// checkpoints. One JobState and at most one checkpoint exist per job ID;
// the job ID partitions the state space, so no cross-actor locking is
// required of implementations beyond per-call atomicity.
type Store interface {
	// CreateState persists a new JobState. Returns
	// stint.ErrJobAlreadyExists when a state already exists for the ID.
	CreateState(ctx context.Context, st *JobState) error

	// GetState retrieves a JobState by job ID. Returns
	// stint.ErrJobNotFound when absent.
	GetState(ctx context.Context, jobID id.JobID) (*JobState, error)

	// UpdateState persists changes to an existing JobState.
	UpdateState(ctx context.Context, st *JobState) error

	// DeleteState removes a JobState by job ID.
	DeleteState(ctx context.Context, jobID id.JobID) error

	// ListTerminalStates returns up to limit states in a terminal status
	// whose last update is older than the given time. Used by the
	// retention sweeper.
	ListTerminalStates(ctx context.Context, before time.Time, limit int) ([]*JobState, error)

	// SaveCheckpoint persists the job's checkpoint, replacing any
	// previous one. The data is opaque to the store.
	SaveCheckpoint(ctx context.Context, jobID id.JobID, data []byte) error

	// GetCheckpoint retrieves the job's checkpoint data. A missing
	// checkpoint is (nil, nil), not an error.
	GetCheckpoint(ctx context.Context, jobID id.JobID) ([]byte, error)

	// DeleteCheckpoint removes the job's checkpoint. Deleting a missing
	// checkpoint is a no-op.
	DeleteCheckpoint(ctx context.Context, jobID id.JobID) error
}
