package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/id"
)

// CreateState persists a new job state.
func (s *Store) CreateState(ctx context.Context, st *actor.JobState) error {
	m := toStateModel(st)
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return stint.ErrJobAlreadyExists
		}
		return fmt.Errorf("stint/bun: create state: %w", err)
	}
	return nil
}

// GetState retrieves a job state by ID.
func (s *Store) GetState(ctx context.Context, jobID id.JobID) (*actor.JobState, error) {
	m := new(stateModel)
	err := s.db.NewSelect().Model(m).
		Where("job_id = ?", jobID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, stint.ErrJobNotFound
		}
		return nil, fmt.Errorf("stint/bun: get state: %w", err)
	}
	return fromStateModel(m)
}

// UpdateState persists changes to an existing job state.
func (s *Store) UpdateState(ctx context.Context, st *actor.JobState) error {
	m := toStateModel(st)
	res, err := s.db.NewUpdate().Model(m).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stint/bun: update state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return stint.ErrJobNotFound
	}
	return nil
}

// DeleteState removes a job state by ID.
func (s *Store) DeleteState(ctx context.Context, jobID id.JobID) error {
	_, err := s.db.NewDelete().Model((*stateModel)(nil)).
		Where("job_id = ?", jobID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stint/bun: delete state: %w", err)
	}
	return nil
}

// ListTerminalStates returns up to limit terminal states last updated
// before the given time, oldest first.
func (s *Store) ListTerminalStates(ctx context.Context, before time.Time, limit int) ([]*actor.JobState, error) {
	var models []stateModel
	err := s.db.NewSelect().Model(&models).
		Where("status IN ('done', 'error')").
		Where("updated_at < ?", before).
		Order("updated_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("stint/bun: list terminal states: %w", err)
	}

	states := make([]*actor.JobState, 0, len(models))
	for i := range models {
		st, convErr := fromStateModel(&models[i])
		if convErr != nil {
			return nil, convErr
		}
		states = append(states, st)
	}
	return states, nil
}

// SaveCheckpoint upserts the job's checkpoint.
func (s *Store) SaveCheckpoint(ctx context.Context, jobID id.JobID, data []byte) error {
	m := &checkpointModel{
		JobID:     jobID.String(),
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (job_id) DO UPDATE").
		Set("data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stint/bun: save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint retrieves the checkpoint bytes, (nil, nil) when absent.
func (s *Store) GetCheckpoint(ctx context.Context, jobID id.JobID) ([]byte, error) {
	m := new(checkpointModel)
	err := s.db.NewSelect().Model(m).
		Where("job_id = ?", jobID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stint/bun: get checkpoint: %w", err)
	}
	return m.Data, nil
}

// DeleteCheckpoint removes the checkpoint.
func (s *Store) DeleteCheckpoint(ctx context.Context, jobID id.JobID) error {
	_, err := s.db.NewDelete().Model((*checkpointModel)(nil)).
		Where("job_id = ?", jobID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stint/bun: delete checkpoint: %w", err)
	}
	return nil
}
