package sqlite

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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stint_jobs (job_id, request, config, log_id, log_file_id, status, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.JobID.String(), st.Request, st.Config, st.LogID.String(),
		st.LogFileID, string(st.Status), st.Error,
		formatTime(st.CreatedAt), formatTime(st.UpdatedAt),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return stint.ErrJobAlreadyExists
		}
		return fmt.Errorf("stint/sqlite: create state: %w", err)
	}
	return nil
}

// GetState retrieves a job state by ID.
func (s *Store) GetState(ctx context.Context, jobID id.JobID) (*actor.JobState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT job_id, request, config, log_id, log_file_id, status, error, created_at, updated_at
		FROM stint_jobs WHERE job_id = ?`, jobID.String())
	return scanState(row)
}

// UpdateState persists changes to an existing job state.
func (s *Store) UpdateState(ctx context.Context, st *actor.JobState) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stint_jobs
		SET request = ?, config = ?, log_id = ?, log_file_id = ?, status = ?, error = ?, updated_at = ?
		WHERE job_id = ?`,
		st.Request, st.Config, st.LogID.String(), st.LogFileID,
		string(st.Status), st.Error, formatTime(st.UpdatedAt),
		st.JobID.String(),
	)
	if err != nil {
		return fmt.Errorf("stint/sqlite: update state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return stint.ErrJobNotFound
	}
	return nil
}

// DeleteState removes a job state by ID.
func (s *Store) DeleteState(ctx context.Context, jobID id.JobID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stint_jobs WHERE job_id = ?`, jobID.String()); err != nil {
		return fmt.Errorf("stint/sqlite: delete state: %w", err)
	}
	return nil
}

// ListTerminalStates returns up to limit terminal states last updated
// before the given time, oldest first.
func (s *Store) ListTerminalStates(ctx context.Context, before time.Time, limit int) ([]*actor.JobState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, request, config, log_id, log_file_id, status, error, created_at, updated_at
		FROM stint_jobs
		WHERE status IN ('done', 'error') AND updated_at < ?
		ORDER BY updated_at ASC
		LIMIT ?`, formatTime(before), limit)
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: list terminal states: %w", err)
	}
	defer rows.Close()

	var states []*actor.JobState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stint/sqlite: list terminal states: %w", err)
	}
	return states, nil
}

// SaveCheckpoint upserts the job's checkpoint.
func (s *Store) SaveCheckpoint(ctx context.Context, jobID id.JobID, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stint_checkpoints (job_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (job_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		jobID.String(), data, formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("stint/sqlite: save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint retrieves the checkpoint bytes, (nil, nil) when absent.
func (s *Store) GetCheckpoint(ctx context.Context, jobID id.JobID) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM stint_checkpoints WHERE job_id = ?`, jobID.String()).Scan(&data)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: get checkpoint: %w", err)
	}
	return data, nil
}

// DeleteCheckpoint removes the checkpoint.
func (s *Store) DeleteCheckpoint(ctx context.Context, jobID id.JobID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stint_checkpoints WHERE job_id = ?`, jobID.String()); err != nil {
		return fmt.Errorf("stint/sqlite: delete checkpoint: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*actor.JobState, error) {
	var (
		st                   actor.JobState
		jobID, logID         string
		createdAt, updatedAt string
	)
	err := row.Scan(&jobID, &st.Request, &st.Config, &logID, &st.LogFileID, &st.Status, &st.Error, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, stint.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: scan state: %w", err)
	}

	if st.JobID, err = id.ParseJobID(jobID); err != nil {
		return nil, fmt.Errorf("stint/sqlite: parse job id: %w", err)
	}
	if st.LogID, err = id.ParseLogID(logID); err != nil {
		return nil, fmt.Errorf("stint/sqlite: parse log id: %w", err)
	}
	st.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &st, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
