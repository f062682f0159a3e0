package redis

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/id"
)

// createStateScript writes the existence guard and every hash field in
// one atomic step. A crash mid-create can never leave a partial hash
// that would fail to parse on later reads.
var createStateScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`)

// CreateState stores the job state as a Hash. Uniqueness is enforced by
// the script's existence check, so two concurrent starters cannot both
// create the job.
func (s *Store) CreateState(ctx context.Context, st *actor.JobState) error {
	key := stateKey(st.JobID.String())

	argv := make([]any, 0, 18)
	for field, value := range stateToMap(st) {
		argv = append(argv, field, value)
	}
	created, err := createStateScript.Run(ctx, s.client, []string{key}, argv...).Int()
	if err != nil {
		return fmt.Errorf("stint/redis: create state: %w", err)
	}
	if created == 0 {
		return stint.ErrJobAlreadyExists
	}
	return nil
}

// GetState retrieves a job state by ID.
func (s *Store) GetState(ctx context.Context, jobID id.JobID) (*actor.JobState, error) {
	fields, err := s.client.HGetAll(ctx, stateKey(jobID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("stint/redis: get state: %w", err)
	}
	if len(fields) == 0 {
		return nil, stint.ErrJobNotFound
	}
	return stateFromMap(fields)
}

// UpdateState rewrites the state hash and maintains the terminal index
// the retention sweeper reads from.
func (s *Store) UpdateState(ctx context.Context, st *actor.JobState) error {
	jID := st.JobID.String()
	key := stateKey(jID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("stint/redis: update state check: %w", err)
	}
	if exists == 0 {
		return stint.ErrJobNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, stateToMap(st))
	if st.Status.Terminal() {
		pipe.ZAdd(ctx, terminalKey, goredis.Z{
			Score:  float64(st.UpdatedAt.UnixMilli()) / 1000,
			Member: jID,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stint/redis: update state: %w", err)
	}
	return nil
}

// DeleteState removes the state hash and its terminal index entry.
func (s *Store) DeleteState(ctx context.Context, jobID id.JobID) error {
	jID := jobID.String()
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, stateKey(jID))
	pipe.ZRem(ctx, terminalKey, jID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stint/redis: delete state: %w", err)
	}
	return nil
}

// ListTerminalStates reads the terminal index up to the cutoff and loads
// each state.
func (s *Store) ListTerminalStates(ctx context.Context, before time.Time, limit int) ([]*actor.JobState, error) {
	ids, err := s.client.ZRangeByScore(ctx, terminalKey, &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%f", float64(before.UnixMilli())/1000),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("stint/redis: list terminal states: %w", err)
	}

	states := make([]*actor.JobState, 0, len(ids))
	for _, jID := range ids {
		fields, err := s.client.HGetAll(ctx, stateKey(jID)).Result()
		if err != nil {
			return nil, fmt.Errorf("stint/redis: load terminal state %s: %w", jID, err)
		}
		if len(fields) == 0 {
			// Index entry outlived its state; drop it.
			s.client.ZRem(ctx, terminalKey, jID)
			continue
		}
		st, err := stateFromMap(fields)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, nil
}

// SaveCheckpoint stores the checkpoint bytes, replacing any previous one.
func (s *Store) SaveCheckpoint(ctx context.Context, jobID id.JobID, data []byte) error {
	if err := s.client.Set(ctx, checkpointKey(jobID.String()), data, 0).Err(); err != nil {
		return fmt.Errorf("stint/redis: save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint retrieves the checkpoint bytes, (nil, nil) when absent.
func (s *Store) GetCheckpoint(ctx context.Context, jobID id.JobID) ([]byte, error) {
	data, err := s.client.Get(ctx, checkpointKey(jobID.String())).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stint/redis: get checkpoint: %w", err)
	}
	return data, nil
}

// DeleteCheckpoint removes the checkpoint.
func (s *Store) DeleteCheckpoint(ctx context.Context, jobID id.JobID) error {
	if err := s.client.Del(ctx, checkpointKey(jobID.String())).Err(); err != nil {
		return fmt.Errorf("stint/redis: delete checkpoint: %w", err)
	}
	return nil
}

// stateToMap flattens a JobState into Redis hash fields. Request and
// Config are opaque bytes; base64 keeps them binary-safe.
func stateToMap(st *actor.JobState) map[string]any {
	return map[string]any{
		"job_id":      st.JobID.String(),
		"request":     base64.StdEncoding.EncodeToString(st.Request),
		"config":      base64.StdEncoding.EncodeToString(st.Config),
		"log_id":      st.LogID.String(),
		"log_file_id": st.LogFileID,
		"status":      string(st.Status),
		"error":       st.Error,
		"created_at":  st.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":  st.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func stateFromMap(fields map[string]string) (*actor.JobState, error) {
	jobID, err := id.ParseJobID(fields["job_id"])
	if err != nil {
		return nil, fmt.Errorf("stint/redis: parse job id: %w", err)
	}
	logID, err := id.ParseLogID(fields["log_id"])
	if err != nil {
		return nil, fmt.Errorf("stint/redis: parse log id: %w", err)
	}
	request, err := base64.StdEncoding.DecodeString(fields["request"])
	if err != nil {
		return nil, fmt.Errorf("stint/redis: decode request: %w", err)
	}
	config, err := base64.StdEncoding.DecodeString(fields["config"])
	if err != nil {
		return nil, fmt.Errorf("stint/redis: decode config: %w", err)
	}

	st := &actor.JobState{
		JobID:     jobID,
		Request:   request,
		Config:    config,
		LogID:     logID,
		LogFileID: fields["log_file_id"],
		Status:    actor.Status(fields["status"]),
		Error:     fields["error"],
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		st.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		st.UpdatedAt = t
	}
	return st, nil
}
