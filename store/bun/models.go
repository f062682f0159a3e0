package bunstore

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/content"
	"github.com/xraph/stint/id"
)

// ── Job state model ───────────────────────────────────────────────

type stateModel struct {
	bun.BaseModel `bun:"table:stint_jobs"`

	JobID     string    `bun:"job_id,pk"`
	Request   []byte    `bun:"request,notnull,type:bytea"`
	Config    []byte    `bun:"config,type:bytea"`
	LogID     string    `bun:"log_id,notnull"`
	LogFileID string    `bun:"log_file_id,notnull,default:''"`
	Status    string    `bun:"status,notnull,default:'accepted'"`
	Error     string    `bun:"error,notnull,default:''"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toStateModel(st *actor.JobState) *stateModel {
	return &stateModel{
		JobID:     st.JobID.String(),
		Request:   st.Request,
		Config:    st.Config,
		LogID:     st.LogID.String(),
		LogFileID: st.LogFileID,
		Status:    string(st.Status),
		Error:     st.Error,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func fromStateModel(m *stateModel) (*actor.JobState, error) {
	jobID, err := id.ParseJobID(m.JobID)
	if err != nil {
		return nil, fmt.Errorf("stint/bun: parse job id %q: %w", m.JobID, err)
	}
	logID, err := id.ParseLogID(m.LogID)
	if err != nil {
		return nil, fmt.Errorf("stint/bun: parse log id %q: %w", m.LogID, err)
	}

	return &actor.JobState{
		Entity: stint.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		JobID:     jobID,
		Request:   m.Request,
		Config:    m.Config,
		LogID:     logID,
		LogFileID: m.LogFileID,
		Status:    actor.Status(m.Status),
		Error:     m.Error,
	}, nil
}

// ── Checkpoint model ──────────────────────────────────────────────

type checkpointModel struct {
	bun.BaseModel `bun:"table:stint_checkpoints"`

	JobID     string    `bun:"job_id,pk"`
	Data      []byte    `bun:"data,notnull,type:bytea"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ── Timer model ───────────────────────────────────────────────────

type timerModel struct {
	bun.BaseModel `bun:"table:stint_timers"`

	JobID  string    `bun:"job_id,pk"`
	FireAt time.Time `bun:"fire_at,notnull"`
}

// ── Item model ────────────────────────────────────────────────────

type itemModel struct {
	bun.BaseModel `bun:"table:stint_items"`

	ID            string            `bun:"id,pk"`
	Type          string            `bun:"type,notnull"`
	Collection    string            `bun:"collection,notnull"`
	Properties    map[string]any    `bun:"properties,type:jsonb"`
	Relationships map[string]string `bun:"relationships,type:jsonb"`
	CreatedAt     time.Time         `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time         `bun:"updated_at,notnull,default:current_timestamp"`
}

func toItemModel(item *content.Item) *itemModel {
	return &itemModel{
		ID:            item.ID,
		Type:          item.Type,
		Collection:    item.Collection,
		Properties:    item.Properties,
		Relationships: item.Relationships,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func fromItemModel(m *itemModel) *content.Item {
	return &content.Item{
		Entity: stint.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            m.ID,
		Type:          m.Type,
		Collection:    m.Collection,
		Properties:    m.Properties,
		Relationships: m.Relationships,
	}
}
