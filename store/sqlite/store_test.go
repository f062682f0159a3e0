package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/id"
	sqlitestore "github.com/xraph/stint/store/sqlite"
)

func setupTestStore(t *testing.T) *sqlitestore.Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	// In-memory SQLite is per-connection.
	db.SetMaxOpenConns(1)

	s := sqlitestore.New(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func newTestState() *actor.JobState {
	return &actor.JobState{
		Entity:  stint.NewEntity(),
		JobID:   id.NewJobID(),
		Request: []byte(`{"kind":"test"}`),
		LogID:   id.NewLogID(),
		Status:  actor.StatusAccepted,
	}
}

func TestStateLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	st := newTestState()
	if err := s.CreateState(ctx, st); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateState(ctx, st); !errors.Is(err, stint.ErrJobAlreadyExists) {
		t.Fatalf("expected ErrJobAlreadyExists, got %v", err)
	}

	got, err := s.GetState(ctx, st.JobID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != actor.StatusAccepted {
		t.Fatalf("unexpected status %s", got.Status)
	}

	st.Status = actor.StatusError
	st.Error = "boom"
	st.Touch()
	if err := s.UpdateState(ctx, st); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetState(ctx, st.JobID)
	if got.Status != actor.StatusError || got.Error != "boom" {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := s.UpdateState(ctx, newTestState()); !errors.Is(err, stint.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound on unknown update, got %v", err)
	}
}

func TestTerminalListing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	old := newTestState()
	old.Status = actor.StatusDone
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	_ = s.CreateState(ctx, old)

	running := newTestState()
	running.Status = actor.StatusProcessing
	running.UpdatedAt = time.Now().Add(-48 * time.Hour)
	_ = s.CreateState(ctx, running)

	got, err := s.ListTerminalStates(ctx, time.Now().Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].JobID != old.JobID {
		t.Fatalf("expected only the old terminal state, got %d", len(got))
	}
}

func TestCheckpointUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	jobID := id.NewJobID()

	if data, err := s.GetCheckpoint(ctx, jobID); err != nil || data != nil {
		t.Fatalf("missing checkpoint should be (nil, nil), got (%v, %v)", data, err)
	}
	_ = s.SaveCheckpoint(ctx, jobID, []byte("v1"))
	_ = s.SaveCheckpoint(ctx, jobID, []byte("v2"))
	data, _ := s.GetCheckpoint(ctx, jobID)
	if string(data) != "v2" {
		t.Fatalf("expected v2, got %q", data)
	}
	_ = s.DeleteCheckpoint(ctx, jobID)
	if data, _ := s.GetCheckpoint(ctx, jobID); data != nil {
		t.Fatal("checkpoint not deleted")
	}
}

func TestTimerUpsertAndDue(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	jobID := id.NewJobID()

	_ = s.SetTimer(ctx, &alarm.Timer{JobID: jobID, FireAt: time.Now().Add(time.Hour)})
	_ = s.SetTimer(ctx, &alarm.Timer{JobID: jobID, FireAt: time.Now().Add(-time.Minute)})

	due, err := s.DueTimers(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].JobID != jobID {
		t.Fatalf("expected 1 due timer, got %d", len(due))
	}

	// Reading must not remove.
	due, _ = s.DueTimers(ctx, time.Now(), 10)
	if len(due) != 1 {
		t.Fatal("DueTimers must not remove timers")
	}

	_ = s.ClearTimer(ctx, jobID)
	if _, err := s.GetTimer(ctx, jobID); !errors.Is(err, stint.ErrTimerNotFound) {
		t.Fatalf("expected ErrTimerNotFound, got %v", err)
	}
}

func TestItemMerge(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	item, err := s.CreateItem(ctx, "job_log", "logs", map[string]any{"status": "running"}, map[string]string{"job": "job_x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := s.UpdateItem(ctx, item.ID, map[string]any{"status": "done"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Properties["status"] != "done" {
		t.Fatalf("merge failed: %+v", updated.Properties)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Relationships["job"] != "job_x" {
		t.Fatalf("relationships lost: %+v", got.Relationships)
	}

	if _, err := s.GetItem(ctx, "item_missing"); !errors.Is(err, stint.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}
