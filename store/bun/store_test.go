//go:build integration

package bunstore_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/id"
	bunstore "github.com/xraph/stint/store/bun"
)

// setupTestStore creates a Postgres container and returns a connected Bun Store.
func setupTestStore(t *testing.T) *bunstore.Store {
	t.Helper()

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("stint_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("terminate container: %v", termErr)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	s := bunstore.New(db)
	if err := s.Migrate(ctx); err != nil {
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

func TestBunStateLifecycle(t *testing.T) {
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
	if got.Status != actor.StatusAccepted || string(got.Request) != `{"kind":"test"}` {
		t.Fatalf("unexpected state: %+v", got)
	}

	st.Status = actor.StatusDone
	st.LogFileID = "item_log1"
	st.Touch()
	if err := s.UpdateState(ctx, st); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetState(ctx, st.JobID)
	if got.Status != actor.StatusDone || got.LogFileID != "item_log1" {
		t.Fatalf("update not persisted: %+v", got)
	}

	if _, err := s.GetState(ctx, id.NewJobID()); !errors.Is(err, stint.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestBunListTerminalStates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	old := newTestState()
	old.Status = actor.StatusDone
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	if err := s.CreateState(ctx, old); err != nil {
		t.Fatalf("create: %v", err)
	}

	running := newTestState()
	running.Status = actor.StatusProcessing
	running.UpdatedAt = time.Now().Add(-48 * time.Hour)
	if err := s.CreateState(ctx, running); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.ListTerminalStates(ctx, time.Now().Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].JobID != old.JobID {
		t.Fatalf("expected only the old terminal state, got %d", len(got))
	}
}

func TestBunCheckpointUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	jobID := id.NewJobID()

	data, err := s.GetCheckpoint(ctx, jobID)
	if err != nil || data != nil {
		t.Fatalf("missing checkpoint should be (nil, nil), got (%v, %v)", data, err)
	}

	if err := s.SaveCheckpoint(ctx, jobID, []byte("v1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveCheckpoint(ctx, jobID, []byte("v2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	data, _ = s.GetCheckpoint(ctx, jobID)
	if string(data) != "v2" {
		t.Fatalf("expected v2, got %q", data)
	}

	if err := s.DeleteCheckpoint(ctx, jobID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if data, _ = s.GetCheckpoint(ctx, jobID); data != nil {
		t.Fatal("checkpoint not deleted")
	}
}

func TestBunTimerReplaceAndDue(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	jobID := id.NewJobID()

	if err := s.SetTimer(ctx, &alarm.Timer{JobID: jobID, FireAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("set: %v", err)
	}
	due, err := s.DueTimers(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 0 {
		t.Fatal("future timer reported due")
	}

	// Upsert replaces the fire time.
	if err := s.SetTimer(ctx, &alarm.Timer{JobID: jobID, FireAt: time.Now().Add(-time.Minute)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	due, _ = s.DueTimers(ctx, time.Now(), 10)
	if len(due) != 1 || due[0].JobID != jobID {
		t.Fatalf("expected 1 due timer, got %d", len(due))
	}

	// Non-destructive read.
	due, _ = s.DueTimers(ctx, time.Now(), 10)
	if len(due) != 1 {
		t.Fatal("DueTimers must not remove timers")
	}

	if err := s.ClearTimer(ctx, jobID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.GetTimer(ctx, jobID); !errors.Is(err, stint.ErrTimerNotFound) {
		t.Fatalf("expected ErrTimerNotFound, got %v", err)
	}
}

func TestBunItemMerge(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	item, err := s.CreateItem(ctx, "job_log", "logs", map[string]any{"status": "running"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := s.UpdateItem(ctx, item.ID, map[string]any{"status": "done", "extra": "x"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Properties["status"] != "done" || updated.Properties["extra"] != "x" {
		t.Fatalf("jsonb merge failed: %+v", updated.Properties)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Properties["status"] != "done" {
		t.Fatalf("unexpected properties: %+v", got.Properties)
	}

	if _, err := s.UpdateItem(ctx, "item_missing", map[string]any{"a": 1}); !errors.Is(err, stint.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}
