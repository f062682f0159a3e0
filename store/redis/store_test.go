//go:build integration

package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/id"
	redisstore "github.com/xraph/stint/store/redis"
)

// setupTestStore creates a Redis container and returns a connected Store.
func setupTestStore(t *testing.T) *redisstore.Store {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}
	opts, err := goredis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	return redisstore.New(client)
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

func TestRedisStateLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	st := newTestState()
	if err := s.CreateState(ctx, st); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateState(ctx, st); !errors.Is(err, stint.ErrJobAlreadyExists) {
		t.Fatalf("expected ErrJobAlreadyExists, got %v", err)
	}

	// Every field lands in one write, so the state round-trips whole.
	got, err := s.GetState(ctx, st.JobID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != actor.StatusAccepted || string(got.Request) != `{"kind":"test"}` {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.LogID != st.LogID {
		t.Fatalf("log id not persisted: want %s, got %s", st.LogID, got.LogID)
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

func TestRedisCreateStatePreservesExisting(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	st := newTestState()
	if err := s.CreateState(ctx, st); err != nil {
		t.Fatalf("create: %v", err)
	}

	// A losing racer must not clobber any field of the winner's hash.
	racer := newTestState()
	racer.JobID = st.JobID
	racer.Request = []byte(`{"kind":"other"}`)
	if err := s.CreateState(ctx, racer); !errors.Is(err, stint.ErrJobAlreadyExists) {
		t.Fatalf("expected ErrJobAlreadyExists, got %v", err)
	}

	got, err := s.GetState(ctx, st.JobID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Request) != `{"kind":"test"}` {
		t.Fatalf("first writer must win, got %s", got.Request)
	}
	if got.LogID != st.LogID {
		t.Fatalf("log id clobbered: want %s, got %s", st.LogID, got.LogID)
	}
}

func TestRedisListTerminalStates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	old := newTestState()
	if err := s.CreateState(ctx, old); err != nil {
		t.Fatalf("create: %v", err)
	}
	old.Status = actor.StatusDone
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	if err := s.UpdateState(ctx, old); err != nil {
		t.Fatalf("update: %v", err)
	}

	running := newTestState()
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
