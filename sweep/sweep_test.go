package sweep_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/id"
	"github.com/xraph/stint/store/memory"
	"github.com/xraph/stint/sweep"
)

func seedState(t *testing.T, s *memory.Store, status actor.Status, age time.Duration) id.JobID {
	t.Helper()
	st := &actor.JobState{
		Entity: stint.NewEntity(),
		JobID:  id.NewJobID(),
		LogID:  id.NewLogID(),
		Status: status,
	}
	st.UpdatedAt = time.Now().Add(-age)
	if err := s.CreateState(context.Background(), st); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	return st.JobID
}

func TestSweepPurgesExpiredTerminalStates(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	expired := seedState(t, s, actor.StatusDone, 48*time.Hour)
	failed := seedState(t, s, actor.StatusError, 48*time.Hour)
	fresh := seedState(t, s, actor.StatusDone, time.Hour)
	running := seedState(t, s, actor.StatusProcessing, 48*time.Hour)

	_ = s.SaveCheckpoint(ctx, expired, []byte("stale"))

	sw, err := sweep.New(s, s, "@every 1h", 24*time.Hour, slog.Default())
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	n, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 purged, got %d", n)
	}

	for _, jobID := range []id.JobID{expired, failed} {
		if _, err := s.GetState(ctx, jobID); !errors.Is(err, stint.ErrJobNotFound) {
			t.Fatalf("expected job %s purged, got %v", jobID, err)
		}
	}
	if data, _ := s.GetCheckpoint(ctx, expired); data != nil {
		t.Fatal("checkpoint not purged")
	}

	// Fresh terminal and non-terminal states survive.
	if _, err := s.GetState(ctx, fresh); err != nil {
		t.Fatalf("fresh terminal state purged: %v", err)
	}
	if _, err := s.GetState(ctx, running); err != nil {
		t.Fatalf("running state purged: %v", err)
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := sweep.New(memory.New(), memory.New(), "not a schedule", time.Hour, slog.Default()); err == nil {
		t.Fatal("expected schedule parse error")
	}
}

func TestSweepBatchLimit(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	for range 5 {
		seedState(t, s, actor.StatusDone, 48*time.Hour)
	}

	sw, err := sweep.New(s, s, "@every 1h", 24*time.Hour, slog.Default(), sweep.WithBatchSize(2))
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	n, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected batch of 2, got %d", n)
	}
}
