package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/id"
	"github.com/xraph/stint/middleware"
)

func testState() *actor.JobState {
	return &actor.JobState{
		JobID:  id.NewJobID(),
		Status: actor.StatusProcessing,
	}
}

func TestChainOrder(t *testing.T) {
	var order []string

	mw := func(name string) middleware.Middleware {
		return func(ctx context.Context, _ *actor.JobState, next middleware.Handler) error {
			order = append(order, name+":before")
			err := next(ctx)
			order = append(order, name+":after")
			return err
		}
	}

	chain := middleware.Chain(mw("outer"), mw("inner"))
	err := chain(context.Background(), testState(), func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestChainEmpty(t *testing.T) {
	chain := middleware.Chain()
	called := false
	err := chain(context.Background(), testState(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("empty chain: %v", err)
	}
	if !called {
		t.Fatal("handler not called through empty chain")
	}
}

func TestRecoverConvertsPanic(t *testing.T) {
	mw := middleware.Recover(slog.Default())
	err := mw(context.Background(), testState(), func(_ context.Context) error {
		panic("boom")
	})
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
}

func TestRecoverPassesThrough(t *testing.T) {
	mw := middleware.Recover(slog.Default())
	wantErr := errors.New("ordinary failure")
	err := mw(context.Background(), testState(), func(_ context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected ordinary error, got %v", err)
	}
}

func TestTimeoutCancelsSlowSlice(t *testing.T) {
	mw := middleware.Timeout(10 * time.Millisecond)
	err := mw(context.Background(), testState(), func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestTimeoutZeroDisablesCap(t *testing.T) {
	mw := middleware.Timeout(0)
	err := mw(context.Background(), testState(), func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("no deadline expected when cap is disabled")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("timeout(0): %v", err)
	}
}

func TestLoggingPassesError(t *testing.T) {
	mw := middleware.Logging(slog.Default())
	wantErr := errors.New("slice failed")
	err := mw(context.Background(), testState(), func(_ context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error passthrough, got %v", err)
	}
}
