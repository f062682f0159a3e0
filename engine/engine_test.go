package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/engine"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/id"
	"github.com/xraph/stint/joblog"
	"github.com/xraph/stint/store/memory"
)

func newRuntime(t *testing.T) *stint.Runtime {
	t.Helper()
	return newRuntimeWithStore(t, memory.New())
}

func newRuntimeWithStore(t *testing.T, s *memory.Store) *stint.Runtime {
	t.Helper()
	rt, err := stint.New(
		stint.WithStore(s),
		stint.WithConfig(stint.Config{
			AcceptDelay:     5 * time.Millisecond,
			ContinueDelay:   5 * time.Millisecond,
			TickInterval:    5 * time.Millisecond,
			FireConcurrency: 4,
			SliceTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		}),
	)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return rt
}

func waitForStatus(t *testing.T, eng *engine.Engine, jobID id.JobID, want actor.Status) *actor.StatusReport {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		report, err := eng.Status(context.Background(), jobID)
		if err == nil && report.Status == want {
			return report
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s never reached %s (last: %+v, err: %v)", jobID, want, report, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBuildRequiresStore(t *testing.T) {
	rt, err := stint.New()
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	if _, err := engine.Build(rt); !errors.Is(err, stint.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestEndToEndSimpleJob(t *testing.T) {
	rt := newRuntime(t)
	eng, err := engine.Build(rt)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	eng.Register("greet", actor.ProcessorFunc(func(_ context.Context, inv *actor.Invocation) (actor.Result, error) {
		inv.Log("hello from %s", inv.JobID())
		return actor.Done("item_greeting"), nil
	}))

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	defer eng.Stop(ctx)

	jobID := id.NewJobID()
	if err := eng.StartJob(ctx, jobID, &actor.Request{Kind: "greet"}, nil); err != nil {
		t.Fatalf("start job: %v", err)
	}

	report := waitForStatus(t, eng, jobID, actor.StatusDone)
	if report.Error != "" {
		t.Fatalf("unexpected error: %q", report.Error)
	}
}

// countingRecorder counts initial log writes; the poller may fire
// slices concurrently, so the counter is guarded.
type countingRecorder struct {
	joblog.Recorder
	mu     sync.Mutex
	writes int
}

func (r *countingRecorder) WriteInitial(ctx context.Context, entry *joblog.Entry, messages []string) (string, error) {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	return r.Recorder.WriteInitial(ctx, entry, messages)
}

func (r *countingRecorder) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func TestEndToEndCheckpointedJob(t *testing.T) {
	s := memory.New()
	rt := newRuntimeWithStore(t, s)
	rec := &countingRecorder{Recorder: joblog.NewContentRecorder(s, "job_logs", slog.Default())}
	eng, err := engine.Build(rt, engine.WithRecorder(rec))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var mu sync.Mutex
	slices := 0
	eng.Register("batched", actor.ProcessorFunc(func(ctx context.Context, inv *actor.Invocation) (actor.Result, error) {
		cursor, found, err := actor.LoadCheckpointValue[int](ctx, inv)
		if err != nil {
			return actor.Result{}, err
		}
		if !found {
			cursor = 0
		}
		mu.Lock()
		slices++
		mu.Unlock()

		cursor++
		if cursor < 3 {
			if err := actor.SaveCheckpointValue(ctx, inv, cursor); err != nil {
				return actor.Result{}, err
			}
			return actor.Continue(), nil
		}
		if err := inv.ClearCheckpoint(ctx); err != nil {
			return actor.Result{}, err
		}
		return actor.Done(), nil
	}))

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	defer eng.Stop(ctx)

	jobID := id.NewJobID()
	if err := eng.StartJob(ctx, jobID, &actor.Request{Kind: "batched"}, nil); err != nil {
		t.Fatalf("start job: %v", err)
	}

	waitForStatus(t, eng, jobID, actor.StatusDone)

	mu.Lock()
	defer mu.Unlock()
	if slices != 3 {
		t.Fatalf("expected 3 slices, got %d", slices)
	}
	if got := rec.writeCount(); got != 1 {
		t.Fatalf("log record written %d times, expected 1", got)
	}
}

// lifecycleHook records which events fired.
type lifecycleHook struct {
	mu     sync.Mutex
	events []string
}

func (h *lifecycleHook) Name() string { return "lifecycle-recorder" }

func (h *lifecycleHook) record(event string) {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
}

func (h *lifecycleHook) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	copy(out, h.events)
	return out
}

func (h *lifecycleHook) OnJobAccepted(_ context.Context, _ *actor.JobState) error {
	h.record("accepted")
	return nil
}

func (h *lifecycleHook) OnJobCompleted(_ context.Context, _ *actor.JobState, _ []string, _ time.Duration) error {
	h.record("completed")
	return nil
}

func (h *lifecycleHook) OnJobFailed(_ context.Context, _ *actor.JobState, _ error) error {
	h.record("failed")
	return nil
}

func TestHooksObserveLifecycle(t *testing.T) {
	rt := newRuntime(t)
	h := &lifecycleHook{}
	eng, err := engine.Build(rt, engine.WithHook(h))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	eng.Register("ok", actor.ProcessorFunc(func(_ context.Context, _ *actor.Invocation) (actor.Result, error) {
		return actor.Done(), nil
	}))
	eng.Register("bad", actor.ProcessorFunc(func(_ context.Context, _ *actor.Invocation) (actor.Result, error) {
		return actor.Result{}, errors.New("nope")
	}))

	ctx := context.Background()
	okJob, badJob := id.NewJobID(), id.NewJobID()
	if err := eng.StartJob(ctx, okJob, &actor.Request{Kind: "ok"}, nil); err != nil {
		t.Fatalf("start ok job: %v", err)
	}
	if err := eng.StartJob(ctx, badJob, &actor.Request{Kind: "bad"}, nil); err != nil {
		t.Fatalf("start bad job: %v", err)
	}

	// Drive resumptions directly; no poller needed for this test.
	if err := eng.Resume(ctx, okJob); err != nil {
		t.Fatalf("resume ok job: %v", err)
	}
	if err := eng.Resume(ctx, badJob); err != nil {
		t.Fatalf("resume bad job: %v", err)
	}

	events := h.snapshot()
	counts := map[string]int{}
	for _, e := range events {
		counts[e]++
	}
	if counts["accepted"] != 2 || counts["completed"] != 1 || counts["failed"] != 1 {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestEndToEndWorkflowHandoff(t *testing.T) {
	rt := newRuntime(t)

	graph := &flow.Graph{
		WorkflowID: "wf-etl",
		Steps: []flow.Step{
			{Name: "extract", Continuation: &flow.Continuation{Kind: "route"}},
		},
	}
	var mu sync.Mutex
	var routed []string
	interp := flow.InterpreterFunc(func(_ context.Context, _ *flow.Continuation, hc *flow.HandoffContext) (*flow.Decision, error) {
		mu.Lock()
		routed = append(routed, hc.Outputs...)
		mu.Unlock()
		return &flow.Decision{Action: "pass", Target: "transform", TargetType: "step"}, nil
	})

	eng, err := engine.Build(rt,
		engine.WithGraphSource(stubGraphs{graph}),
		engine.WithInterpreter(interp),
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	eng.Register("extract", actor.ProcessorFunc(func(_ context.Context, _ *actor.Invocation) (actor.Result, error) {
		return actor.Done("item_extracted"), nil
	}))

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	defer eng.Stop(ctx)

	jobID := id.NewJobID()
	req := &actor.Request{
		Kind:     "extract",
		Workflow: &flow.Binding{WorkflowID: "wf-etl", Path: []string{"extract"}},
	}
	if err := eng.StartJob(ctx, jobID, req, nil); err != nil {
		t.Fatalf("start job: %v", err)
	}

	waitForStatus(t, eng, jobID, actor.StatusDone)

	mu.Lock()
	defer mu.Unlock()
	if len(routed) != 1 || routed[0] != "item_extracted" {
		t.Fatalf("handoff did not route outputs: %v", routed)
	}
}

type stubGraphs struct {
	graph *flow.Graph
}

func (s stubGraphs) StepGraph(_ context.Context, _ string) (*flow.Graph, error) {
	return s.graph, nil
}
