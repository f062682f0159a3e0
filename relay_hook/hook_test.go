package relayhook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/relay"
	revent "github.com/xraph/relay/event"
	relaymemory "github.com/xraph/relay/store/memory"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/id"
	rh "github.com/xraph/stint/relay_hook"
)

func newTestRelay(t *testing.T) *relay.Relay {
	t.Helper()
	r, err := relay.New(relay.WithStore(relaymemory.New()))
	if err != nil {
		t.Fatalf("failed to create relay: %v", err)
	}
	if err := rh.RegisterAll(context.Background(), r); err != nil {
		t.Fatalf("failed to register event types: %v", err)
	}
	return r
}

func newTestState() *actor.JobState {
	return &actor.JobState{
		Entity:    stint.NewEntity(),
		JobID:     id.NewJobID(),
		Request:   []byte(`{"kind":"send-email"}`),
		Config:    []byte(`{"agent_id":"agent-1"}`),
		LogID:     id.NewLogID(),
		LogFileID: "item_log_1",
		Status:    actor.StatusProcessing,
	}
}

// lastEvent retrieves the most recent event from the relay store with the
// given type. It fails the test if no matching event is found.
func lastEvent(t *testing.T, r *relay.Relay, eventType string) *revent.Event {
	t.Helper()
	events, err := r.Store().ListEvents(context.Background(), revent.ListOpts{
		Type:  eventType,
		Limit: 1,
	})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("no %s event found", eventType)
	}
	return events[0]
}

func TestHook_Name(t *testing.T) {
	h := rh.New(newTestRelay(t))
	if h.Name() != "relay-hook" {
		t.Errorf("expected name %q, got %q", "relay-hook", h.Name())
	}
}

func TestHook_JobAcceptedUsesAgentTenant(t *testing.T) {
	r := newTestRelay(t)
	h := rh.New(r)

	if err := h.OnJobAccepted(context.Background(), newTestState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evt := lastEvent(t, r, rh.EventJobAccepted)
	if evt.TenantID != "agent-1" {
		t.Errorf("TenantID: want %q, got %q", "agent-1", evt.TenantID)
	}
}

func TestHook_JobCompleted(t *testing.T) {
	r := newTestRelay(t)
	h := rh.New(r)

	err := h.OnJobCompleted(context.Background(), newTestState(), []string{"item_a"}, 150*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lastEvent(t, r, rh.EventJobCompleted)
}

func TestHook_JobFailed(t *testing.T) {
	r := newTestRelay(t)
	h := rh.New(r)

	if err := h.OnJobFailed(context.Background(), newTestState(), errors.New("boom")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lastEvent(t, r, rh.EventJobFailed)
}

func TestHook_HandoffDispatched(t *testing.T) {
	r := newTestRelay(t)
	h := rh.New(r)
	decision := &flow.Decision{Action: "pass", Target: "transform", TargetType: "step"}

	if err := h.OnHandoffDispatched(context.Background(), id.NewJobID(), decision); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lastEvent(t, r, rh.EventHandoffDispatched)
}

func TestHook_WithEventsFilters(t *testing.T) {
	r := newTestRelay(t)
	h := rh.New(r, rh.WithEvents(rh.EventJobFailed))
	st := newTestState()
	ctx := context.Background()

	if err := h.OnJobAccepted(ctx, st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := r.Store().ListEvents(ctx, revent.ListOpts{Type: rh.EventJobAccepted, Limit: 1})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatal("filtered event was emitted")
	}

	if err := h.OnJobFailed(ctx, st, errors.New("boom")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lastEvent(t, r, rh.EventJobFailed)
}

func TestHook_WithPayloadFunc(t *testing.T) {
	r := newTestRelay(t)
	h := rh.New(r, rh.WithPayloadFunc(rh.EventJobAccepted, func(_ any) (any, error) {
		return map[string]string{"custom": "payload"}, nil
	}))

	if err := h.OnJobAccepted(context.Background(), newTestState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evt := lastEvent(t, r, rh.EventJobAccepted)
	if evt.Data == nil {
		t.Fatal("custom payload not carried on event")
	}
}

func TestHook_PayloadFuncErrorPropagates(t *testing.T) {
	r := newTestRelay(t)
	wantErr := errors.New("bad payload")
	h := rh.New(r, rh.WithPayloadFunc(rh.EventJobAccepted, func(_ any) (any, error) {
		return nil, wantErr
	}))

	if err := h.OnJobAccepted(context.Background(), newTestState()); !errors.Is(err, wantErr) {
		t.Fatalf("expected payload error, got %v", err)
	}
}

func TestAllDefinitionsCoverAllEvents(t *testing.T) {
	defs := rh.AllDefinitions()
	want := map[string]bool{
		rh.EventJobAccepted:       true,
		rh.EventJobResumed:        true,
		rh.EventJobContinued:      true,
		rh.EventJobCompleted:      true,
		rh.EventJobFailed:         true,
		rh.EventHandoffDispatched: true,
	}
	if len(defs) != len(want) {
		t.Fatalf("want %d definitions, got %d", len(want), len(defs))
	}
	for _, def := range defs {
		if !want[def.Name] {
			t.Errorf("unexpected definition %q", def.Name)
		}
	}
}
