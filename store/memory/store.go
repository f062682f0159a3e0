// Package memory provides a fully in-memory store.Store implementation.
// Safe for concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/content"
	"github.com/xraph/stint/id"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ actor.Store   = (*Store)(nil)
	_ alarm.Store   = (*Store)(nil)
	_ content.Store = (*Store)(nil)
)

// Store is a fully in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	states      map[string]*actor.JobState
	checkpoints map[string][]byte
	timers      map[string]*alarm.Timer
	items       map[string]*content.Item
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		states:      make(map[string]*actor.JobState),
		checkpoints: make(map[string][]byte),
		timers:      make(map[string]*alarm.Timer),
		items:       make(map[string]*content.Item),
	}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Actor Store
// ──────────────────────────────────────────────────

// CreateState persists a new JobState.
func (m *Store) CreateState(_ context.Context, st *actor.JobState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := st.JobID.String()
	if _, exists := m.states[key]; exists {
		return stint.ErrJobAlreadyExists
	}
	cp := *st
	m.states[key] = &cp
	return nil
}

// GetState retrieves a JobState by job ID.
func (m *Store) GetState(_ context.Context, jobID id.JobID) (*actor.JobState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[jobID.String()]
	if !ok {
		return nil, stint.ErrJobNotFound
	}
	cp := *st
	return &cp, nil
}

// UpdateState persists changes to an existing JobState.
func (m *Store) UpdateState(_ context.Context, st *actor.JobState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := st.JobID.String()
	if _, ok := m.states[key]; !ok {
		return stint.ErrJobNotFound
	}
	cp := *st
	m.states[key] = &cp
	return nil
}

// DeleteState removes a JobState by job ID.
func (m *Store) DeleteState(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, jobID.String())
	return nil
}

// ListTerminalStates returns up to limit terminal states last updated
// before the given time, oldest first.
func (m *Store) ListTerminalStates(_ context.Context, before time.Time, limit int) ([]*actor.JobState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*actor.JobState
	for _, st := range m.states {
		if st.Status.Terminal() && st.UpdatedAt.Before(before) {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveCheckpoint persists the job's checkpoint, replacing any previous one.
func (m *Store) SaveCheckpoint(_ context.Context, jobID id.JobID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	m.checkpoints[jobID.String()] = cp
	return nil
}

// GetCheckpoint retrieves the job's checkpoint data, (nil, nil) when absent.
func (m *Store) GetCheckpoint(_ context.Context, jobID id.JobID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.checkpoints[jobID.String()]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// DeleteCheckpoint removes the job's checkpoint.
func (m *Store) DeleteCheckpoint(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checkpoints, jobID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Alarm Store
// ──────────────────────────────────────────────────

// SetTimer persists a timer for the job, replacing any existing one.
func (m *Store) SetTimer(_ context.Context, t *alarm.Timer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.timers[t.JobID.String()] = &cp
	return nil
}

// GetTimer retrieves the job's pending timer.
func (m *Store) GetTimer(_ context.Context, jobID id.JobID) (*alarm.Timer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.timers[jobID.String()]
	if !ok {
		return nil, stint.ErrTimerNotFound
	}
	cp := *t
	return &cp, nil
}

// DueTimers returns up to limit due timers, soonest first.
func (m *Store) DueTimers(_ context.Context, now time.Time, limit int) ([]*alarm.Timer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []*alarm.Timer
	for _, t := range m.timers {
		if !t.FireAt.After(now) {
			cp := *t
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// ClearTimer removes the job's timer.
func (m *Store) ClearTimer(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, jobID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Content Store
// ──────────────────────────────────────────────────

// GetItem retrieves an item by ID.
func (m *Store) GetItem(_ context.Context, itemID string) (*content.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, stint.ErrItemNotFound
	}
	return copyItem(item), nil
}

// CreateItem persists a new item and returns it with its generated ID.
func (m *Store) CreateItem(_ context.Context, typ, collection string, properties map[string]any, relationships map[string]string) (*content.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := &content.Item{
		Entity:        stint.NewEntity(),
		ID:            id.NewItemID().String(),
		Type:          typ,
		Collection:    collection,
		Properties:    properties,
		Relationships: relationships,
	}
	m.items[item.ID] = copyItem(item)
	return item, nil
}

// UpdateItem merges the given properties into an existing item.
func (m *Store) UpdateItem(_ context.Context, itemID string, properties map[string]any) (*content.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, stint.ErrItemNotFound
	}
	if item.Properties == nil {
		item.Properties = make(map[string]any, len(properties))
	}
	for k, v := range properties {
		item.Properties[k] = v
	}
	item.Touch()
	return copyItem(item), nil
}

func copyItem(item *content.Item) *content.Item {
	cp := *item
	cp.Properties = make(map[string]any, len(item.Properties))
	for k, v := range item.Properties {
		cp.Properties[k] = v
	}
	if item.Relationships != nil {
		cp.Relationships = make(map[string]string, len(item.Relationships))
		for k, v := range item.Relationships {
			cp.Relationships[k] = v
		}
	}
	return &cp
}
