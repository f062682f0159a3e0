package alarm_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/backoff"
	"github.com/xraph/stint/id"
)

// memTimerStore is an in-memory alarm.Store for tests.
type memTimerStore struct {
	mu     sync.Mutex
	timers map[id.JobID]*alarm.Timer
	dueErr error
}

func newMemTimerStore() *memTimerStore {
	return &memTimerStore{timers: make(map[id.JobID]*alarm.Timer)}
}

func (s *memTimerStore) SetTimer(_ context.Context, t *alarm.Timer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.timers[t.JobID] = &cp
	return nil
}

func (s *memTimerStore) GetTimer(_ context.Context, jobID id.JobID) (*alarm.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[jobID]
	if !ok {
		return nil, errors.New("timer not found")
	}
	cp := *t
	return &cp, nil
}

func (s *memTimerStore) DueTimers(_ context.Context, now time.Time, limit int) ([]*alarm.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dueErr != nil {
		return nil, s.dueErr
	}
	var due []*alarm.Timer
	for _, t := range s.timers {
		if !t.FireAt.After(now) {
			cp := *t
			due = append(due, &cp)
			if len(due) >= limit {
				break
			}
		}
	}
	return due, nil
}

func (s *memTimerStore) ClearTimer(_ context.Context, jobID id.JobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, jobID)
	return nil
}

// fireRecorder counts fires per job.
type fireRecorder struct {
	mu    sync.Mutex
	fires map[id.JobID]int
	clear *memTimerStore // if set, clears the timer on fire
	block chan struct{}  // if set, fire blocks until closed
}

func (f *fireRecorder) fire(ctx context.Context, jobID id.JobID) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	if f.fires == nil {
		f.fires = make(map[id.JobID]int)
	}
	f.fires[jobID]++
	f.mu.Unlock()
	if f.clear != nil {
		return f.clear.ClearTimer(ctx, jobID)
	}
	return nil
}

func (f *fireRecorder) count(jobID id.JobID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fires[jobID]
}

func TestPollerFiresDueTimer(t *testing.T) {
	store := newMemTimerStore()
	rec := &fireRecorder{clear: store}
	jobID := id.NewJobID()

	if err := store.SetTimer(context.Background(), &alarm.Timer{
		JobID:  jobID,
		FireAt: time.Now().Add(-time.Second),
	}); err != nil {
		t.Fatalf("set timer: %v", err)
	}

	p := alarm.NewPoller(store, rec.fire, slog.Default(),
		alarm.WithTickInterval(10*time.Millisecond),
	)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for rec.count(jobID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timer never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPollerSkipsFutureTimer(t *testing.T) {
	store := newMemTimerStore()
	rec := &fireRecorder{}
	jobID := id.NewJobID()

	_ = store.SetTimer(context.Background(), &alarm.Timer{
		JobID:  jobID,
		FireAt: time.Now().Add(time.Hour),
	})

	p := alarm.NewPoller(store, rec.fire, slog.Default(),
		alarm.WithTickInterval(10*time.Millisecond),
	)
	_ = p.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	_ = p.Stop(context.Background())

	if got := rec.count(jobID); got != 0 {
		t.Fatalf("future timer fired %d times", got)
	}
}

func TestPollerDoesNotRefireInFlightJob(t *testing.T) {
	store := newMemTimerStore()
	block := make(chan struct{})
	rec := &fireRecorder{clear: store, block: block}
	jobID := id.NewJobID()

	_ = store.SetTimer(context.Background(), &alarm.Timer{
		JobID:  jobID,
		FireAt: time.Now().Add(-time.Second),
	})

	p := alarm.NewPoller(store, rec.fire, slog.Default(),
		alarm.WithTickInterval(10*time.Millisecond),
	)
	_ = p.Start(context.Background())

	// Several ticks pass while the first fire is blocked; the timer is
	// still due but the job is in flight, so no second fire starts.
	time.Sleep(100 * time.Millisecond)
	close(block)

	deadline := time.Now().Add(2 * time.Second)
	for rec.count(jobID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timer never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = p.Stop(context.Background())

	if got := rec.count(jobID); got != 1 {
		t.Fatalf("expected exactly 1 fire, got %d", got)
	}
}

func TestPollerBacksOffOnStoreError(t *testing.T) {
	store := newMemTimerStore()
	store.dueErr = errors.New("store down")
	rec := &fireRecorder{clear: store}

	p := alarm.NewPoller(store, rec.fire, slog.Default(),
		alarm.WithTickInterval(10*time.Millisecond),
		alarm.WithBackoff(backoff.NewConstant(20*time.Millisecond)),
	)
	_ = p.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	// Recover the store; a due timer added now must still fire.
	jobID := id.NewJobID()
	store.mu.Lock()
	store.dueErr = nil
	store.mu.Unlock()
	_ = store.SetTimer(context.Background(), &alarm.Timer{
		JobID:  jobID,
		FireAt: time.Now().Add(-time.Second),
	})

	deadline := time.Now().Add(2 * time.Second)
	for rec.count(jobID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timer never fired after store recovery")
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = p.Stop(context.Background())
}
