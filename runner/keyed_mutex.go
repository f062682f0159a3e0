package runner

import (
	"sync"

	"github.com/xraph/stint/id"
)

// keyedMutex provides one mutex per job ID. Entries are reference
// counted and removed when the last holder unlocks, so the map does not
// grow with the total number of jobs ever seen.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[id.JobID]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[id.JobID]*keyedEntry)}
}

// Lock acquires the mutex for the job and returns the unlock function.
func (km *keyedMutex) Lock(jobID id.JobID) func() {
	km.mu.Lock()
	e, ok := km.entries[jobID]
	if !ok {
		e = &keyedEntry{}
		km.entries[jobID] = e
	}
	e.refs++
	km.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		km.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(km.entries, jobID)
		}
		km.mu.Unlock()
	}
}
