package stint

import "time"

// Config holds configuration for the Runtime.
type Config struct {
	// AcceptDelay is how long after a start call the first resumption
	// fires. Short enough to feel synchronous to the caller, but decoupled
	// from the caller's own time budget.
	AcceptDelay time.Duration

	// ContinueDelay is how long after a continue outcome the next
	// resumption fires.
	ContinueDelay time.Duration

	// TickInterval is how often the alarm poller checks for due timers.
	TickInterval time.Duration

	// FireConcurrency bounds how many resumptions fire concurrently.
	// Different jobs are independent; a single job never fires twice
	// at the same time.
	FireConcurrency int

	// SliceTimeout caps the wall-clock time of one resumption slice.
	// Processors should checkpoint and continue well before this; the
	// cap is the hard stop for ones that don't. Zero disables it.
	SliceTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AcceptDelay:     100 * time.Millisecond,
		ContinueDelay:   1 * time.Second,
		TickInterval:    250 * time.Millisecond,
		FireConcurrency: 10,
		SliceTimeout:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}
