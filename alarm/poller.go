package alarm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xraph/stint/backoff"
	"github.com/xraph/stint/id"
)

// FireFunc is the callback the poller invokes for each due timer.
// The engine provides the implementation; this breaks the import cycle
// with the runner package.
type FireFunc func(ctx context.Context, jobID id.JobID) error

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithTickInterval sets how often the poller checks for due timers.
func WithTickInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.tickInterval = d }
}

// WithFireConcurrency bounds how many timers fire concurrently per tick.
func WithFireConcurrency(n int) PollerOption {
	return func(p *Poller) { p.fireConcurrency = n }
}

// WithBatchSize sets how many due timers are read per tick.
func WithBatchSize(n int) PollerOption {
	return func(p *Poller) { p.batchSize = n }
}

// WithRateLimit caps fires per second across all jobs. Zero disables
// rate limiting.
func WithRateLimit(perSecond float64) PollerOption {
	return func(p *Poller) {
		if perSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithBackoff sets the backoff strategy applied when the store errors.
func WithBackoff(s backoff.Strategy) PollerOption {
	return func(p *Poller) { p.backoff = s }
}

// Poller runs a tick loop over the timer store and fires due timers.
// A timer stays in the store until the job's lifecycle clears it, so
// the poller tracks in-flight job IDs to avoid firing the same job's
// timer concurrently with itself.
type Poller struct {
	store  Store
	fire   FireFunc
	logger *slog.Logger

	tickInterval    time.Duration
	fireConcurrency int
	batchSize       int
	limiter         *rate.Limiter
	backoff         backoff.Strategy

	// inFlight guards against re-firing a job whose previous fire has
	// not returned yet.
	inFlightMu sync.Mutex
	inFlight   map[id.JobID]struct{}

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPoller creates a Poller.
func NewPoller(store Store, fire FireFunc, logger *slog.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		store:           store,
		fire:            fire,
		logger:          logger,
		tickInterval:    250 * time.Millisecond,
		fireConcurrency: 10,
		batchSize:       100,
		backoff:         backoff.DefaultStrategy(),
		inFlight:        make(map[id.JobID]struct{}),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the tick goroutine.
func (p *Poller) Start(_ context.Context) error {
	p.wg.Add(1)
	go p.tickLoop()
	p.logger.Info("alarm poller started",
		slog.Duration("tick_interval", p.tickInterval),
		slog.Int("fire_concurrency", p.fireConcurrency),
	)
	return nil
}

// Stop signals the poller to stop and waits for in-flight fires to
// finish.
func (p *Poller) Stop(_ context.Context) error {
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("alarm poller stopped")
	return nil
}

// tickLoop fires on each tick interval. Consecutive store errors back
// the loop off instead of hammering an unhealthy backend.
func (p *Poller) tickLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()

	storeErrors := 0
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.tick(); err != nil {
				storeErrors++
				delay := p.backoff.Delay(storeErrors)
				p.logger.Warn("due timer scan error",
					slog.String("error", err.Error()),
					slog.Int("consecutive_errors", storeErrors),
					slog.Duration("backoff", delay),
				)
				select {
				case <-p.stopCh:
					return
				case <-time.After(delay):
				}
				continue
			}
			storeErrors = 0
		}
	}
}

func (p *Poller) tick() error {
	ctx := context.Background()

	due, err := p.store.DueTimers(ctx, time.Now().UTC(), p.batchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.fireConcurrency)
	for _, t := range due {
		if !p.claim(t.JobID) {
			continue // previous fire for this job still running
		}
		timer := t
		g.Go(func() error {
			defer p.release(timer.JobID)
			p.fireTimer(gctx, timer)
			return nil
		})
	}
	return g.Wait()
}

func (p *Poller) fireTimer(ctx context.Context, t *Timer) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
	}
	if err := p.fire(ctx, t.JobID); err != nil {
		// The fire callback handles job failure internally; an error
		// here means infrastructure trouble. The timer stays set and
		// the next tick retries.
		p.logger.Error("timer fire error",
			slog.String("job_id", t.JobID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (p *Poller) claim(jobID id.JobID) bool {
	p.inFlightMu.Lock()
	defer p.inFlightMu.Unlock()
	if _, ok := p.inFlight[jobID]; ok {
		return false
	}
	p.inFlight[jobID] = struct{}{}
	return true
}

func (p *Poller) release(jobID id.JobID) {
	p.inFlightMu.Lock()
	delete(p.inFlight, jobID)
	p.inFlightMu.Unlock()
}
