package stint

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Option configures a Runtime.
type Option func(*Runtime) error

// Storer is the minimal store interface held by the Runtime.
// It covers lifecycle operations only. The full composite interface
// (store.Store) is used in subsystem layers that don't create import
// cycles. Implementations satisfy store.Store which embeds all
// subsystem stores.
type Storer interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// pollerRunner is an internal interface for the alarm poller lifecycle.
type pollerRunner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// hookEmitter is an internal interface for hook lifecycle events.
type hookEmitter interface {
	EmitShutdown(ctx context.Context)
}

// Runtime is the central coordinator for durable job actors: the persisted
// state machine, the alarm-driven resumption loop, and workflow handoff.
//
// Create one with New() and functional options. The Runtime holds
// references to subsystem components via internal interfaces to avoid
// import cycles. Use engine.Build to wire everything together.
type Runtime struct {
	config Config
	logger *slog.Logger
	store  Storer
	hooks  hookEmitter
	poller pollerRunner

	// started tracks whether Start has been called.
	started bool
}

// New creates a new Runtime with the given options.
func New(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// Store returns the runtime's store.
func (rt *Runtime) Store() Storer { return rt.store }

// Config returns a copy of the runtime's configuration.
func (rt *Runtime) Config() Config { return rt.config }

// SetPoller sets the alarm poller (called by the engine package).
func (rt *Runtime) SetPoller(p pollerRunner) { rt.poller = p }

// SetHooks sets the hook emitter (called by the engine package).
func (rt *Runtime) SetHooks(h hookEmitter) { rt.hooks = h }

// Start begins firing due resumptions.
func (rt *Runtime) Start(ctx context.Context) error {
	if rt.poller == nil {
		return errors.New("stint: no poller configured; build the runtime with engine.Build")
	}
	if err := rt.poller.Start(ctx); err != nil {
		return err
	}
	rt.started = true
	return nil
}

// Stop gracefully shuts down the runtime.
func (rt *Runtime) Stop(ctx context.Context) error {
	if rt.poller != nil && rt.started {
		if err := rt.poller.Stop(ctx); err != nil {
			rt.logger.Error("poller stop error", "error", err)
		}
	}
	if rt.hooks != nil {
		rt.hooks.EmitShutdown(ctx)
	}
	if rt.store != nil {
		return rt.store.Close()
	}
	return nil
}

// WithAcceptDelay sets the delay before a newly accepted job's first
// resumption.
func WithAcceptDelay(d time.Duration) Option {
	return func(rt *Runtime) error {
		rt.config.AcceptDelay = d
		return nil
	}
}

// WithContinueDelay sets the delay between a continue outcome and the
// next resumption.
func WithContinueDelay(d time.Duration) Option {
	return func(rt *Runtime) error {
		rt.config.ContinueDelay = d
		return nil
	}
}

// WithConfig replaces the runtime configuration wholesale.
func WithConfig(c Config) Option {
	return func(rt *Runtime) error {
		rt.config = c
		return nil
	}
}

// WithLogger sets the structured logger for the runtime.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) error {
		rt.logger = l
		return nil
	}
}

// WithStore sets the persistence backend for the runtime.
// The store must implement Storer at minimum; typically it will be a
// store.Store which embeds all subsystem store interfaces.
func WithStore(s Storer) Option {
	return func(rt *Runtime) error {
		rt.store = s
		return nil
	}
}
