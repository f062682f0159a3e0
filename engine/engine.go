package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/backoff"
	"github.com/xraph/stint/content"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/hook"
	"github.com/xraph/stint/id"
	"github.com/xraph/stint/joblog"
	mw "github.com/xraph/stint/middleware"
	"github.com/xraph/stint/runner"
	"github.com/xraph/stint/sweep"
)

// logCollection is the default collection job log records are written to.
const logCollection = "job_logs"

// Engine wraps a Runtime with typed subsystem access.
// Use Build() to create one from a Runtime.
type Engine struct {
	rt       *stint.Runtime
	hooks    *hook.Registry
	registry *actor.Registry
	logger   *slog.Logger

	stateStore   actor.Store
	timerStore   alarm.Store
	contentStore content.Store

	controller *runner.Controller
	poller     *alarm.Poller
	sweeper    *sweep.Sweeper

	// Build-time options.
	mws            []mw.Middleware
	recorder       joblog.Recorder
	graphs         flow.GraphSource
	interp         flow.Interpreter
	bo             backoff.Strategy
	fireRate       float64
	retentionExpr  string
	retentionTTL   time.Duration
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithHook registers a lifecycle hook with the engine.
func WithHook(h hook.Hook) Option {
	return func(eng *Engine) {
		eng.hooks.Register(h)
	}
}

// WithMiddleware adds middleware to the engine's slice execution chain,
// after the default stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithRecorder replaces the default content-backed job log recorder.
func WithRecorder(r joblog.Recorder) Option {
	return func(eng *Engine) {
		eng.recorder = r
	}
}

// WithGraphSource sets the workflow step graph source. Handoff requires
// both a graph source and an interpreter.
func WithGraphSource(g flow.GraphSource) Option {
	return func(eng *Engine) {
		eng.graphs = g
	}
}

// WithInterpreter sets the external flow interpreter.
func WithInterpreter(i flow.Interpreter) Option {
	return func(eng *Engine) {
		eng.interp = i
	}
}

// WithBackoff sets the poller's store-error backoff strategy.
// If not set, backoff.DefaultStrategy() (exponential with jitter) is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) {
		eng.bo = b
	}
}

// WithFireRateLimit caps resumption fires per second across all jobs.
func WithFireRateLimit(perSecond float64) Option {
	return func(eng *Engine) {
		eng.fireRate = perSecond
	}
}

// WithRetention enables the retention sweeper: terminal job states are
// purged after ttl, on the given cron schedule ("@every 1h", "0 3 * * *").
func WithRetention(schedule string, ttl time.Duration) Option {
	return func(eng *Engine) {
		eng.retentionExpr = schedule
		eng.retentionTTL = ttl
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// Build creates an Engine from an existing Runtime. The Runtime's store
// must implement actor.Store, alarm.Store, and content.Store (every
// bundled backend does).
func Build(rt *stint.Runtime, opts ...Option) (*Engine, error) {
	logger := rt.Logger()
	store := rt.Store()

	if store == nil {
		return nil, stint.ErrNoStore
	}

	as, ok := store.(actor.Store)
	if !ok {
		return nil, fmt.Errorf("stint: store does not implement actor.Store")
	}
	ts, ok := store.(alarm.Store)
	if !ok {
		return nil, fmt.Errorf("stint: store does not implement alarm.Store")
	}
	cs, ok := store.(content.Store)
	if !ok {
		return nil, fmt.Errorf("stint: store does not implement content.Store")
	}

	eng := &Engine{
		rt:           rt,
		hooks:        hook.NewRegistry(logger),
		registry:     actor.NewRegistry(),
		logger:       logger,
		stateStore:   as,
		timerStore:   ts,
		contentStore: cs,
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.bo == nil {
		eng.bo = backoff.DefaultStrategy()
	}
	if eng.recorder == nil {
		eng.recorder = joblog.NewContentRecorder(cs, logCollection, logger)
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer("github.com/xraph/stint")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/stint")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	config := rt.Config()

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger),
		mw.Timeout(config.SliceTimeout),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	ctrlOpts := []runner.ControllerOption{
		runner.WithConfig(config),
		runner.WithMiddleware(mw.Chain(allMws...)),
		runner.WithEmitter(eng.hooks),
	}
	if eng.graphs != nil && eng.interp != nil {
		ctrlOpts = append(ctrlOpts, runner.WithOrchestrator(
			flow.NewOrchestrator(eng.graphs, eng.interp, logger),
		))
	}
	eng.controller = runner.NewController(as, ts, eng.recorder, eng.registry, logger, ctrlOpts...)

	pollerOpts := []alarm.PollerOption{
		alarm.WithTickInterval(config.TickInterval),
		alarm.WithFireConcurrency(config.FireConcurrency),
		alarm.WithBackoff(eng.bo),
	}
	if eng.fireRate > 0 {
		pollerOpts = append(pollerOpts, alarm.WithRateLimit(eng.fireRate))
	}
	eng.poller = alarm.NewPoller(ts, eng.controller.OnResume, logger, pollerOpts...)

	if eng.retentionExpr != "" {
		sweeper, err := sweep.New(as, ts, eng.retentionExpr, eng.retentionTTL, logger)
		if err != nil {
			return nil, err
		}
		eng.sweeper = sweeper
	}

	// Wire back into the Runtime.
	rt.SetPoller(eng.poller)
	rt.SetHooks(eng.hooks)

	return eng, nil
}

// Register binds a processor to a job kind.
func (eng *Engine) Register(kind string, p actor.Processor) {
	eng.registry.Register(kind, p)
}

// StartJob accepts a job with a structured request. Idempotent: repeat
// calls for the same job ID are no-ops.
func (eng *Engine) StartJob(ctx context.Context, jobID id.JobID, req *actor.Request, cfg *actor.ExecConfig) error {
	reqData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request for job %s: %w", jobID, err)
	}
	var cfgData []byte
	if cfg != nil {
		if cfgData, err = json.Marshal(cfg); err != nil {
			return fmt.Errorf("marshal config for job %s: %w", jobID, err)
		}
	}
	return eng.controller.Start(ctx, jobID, reqData, cfgData)
}

// StartJobRaw accepts a job with pre-serialized request and config
// payloads, for callers that pass them through verbatim.
func (eng *Engine) StartJobRaw(ctx context.Context, jobID id.JobID, request, config []byte) error {
	return eng.controller.Start(ctx, jobID, request, config)
}

// Status reports a job's current status.
func (eng *Engine) Status(ctx context.Context, jobID id.JobID) (*actor.StatusReport, error) {
	return eng.controller.Status(ctx, jobID)
}

// Resume runs one resumption slice for a job immediately, bypassing the
// poller. Intended for tests and operational tooling.
func (eng *Engine) Resume(ctx context.Context, jobID id.JobID) error {
	return eng.controller.OnResume(ctx, jobID)
}

// Start begins job processing: the alarm poller and, when configured,
// the retention sweeper.
func (eng *Engine) Start(ctx context.Context) error {
	if eng.sweeper != nil {
		if err := eng.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("start retention sweeper: %w", err)
		}
	}
	return eng.rt.Start(ctx)
}

// Stop gracefully shuts down the engine.
func (eng *Engine) Stop(ctx context.Context) error {
	if eng.sweeper != nil {
		if err := eng.sweeper.Stop(ctx); err != nil {
			eng.logger.Error("retention sweeper stop error", slog.String("error", err.Error()))
		}
	}
	return eng.rt.Stop(ctx)
}

// Hooks returns the hook registry.
func (eng *Engine) Hooks() *hook.Registry { return eng.hooks }

// Registry returns the processor registry.
func (eng *Engine) Registry() *actor.Registry { return eng.registry }

// Runtime returns the underlying Runtime.
func (eng *Engine) Runtime() *stint.Runtime { return eng.rt }

// Controller returns the lifecycle controller.
func (eng *Engine) Controller() *runner.Controller { return eng.controller }

// ContentStore returns the content store jobs read inputs from and
// write outputs to.
func (eng *Engine) ContentStore() content.Store { return eng.contentStore }
