package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/alarm"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/id"
	"github.com/xraph/stint/joblog"
	"github.com/xraph/stint/middleware"
)

// Emitter receives lifecycle events from the controller.
// hook.Registry satisfies this interface.
type Emitter interface {
	EmitJobAccepted(ctx context.Context, st *actor.JobState)
	EmitJobResumed(ctx context.Context, st *actor.JobState)
	EmitJobContinued(ctx context.Context, st *actor.JobState, nextAt time.Time)
	EmitJobCompleted(ctx context.Context, st *actor.JobState, outputs []string, elapsed time.Duration)
	EmitJobFailed(ctx context.Context, st *actor.JobState, err error)
	EmitHandoffDispatched(ctx context.Context, jobID id.JobID, decision *flow.Decision)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithOrchestrator sets the workflow handoff orchestrator. Without one,
// completed jobs skip the handoff step.
func WithOrchestrator(o *flow.Orchestrator) ControllerOption {
	return func(c *Controller) { c.orchestrator = o }
}

// WithMiddleware sets the middleware wrapping every resumption slice.
// Typically a middleware.Chain.
func WithMiddleware(mw middleware.Middleware) ControllerOption {
	return func(c *Controller) { c.mw = mw }
}

// WithEmitter sets the lifecycle event emitter.
func WithEmitter(e Emitter) ControllerOption {
	return func(c *Controller) { c.emitter = e }
}

// WithConfig overrides the controller's timing configuration.
func WithConfig(cfg stint.Config) ControllerOption {
	return func(c *Controller) { c.config = cfg }
}

// Controller drives the per-job state machine. It is the FireFunc target
// of the alarm poller and the backend of the start/status API.
type Controller struct {
	states   actor.Store
	timers   alarm.Store
	recorder joblog.Recorder
	registry *actor.Registry
	logger   *slog.Logger

	orchestrator *flow.Orchestrator
	mw           middleware.Middleware
	emitter      Emitter
	config       stint.Config

	locks *keyedMutex
}

// NewController creates a Controller.
func NewController(
	states actor.Store,
	timers alarm.Store,
	recorder joblog.Recorder,
	registry *actor.Registry,
	logger *slog.Logger,
	opts ...ControllerOption,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		states:   states,
		timers:   timers,
		recorder: recorder,
		registry: registry,
		logger:   logger,
		config:   stint.DefaultConfig(),
		locks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start accepts a job. The first call persists the state machine in
// status accepted and schedules the first resumption after AcceptDelay;
// every later call for the same ID is a no-op reporting acceptance, no
// matter what the payload says or how far the job has progressed.
func (c *Controller) Start(ctx context.Context, jobID id.JobID, request, config []byte) error {
	unlock := c.locks.Lock(jobID)
	defer unlock()

	if _, err := c.states.GetState(ctx, jobID); err == nil {
		return nil // already accepted; idempotent
	} else if !errors.Is(err, stint.ErrJobNotFound) {
		return fmt.Errorf("check existing job %s: %w", jobID, err)
	}

	st := &actor.JobState{
		Entity:  stint.NewEntity(),
		JobID:   jobID,
		Request: request,
		Config:  config,
		LogID:   id.NewLogID(),
		Status:  actor.StatusAccepted,
	}
	if err := c.states.CreateState(ctx, st); err != nil {
		if errors.Is(err, stint.ErrJobAlreadyExists) {
			return nil // lost a race with another starter; still accepted
		}
		return fmt.Errorf("persist job %s: %w", jobID, err)
	}

	fireAt := time.Now().UTC().Add(c.config.AcceptDelay)
	if err := c.timers.SetTimer(ctx, &alarm.Timer{JobID: jobID, FireAt: fireAt}); err != nil {
		return fmt.Errorf("schedule first resumption for job %s: %w", jobID, err)
	}

	c.logger.Info("job accepted",
		slog.String("job_id", jobID.String()),
		slog.Time("first_resume_at", fireAt),
	)
	if c.emitter != nil {
		c.emitter.EmitJobAccepted(ctx, st)
	}
	return nil
}

// Status reports the job's current status. Returns stint.ErrJobNotFound
// for unknown jobs.
func (c *Controller) Status(ctx context.Context, jobID id.JobID) (*actor.StatusReport, error) {
	st, err := c.states.GetState(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &actor.StatusReport{Status: st.Status, Error: st.Error}, nil
}

// OnResume runs one resumption slice for the job. It is the alarm
// poller's FireFunc.
//
// Job-level failures (bad input, no processor, processor error, handoff
// error) are absorbed into the job's terminal error state and do not
// propagate. The returned error is reserved for infrastructure trouble:
// the timer stays due and the next tick retries the slice, which the
// checkpoint discipline makes safe.
func (c *Controller) OnResume(ctx context.Context, jobID id.JobID) error {
	unlock := c.locks.Lock(jobID)
	defer unlock()

	st, err := c.states.GetState(ctx, jobID)
	if err != nil {
		if errors.Is(err, stint.ErrJobNotFound) {
			// Orphaned timer; drop it.
			return c.timers.ClearTimer(ctx, jobID)
		}
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	if st.Status.Terminal() {
		// A crash between finalizing and clearing the timer leaves the
		// timer due; this guard makes the re-fire harmless.
		return c.timers.ClearTimer(ctx, jobID)
	}

	if c.emitter != nil {
		c.emitter.EmitJobResumed(ctx, st)
	}

	if st.Status == actor.StatusAccepted {
		st.Status = actor.StatusProcessing
		st.Touch()
		if err := c.states.UpdateState(ctx, st); err != nil {
			return fmt.Errorf("mark job %s processing: %w", jobID, err)
		}
	}

	req, err := st.DecodeRequest()
	if err != nil {
		return c.fail(ctx, st, nil, nil, err)
	}
	cfg, err := st.DecodeConfig()
	if err != nil {
		return c.fail(ctx, st, req, nil, err)
	}

	proc, ok := c.registry.Get(req.Kind)
	if !ok {
		return c.fail(ctx, st, req, nil, fmt.Errorf("%w: kind %q", stint.ErrNoProcessor, req.Kind))
	}

	inv := actor.NewInvocation(jobID, req, cfg, c.states)

	var result actor.Result
	run := func(ctx context.Context) error {
		var procErr error
		result, procErr = proc.Process(ctx, inv)
		return procErr
	}
	if c.mw != nil {
		err = c.mw(ctx, st, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return c.fail(ctx, st, req, inv.Messages(), err)
	}

	switch result.Outcome {
	case actor.OutcomeContinue:
		return c.scheduleContinue(ctx, st)
	case actor.OutcomeDone:
		return c.finalize(ctx, st, req, cfg, inv, result.Outputs)
	default:
		return c.fail(ctx, st, req, inv.Messages(), fmt.Errorf("%w: processor returned outcome %q", stint.ErrInvalidState, result.Outcome))
	}
}

// scheduleContinue replaces the job's timer so the next slice fires
// after ContinueDelay.
func (c *Controller) scheduleContinue(ctx context.Context, st *actor.JobState) error {
	nextAt := time.Now().UTC().Add(c.config.ContinueDelay)
	if err := c.timers.SetTimer(ctx, &alarm.Timer{JobID: st.JobID, FireAt: nextAt}); err != nil {
		// The fired timer is still in the store, so the slice re-fires
		// on a later tick and the checkpoint picks up from there.
		return fmt.Errorf("schedule continuation for job %s: %w", st.JobID, err)
	}
	c.logger.Debug("job continued",
		slog.String("job_id", st.JobID.String()),
		slog.Time("next_resume_at", nextAt),
	)
	if c.emitter != nil {
		c.emitter.EmitJobContinued(ctx, st, nextAt)
	}
	return nil
}

// finalize runs the completion sequence: write the log record, dispatch
// the workflow handoff, append its record, then flip the state to done
// and clear the timer. The order matters: the handoff record lands in
// the log before the status does, so a reader never sees a done job
// whose log is missing its routing. A recorder or persist failure
// anywhere in the sequence fails the job like any other job-level
// error.
func (c *Controller) finalize(
	ctx context.Context,
	st *actor.JobState,
	req *actor.Request,
	cfg *actor.ExecConfig,
	inv *actor.Invocation,
	outputs []string,
) error {
	messages := inv.Messages()

	if st.LogFileID == "" {
		entry := &joblog.Entry{
			JobID:     st.JobID,
			LogID:     st.LogID,
			Kind:      req.Kind,
			AgentID:   cfg.AgentID,
			StartedAt: st.CreatedAt,
		}
		if req.Workflow != nil {
			entry.WorkflowID = req.Workflow.WorkflowID
		}
		logFileID, err := c.recorder.WriteInitial(ctx, entry, messages)
		if err != nil {
			return c.fail(ctx, st, req, messages, fmt.Errorf("write log record: %w", err))
		}
		// Persist the ID before anything else so a crash later never
		// creates a second record.
		st.LogFileID = logFileID
		st.Touch()
		if err := c.states.UpdateState(ctx, st); err != nil {
			return c.fail(ctx, st, req, messages, fmt.Errorf("persist log file id: %w", err))
		}
	}

	if c.orchestrator != nil && req.Workflow != nil {
		decision, err := c.orchestrator.Dispatch(ctx, req.Workflow, &flow.HandoffContext{
			Outputs:     outputs,
			WorkflowID:  req.Workflow.WorkflowID,
			AgentID:     cfg.AgentID,
			JobID:       st.JobID,
			Collections: req.Workflow.Collections,
			LogFileID:   st.LogFileID,
			Path:        req.Workflow.Path,
			Batch:       req.Workflow.Batch,
			Token:       cfg.Token,
		})
		if err != nil {
			return c.fail(ctx, st, req, messages, fmt.Errorf("workflow handoff: %w", err))
		}
		if decision != nil {
			if decision.HandoffRecord != nil {
				if err := c.recorder.AppendHandoffRecords(ctx, st.LogFileID, []flow.HandoffRecord{*decision.HandoffRecord}); err != nil {
					return c.fail(ctx, st, req, messages, fmt.Errorf("append handoff record: %w", err))
				}
			}
			if c.emitter != nil {
				c.emitter.EmitHandoffDispatched(ctx, st.JobID, decision)
			}
		}
	}

	if err := c.recorder.UpdateStatus(ctx, st.LogFileID, joblog.StatusDone, messages); err != nil {
		return c.fail(ctx, st, req, messages, fmt.Errorf("finalize log record: %w", err))
	}

	st.Status = actor.StatusDone
	st.Touch()
	if err := c.states.UpdateState(ctx, st); err != nil {
		return fmt.Errorf("mark job %s done: %w", st.JobID, err)
	}
	if err := c.timers.ClearTimer(ctx, st.JobID); err != nil {
		// Terminal guard makes a leftover timer harmless; log and move on.
		c.logger.Warn("clear timer after completion",
			slog.String("job_id", st.JobID.String()),
			slog.String("error", err.Error()),
		)
	}

	elapsed := time.Since(st.CreatedAt)
	c.logger.Info("job completed",
		slog.String("job_id", st.JobID.String()),
		slog.Int("outputs", len(outputs)),
		slog.Duration("elapsed", elapsed),
	)
	if c.emitter != nil {
		c.emitter.EmitJobCompleted(ctx, st, outputs, elapsed)
	}
	return nil
}

// fail moves the job to its terminal error state. The error lives in the
// state machine always, and in the log record too when one exists; a
// failure before the first log write leaves no log record to finalize.
func (c *Controller) fail(ctx context.Context, st *actor.JobState, req *actor.Request, messages []string, jobErr error) error {
	st.Status = actor.StatusError
	st.Error = jobErr.Error()
	st.Touch()
	if err := c.states.UpdateState(ctx, st); err != nil {
		// Not terminal yet; the timer is still due and the slice will
		// re-fire and fail again.
		return fmt.Errorf("mark job %s failed: %w", st.JobID, err)
	}

	if st.LogFileID != "" {
		var batch *flow.Batch
		if req != nil && req.Workflow != nil {
			batch = req.Workflow.Batch
		}
		if err := c.recorder.RecordFailure(ctx, st.LogFileID, batch, jobErr, messages); err != nil {
			c.logger.Error("record job failure",
				slog.String("job_id", st.JobID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := c.timers.ClearTimer(ctx, st.JobID); err != nil {
		c.logger.Warn("clear timer after failure",
			slog.String("job_id", st.JobID.String()),
			slog.String("error", err.Error()),
		)
	}

	c.logger.Error("job failed",
		slog.String("job_id", st.JobID.String()),
		slog.String("error", jobErr.Error()),
	)
	if c.emitter != nil {
		c.emitter.EmitJobFailed(ctx, st, jobErr)
	}
	return nil
}
