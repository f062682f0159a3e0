package observability

import (
	"context"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/flow"
	"github.com/xraph/stint/hook"
	"github.com/xraph/stint/id"
)

// Compile-time interface checks.
var (
	_ hook.Hook              = (*MetricsHook)(nil)
	_ hook.JobAccepted       = (*MetricsHook)(nil)
	_ hook.JobResumed        = (*MetricsHook)(nil)
	_ hook.JobContinued      = (*MetricsHook)(nil)
	_ hook.JobCompleted      = (*MetricsHook)(nil)
	_ hook.JobFailed         = (*MetricsHook)(nil)
	_ hook.HandoffDispatched = (*MetricsHook)(nil)
)

// MetricsHook records system-wide lifecycle metrics via go-utils MetricFactory.
// Register it as a Stint hook to automatically track acceptance rates,
// resumption counts, continuation counts, completion counts, failure rates,
// and handoff dispatches.
type MetricsHook struct {
	JobAccepted       gu.Counter
	JobResumed        gu.Counter
	JobContinued      gu.Counter
	JobCompleted      gu.Counter
	JobFailed         gu.Counter
	HandoffDispatched gu.Counter
}

// NewMetricsHook creates a MetricsHook using a default metrics collector.
func NewMetricsHook() *MetricsHook {
	return NewMetricsHookWithFactory(gu.NewMetricsCollector("stint/observability"))
}

// NewMetricsHookWithFactory creates a MetricsHook with the provided
// MetricFactory. Use fapp.Metrics() in forge extensions, or
// gu.NewMetricsCollector for testing.
func NewMetricsHookWithFactory(factory gu.MetricFactory) *MetricsHook {
	return &MetricsHook{
		JobAccepted:       factory.Counter("stint.job.accepted"),
		JobResumed:        factory.Counter("stint.job.resumed"),
		JobContinued:      factory.Counter("stint.job.continued"),
		JobCompleted:      factory.Counter("stint.job.completed"),
		JobFailed:         factory.Counter("stint.job.failed"),
		HandoffDispatched: factory.Counter("stint.job.handoff_dispatched"),
	}
}

// Name implements hook.Hook.
func (m *MetricsHook) Name() string { return "observability-metrics" }

// OnJobAccepted implements hook.JobAccepted.
func (m *MetricsHook) OnJobAccepted(_ context.Context, _ *actor.JobState) error {
	m.JobAccepted.Inc()
	return nil
}

// OnJobResumed implements hook.JobResumed.
func (m *MetricsHook) OnJobResumed(_ context.Context, _ *actor.JobState) error {
	m.JobResumed.Inc()
	return nil
}

// OnJobContinued implements hook.JobContinued.
func (m *MetricsHook) OnJobContinued(_ context.Context, _ *actor.JobState, _ time.Time) error {
	m.JobContinued.Inc()
	return nil
}

// OnJobCompleted implements hook.JobCompleted.
func (m *MetricsHook) OnJobCompleted(_ context.Context, _ *actor.JobState, _ []string, _ time.Duration) error {
	m.JobCompleted.Inc()
	return nil
}

// OnJobFailed implements hook.JobFailed.
func (m *MetricsHook) OnJobFailed(_ context.Context, _ *actor.JobState, _ error) error {
	m.JobFailed.Inc()
	return nil
}

// OnHandoffDispatched implements hook.HandoffDispatched.
func (m *MetricsHook) OnHandoffDispatched(_ context.Context, _ id.JobID, _ *flow.Decision) error {
	m.HandoffDispatched.Inc()
	return nil
}
