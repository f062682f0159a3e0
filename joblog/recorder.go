package joblog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/stint/content"
	"github.com/xraph/stint/flow"
)

// itemType is the content item type used for job log records.
const itemType = "job_log"

// ContentRecorder implements Recorder on top of a content.Store: each log
// record is stored as one item in a logs collection.
type ContentRecorder struct {
	store      content.Store
	collection string
	logger     *slog.Logger
}

// NewContentRecorder creates a ContentRecorder writing into the given
// collection.
func NewContentRecorder(store content.Store, collection string, logger *slog.Logger) *ContentRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentRecorder{store: store, collection: collection, logger: logger}
}

// WriteInitial persists the initial log record and returns the created
// item's ID as the log file ID.
func (r *ContentRecorder) WriteInitial(ctx context.Context, e *Entry, messages []string) (string, error) {
	props := map[string]any{
		"job_id":     e.JobID.String(),
		"log_id":     e.LogID.String(),
		"kind":       e.Kind,
		"status":     string(StatusRunning),
		"started_at": e.StartedAt.UTC().Format(time.RFC3339Nano),
		"messages":   messages,
	}
	if e.AgentID != "" {
		props["agent_id"] = e.AgentID
	}
	if e.WorkflowID != "" {
		props["workflow_id"] = e.WorkflowID
	}

	item, err := r.store.CreateItem(ctx, itemType, r.collection, props, nil)
	if err != nil {
		return "", fmt.Errorf("write initial job log: %w", err)
	}

	r.logger.Debug("job log written",
		slog.String("job_id", e.JobID.String()),
		slog.String("log_file_id", item.ID),
	)

	return item.ID, nil
}

// UpdateStatus finalizes the record to the given status.
func (r *ContentRecorder) UpdateStatus(ctx context.Context, logFileID string, status Status, messages []string) error {
	_, err := r.store.UpdateItem(ctx, logFileID, map[string]any{
		"status":       string(status),
		"messages":     messages,
		"finalized_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("update job log %s status: %w", logFileID, err)
	}
	return nil
}

// RecordFailure finalizes the record as failed.
func (r *ContentRecorder) RecordFailure(ctx context.Context, logFileID string, batch *flow.Batch, jobErr error, messages []string) error {
	props := map[string]any{
		"status":       string(StatusError),
		"error":        jobErr.Error(),
		"messages":     messages,
		"finalized_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if batch != nil {
		props["batch_group_id"] = batch.GroupID
		props["batch_index"] = batch.Index
		props["batch_total"] = batch.Total
	}

	if _, err := r.store.UpdateItem(ctx, logFileID, props); err != nil {
		return fmt.Errorf("record job log %s failure: %w", logFileID, err)
	}
	return nil
}

// AppendHandoffRecords appends handoff records to the log item.
func (r *ContentRecorder) AppendHandoffRecords(ctx context.Context, logFileID string, records []flow.HandoffRecord) error {
	if len(records) == 0 {
		return nil
	}

	item, err := r.store.GetItem(ctx, logFileID)
	if err != nil {
		return fmt.Errorf("load job log %s for handoff append: %w", logFileID, err)
	}

	existing, _ := item.Properties["handoffs"].([]any)
	for _, rec := range records {
		existing = append(existing, map[string]any{
			"action":      rec.Action,
			"target":      rec.Target,
			"target_type": rec.TargetType,
			"at":          rec.At.UTC().Format(time.RFC3339Nano),
		})
	}

	if _, err := r.store.UpdateItem(ctx, logFileID, map[string]any{"handoffs": existing}); err != nil {
		return fmt.Errorf("append handoff records to job log %s: %w", logFileID, err)
	}
	return nil
}
