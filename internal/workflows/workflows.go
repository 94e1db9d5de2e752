package workflows

import (
	"time"

	"docudive/internal/activities"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetProgress = "GetProgress"

// WriterWorkflowID is shared by ingest and clear runs so at most one of them
// writes to the store at a time.
const WriterWorkflowID = "docudive-writer"

func activityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
}

func IngestWorkflow(ctx workflow.Context, input IngestInput) (IngestOutput, error) {
	progress := IngestProgress{
		RequestID: input.RequestID,
		Status:    "running",
		Steps:     map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (IngestProgress, error) {
		return progress, nil
	}); err != nil {
		return IngestOutput{}, err
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions())

	step := func(name string, run func() error) error {
		progress.CurrentStep = name
		progress.Steps[name] = "processing"
		if err := run(); err != nil {
			progress.Steps[name] = "failed"
			progress.Status = "failed"
			return err
		}
		progress.Steps[name] = "done"
		return nil
	}

	var out IngestOutput
	if input.Sync {
		err := step("sync_documents", func() error {
			var syncOut activities.SyncDocumentsOutput
			if err := workflow.ExecuteActivity(ctx, "SyncDocumentsActivity", activities.SyncDocumentsInput{RequestID: input.RequestID}).Get(ctx, &syncOut); err != nil {
				return err
			}
			out.Synced = len(syncOut.Paths)
			return nil
		})
		if err != nil {
			return IngestOutput{}, err
		}
	}
	if input.Reset {
		err := step("clear_store", func() error {
			var clearOut activities.ClearStoreOutput
			if err := workflow.ExecuteActivity(ctx, "ClearStoreActivity", activities.ClearStoreInput{RequestID: input.RequestID}).Get(ctx, &clearOut); err != nil {
				return err
			}
			out.Cleared = clearOut.Removed
			return nil
		})
		if err != nil {
			return IngestOutput{}, err
		}
	}
	err := step("ingest_documents", func() error {
		var ingestOut activities.IngestDocumentsOutput
		if err := workflow.ExecuteActivity(ctx, "IngestDocumentsActivity", activities.IngestDocumentsInput{RequestID: input.RequestID}).Get(ctx, &ingestOut); err != nil {
			return err
		}
		out.Report = ingestOut.Report
		return nil
	})
	if err != nil {
		return IngestOutput{}, err
	}
	progress.Status = "completed"
	workflow.GetLogger(ctx).Info("ingest completed", "added", out.Report.Added, "synced", out.Synced, "cleared", out.Cleared)
	return out, nil
}

func ClearWorkflow(ctx workflow.Context, input ClearInput) (ClearOutput, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	var res activities.ClearAllOutput
	if err := workflow.ExecuteActivity(ctx, "ClearAllActivity", activities.ClearAllInput{RequestID: input.RequestID}).Get(ctx, &res); err != nil {
		return ClearOutput{}, err
	}
	return ClearOutput{Entries: res.Entries, Objects: res.Objects}, nil
}
