package workflows

import (
	"context"
	"errors"
	"fmt"

	"docudive/internal/service"
	"docudive/internal/util"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

// Dispatcher runs ingest and clear as Temporal workflows and waits for the
// result. It has the same shape as the in-process service calls.
type Dispatcher struct {
	client    tclient.Client
	taskQueue string
}

func NewDispatcher(c tclient.Client, taskQueue string) *Dispatcher {
	return &Dispatcher{client: c, taskQueue: taskQueue}
}

func (d *Dispatcher) Ingest(ctx context.Context, opts service.IngestOptions) (service.IngestResult, error) {
	var out IngestOutput
	err := d.run(ctx, IngestWorkflow, IngestInput{RequestID: uuid.NewString(), Reset: opts.Reset, Sync: opts.Sync}, &out)
	if err != nil {
		return service.IngestResult{}, err
	}
	return service.IngestResult{Report: out.Report, Synced: out.Synced, Cleared: out.Cleared}, nil
}

func (d *Dispatcher) Clear(ctx context.Context) (service.ClearResult, error) {
	var out ClearOutput
	if err := d.run(ctx, ClearWorkflow, ClearInput{RequestID: uuid.NewString()}, &out); err != nil {
		return service.ClearResult{}, err
	}
	return service.ClearResult{Entries: out.Entries, Objects: out.Objects}, nil
}

func (d *Dispatcher) run(ctx context.Context, wf any, input any, out any) error {
	we, err := d.client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       WriterWorkflowID,
		TaskQueue:                                d.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, wf, input)
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			return util.ErrIngestRunning
		}
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := we.Get(ctx, out); err != nil {
		return restoreKind(fmt.Sprintf("workflow %s", we.GetRunID()), err)
	}
	return nil
}

// restoreKind re-attaches the util error kind named by the activity's
// application error type. The sentinel itself does not cross the wire.
func restoreKind(op string, err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		if kind := util.KindByName(appErr.Type()); kind != nil {
			return util.WrapOp(op, kind, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
