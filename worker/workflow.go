package worker

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// DefaultTaskQueue is the task queue extraction workers poll.
const DefaultTaskQueue = "evidence-extraction"

// Activity timeouts used by ExtractWorkflow.
const (
	DefaultStartToCloseTimeout = 30 * time.Minute
	DefaultHeartbeatTimeout    = 2 * time.Minute
)

// ExtractWorkflow runs the extraction activity once with a heartbeat timeout.
// A worker that stops heartbeating is considered dead and the attempt is retried.
func ExtractWorkflow(ctx workflow.Context, req ExtractRequest) (*ExtractResponse, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: DefaultStartToCloseTimeout,
		HeartbeatTimeout:    DefaultHeartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeInvalidTranscript},
		},
	})

	var resp ExtractResponse
	if err := workflow.ExecuteActivity(ctx, ExtractActivityName, req).Get(ctx, &resp); err != nil {
		return nil, err
	}
	workflow.GetLogger(ctx).Info("extraction workflow complete",
		"run_id", resp.RunID,
		"evidence", evidenceCount(&resp))
	return &resp, nil
}

func evidenceCount(resp *ExtractResponse) int {
	if resp.Result == nil {
		return 0
	}
	return len(resp.Result.Evidence)
}
