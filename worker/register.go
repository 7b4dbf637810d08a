package worker

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
)

// Register adds the extraction workflow and activities to a Temporal worker.
func Register(r worker.Registry, a *Activities) {
	r.RegisterWorkflow(ExtractWorkflow)
	r.RegisterActivityWithOptions(a.ExtractEvidence, activity.RegisterOptions{Name: ExtractActivityName})
}
