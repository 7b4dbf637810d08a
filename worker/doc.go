// Package worker runs the extraction pipeline inside Temporal.
//
// The task host of the pipeline is a Temporal activity. Each liveness signal
// from the executor becomes activity.RecordHeartbeat, which is non-blocking
// and throttled by the SDK; if heartbeats stop for longer than the
// activity's heartbeat timeout, Temporal fails the attempt and retries it on
// another worker.
//
//	acts, err := worker.NewActivities(provider.EvidenceExtractor())
//	w := tworker.New(c, worker.DefaultTaskQueue, tworker.Options{})
//	worker.Register(w, acts)
package worker
