package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/evidence/ai"
	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/extraction"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// ExtractActivityName is the registered name of Activities.ExtractEvidence.
const ExtractActivityName = "ExtractEvidence"

// ErrTypeInvalidTranscript is the application error type for transcripts that
// fail validation. Such failures are not retried.
const ErrTypeInvalidTranscript = "InvalidTranscript"

// ExtractRequest is the input of the extraction activity.
type ExtractRequest struct {
	RunID      string           `json:"run_id,omitempty"`
	ScopeID    string           `json:"scope_id,omitempty"`
	Utterances []core.Utterance `json:"utterances"`
	// BatchSize and Concurrency override the worker defaults when positive.
	BatchSize   int `json:"batch_size,omitempty"`
	Concurrency int `json:"concurrency,omitempty"`
}

// ExtractResponse is the output of the extraction activity.
type ExtractResponse struct {
	RunID    string                   `json:"run_id"`
	ScopeID  string                   `json:"scope_id,omitempty"`
	Result   *core.ExtractionResult   `json:"result"`
	Progress extraction.PhaseProgress `json:"progress"`
	Elapsed  time.Duration            `json:"elapsed"`
}

// Activities hosts the extraction pipeline as Temporal activities.
type Activities struct {
	extractor   ai.EvidenceExtractor
	batchSize   int
	concurrency int
	window      [2]int

	// recordHeartbeat is activity.RecordHeartbeat outside of tests.
	recordHeartbeat func(ctx context.Context, details ...interface{})
}

// Option configures Activities.
type Option func(*Activities) error

// WithBatchSize sets the default utterances per extraction call.
func WithBatchSize(size int) Option {
	return func(a *Activities) error {
		a.batchSize = size
		return nil
	}
}

// WithConcurrency sets the default number of concurrent extraction calls.
func WithConcurrency(n int) Option {
	return func(a *Activities) error {
		a.concurrency = n
		return nil
	}
}

// WithProgressWindow sets the percentage window extraction reports within.
func WithProgressWindow(start, end int) Option {
	return func(a *Activities) error {
		if _, err := extraction.NewPhaseReporter(nil, extraction.WithWindow(start, end)); err != nil {
			return err
		}
		a.window = [2]int{start, end}
		return nil
	}
}

// NewActivities creates extraction activities backed by extractor.
func NewActivities(extractor ai.EvidenceExtractor, opts ...Option) (*Activities, error) {
	if extractor == nil {
		return nil, extraction.ErrExtractorRequired
	}
	a := &Activities{
		extractor:       extractor,
		batchSize:       extraction.DefaultBatchSize,
		concurrency:     extraction.DefaultConcurrency,
		window:          [2]int{extraction.DefaultWindowStart, extraction.DefaultWindowEnd},
		recordHeartbeat: activity.RecordHeartbeat,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// progressState holds the latest phase progress; heartbeats report it.
type progressState struct {
	mu      sync.Mutex
	current extraction.PhaseProgress
}

func (s *progressState) set(p extraction.PhaseProgress) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
}

func (s *progressState) get() extraction.PhaseProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ExtractEvidence runs the extraction pipeline over the request's transcript.
// Every liveness signal from the pipeline becomes a Temporal heartbeat
// carrying the latest phase progress, so a stalled run is killed by the
// activity's heartbeat timeout.
func (a *Activities) ExtractEvidence(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	logger := activity.GetLogger(ctx)
	started := time.Now()

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	if err := core.ValidateTranscript(req.Utterances); err != nil {
		logger.Error("invalid transcript", "run_id", runID, "err", err)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidTranscript, err)
	}

	batchSize, concurrency := a.batchSize, a.concurrency
	if req.BatchSize > 0 {
		batchSize = req.BatchSize
	}
	if req.Concurrency > 0 {
		concurrency = req.Concurrency
	}

	pipeline, err := extraction.NewPipeline(a.extractor,
		extraction.WithBatchSize(batchSize),
		extraction.WithPoolSize(concurrency),
	)
	if err != nil {
		return nil, err
	}

	state := &progressState{}
	reporter, err := extraction.NewPhaseReporter(func(_ context.Context, p extraction.PhaseProgress) error {
		state.set(p)
		logger.Debug("extraction progress", "run_id", runID, "percent", p.Percent, "detail", p.Detail)
		return nil
	}, extraction.WithWindow(a.window[0], a.window[1]))
	if err != nil {
		return nil, err
	}
	state.set(extraction.PhaseProgress{Phase: extraction.DefaultPhase, Percent: a.window[0]})

	logger.Info("extraction started",
		"run_id", runID,
		"scope_id", req.ScopeID,
		"utterances", len(req.Utterances),
		"batch_size", batchSize,
		"concurrency", concurrency)

	result, err := pipeline.Run(ctx, req.Utterances, &extraction.RunOptions{
		Heartbeat: func() { a.recordHeartbeat(ctx, state.get()) },
		Progress:  reporter.Report,
	})
	if err != nil {
		logger.Error("extraction failed", "run_id", runID, "err", err)
		if errors.Is(err, extraction.ErrWorkerPanic) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "WorkerPanic", err)
		}
		return nil, err
	}

	// Single-batch runs never report progress.
	final := state.get()
	if final.Percent < a.window[1] {
		final = reporter.Progress(extraction.ProgressInfo{
			CompletedBatches: 1,
			TotalBatches:     1,
			EvidenceCount:    len(result.Evidence),
		})
	}
	elapsed := time.Since(started)
	logger.Info("extraction finished",
		"run_id", runID,
		"people", len(result.People),
		"evidence", len(result.Evidence),
		"facets", len(result.FacetMentions),
		"scenes", len(result.Scenes),
		"elapsed", elapsed)

	return &ExtractResponse{
		RunID:    runID,
		ScopeID:  req.ScopeID,
		Result:   result,
		Progress: final,
		Elapsed:  elapsed,
	}, nil
}
