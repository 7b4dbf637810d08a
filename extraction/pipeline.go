package extraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/evidence/ai"
	"github.com/poiesic/evidence/core"
)

// Pipeline turns a full transcript into one merged ExtractionResult.
// Short transcripts go to the extractor in a single call; longer ones are
// split into batches and run through an Executor.
type Pipeline struct {
	extractor   ai.EvidenceExtractor
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets the number of utterances per extraction call.
// Values below 1 fall back to DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		p.batchSize = normalizeBatchSize(size)
		return nil
	}
}

// WithPoolSize sets the number of concurrent extraction calls.
// Values below 1 fall back to DefaultConcurrency.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultConcurrency
		}
		p.concurrency = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new extraction pipeline.
func NewPipeline(extractor ai.EvidenceExtractor, opts ...Option) (*Pipeline, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	p := &Pipeline{
		extractor:   extractor,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.logger = p.logger.With("component", "extraction-pipeline")
	return p, nil
}

// RunOptions carries per-run callbacks. Both are optional.
type RunOptions struct {
	// Heartbeat is the liveness signal for the task host.
	Heartbeat func()

	// Progress receives batch completions. It is not called when the
	// transcript fits in a single batch.
	Progress ProgressFunc
}

// Run extracts evidence from the whole transcript.
//
// When the transcript fits in one batch the extractor's result is returned
// as is. Otherwise batches run concurrently and their results are merged in
// batch order. Any batch failure fails the run.
func (p *Pipeline) Run(ctx context.Context, utterances []core.Utterance, opts *RunOptions) (*core.ExtractionResult, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	logger := p.logger.With("run_id", uuid.NewString())
	started := time.Now()

	if !NeedsBatching(len(utterances), p.batchSize) {
		logger.Debug("transcript fits in one batch, calling extractor directly", "utterances", len(utterances))
		beat(opts.Heartbeat)
		result, err := p.extractor.ExtractEvidence(ctx, utterances)
		beat(opts.Heartbeat)
		if err != nil {
			logger.Error("extraction failed", "err", err)
			return nil, err
		}
		if result == nil {
			result = &core.ExtractionResult{}
		}
		logger.Info("extraction complete",
			"utterances", len(utterances),
			"evidence", len(result.Evidence),
			"elapsed", time.Since(started))
		return result, nil
	}

	batches := SplitBatches(utterances, p.batchSize)
	executor, err := NewExecutor(
		WithConcurrency(p.concurrency),
		WithHeartbeat(opts.Heartbeat),
		WithProgress(opts.Progress),
		WithExecutorLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("extracting in batches",
		"utterances", len(utterances),
		"batches", len(batches),
		"batch_size", p.batchSize,
		"concurrency", p.concurrency)

	results, err := executor.Execute(ctx, batches, p.extractor.ExtractEvidence)
	if err != nil {
		return nil, err
	}

	merged := MergeResults(results)
	logger.Info("extraction complete",
		"utterances", len(utterances),
		"batches", len(batches),
		"people", len(merged.People),
		"evidence", len(merged.Evidence),
		"elapsed", time.Since(started))
	return merged, nil
}

func beat(fn func()) {
	if fn != nil {
		fn()
	}
}
