package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/evidence/core"
)

// DefaultConcurrency is the maximum number of extraction calls in flight.
const DefaultConcurrency = 3

// ExtractFunc extracts evidence from one batch of utterances.
type ExtractFunc func(ctx context.Context, utterances []core.Utterance) (*core.ExtractionResult, error)

// Executor runs an ExtractFunc over batches with bounded concurrency.
//
// Workers claim batch indices from a shared atomic cursor and write each
// result into its own slot, so results come back in batch order regardless
// of completion order. The first failure cancels the run; completed results
// are discarded.
type Executor struct {
	concurrency int
	heartbeat   func()
	progress    ProgressFunc
	logger      *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor) error

// WithConcurrency sets the maximum number of concurrent extraction calls.
// Values below 1 fall back to DefaultConcurrency.
func WithConcurrency(n int) ExecutorOption {
	return func(e *Executor) error {
		if n < 1 {
			n = DefaultConcurrency
		}
		e.concurrency = n
		return nil
	}
}

// WithHeartbeat sets the liveness callback. It is called at the top of every
// worker iteration and immediately before and after every extraction call,
// from worker goroutines. It must not block.
func WithHeartbeat(fn func()) ExecutorOption {
	return func(e *Executor) error {
		e.heartbeat = fn
		return nil
	}
}

// WithProgress sets the callback invoked after each batch completes.
func WithProgress(fn ProgressFunc) ExecutorOption {
	return func(e *Executor) error {
		e.progress = fn
		return nil
	}
}

// WithExecutorLogger sets a custom logger.
// Default is slog.Default().
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewExecutor creates an executor with DefaultConcurrency and no callbacks.
func NewExecutor(opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "extraction-executor")
	return e, nil
}

// Concurrency returns the configured concurrency limit.
func (e *Executor) Concurrency() int {
	return e.concurrency
}

// run holds the state shared by the workers of one Execute call.
type run struct {
	batches   []core.Batch
	results   []*core.ExtractionResult
	extract   ExtractFunc
	cursor    atomic.Int64
	completed atomic.Int64
	evidence  atomic.Int64

	progressMu sync.Mutex

	failOnce sync.Once
	err      error
	cancel   context.CancelFunc
}

func (r *run) fail(err error) {
	r.failOnce.Do(func() {
		r.err = err
		r.cancel()
	})
}

// Execute extracts every batch and returns the results in batch order.
//
// At most min(concurrency, len(batches)) extraction calls run at once.
// Errors are not retried. The first error (from extract or from the progress
// callback) stops further claims, cancels in-flight calls through ctx, and is
// returned wrapped with the batch index.
func (e *Executor) Execute(ctx context.Context, batches []core.Batch, extract ExtractFunc) ([]*core.ExtractionResult, error) {
	if extract == nil {
		return nil, ErrExtractFuncRequired
	}
	if len(batches) == 0 {
		return []*core.ExtractionResult{}, nil
	}

	pool, err := ants.NewPool(e.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{
		batches: batches,
		results: make([]*core.ExtractionResult, len(batches)),
		extract: extract,
		cancel:  cancel,
	}

	workers := min(e.concurrency, len(batches))
	e.logger.Debug("starting extraction", "batches", len(batches), "workers", workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			e.work(runCtx, r)
		}); err != nil {
			wg.Done()
			r.fail(fmt.Errorf("submit worker: %w", err))
			break
		}
	}
	wg.Wait()

	if r.err != nil {
		e.logger.Error("extraction failed", "completed", r.completed.Load(), "total", len(batches), "err", r.err)
		return nil, r.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.results, nil
}

func (e *Executor) work(ctx context.Context, r *run) {
	defer func() {
		if p := recover(); p != nil {
			r.fail(fmt.Errorf("%w: %v", ErrWorkerPanic, p))
		}
	}()

	total := len(r.batches)
	for {
		e.beat()
		if ctx.Err() != nil {
			return
		}

		idx := int(r.cursor.Add(1) - 1)
		if idx >= total {
			return
		}
		batch := r.batches[idx]

		e.beat()
		result, err := r.extract(ctx, batch.Utterances)
		e.beat()
		if err != nil {
			r.fail(fmt.Errorf("batch %d: %w", batch.Index, err))
			return
		}
		if result == nil {
			result = &core.ExtractionResult{}
		}
		r.results[idx] = result

		if err := e.reportProgress(ctx, r, batch.Index, len(result.Evidence)); err != nil {
			r.fail(fmt.Errorf("progress after batch %d: %w", batch.Index, err))
			return
		}
	}
}

func (e *Executor) reportProgress(ctx context.Context, r *run, batchIndex, evidence int) error {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()

	info := ProgressInfo{
		BatchIndex:       batchIndex,
		TotalBatches:     len(r.batches),
		CompletedBatches: int(r.completed.Add(1)),
		EvidenceCount:    int(r.evidence.Add(int64(evidence))),
	}
	e.logger.Debug("batch complete",
		"batch", info.BatchIndex,
		"completed", info.CompletedBatches,
		"total", info.TotalBatches,
		"evidence", info.EvidenceCount)

	if e.progress == nil {
		return nil
	}
	return e.progress(ctx, info)
}

func (e *Executor) beat() {
	if e.heartbeat != nil {
		e.heartbeat()
	}
}
