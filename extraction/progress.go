package extraction

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// ProgressInfo describes the state of a run after one batch completed.
type ProgressInfo struct {
	BatchIndex       int // index of the batch that just finished
	TotalBatches     int
	CompletedBatches int
	EvidenceCount    int // evidence items across all completed batches
}

// ProgressFunc receives batch completions in completion order.
// Calls are serialized. A returned error aborts the run.
type ProgressFunc func(ctx context.Context, info ProgressInfo) error

// ChainProgress calls each non-nil fn in order and stops at the first error.
func ChainProgress(fns ...ProgressFunc) ProgressFunc {
	return func(ctx context.Context, info ProgressInfo) error {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(ctx, info); err != nil {
				return err
			}
		}
		return nil
	}
}

// PhaseProgress is an overall progress update for a multi-phase job.
type PhaseProgress struct {
	Phase   string
	Percent int
	Detail  string
}

// PhaseSink persists or forwards phase progress.
type PhaseSink func(ctx context.Context, p PhaseProgress) error

// Default extraction window within an overall job.
const (
	DefaultPhase       = "extraction"
	DefaultWindowStart = 30
	DefaultWindowEnd   = 70
)

// PhaseReporter maps batch completions onto a slice of an overall job's
// percentage, so extraction can report 30%..70% while other phases own the rest.
type PhaseReporter struct {
	phase string
	start int
	end   int
	sink  PhaseSink
}

// PhaseOption configures a PhaseReporter.
type PhaseOption func(*PhaseReporter) error

// WithPhase sets the phase name. Default is "extraction".
func WithPhase(name string) PhaseOption {
	return func(r *PhaseReporter) error {
		r.phase = name
		return nil
	}
}

// WithWindow sets the percentage window. 0 <= start <= end <= 100.
func WithWindow(start, end int) PhaseOption {
	return func(r *PhaseReporter) error {
		if start < 0 || end > 100 || start > end {
			return fmt.Errorf("%w: %d-%d", ErrInvalidWindow, start, end)
		}
		r.start = start
		r.end = end
		return nil
	}
}

// NewPhaseReporter creates a reporter that forwards to sink.
func NewPhaseReporter(sink PhaseSink, opts ...PhaseOption) (*PhaseReporter, error) {
	r := &PhaseReporter{
		phase: DefaultPhase,
		start: DefaultWindowStart,
		end:   DefaultWindowEnd,
		sink:  sink,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Report converts info to a PhaseProgress and forwards it. It has the
// ProgressFunc signature so it can be passed to the executor directly.
func (r *PhaseReporter) Report(ctx context.Context, info ProgressInfo) error {
	if r.sink == nil {
		return nil
	}
	return r.sink(ctx, r.Progress(info))
}

// Progress computes the phase update for info without sending it.
func (r *PhaseReporter) Progress(info ProgressInfo) PhaseProgress {
	fraction := 1.0
	if info.TotalBatches > 0 {
		fraction = float64(info.CompletedBatches) / float64(info.TotalBatches)
	}
	percent := r.start + int(math.Round(float64(r.end-r.start)*fraction))

	return PhaseProgress{
		Phase:   r.phase,
		Percent: percent,
		Detail:  fmt.Sprintf("Batch %d/%d: %d evidence units", info.CompletedBatches, info.TotalBatches, info.EvidenceCount),
	}
}

// ProgressTracker renders a running batch count and rate to a writer.
type ProgressTracker struct {
	writer    io.Writer
	total     int
	current   int
	evidence  int
	startTime time.Time
	started   bool
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: total number of batches
func NewProgressTracker(writer io.Writer, total int) *ProgressTracker {
	return &ProgressTracker{
		writer: writer,
		total:  total,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.evidence = 0
}

// Observe records a batch completion. It has the ProgressFunc signature and
// starts the tracker on first use.
func (p *ProgressTracker) Observe(_ context.Context, info ProgressInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		p.startTime = time.Now()
		p.started = true
	}
	if info.TotalBatches > 0 {
		p.total = info.TotalBatches
	}
	p.current = min(info.CompletedBatches, p.total)
	p.evidence = info.EvidenceCount
	p.report()
	return nil
}

// Finish marks the operation as complete and prints final progress.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since tracking started.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(p.current) / secs
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rBatches: %d/%d (%.1f%%) - %d evidence - %.2f batches/s",
		p.current, p.total, percentage, p.evidence, rate)
}
