package extraction

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseReporter_DefaultWindow(t *testing.T) {
	var got []PhaseProgress
	r, err := NewPhaseReporter(func(ctx context.Context, p PhaseProgress) error {
		got = append(got, p)
		return nil
	})
	require.NoError(t, err)

	for c := 1; c <= 3; c++ {
		require.NoError(t, r.Report(context.Background(), ProgressInfo{CompletedBatches: c, TotalBatches: 3, EvidenceCount: c * 10}))
	}

	require.Len(t, got, 3)
	assert.Equal(t, PhaseProgress{Phase: "extraction", Percent: 43, Detail: "Batch 1/3: 10 evidence units"}, got[0])
	assert.Equal(t, 57, got[1].Percent)
	assert.Equal(t, 70, got[2].Percent)
	assert.Equal(t, "Batch 3/3: 30 evidence units", got[2].Detail)
}

func TestPhaseReporter_CustomWindow(t *testing.T) {
	r, err := NewPhaseReporter(nil, WithPhase("embedding"), WithWindow(70, 90))
	require.NoError(t, err)

	p := r.Progress(ProgressInfo{CompletedBatches: 1, TotalBatches: 2})
	assert.Equal(t, "embedding", p.Phase)
	assert.Equal(t, 80, p.Percent)

	assert.NoError(t, r.Report(context.Background(), ProgressInfo{}), "nil sink is a no-op")
}

func TestPhaseReporter_InvalidWindow(t *testing.T) {
	for _, w := range [][2]int{{-1, 50}, {10, 101}, {60, 40}} {
		_, err := NewPhaseReporter(nil, WithWindow(w[0], w[1]))
		assert.ErrorIs(t, err, ErrInvalidWindow)
	}
}

func TestPhaseReporter_SinkErrorPropagates(t *testing.T) {
	sinkErr := errors.New("db unavailable")
	r, err := NewPhaseReporter(func(ctx context.Context, p PhaseProgress) error { return sinkErr })
	require.NoError(t, err)

	assert.ErrorIs(t, r.Report(context.Background(), ProgressInfo{CompletedBatches: 1, TotalBatches: 1}), sinkErr)
}

func TestChainProgress(t *testing.T) {
	var order []string
	first := func(ctx context.Context, info ProgressInfo) error { order = append(order, "first"); return nil }
	failing := func(ctx context.Context, info ProgressInfo) error { order = append(order, "failing"); return errors.New("stop") }
	never := func(ctx context.Context, info ProgressInfo) error { order = append(order, "never"); return nil }

	err := ChainProgress(first, nil, failing, never)(context.Background(), ProgressInfo{})

	assert.Error(t, err)
	assert.Equal(t, []string{"first", "failing"}, order)
}

func TestProgressTracker_Observe(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 4)

	require.NoError(t, tracker.Observe(context.Background(), ProgressInfo{CompletedBatches: 1, TotalBatches: 4, EvidenceCount: 12}))
	require.NoError(t, tracker.Observe(context.Background(), ProgressInfo{CompletedBatches: 2, TotalBatches: 4, EvidenceCount: 20}))

	output := buf.String()
	assert.Contains(t, output, "Batches: 2/4 (50.0%)")
	assert.Contains(t, output, "20 evidence")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 3)

	tracker.Finish()
	assert.Empty(t, buf.String(), "finish before start prints nothing")
	assert.Zero(t, tracker.Elapsed())

	tracker.Start()
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "3/3", "finish should set to total")
	assert.Contains(t, output, "100.0%")
	assert.Contains(t, output, "\n", "finish should print newline")
}
