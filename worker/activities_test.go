package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/poiesic/evidence/ai/mock"
	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

func transcript(n int) []core.Utterance {
	out := make([]core.Utterance, n)
	for i := range out {
		speaker := "Interviewer"
		if i%2 == 1 {
			speaker = "Participant"
		}
		out[i] = core.Utterance{Speaker: speaker, Text: fmt.Sprintf("utterance %d about exports", i)}
	}
	return out
}

func newTestActivities(t *testing.T, extractor *mock.MockEvidenceExtractor, beats *atomic.Int64, opts ...Option) *Activities {
	t.Helper()
	acts, err := NewActivities(extractor, opts...)
	require.NoError(t, err)
	acts.recordHeartbeat = func(ctx context.Context, details ...interface{}) {
		beats.Add(1)
	}
	return acts
}

func TestNewActivities_RequiresExtractor(t *testing.T) {
	_, err := NewActivities(nil)
	assert.ErrorIs(t, err, extraction.ErrExtractorRequired)

	_, err = NewActivities(mock.NewMockEvidenceExtractor(), WithProgressWindow(80, 20))
	assert.ErrorIs(t, err, extraction.ErrInvalidWindow)
}

func TestExtractEvidence_Batched(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()

	extractor := mock.NewMockEvidenceExtractor()
	var beats atomic.Int64
	acts := newTestActivities(t, extractor, &beats, WithBatchSize(4), WithConcurrency(2))
	env.RegisterActivity(acts.ExtractEvidence)

	val, err := env.ExecuteActivity(acts.ExtractEvidence, ExtractRequest{
		RunID:      "run-1",
		ScopeID:    "project-1",
		Utterances: transcript(10),
	})
	require.NoError(t, err)

	var resp ExtractResponse
	require.NoError(t, val.Get(&resp))

	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "project-1", resp.ScopeID)
	require.NotNil(t, resp.Result)
	assert.Len(t, resp.Result.Evidence, 10)
	assert.Len(t, resp.Result.People, 2)
	assert.Equal(t, 3, extractor.CallCount())

	assert.Equal(t, extraction.PhaseProgress{
		Phase:   extraction.DefaultPhase,
		Percent: extraction.DefaultWindowEnd,
		Detail:  "Batch 3/3: 10 evidence units",
	}, resp.Progress)

	// Three beats per batch plus a final beat from each worker that ran.
	assert.GreaterOrEqual(t, beats.Load(), int64(3*3+1))
	assert.LessOrEqual(t, beats.Load(), int64(3*3+2))
}

func TestExtractEvidence_SingleBatch(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()

	var beats atomic.Int64
	acts := newTestActivities(t, mock.NewMockEvidenceExtractor(), &beats, WithProgressWindow(0, 100))
	env.RegisterActivity(acts.ExtractEvidence)

	val, err := env.ExecuteActivity(acts.ExtractEvidence, ExtractRequest{Utterances: transcript(3)})
	require.NoError(t, err)

	var resp ExtractResponse
	require.NoError(t, val.Get(&resp))
	assert.NotEmpty(t, resp.RunID, "run id generated when absent")
	assert.Equal(t, 100, resp.Progress.Percent)
	assert.Equal(t, int64(2), beats.Load())
}

func TestExtractEvidence_InvalidTranscript(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()

	extractor := mock.NewMockEvidenceExtractor()
	var beats atomic.Int64
	acts := newTestActivities(t, extractor, &beats)
	env.RegisterActivity(acts.ExtractEvidence)

	utterances := transcript(3)
	utterances[1].Text = "  "
	_, err := env.ExecuteActivity(acts.ExtractEvidence, ExtractRequest{Utterances: utterances})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeInvalidTranscript, appErr.Type())
	assert.True(t, appErr.NonRetryable())
	assert.Zero(t, extractor.CallCount())
}

func TestExtractEvidence_ExtractorFailure(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()

	extractor := mock.NewMockEvidenceExtractor().WithExtractEvidenceFunc(
		func(ctx context.Context, utterances []core.Utterance) (*core.ExtractionResult, error) {
			return nil, errors.New("model unavailable")
		})
	var beats atomic.Int64
	acts := newTestActivities(t, extractor, &beats, WithBatchSize(2))
	env.RegisterActivity(acts.ExtractEvidence)

	_, err := env.ExecuteActivity(acts.ExtractEvidence, ExtractRequest{Utterances: transcript(6)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestExtractWorkflow(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()

	var beats atomic.Int64
	acts := newTestActivities(t, mock.NewMockEvidenceExtractor(), &beats, WithBatchSize(5))
	env.RegisterActivityWithOptions(acts.ExtractEvidence, activity.RegisterOptions{Name: ExtractActivityName})

	env.ExecuteWorkflow(ExtractWorkflow, ExtractRequest{RunID: "wf-1", Utterances: transcript(12)})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var resp ExtractResponse
	require.NoError(t, env.GetWorkflowResult(&resp))
	assert.Equal(t, "wf-1", resp.RunID)
	assert.Len(t, resp.Result.Evidence, 12)
}

func TestExtractWorkflow_InvalidTranscriptNotRetried(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()

	var beats atomic.Int64
	acts := newTestActivities(t, mock.NewMockEvidenceExtractor(), &beats)
	var attempts atomic.Int64
	env.RegisterActivityWithOptions(func(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
		attempts.Add(1)
		return acts.ExtractEvidence(ctx, req)
	}, activity.RegisterOptions{Name: ExtractActivityName})

	env.ExecuteWorkflow(ExtractWorkflow, ExtractRequest{Utterances: []core.Utterance{{Speaker: "", Text: "hi"}}})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, int64(1), attempts.Load())
}
