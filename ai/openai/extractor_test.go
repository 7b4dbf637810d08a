package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/evidence/ai"
	"github.com/poiesic/evidence/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel returns canned responses in order.
type scriptedModel struct {
	responses []string
	err       error
	calls     int
	lastInput []llms.MessageContent
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.lastInput = messages
	if m.err != nil {
		return nil, m.err
	}
	resp := m.responses[m.calls%len(m.responses)]
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: resp}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func f64(v float64) *float64 { return &v }

var sampleUtterances = []core.Utterance{
	{Speaker: "Ana", Text: "Billing is confusing.", Start: f64(12)},
	{Speaker: "Ana", Text: "I never know which tier I'm on.", Start: f64(75)},
}

func TestExtractEvidence_ParsesResponse(t *testing.T) {
	model := &scriptedModel{responses: []string{"```json\n" + `{
  "people": [{"person_key": "ana", "display_name": "Ana"}],
  "evidence": [
    {"person_key": "ana", "verbatim": "Billing is confusing.", "start": 12},
    {"person_key": "ana", "verbatim": "I never know which tier I'm on.", "start": 75},
  ],
  "facet_mentions": [
    {"parent_index": 1, "kind_slug": "pain", "label": "unclear pricing tiers"},
    {"parent_index": 7, "kind_slug": "pain", "label": "hallucinated"}
  ],
  "scenes": [{"start_index": 0, "end_index": 1, "topic": "billing"}]
}` + "\n```"}}
	extractor := newEvidenceExtractorWithModel(model)

	result, err := extractor.ExtractEvidence(context.Background(), sampleUtterances)
	require.NoError(t, err)

	assert.Equal(t, 1, model.calls)
	require.Len(t, result.People, 1)
	require.Len(t, result.Evidence, 2)
	assert.Equal(t, 75.0, *result.Evidence[1].Start)
	require.Len(t, result.FacetMentions, 1, "out-of-range mention is dropped")
	assert.Equal(t, 1, result.FacetMentions[0].ParentIndex)
	require.Len(t, result.Scenes, 1)

	human := model.lastInput[1].Parts[0].(llms.TextContent).Text
	assert.Equal(t, "[00:12] Ana: Billing is confusing.\n[01:15] Ana: I never know which tier I'm on.\n", human)
}

func TestExtractEvidence_RetriesMalformedJSON(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"not json at all",
		`{"people": [], "evidence": [{"verbatim": "ok"}], "facet_mentions": [], "scenes": []}`,
	}}
	extractor := newEvidenceExtractorWithModel(model)

	result, err := extractor.ExtractEvidence(context.Background(), sampleUtterances)
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
	assert.Len(t, result.Evidence, 1)
}

func TestExtractEvidence_GivesUpAfterRetries(t *testing.T) {
	model := &scriptedModel{responses: []string{"{broken"}}
	extractor := newEvidenceExtractorWithModel(model)

	_, err := extractor.ExtractEvidence(context.Background(), sampleUtterances)
	require.Error(t, err)
	assert.Equal(t, maxParseAttempts, model.calls)
}

func TestExtractEvidence_TransportErrorIsNotRetried(t *testing.T) {
	model := &scriptedModel{err: errors.New("API returned unexpected status code: 429")}
	extractor := newEvidenceExtractorWithModel(model)

	_, err := extractor.ExtractEvidence(context.Background(), sampleUtterances)
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrRateLimited)
	assert.Equal(t, 0, model.calls)
}

func TestExtractEvidence_EmptyInput(t *testing.T) {
	model := &scriptedModel{responses: []string{"{}"}}
	extractor := newEvidenceExtractorWithModel(model)

	result, err := extractor.ExtractEvidence(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Evidence)
	assert.NotNil(t, result.People)
	assert.Nil(t, model.lastInput)
}

func TestSanitize(t *testing.T) {
	r := &core.ExtractionResult{
		Evidence: []core.Evidence{{Verbatim: "a"}, {Verbatim: "b"}},
		FacetMentions: []core.FacetMention{
			{ParentIndex: 0}, {ParentIndex: -1}, {ParentIndex: 2},
		},
		Scenes: []core.Scene{
			{StartIndex: 0, EndIndex: 1},
			{StartIndex: 1, EndIndex: 0},
			{StartIndex: 1, EndIndex: 5},
		},
	}

	dropped := sanitize(r)

	assert.Equal(t, 4, dropped)
	assert.NotNil(t, r.People)
	assert.Len(t, r.FacetMentions, 1)
	assert.Len(t, r.Scenes, 1)
}
