package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/evidence/core"
)

// MockEvidenceExtractor is a test double for ai.EvidenceExtractor.
// It allows custom behavior injection via function fields.
type MockEvidenceExtractor struct {
	// ExtractEvidenceFunc is called by ExtractEvidence if set.
	// If nil, uses DefaultExtraction.
	ExtractEvidenceFunc func(ctx context.Context, utterances []core.Utterance) (*core.ExtractionResult, error)

	callCount atomic.Int64
}

// NewMockEvidenceExtractor creates a mock evidence extractor with default behavior.
func NewMockEvidenceExtractor() *MockEvidenceExtractor {
	return &MockEvidenceExtractor{}
}

// WithExtractEvidenceFunc sets ExtractEvidenceFunc and returns the mock for chaining.
func (m *MockEvidenceExtractor) WithExtractEvidenceFunc(fn func(ctx context.Context, utterances []core.Utterance) (*core.ExtractionResult, error)) *MockEvidenceExtractor {
	m.ExtractEvidenceFunc = fn
	return m
}

// ExtractEvidence returns the injected result or the default extraction.
func (m *MockEvidenceExtractor) ExtractEvidence(ctx context.Context, utterances []core.Utterance) (*core.ExtractionResult, error) {
	m.callCount.Add(1)

	if m.ExtractEvidenceFunc != nil {
		return m.ExtractEvidenceFunc(ctx, utterances)
	}

	return DefaultExtraction(utterances), nil
}

// CallCount returns the number of times ExtractEvidence was called.
func (m *MockEvidenceExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockEvidenceExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractEvidenceFunc = nil
}

// DefaultExtraction builds a predictable result from utterances:
//   - one person per distinct speaker, keyed by the lowercased speaker name
//   - one evidence item per utterance, verbatim text
//   - one "topic" facet mention per evidence item, labelled with its first word
//   - a single scene spanning all evidence
func DefaultExtraction(utterances []core.Utterance) *core.ExtractionResult {
	result := &core.ExtractionResult{
		People:        []core.Person{},
		Evidence:      make([]core.Evidence, 0, len(utterances)),
		FacetMentions: make([]core.FacetMention, 0, len(utterances)),
		Scenes:        []core.Scene{},
	}

	seen := make(map[string]bool)
	for i, u := range utterances {
		key := strings.ToLower(strings.TrimSpace(u.Speaker))
		if !seen[key] {
			seen[key] = true
			result.People = append(result.People, core.Person{PersonKey: key, DisplayName: u.Speaker})
		}

		result.Evidence = append(result.Evidence, core.Evidence{
			PersonKey: key,
			Verbatim:  u.Text,
			Start:     u.Start,
			End:       u.End,
		})

		label := u.Text
		if words := strings.Fields(u.Text); len(words) > 0 {
			label = strings.ToLower(words[0])
		}
		result.FacetMentions = append(result.FacetMentions, core.FacetMention{
			ParentIndex: i,
			PersonKey:   key,
			KindSlug:    "topic",
			Label:       label,
		})
	}

	if len(result.Evidence) > 0 {
		result.Scenes = append(result.Scenes, core.Scene{
			StartIndex: 0,
			EndIndex:   len(result.Evidence) - 1,
		})
	}

	return result
}
