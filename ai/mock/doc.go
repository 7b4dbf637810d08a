// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.EvidenceExtractor,
// and ai.AIProvider for use in unit tests. The mocks run without external
// services and count calls atomically, so they can be shared by concurrent workers.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	result, err := mockProvider.EvidenceExtractor().ExtractEvidence(ctx, utterances)
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder().
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return nil, &ai.RateLimitError{RetryAfter: time.Second}
//	    })
//
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockEvidenceExtractor: One evidence item and one facet mention per utterance
//   - MockProvider: Aggregates mock embedder and extractor
package mock
