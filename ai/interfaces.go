package ai

import (
	"context"

	"github.com/poiesic/evidence/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// A provider-side rate limit is reported as a *RateLimitError.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EvidenceExtractor turns a slice of transcript utterances into structured evidence.
// Implementations must be thread-safe for concurrent use.
type EvidenceExtractor interface {
	// ExtractEvidence analyzes the utterances and returns the people, evidence,
	// facet mentions and scenes found in them. Indices in the result are local
	// to the returned evidence slice.
	ExtractEvidence(ctx context.Context, utterances []core.Utterance) (*core.ExtractionResult, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service, or nil when embeddings
	// are not configured.
	Embedder() Embedder

	// EvidenceExtractor returns the evidence extraction service.
	EvidenceExtractor() EvidenceExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
