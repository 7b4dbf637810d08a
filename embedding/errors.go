package embedding

import "errors"

var (
	// ErrEmbeddingUnavailable is returned by EmbedOrError when no vector could be produced.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
)
