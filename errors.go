package evidence

import "errors"

// ErrEmbeddingsDisabled is returned by indexing operations when no embedding
// service is configured.
var ErrEmbeddingsDisabled = errors.New("embeddings are disabled")
