package similarity

import "errors"

var (
	// ErrUnknownUseCase is returned for a use case with no threshold.
	ErrUnknownUseCase = errors.New("unknown use case")

	// ErrThresholdOutOfRange is returned when a threshold is outside [0, 1].
	ErrThresholdOutOfRange = errors.New("threshold must be between 0 and 1")

	// ErrCorpusRequired is returned when a lookup is attempted without a corpus.
	ErrCorpusRequired = errors.New("corpus lookup required")

	// ErrEmbeddingClientRequired is returned when text queries are made without an embedding client.
	ErrEmbeddingClientRequired = errors.New("embedding client required")

	// ErrEmptyQuery is returned when a lookup is attempted with an empty vector.
	ErrEmptyQuery = errors.New("query vector is empty")
)
