package extraction

import "errors"

var (
	// ErrExtractorRequired is returned when no evidence extractor is provided.
	ErrExtractorRequired = errors.New("evidence extractor required")

	// ErrExtractFuncRequired is returned when Execute is called without an extract function.
	ErrExtractFuncRequired = errors.New("extract function required")

	// ErrWorkerPanic wraps a panic recovered from an extraction worker.
	ErrWorkerPanic = errors.New("extraction worker panicked")

	// ErrInvalidWindow is returned when a phase window is outside 0-100 or reversed.
	ErrInvalidWindow = errors.New("invalid progress window")
)
