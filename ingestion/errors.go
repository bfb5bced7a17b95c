package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChapterRepositoryRequired is returned when a chapter repository is not provided.
	ErrChapterRepositoryRequired = errors.New("chapter repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrResolverRequired is returned when a context resolver is not provided.
	ErrResolverRequired = errors.New("context resolver required")

	// ErrDocumentRequired is returned when a nil document is passed to a
	// processing entry point.
	ErrDocumentRequired = errors.New("document required")

	// ErrRunInProgress is returned when a new run is requested for a document
	// that is currently being processed.
	ErrRunInProgress = errors.New("document run already in progress")

	// ErrInvalidMaxAttempts is returned when a retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
