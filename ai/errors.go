package ai

import "errors"

var (
	// ErrModelNotFound is returned when a resolved model name is not in the
	// registry. A silently substituted model could embed at the wrong
	// dimension and corrupt the index, so this is always a hard failure.
	ErrModelNotFound = errors.New("model not registered")

	// ErrLibraryRequired is returned when context resolution is attempted
	// without a library.
	ErrLibraryRequired = errors.New("library required")

	// ErrNoEmbeddingModel is returned when no embedding model name resolves
	// from override, library, or global default.
	ErrNoEmbeddingModel = errors.New("no embedding model resolved")

	// ErrNoCompletionModel is returned when no completion model name resolves
	// from override, library, or global default.
	ErrNoCompletionModel = errors.New("no completion model resolved")
)
