package split

import "errors"

var (
	// ErrEmptyDocument is returned when a splitter receives a document with
	// no body text.
	ErrEmptyDocument = errors.New("document body is empty")

	// ErrNoChapters is returned when splitting produced no chapters.
	// A run cannot proceed without at least one chapter.
	ErrNoChapters = errors.New("splitting produced no chapters")
)
