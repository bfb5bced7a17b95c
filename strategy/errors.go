package strategy

import "errors"

var (
	// ErrUnknownMode is returned when a chapter strategy is configured with
	// a mode name outside the dispatch table.
	ErrUnknownMode = errors.New("unknown chapter strategy mode")

	// ErrEmptyQuery is returned when the query strategy receives blank text.
	ErrEmptyQuery = errors.New("query text is empty")
)
