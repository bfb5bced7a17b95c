package ingestion

import (
	"time"

	"github.com/poiesic/docent/core"
)

// Result aggregates what one document run produced.
type Result struct {
	DocumentId core.ID

	// Chapters is the number of chapters the document has after the run.
	Chapters int

	// EmbeddingsProcessed is the number of chunk vectors successfully
	// computed and written back during phase 1.
	EmbeddingsProcessed int

	// EmbeddingsFailed counts chunks whose vector write-back failed.
	// The run continues past individual write failures.
	EmbeddingsFailed int

	// EnrichmentChunks is the number of Q&A and summary chunks persisted
	// during phase 2.
	EnrichmentChunks int

	// EnrichmentFailures counts chapters where a phase-2 strategy failed.
	// Phase-2 failures never invalidate phase-1 output.
	EnrichmentFailures int

	// Attempts is the number of whole-run attempts consumed, including the
	// successful one.
	Attempts int

	Duration time.Duration
}
