package core

// TokenBudgets centralizes the token thresholds that drive splitting and
// strategy selection. The historic implementations scattered inconsistent
// literals across strategies; every consumer now reads from one value.
type TokenBudgets struct {
	// ChapterCeiling is the estimated-token size at which a splitter starts
	// a new chapter.
	ChapterCeiling int

	// ChapterFloor is the minimum chapter size a splitter aims for; trailing
	// partial chapters below the floor are still emitted.
	ChapterFloor int

	// ChunkFullTextMax is the automatic chapter-strategy lower threshold:
	// chapters at or below it are embedded as full text with metadata.
	ChunkFullTextMax int

	// ChunkTextOnlyMax is the automatic chapter-strategy upper threshold:
	// chapters between the thresholds are embedded text-only; above it they
	// are split into chunks no larger than this value.
	ChunkTextOnlyMax int

	// SummaryMinTokens is the minimum chapter size eligible for summary
	// generation. Smaller chapters are skipped, not summarized.
	SummaryMinTokens int
}

// DefaultTokenBudgets returns the canonical thresholds.
func DefaultTokenBudgets() TokenBudgets {
	return TokenBudgets{
		ChapterCeiling:   3000,
		ChapterFloor:     200,
		ChunkFullTextMax: 512,
		ChunkTextOnlyMax: 2000,
		SummaryMinTokens: 500,
	}
}

// Validate checks that the thresholds are positive and correctly ordered.
func (b TokenBudgets) Validate() error {
	if b.ChapterCeiling <= 0 || b.ChapterFloor <= 0 ||
		b.ChunkFullTextMax <= 0 || b.ChunkTextOnlyMax <= 0 || b.SummaryMinTokens <= 0 {
		return ErrInvalidBudgets
	}
	if b.ChapterFloor > b.ChapterCeiling {
		return ErrInvalidBudgets
	}
	if b.ChunkFullTextMax > b.ChunkTextOnlyMax {
		return ErrInvalidBudgets
	}
	return nil
}
