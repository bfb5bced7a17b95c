package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// DefaultSummaryMaxChars bounds the length of a generated summary.
const DefaultSummaryMaxChars = 1200

const summaryPromptTemplate = `You summarize documents for a retrieval index.
Write a concise summary of the provided text in at most %d characters.
Capture the main topics and any concrete facts. Output only the summary.`

// SummaryStrategy condenses large chapters with the completion model and
// embeds the result once. Chapters under the minimum token threshold are
// skipped, not summarized; a summary of a short chapter adds noise without
// adding recall.
type SummaryStrategy struct {
	minTokens int
	maxChars  int
	logger    *slog.Logger
}

var _ Strategy = (*SummaryStrategy)(nil)

// NewSummaryStrategy creates a summary strategy. Non-positive bounds fall
// back to the configured budget defaults.
func NewSummaryStrategy(minTokens, maxChars int, logger *slog.Logger) *SummaryStrategy {
	if minTokens <= 0 {
		minTokens = core.DefaultTokenBudgets().SummaryMinTokens
	}
	if maxChars <= 0 {
		maxChars = DefaultSummaryMaxChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryStrategy{
		minTokens: minTokens,
		maxChars:  maxChars,
		logger:    logger.With("component", "summary_strategy"),
	}
}

// Name identifies the strategy in provenance metadata and logs.
func (s *SummaryStrategy) Name() string {
	return "summary"
}

// Generate summarizes the chapter and embeds the summary. Returns no
// records for chapters under the minimum threshold or when the model
// produces empty output.
func (s *SummaryStrategy) Generate(ctx context.Context, ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error) {
	tokens := ec.Estimator().Estimate(chapter.Text)
	if tokens < s.minTokens {
		s.logger.Debug("chapter below summary threshold, skipping",
			"chapter_id", chapter.Id,
			"tokens", tokens,
			"min_tokens", s.minTokens)
		return nil, nil
	}

	prompt := fmt.Sprintf(summaryPromptTemplate, s.maxChars)
	summary, err := ec.Provider().Completer().Complete(ctx, prompt, chapter.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}
	summary = clampLength(strings.TrimSpace(summary), s.maxChars)
	if summary == "" {
		s.logger.Warn("completion model produced empty summary", "chapter_id", chapter.Id)
		return nil, nil
	}

	vector, err := ec.Provider().Embedder().EmbedDocuments(ctx, []string{summary})
	if err != nil {
		return nil, fmt.Errorf("failed to embed summary: %w", err)
	}
	if len(vector) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 text", len(vector))
	}

	metadata := provenance(ec, s.Name(), doc, chapter)
	metadata["completion_model"] = ec.CompletionModel
	return []*core.Chunk{{
		ChapterId:  chapter.Id,
		DocumentId: chapter.DocumentId,
		LibraryId:  doc.LibraryId,
		Kind:       core.EmbeddingKindSummary,
		Text:       summary,
		Ordinal:    1,
		Vector:     FitDimension(NormalizeVector(vector[0]), ec.Dimension),
		Metadata:   metadata,
	}}, nil
}

// clampLength truncates text to max runes at the last word boundary.
func clampLength(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	clipped := string(runes[:max])
	if i := strings.LastIndexByte(clipped, ' '); i > 0 {
		clipped = clipped[:i]
	}
	return strings.TrimSpace(clipped)
}
