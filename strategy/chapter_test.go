package strategy

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/poiesic/docent/ai/mock"
	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeForTokens_Boundaries(t *testing.T) {
	budgets := core.DefaultTokenBudgets()
	lower := budgets.ChunkFullTextMax  // 512
	upper := budgets.ChunkTextOnlyMax  // 2000

	tests := []struct {
		tokens int
		want   Mode
	}{
		{lower - 1, ModeFullTextWithMetadata},
		{lower, ModeTextOnly},
		{lower + 1, ModeTextOnly},
		{upper - 1, ModeTextOnly},
		{upper, ModeTextOnly},
		{upper + 1, ModeSplitIntoChunks},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, modeForTokens(tt.tokens, budgets), "tokens=%d", tt.tokens)
	}
}

func TestNewChapterStrategy_UnknownMode(t *testing.T) {
	_, err := NewChapterStrategy(Mode("telepathy"), core.DefaultTokenBudgets())
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestChapterStrategy_FullTextWithMetadata(t *testing.T) {
	s, err := NewChapterStrategy(ModeFullTextWithMetadata, core.DefaultTokenBudgets())
	require.NoError(t, err)

	ec := testContext(t, mock.NewMockProvider(), 8)
	chapter := testChapter("The chapter body.")

	chunks, err := s.Generate(context.Background(), ec, testDocument(), chapter)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, core.EmbeddingKindChapter, c.Kind)
	assert.Equal(t, 1, c.Ordinal)
	assert.Contains(t, c.Text, "source: test", "rendered metadata is embedded")
	assert.Contains(t, c.Text, "The chapter body.")
	assert.Nil(t, c.Vector, "phase-1 records carry no vector")
	assert.Equal(t, core.ID(20), c.ChapterId)
	assert.Equal(t, core.ID(10), c.DocumentId)
	assert.Equal(t, core.ID(1), c.LibraryId)
	assert.Equal(t, string(ModeFullTextWithMetadata), c.Metadata["chapter_mode"])
}

func TestChapterStrategy_TextOnly(t *testing.T) {
	s, err := NewChapterStrategy(ModeTextOnly, core.DefaultTokenBudgets())
	require.NoError(t, err)

	ec := testContext(t, mock.NewMockProvider(), 8)
	chunks, err := s.Generate(context.Background(), ec, testDocument(), testChapter("Bare text."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Bare text.", chunks[0].Text)
	assert.Equal(t, core.EmbeddingKindChapter, chunks[0].Kind)
	assert.NotContains(t, chunks[0].Text, "source:")
}

func TestChapterStrategy_MetadataOnly(t *testing.T) {
	s, err := NewChapterStrategy(ModeMetadataOnly, core.DefaultTokenBudgets())
	require.NoError(t, err)

	ec := testContext(t, mock.NewMockProvider(), 8)
	chunks, err := s.Generate(context.Background(), ec, testDocument(), testChapter("ignored"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, core.EmbeddingKindMetadata, chunks[0].Kind)
	assert.Equal(t, "source: test", chunks[0].Text)

	// No metadata at all is an error, there is nothing to embed
	bare := testChapter("ignored")
	bare.Metadata = nil
	_, err = s.Generate(context.Background(), ec, testDocument(), bare)
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestChapterStrategy_SplitIntoChunks(t *testing.T) {
	s, err := NewChapterStrategy(ModeSplitIntoChunks, core.DefaultTokenBudgets())
	require.NoError(t, err)

	// Well above the text-only ceiling so the cutter must produce several
	// pieces under any tokenizer.
	para := strings.Repeat("Facts accumulate across sections of the report. ", 40)
	var blocks []string
	for i := 0; i < 12; i++ {
		blocks = append(blocks, para)
	}
	chapter := testChapter(strings.Join(blocks, "\n\n"))

	ec := testContext(t, mock.NewMockProvider(), 8)
	chunks, err := s.Generate(context.Background(), ec, testDocument(), chapter)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	total := strconv.Itoa(len(chunks))
	for i, c := range chunks {
		assert.Equal(t, core.EmbeddingKindChunk, c.Kind)
		assert.Equal(t, i+1, c.Ordinal, "ordinals dense and 1-based")
		assert.Equal(t, strconv.Itoa(i+1), c.Metadata["piece_position"])
		assert.Equal(t, total, c.Metadata["piece_count"])
		assert.Nil(t, c.Vector)
	}
}

func TestChapterStrategy_AutoPicksByTokenCount(t *testing.T) {
	s, err := NewChapterStrategy(ModeAuto, core.DefaultTokenBudgets())
	require.NoError(t, err)
	ec := testContext(t, mock.NewMockProvider(), 8)

	small, err := s.Generate(context.Background(), ec, testDocument(), testChapter("Tiny chapter."))
	require.NoError(t, err)
	require.Len(t, small, 1)
	assert.Equal(t, string(ModeFullTextWithMetadata), small[0].Metadata["chapter_mode"])

	huge := testChapter(strings.Repeat("Many words that will never fit a single embedding record. ", 400))
	big, err := s.Generate(context.Background(), ec, testDocument(), huge)
	require.NoError(t, err)
	require.Greater(t, len(big), 1)
	assert.Equal(t, string(ModeSplitIntoChunks), big[0].Metadata["chapter_mode"])
}
