package split

import (
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProseSplitter_SingleChapterUnderCeiling(t *testing.T) {
	doc := &core.Document{
		Id:    7,
		Title: "Note",
		Body:  "Short first paragraph.\n\nShort second paragraph.",
	}

	chapters, err := NewProseSplitter(testBudgets(), nil).Split(doc)
	require.NoError(t, err)
	require.Len(t, chapters, 1)

	ch := chapters[0]
	assert.Equal(t, core.ID(7), ch.DocumentId)
	assert.Equal(t, 1, ch.Ordinal)
	assert.Equal(t, "Note — Part 1", ch.Title)
	assert.Equal(t, "Short first paragraph.\n\nShort second paragraph.", ch.Text)
	assert.Equal(t, "prose", ch.Metadata["split_strategy"])
	assert.Equal(t, "token_ceiling", ch.Metadata["split_reason"])
}

func TestProseSplitter_FlushesAtCeiling(t *testing.T) {
	// Each paragraph is ~26 tokens under the fallback estimator, so a
	// 60-token ceiling fits two per chapter.
	para := strings.Repeat("word ", 19) + "word."
	var blocks []string
	for i := 0; i < 5; i++ {
		blocks = append(blocks, para)
	}
	doc := &core.Document{
		Id:    3,
		Title: "Long",
		Body:  strings.Join(blocks, "\n\n"),
	}

	estimator := ai.NewFallbackEstimator()
	perPara := estimator.Estimate(para)
	require.Greater(t, perPara*3, testBudgets().ChapterCeiling, "three paragraphs must overflow")
	require.LessOrEqual(t, perPara*2, testBudgets().ChapterCeiling, "two paragraphs must fit")

	chapters, err := NewProseSplitter(testBudgets(), estimator).Split(doc)
	require.NoError(t, err)
	require.Len(t, chapters, 3, "5 paragraphs at 2 per chapter plus trailing partial")

	for i, ch := range chapters {
		assert.Equal(t, i+1, ch.Ordinal)
		assert.Equal(t, fmt.Sprintf("Long — Part %d", i+1), ch.Title)
	}
	assert.Equal(t, para+"\n\n"+para, chapters[0].Text)
	assert.Equal(t, para, chapters[2].Text, "trailing partial is emitted")
}

func TestProseSplitter_OversizedParagraphGetsOwnChapter(t *testing.T) {
	big := strings.Repeat("alpha beta gamma ", 40)
	doc := &core.Document{
		Id:    9,
		Title: "Mixed",
		Body:  "Small lead.\n\n" + big + "\n\nSmall tail.",
	}

	chapters, err := NewProseSplitter(testBudgets(), nil).Split(doc)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.Equal(t, "Small lead.", chapters[0].Text)
	assert.Equal(t, strings.TrimSpace(big), chapters[1].Text)
	assert.Equal(t, "Small tail.", chapters[2].Text)
}

func TestProseSplitter_CharOffsets(t *testing.T) {
	body := "Alpha paragraph.\n\nBeta paragraph."
	doc := &core.Document{Id: 1, Title: "D", Body: body}

	chapters, err := NewProseSplitter(testBudgets(), nil).Split(doc)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, 0, chapters[0].CharStart)
	assert.Equal(t, len(body), chapters[0].CharEnd)
}

func TestProseSplitter_EmptyBody(t *testing.T) {
	doc := &core.Document{Id: 1, Title: "Empty", Body: "   \n\n  "}
	_, err := NewProseSplitter(testBudgets(), nil).Split(doc)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestProseSplitter_InheritsDocumentMetadata(t *testing.T) {
	doc := &core.Document{
		Id:       2,
		Title:    "Tagged",
		Body:     "Some body text.",
		Metadata: map[string]string{"source": "upload", "lang": "en"},
	}

	chapters, err := NewProseSplitter(testBudgets(), nil).Split(doc)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, "upload", chapters[0].Metadata["source"])
	assert.Equal(t, "en", chapters[0].Metadata["lang"])
	assert.Equal(t, "prose", chapters[0].Metadata["split_strategy"])
}
