package strategy

import (
	"context"
	"testing"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/mock"
	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContext resolves an embedding context against a mock provider with
// the given target dimension.
func testContext(t *testing.T, provider ai.Provider, dim int) *ai.EmbeddingContext {
	t.Helper()

	registry := ai.NewRegistry(
		ai.ModelCard{Name: "test-embed", ContextLength: 8192, EmbeddingDimension: dim},
		ai.ModelCard{Name: "test-complete", ContextLength: 8192},
	)
	cfg := ai.NewConfig(
		ai.WithDefaultEmbeddingModel("test-embed"),
		ai.WithDefaultEmbeddingDimension(dim),
		ai.WithDefaultCompletionModel("test-complete"),
		ai.WithDefaultMaxContextTokens(4096),
	)
	resolver, err := ai.NewResolver(registry, provider, cfg)
	require.NoError(t, err)

	library := &core.Library{Id: 1, Name: "test", SemanticWeight: 0.7, TextualWeight: 0.3}
	ec, err := resolver.Resolve(library, nil)
	require.NoError(t, err)
	return ec
}

func testDocument() *core.Document {
	return &core.Document{Id: 10, LibraryId: 1, Title: "Doc", Body: "body"}
}

func testChapter(text string) *core.Chapter {
	return &core.Chapter{
		Id:         20,
		DocumentId: 10,
		Title:      "Chapter One",
		Text:       text,
		Ordinal:    1,
		Metadata:   map[string]string{"source": "test"},
	}
}

func TestProvenanceMetadata(t *testing.T) {
	ec := testContext(t, mock.NewMockProvider(), 8)
	meta := provenance(ec, "chapter", testDocument(), testChapter("text"))

	assert.Equal(t, "chapter", meta["strategy"])
	assert.Equal(t, "test-embed", meta["embedding_model"])
	assert.Equal(t, "1", meta["library_id"])
	assert.Equal(t, "10", meta["document_id"])
	assert.Equal(t, "20", meta["chapter_id"])
	assert.NotEmpty(t, meta["generated_at"])
}

func TestStrategies_StoreUnitVectors(t *testing.T) {
	// Retrieval scores by dot product over stored vectors, so every strategy
	// must persist unit-length vectors or similarity skews by raw embedding
	// norm across kinds.
	raw := []float32{2, 0, 0, 0, 0, 0, 0, 0}
	provider := mock.NewMockProvider()
	embedder := provider.GetMockEmbedder()
	embedder.EmbedDocumentsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = raw
		}
		return vectors, nil
	}
	embedder.EmbedQueryFunc = func(_ context.Context, _ string) ([]float32, error) {
		return raw, nil
	}
	ec := testContext(t, provider, 8)
	unit := []float32{1, 0, 0, 0, 0, 0, 0, 0}

	qa, err := NewQAStrategy(1, nil).Generate(context.Background(), ec, testDocument(), testChapter("text"))
	require.NoError(t, err)
	require.NotEmpty(t, qa)
	assert.Equal(t, unit, qa[0].Vector)

	summaries, err := NewSummaryStrategy(0, 0, nil).Generate(context.Background(), ec, testDocument(), largeChapter())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, unit, summaries[0].Vector)

	queryVec, err := NewQueryStrategy().Embed(context.Background(), ec, "needle")
	require.NoError(t, err)
	assert.Equal(t, unit, queryVec)
}

func TestRenderMetadata(t *testing.T) {
	assert.Equal(t, "", renderMetadata(nil))
	assert.Equal(t, "", renderMetadata(map[string]string{}))
	assert.Equal(t, "alpha: 1\nbeta: 2",
		renderMetadata(map[string]string{"beta": "2", "alpha": "1"}),
		"keys render sorted")
}
