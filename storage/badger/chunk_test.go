package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRepository_AddAndGetByChapter(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	library := addTestLibrary(t, repos, "lib")
	document := addTestDocument(t, repos, library.Id, "doc", "body")
	chapter := addTestChapter(t, repos, document.Id, 1, "body")

	_, err := repos.Chunks.AddChunks(ctx,
		&core.Chunk{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindQAPair, Text: "qa", Ordinal: 1},
		&core.Chunk{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChapter, Text: "chapter", Ordinal: 1},
		&core.Chunk{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChunk, Text: "piece two", Ordinal: 2},
		&core.Chunk{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChunk, Text: "piece one", Ordinal: 1},
	)
	require.NoError(t, err)

	chunks, err := repos.Chunks.GetChunksByChapter(ctx, chapter.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	// Ordered by kind, then ordinal
	assert.Equal(t, "chapter", chunks[0].Text)
	assert.Equal(t, "piece one", chunks[1].Text)
	assert.Equal(t, "piece two", chunks[2].Text)
	assert.Equal(t, "qa", chunks[3].Text)
}

func TestChunkRepository_MissingVectorCount(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	library := addTestLibrary(t, repos, "lib")
	document := addTestDocument(t, repos, library.Id, "doc", "body")
	chapter := addTestChapter(t, repos, document.Id, 1, "body")

	added, err := repos.Chunks.AddChunks(ctx,
		&core.Chunk{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChunk, Text: "one", Ordinal: 1},
		&core.Chunk{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChunk, Text: "two", Ordinal: 2},
	)
	require.NoError(t, err)

	missing, err := repos.Chunks.CountMissingVectors(ctx, document.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, missing)

	// Write back one vector
	added[0].Vector = []float32{0.1, 0.2}
	_, err = repos.Chunks.UpdateChunks(ctx, added[0])
	require.NoError(t, err)

	missing, err = repos.Chunks.CountMissingVectors(ctx, document.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, missing)
}

func TestChunkRepository_VectorRoundTrip(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	library := addTestLibrary(t, repos, "lib")
	document := addTestDocument(t, repos, library.Id, "doc", "body")
	chapter := addTestChapter(t, repos, document.Id, 1, "body")

	vector := []float32{0.25, -0.5, 0.75, 1.0}
	added, err := repos.Chunks.AddChunks(ctx, &core.Chunk{
		ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
		Kind: core.EmbeddingKindSummary, Text: "summary", Ordinal: 1, Vector: vector,
		Metadata: map[string]string{"strategy": "summary"},
	})
	require.NoError(t, err)

	got, err := repos.Chunks.GetChunk(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, vector, got.Vector)
	assert.Equal(t, core.EmbeddingKindSummary, got.Kind)
	assert.Equal(t, "summary", got.Metadata["strategy"])
}

func TestChunkRepository_GetByDocument(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	library := addTestLibrary(t, repos, "lib")
	document := addTestDocument(t, repos, library.Id, "doc", "body")
	first := addTestChapter(t, repos, document.Id, 1, "first chapter")
	second := addTestChapter(t, repos, document.Id, 2, "second chapter")

	_, err := repos.Chunks.AddChunks(ctx,
		&core.Chunk{ChapterId: first.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChapter, Text: "a", Ordinal: 1},
		&core.Chunk{ChapterId: second.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChapter, Text: "b", Ordinal: 1},
	)
	require.NoError(t, err)

	chunks, err := repos.Chunks.GetChunksByDocument(ctx, document.Id)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	count, err := repos.Chunks.CountChunksByDocument(ctx, document.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChunkRepository_UpdateMissing(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repos.Chunks.UpdateChunks(context.Background(), &core.Chunk{
		Id: 999, ChapterId: 1, DocumentId: 1, LibraryId: 1,
		Kind: core.EmbeddingKindChunk, Text: "ghost", Ordinal: 1,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkRepository_MetadataOnlyKindAllowsEmptyText(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	library := addTestLibrary(t, repos, "lib")
	document := addTestDocument(t, repos, library.Id, "doc", "body")
	chapter := addTestChapter(t, repos, document.Id, 1, "body")

	_, err := repos.Chunks.AddChunks(ctx, &core.Chunk{
		ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
		Kind: core.EmbeddingKindMetadata, Ordinal: 1,
		Metadata: map[string]string{"lang": "en"},
	})
	assert.NoError(t, err)
}
