package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates in-memory repositories and a cleanup function.
func setupTestDB(t *testing.T) (*Repositories, func()) {
	t.Helper()
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	return repos, func() {
		repos.Close()
		backend.Close()
	}
}

// addTestLibrary inserts a library ready to hold documents.
func addTestLibrary(t *testing.T, repos *Repositories, name string) *core.Library {
	t.Helper()
	library := &core.Library{
		Name:           name,
		SemanticWeight: 0.7,
		TextualWeight:  0.3,
	}
	added, err := repos.Libraries.AddLibraries(context.Background(), library)
	require.NoError(t, err)
	require.Len(t, added, 1)
	require.NotZero(t, added[0].Id)
	return added[0]
}

// addTestDocument inserts a document with a consistent checksum.
func addTestDocument(t *testing.T, repos *Repositories, libraryID core.ID, title, body string) *core.Document {
	t.Helper()
	document := &core.Document{
		LibraryId: libraryID,
		Title:     title,
		Active:    true,
	}
	document.SetBody(body)
	added, err := repos.Documents.AddDocuments(context.Background(), document)
	require.NoError(t, err)
	return added[0]
}

// addTestChapter inserts a chapter under a document.
func addTestChapter(t *testing.T, repos *Repositories, documentID core.ID, ordinal int, text string) *core.Chapter {
	t.Helper()
	chapter := &core.Chapter{
		DocumentId: documentID,
		Title:      "Chapter",
		Text:       text,
		Ordinal:    ordinal,
		CharEnd:    len(text),
	}
	added, err := repos.Chapters.AddChapters(context.Background(), chapter)
	require.NoError(t, err)
	return added[0]
}

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestFindSimilar_NoRecords(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), 0, []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_OrdersAndFilters(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	library := addTestLibrary(t, repos, "lib")
	document := addTestDocument(t, repos, library.Id, "doc", "Some body text here.")
	chapter := addTestChapter(t, repos, document.Id, 1, "Some body text here.")

	chunks := []*core.Chunk{
		{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChapter, Text: "exact", Ordinal: 1, Vector: []float32{1, 0, 0}},
		{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChunk, Text: "close", Ordinal: 2, Vector: []float32{0.8, 0.6, 0}},
		{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChunk, Text: "orthogonal", Ordinal: 3, Vector: []float32{0, 0, 1}},
		{ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChunk, Text: "pending", Ordinal: 4}, // no vector yet
	}
	_, err := repos.Chunks.AddChunks(ctx, chunks...)
	require.NoError(t, err)

	results, err := repos.Chunks.FindSimilar(ctx, library.Id, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Chunk.Text)
	assert.Equal(t, "close", results[1].Chunk.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_LibraryScoping(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	libA := addTestLibrary(t, repos, "a")
	libB := addTestLibrary(t, repos, "b")

	docA := addTestDocument(t, repos, libA.Id, "a", "text a")
	docB := addTestDocument(t, repos, libB.Id, "b", "text b")
	chA := addTestChapter(t, repos, docA.Id, 1, "text a")
	chB := addTestChapter(t, repos, docB.Id, 1, "text b")

	_, err := repos.Chunks.AddChunks(ctx,
		&core.Chunk{ChapterId: chA.Id, DocumentId: docA.Id, LibraryId: libA.Id,
			Kind: core.EmbeddingKindChapter, Text: "in a", Ordinal: 1, Vector: []float32{1, 0}},
		&core.Chunk{ChapterId: chB.Id, DocumentId: docB.Id, LibraryId: libB.Id,
			Kind: core.EmbeddingKindChapter, Text: "in b", Ordinal: 1, Vector: []float32{1, 0}},
	)
	require.NoError(t, err)

	scoped, err := repos.Chunks.FindSimilar(ctx, libA.Id, []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "in a", scoped[0].Chunk.Text)

	all, err := repos.Chunks.FindSimilar(ctx, 0, []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFindSimilar_Limit(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	library := addTestLibrary(t, repos, "lib")
	document := addTestDocument(t, repos, library.Id, "doc", "body")
	chapter := addTestChapter(t, repos, document.Id, 1, "body")

	for i := 1; i <= 5; i++ {
		_, err := repos.Chunks.AddChunks(ctx, &core.Chunk{
			ChapterId: chapter.Id, DocumentId: document.Id, LibraryId: library.Id,
			Kind: core.EmbeddingKindChunk, Text: "t", Ordinal: i, Vector: []float32{1, 0},
		})
		require.NoError(t, err)
	}

	results, err := repos.Chunks.FindSimilar(ctx, library.Id, []float32{1, 0}, 0.5, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
