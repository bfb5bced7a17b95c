package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/mock"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	pipeline *Pipeline
	repos    *badger.Repositories
	provider *mock.MockProvider
	library  *core.Library
}

// setupPipeline builds a pipeline over in-memory storage and a mock provider.
// Extra options come after the test defaults so tests can override them.
func setupPipeline(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})

	provider := mock.NewMockProvider()
	registry := ai.NewRegistry(
		ai.ModelCard{Name: "test-embed", ContextLength: 8192, EmbeddingDimension: 32},
		ai.ModelCard{Name: "test-complete", ContextLength: 8192},
	)
	cfg := ai.NewConfig(
		ai.WithDefaultEmbeddingModel("test-embed"),
		ai.WithDefaultEmbeddingDimension(32),
		ai.WithDefaultCompletionModel("test-complete"),
		ai.WithDefaultMaxContextTokens(4096),
	)
	resolver, err := ai.NewResolver(registry, provider, cfg)
	require.NoError(t, err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []Option{
		WithLogger(quiet),
		WithRetry(3, 20*time.Millisecond),
	}
	pipeline, err := NewPipeline(repos.Documents, repos.Chapters, repos.Chunks, resolver,
		append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	libraries, err := repos.Libraries.AddLibraries(context.Background(), &core.Library{
		Name:           "test-library",
		SemanticWeight: 0.7,
		TextualWeight:  0.3,
	})
	require.NoError(t, err)

	return &testEnv{
		pipeline: pipeline,
		repos:    repos,
		provider: provider,
		library:  libraries[0],
	}
}

// proseDocument builds an unstored document whose body is the given number of
// distinct ~100-character paragraphs.
func proseDocument(library *core.Library, paragraphs int) *core.Document {
	parts := make([]string, paragraphs)
	for i := range parts {
		parts[i] = fmt.Sprintf(
			"Paragraph %d discusses storage engines, their write paths, and how compaction keeps read latency flat.", i)
	}
	doc := &core.Document{LibraryId: library.Id, Title: "Storage Notes", Active: true}
	doc.SetBody(strings.Join(parts, "\n\n"))
	return doc
}

func TestProcessDocument_EndToEnd(t *testing.T) {
	// Phase 1 only: a large prose document splits into several chapters and
	// every chunk gets a vector during the batch compute pass.
	env := setupPipeline(t, WithEnrichment(false, false))
	doc := proseDocument(env.library, 570) // roughly 15k estimated tokens

	result, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc, nil)
	require.NoError(t, err)
	require.NotZero(t, doc.Id, "document is stored before processing")

	assert.GreaterOrEqual(t, result.Chapters, 3, "a ~15k token body spans multiple chapters")
	assert.Greater(t, result.EmbeddingsProcessed, 0)
	assert.Equal(t, 0, result.EmbeddingsFailed)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, doc.Id, result.DocumentId)

	missing, err := env.repos.Chunks.CountMissingVectors(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, missing, "no nil vectors after the compute pass")

	chunks, err := env.repos.Chunks.GetChunksByDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Len(t, chunk.Vector, 32, "vectors fit the resolved dimension")
	}

	status, ok := env.pipeline.Status(doc.Id)
	require.True(t, ok)
	assert.Equal(t, StateCompleted, status.State)
	assert.Equal(t, float64(100), status.Progress)
	assert.Equal(t, result.Chapters, status.Chapters)
	assert.Equal(t, result.EmbeddingsProcessed, status.EmbeddingsProcessed)
}

func TestProcessDocument_RetriesWholeRun(t *testing.T) {
	env := setupPipeline(t, WithEnrichment(false, false), WithRetry(3, 30*time.Millisecond))
	embedder := env.provider.GetMockEmbedder()
	embedder.FailuresRemaining = 2
	embedder.FailureErr = errors.New("rate limited")

	doc := proseDocument(env.library, 40)
	start := time.Now()
	result, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc, nil)
	elapsed := time.Since(start)

	require.NoError(t, err, "third attempt succeeds")
	assert.Equal(t, 3, result.Attempts)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond, "two fixed delays elapsed")

	// Retried attempts resume the persisted chapters instead of re-splitting.
	count, err := env.repos.Chapters.CountChaptersByDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, result.Chapters, count, "no duplicate chapters across attempts")

	status, _ := env.pipeline.Status(doc.Id)
	assert.Equal(t, StateCompleted, status.State)
}

func TestProcessDocument_RetryExhausted(t *testing.T) {
	env := setupPipeline(t, WithEnrichment(false, false), WithRetry(2, 5*time.Millisecond))
	embedder := env.provider.GetMockEmbedder()
	embedder.FailuresRemaining = 10
	embedder.FailureErr = errors.New("provider down")

	doc := proseDocument(env.library, 40)
	result, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "provider down")

	status, ok := env.pipeline.Status(doc.Id)
	require.True(t, ok)
	assert.Equal(t, StateFailed, status.State)
	assert.Contains(t, status.Error, "provider down")

	// Phase-1 structure survives the failed run; a later run resumes it.
	count, err := env.repos.Chapters.CountChaptersByDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Greater(t, count, 0)
	missing, err := env.repos.Chunks.CountMissingVectors(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Greater(t, missing, 0)

	// Provider recovered: reprocessing fills in the missing vectors.
	embedder.FailuresRemaining = 0
	result, err = env.pipeline.ProcessDocument(context.Background(), env.library, doc, nil)
	require.NoError(t, err)
	assert.Equal(t, count, result.Chapters)
	missing, err = env.repos.Chunks.CountMissingVectors(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, missing)
}

func TestProcessDocument_ResumesMissingChapterRecords(t *testing.T) {
	// A run can be interrupted after persisting chapters but before their
	// embedding records exist. A later run must backfill the missing records
	// rather than treating the bare chapters as finished work.
	env := setupPipeline(t, WithEnrichment(false, false), WithRetry(1, 0))
	ctx := context.Background()

	doc := proseDocument(env.library, 40)
	docs, err := env.repos.Documents.AddDocuments(ctx, doc)
	require.NoError(t, err)
	doc = docs[0]

	chapters, err := env.repos.Chapters.AddChapters(ctx,
		&core.Chapter{DocumentId: doc.Id, Title: "One",
			Text: "Storage engines keep their write paths append-only.", Ordinal: 1},
		&core.Chapter{DocumentId: doc.Id, Title: "Two",
			Text: "Compaction keeps read latency flat over time.", Ordinal: 2},
	)
	require.NoError(t, err)

	// The first chapter got its record persisted before the interruption;
	// the second did not.
	_, err = env.repos.Chunks.AddChunks(ctx, &core.Chunk{
		ChapterId:  chapters[0].Id,
		DocumentId: doc.Id,
		LibraryId:  env.library.Id,
		Kind:       core.EmbeddingKindChapter,
		Text:       chapters[0].Text,
		Ordinal:    1,
	})
	require.NoError(t, err)

	result, err := env.pipeline.ProcessDocument(ctx, env.library, doc, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Chapters, "existing chapters are reused, not re-split")
	assert.Greater(t, result.EmbeddingsProcessed, 0, "backfilled records get vectors")

	for _, chapter := range chapters {
		chunks, chunkErr := env.repos.Chunks.GetChunksByChapter(ctx, chapter.Id)
		require.NoError(t, chunkErr)
		assert.Len(t, chunks, 1, "chapter %d has exactly one record", chapter.Ordinal)
	}
	missing, err := env.repos.Chunks.CountMissingVectors(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, missing)
}

func TestProcessDocument_Enrichment(t *testing.T) {
	env := setupPipeline(t)
	// One chapter, big enough to be summary-eligible.
	doc := proseDocument(env.library, 40)

	result, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Chapters)
	assert.Equal(t, 0, result.EnrichmentFailures)
	assert.Equal(t, 4, result.EnrichmentChunks, "three Q&A pairs plus one summary")

	chapters, err := env.repos.Chapters.GetChaptersByDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	chunks, err := env.repos.Chunks.GetChunksByChapter(context.Background(), chapters[0].Id)
	require.NoError(t, err)

	var qa, summary int
	for _, chunk := range chunks {
		switch chunk.Kind {
		case core.EmbeddingKindQAPair:
			qa++
			assert.NotEmpty(t, chunk.Vector, "enrichment embeds inline")
		case core.EmbeddingKindSummary:
			summary++
			assert.NotEmpty(t, chunk.Vector)
		}
	}
	assert.Equal(t, 3, qa)
	assert.Equal(t, 1, summary)

	missing, err := env.repos.Chunks.CountMissingVectors(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, missing)
}

func TestProcessDocument_EnrichmentIsolation(t *testing.T) {
	env := setupPipeline(t)
	doc := proseDocument(env.library, 40)

	first, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc, nil)
	require.NoError(t, err)
	require.Greater(t, first.EnrichmentChunks, 0)

	total, err := env.repos.Chunks.CountChunksByDocument(context.Background(), doc.Id)
	require.NoError(t, err)

	// Reprocessing with enrichment disabled leaves the earlier results alone.
	bare, err := NewPipeline(env.repos.Documents, env.repos.Chapters, env.repos.Chunks,
		env.pipeline.resolver,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEnrichment(false, false),
		WithRetry(1, 0))
	require.NoError(t, err)
	defer bare.Release()

	_, err = bare.ProcessDocument(context.Background(), env.library, doc, nil)
	require.NoError(t, err)

	after, err := env.repos.Chunks.CountChunksByDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, total, after, "disabled enrichment neither deletes nor adds")

	// Re-enabling enrichment does not duplicate what already exists.
	again, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.EnrichmentChunks)
	after, err = env.repos.Chunks.CountChunksByDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, total, after)
}

func TestProcessDocument_Overwrite(t *testing.T) {
	env := setupPipeline(t)
	doc := proseDocument(env.library, 60)

	first, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc, nil)
	require.NoError(t, err)
	firstChunks, err := env.repos.Chunks.CountChunksByDocument(context.Background(), doc.Id)
	require.NoError(t, err)

	second, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc,
		&ProcessOptions{Overwrite: true})
	require.NoError(t, err)

	assert.Equal(t, first.Chapters, second.Chapters, "splitting is deterministic")
	secondChunks, err := env.repos.Chunks.CountChunksByDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, firstChunks, secondChunks, "overwrite leaves no duplicates or orphans")
	missing, err := env.repos.Chunks.CountMissingVectors(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, missing)
}

func TestProcessDocumentAsync(t *testing.T) {
	env := setupPipeline(t, WithEnrichment(false, false))
	doc := proseDocument(env.library, 60)

	err := env.pipeline.ProcessDocumentAsync(context.Background(), env.library, doc, nil)
	require.NoError(t, err)

	deadline := time.Now().Add(10 * time.Second)
	var status Status
	for time.Now().Before(deadline) {
		status, _ = env.pipeline.Status(doc.Id)
		if status.State.Terminal() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, StateCompleted, status.State)
	assert.Greater(t, status.Chapters, 0)
	assert.Greater(t, status.EmbeddingsProcessed, 0)
	missing, err := env.repos.Chunks.CountMissingVectors(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, missing)
}

func TestProcessDocument_InvalidDocument(t *testing.T) {
	env := setupPipeline(t, WithRetry(1, 0))

	_, err := env.pipeline.ProcessDocument(context.Background(), env.library, nil, nil)
	assert.ErrorIs(t, err, ErrDocumentRequired)

	empty := &core.Document{LibraryId: env.library.Id, Title: "Empty"}
	_, err = env.pipeline.ProcessDocument(context.Background(), env.library, empty, nil)
	assert.ErrorIs(t, err, core.ErrInvalidDocument, "empty body is rejected before any run starts")
}

func TestProcessDocument_UnregisteredModelFailsFast(t *testing.T) {
	env := setupPipeline(t, WithRetry(3, time.Minute))
	doc := proseDocument(env.library, 10)

	// Configuration errors never consume retry delays.
	start := time.Now()
	_, err := env.pipeline.ProcessDocument(context.Background(), env.library, doc,
		&ProcessOptions{Overrides: &ai.Overrides{EmbeddingModel: "no-such-model"}})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	status, ok := env.pipeline.Status(doc.Id)
	require.True(t, ok)
	assert.Equal(t, StateFailed, status.State)
}

func TestNewPipeline_RequiredDependencies(t *testing.T) {
	env := setupPipeline(t)

	_, err := NewPipeline(nil, env.repos.Chapters, env.repos.Chunks, env.pipeline.resolver)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)
	_, err = NewPipeline(env.repos.Documents, nil, env.repos.Chunks, env.pipeline.resolver)
	assert.ErrorIs(t, err, ErrChapterRepositoryRequired)
	_, err = NewPipeline(env.repos.Documents, env.repos.Chapters, nil, env.pipeline.resolver)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
	_, err = NewPipeline(env.repos.Documents, env.repos.Chapters, env.repos.Chunks, nil)
	assert.ErrorIs(t, err, ErrResolverRequired)
}
