// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/split"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/strategy"
)

const (
	// DefaultMaxAttempts is the total number of whole-run attempts.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the fixed wait between whole-run attempts,
	// sized to outlast typical provider rate-limit windows.
	DefaultRetryDelay = 2 * time.Minute
)

// Pipeline drives documents through the two-phase processing run: splitting
// into chapters, chapter embedding records, batched vector computation, and
// optional Q&A/summary enrichment. Documents process concurrently on a worker
// pool; within one document the phases are sequential.
type Pipeline struct {
	documents storage.DocumentRepository
	chapters  storage.ChapterRepository
	chunks    storage.ChunkRepository
	resolver  *ai.Resolver

	pool    *ants.Pool
	tracker *Tracker
	budgets core.TokenBudgets

	qaPairCount     int
	summaryMaxChars int
	includeQA       bool
	includeSummary  bool

	maxAttempts int
	retryDelay  time.Duration

	chapterStrategy *strategy.ChapterStrategy
	qaStrategy      *strategy.QAStrategy
	summaryStrategy *strategy.SummaryStrategy

	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent document processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithBudgets replaces the canonical token thresholds.
func WithBudgets(budgets core.TokenBudgets) Option {
	return func(p *Pipeline) error {
		if err := budgets.Validate(); err != nil {
			return err
		}
		p.budgets = budgets
		return nil
	}
}

// WithQAPairCount sets how many question/answer pairs phase 2 requests per
// chapter. Non-positive values fall back to the default.
func WithQAPairCount(count int) Option {
	return func(p *Pipeline) error {
		if count < 1 {
			count = strategy.DefaultQAPairCount
		}
		p.qaPairCount = count
		return nil
	}
}

// WithSummaryMaxChars caps the length of generated chapter summaries.
func WithSummaryMaxChars(max int) Option {
	return func(p *Pipeline) error {
		p.summaryMaxChars = max
		return nil
	}
}

// WithEnrichment toggles the phase-2 strategies. Both default to enabled.
func WithEnrichment(includeQA, includeSummary bool) Option {
	return func(p *Pipeline) error {
		p.includeQA = includeQA
		p.includeSummary = includeSummary
		return nil
	}
}

// WithRetry sets the whole-run retry policy.
// maxAttempts is the total attempt count, including the first.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = delay
		return nil
	}
}

// NewPipeline creates a document processing pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chapters storage.ChapterRepository,
	chunks storage.ChunkRepository,
	resolver *ai.Resolver,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chapters == nil {
		return nil, ErrChapterRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:      documents,
		chapters:       chapters,
		chunks:         chunks,
		resolver:       resolver,
		pool:           pool,
		tracker:        NewTracker(),
		budgets:        core.DefaultTokenBudgets(),
		qaPairCount:    strategy.DefaultQAPairCount,
		includeQA:      true,
		includeSummary: true,
		maxAttempts:    DefaultMaxAttempts,
		retryDelay:     DefaultRetryDelay,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Strategies are built after options so they see the final budgets.
	chapterStrategy, err := strategy.NewChapterStrategy(strategy.ModeAuto, p.budgets)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.chapterStrategy = chapterStrategy
	p.qaStrategy = strategy.NewQAStrategy(p.qaPairCount, p.logger)
	p.summaryStrategy = strategy.NewSummaryStrategy(p.budgets.SummaryMinTokens, p.summaryMaxChars, p.logger)

	return p, nil
}

// ProcessOptions holds per-run parameters.
type ProcessOptions struct {
	// Overwrite deletes the document's existing chapters (cascading to
	// chunks) before regenerating, preventing duplicates across repeated
	// runs. Without it an existing document resumes: surviving chapters are
	// kept and only missing vectors and missing enrichment are computed.
	Overwrite bool

	// Overrides carries explicit model/dimension overrides for this run.
	Overrides *ai.Overrides
}

// ProcessDocument runs the document synchronously, retrying the whole run on
// failure per the configured retry policy. The document is added to storage
// first when it carries no ID. The final status is also recorded on the
// tracker.
func (p *Pipeline) ProcessDocument(ctx context.Context, library *core.Library, doc *core.Document, opts *ProcessOptions) (*Result, error) {
	return p.process(ctx, library, doc, opts, 0)
}

// ProcessDocumentOnce runs the document synchronously without retry, for
// callers implementing their own retry policy.
func (p *Pipeline) ProcessDocumentOnce(ctx context.Context, library *core.Library, doc *core.Document, opts *ProcessOptions) (*Result, error) {
	return p.process(ctx, library, doc, opts, 1)
}

// ProcessDocumentAsync accepts the document and runs it on the worker pool.
// The returned error covers acceptance only; run progress and outcome are
// exposed through Status. Cancel the context to stop the run mid-flight;
// already-persisted phase-1 output is kept and resumable.
func (p *Pipeline) ProcessDocumentAsync(ctx context.Context, library *core.Library, doc *core.Document, opts *ProcessOptions) error {
	if doc == nil {
		return ErrDocumentRequired
	}
	if err := p.ensureStored(ctx, doc); err != nil {
		return err
	}
	if err := p.tracker.Begin(doc.Id); err != nil {
		return err
	}

	submitErr := p.pool.Submit(func() {
		p.execute(ctx, library, doc, opts, p.maxAttempts)
	})
	if submitErr != nil {
		p.tracker.Fail(doc.Id, submitErr)
		return submitErr
	}
	return nil
}

// Status returns the tracker snapshot for a document.
func (p *Pipeline) Status(documentID core.ID) (Status, bool) {
	return p.tracker.Get(documentID)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// process is the shared synchronous entry. maxAttempts 0 means "use the
// configured policy".
func (p *Pipeline) process(ctx context.Context, library *core.Library, doc *core.Document, opts *ProcessOptions, maxAttempts int) (*Result, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	if maxAttempts == 0 {
		maxAttempts = p.maxAttempts
	}
	if err := p.ensureStored(ctx, doc); err != nil {
		return nil, err
	}
	if err := p.tracker.Begin(doc.Id); err != nil {
		return nil, err
	}
	return p.execute(ctx, library, doc, opts, maxAttempts)
}

// execute resolves the run's model context, drives the retry loop, and
// records the terminal status. Resolution failures are configuration errors:
// they fail fast and are never retried.
func (p *Pipeline) execute(ctx context.Context, library *core.Library, doc *core.Document, opts *ProcessOptions, maxAttempts int) (*Result, error) {
	if opts == nil {
		opts = &ProcessOptions{}
	}
	start := time.Now()

	ec, err := p.resolver.Resolve(library, opts.Overrides)
	if err != nil {
		p.tracker.Fail(doc.Id, err)
		return nil, err
	}

	var result *Result
	attempts := 0
	// Only the first attempt honors the overwrite request; a retry resumes
	// the partially committed run instead of discarding it.
	overwrite := opts.Overwrite

	err = RetryFixedDelay(ctx, func() error {
		attempts++
		var runErr error
		result, runErr = p.run(ctx, ec, doc, overwrite)
		overwrite = false
		return runErr
	}, maxAttempts, p.retryDelay)

	if err != nil {
		p.tracker.Fail(doc.Id, err)
		return nil, err
	}

	result.DocumentId = doc.Id
	result.Attempts = attempts
	result.Duration = time.Since(start)
	p.tracker.Complete(doc.Id, result)

	p.logger.Info("document processed",
		"documentId", doc.Id,
		"chapters", result.Chapters,
		"embeddings", result.EmbeddingsProcessed,
		"embeddingFailures", result.EmbeddingsFailed,
		"enrichmentChunks", result.EnrichmentChunks,
		"attempts", result.Attempts,
		"duration", result.Duration)
	return result, nil
}

// run is one whole-document attempt.
func (p *Pipeline) run(ctx context.Context, ec *ai.EmbeddingContext, doc *core.Document, overwrite bool) (*Result, error) {
	result := &Result{}

	if overwrite {
		if err := p.chapters.DeleteChaptersByDocument(ctx, doc.Id); err != nil {
			return nil, err
		}
	}

	if doc.TokenCount == 0 {
		doc.TokenCount = ec.Estimator().Estimate(doc.Body)
		if _, err := p.documents.UpdateDocuments(ctx, doc); err != nil {
			return nil, err
		}
	}

	chapters, err := p.ensureChapters(ctx, ec, doc)
	if err != nil {
		return nil, err
	}
	result.Chapters = len(chapters)
	p.tracker.Progress(doc.Id, 40, "chapters persisted")

	processed, failed, err := p.computeMissingVectors(ctx, ec, doc)
	if err != nil {
		return nil, err
	}
	result.EmbeddingsProcessed = processed
	result.EmbeddingsFailed = failed
	p.tracker.Progress(doc.Id, 70, "vectors computed")

	if p.includeQA || p.includeSummary {
		result.EnrichmentChunks, result.EnrichmentFailures = p.enrich(ctx, ec, doc, chapters)
	}
	p.tracker.Progress(doc.Id, 95, "enrichment finished")

	return result, nil
}

// ensureChapters returns the document's chapters, splitting and persisting
// them when none exist yet. Existing chapters mean a prior attempt got this
// far; they are reused so a retry resumes instead of duplicating. Embedding
// records (vectors still nil) are then generated per chapter, skipping
// chapters that already have them, so a run interrupted between persisting
// chapters and persisting records picks up exactly where it stopped.
func (p *Pipeline) ensureChapters(ctx context.Context, ec *ai.EmbeddingContext, doc *core.Document) ([]*core.Chapter, error) {
	existing, err := p.chapters.CountChaptersByDocument(ctx, doc.Id)
	if err != nil {
		return nil, err
	}

	var chapters []*core.Chapter
	if existing > 0 {
		p.logger.Debug("resuming with existing chapters", "documentId", doc.Id, "chapters", existing)
		chapters, err = p.chapters.GetChaptersByDocument(ctx, doc.Id)
		if err != nil {
			return nil, err
		}
	} else {
		splitter := split.ForDocument(doc, p.budgets, ec.Estimator())
		chapters, err = splitter.Split(doc)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("document split",
			"documentId", doc.Id, "contentType", splitter.ContentType(), "chapters", len(chapters))

		chapters, err = p.chapters.AddChapters(ctx, chapters...)
		if err != nil {
			return nil, err
		}
		p.tracker.Progress(doc.Id, 20, "document split")
	}

	for _, chapter := range chapters {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		has, hasErr := p.hasChapterRecords(ctx, chapter.Id)
		if hasErr != nil {
			return nil, hasErr
		}
		if has {
			continue
		}
		records, genErr := p.chapterStrategy.Generate(ctx, ec, doc, chapter)
		if genErr != nil {
			return nil, genErr
		}
		if _, addErr := p.chunks.AddChunks(ctx, records...); addErr != nil {
			return nil, addErr
		}
	}

	return chapters, nil
}

// hasChapterRecords reports whether a chapter already has its chapter-level
// embedding records persisted. Enrichment chunks do not count.
func (p *Pipeline) hasChapterRecords(ctx context.Context, chapterID core.ID) (bool, error) {
	chunks, err := p.chunks.GetChunksByChapter(ctx, chapterID)
	if err != nil {
		return false, err
	}
	for _, chunk := range chunks {
		switch chunk.Kind {
		case core.EmbeddingKindChapter, core.EmbeddingKindChunk:
			return true, nil
		}
	}
	return false, nil
}

// computeMissingVectors embeds every chunk of the document still carrying a
// nil vector and writes the vectors back.
func (p *Pipeline) computeMissingVectors(ctx context.Context, ec *ai.EmbeddingContext, doc *core.Document) (processed, failed int, err error) {
	all, err := p.chunks.GetChunksByDocument(ctx, doc.Id)
	if err != nil {
		return 0, 0, err
	}

	pending := make([]*core.Chunk, 0, len(all))
	for _, chunk := range all {
		if len(chunk.Vector) == 0 {
			pending = append(pending, chunk)
		}
	}

	vc := &vectorComputer{chunks: p.chunks, logger: p.logger}
	return vc.compute(ctx, ec, pending)
}

// enrich runs the phase-2 strategies over the chapters. Each chapter only
// gets the enrichment kinds it does not already have, so repeated runs do not
// duplicate and a run with a strategy disabled leaves earlier results alone.
// Failures are logged and counted, never escalated: phase 2 must not roll
// back phase-1 output.
func (p *Pipeline) enrich(ctx context.Context, ec *ai.EmbeddingContext, doc *core.Document, chapters []*core.Chapter) (generated, failures int) {
	for _, chapter := range chapters {
		if ctx.Err() != nil {
			return generated, failures
		}

		existing, err := p.chunks.GetChunksByChapter(ctx, chapter.Id)
		if err != nil {
			p.logger.Warn("enrichment skipped, chunk lookup failed",
				"chapterId", chapter.Id, "err", err)
			failures++
			continue
		}
		hasQA, hasSummary := false, false
		for _, chunk := range existing {
			switch chunk.Kind {
			case core.EmbeddingKindQAPair:
				hasQA = true
			case core.EmbeddingKindSummary:
				hasSummary = true
			}
		}

		if p.includeQA && !hasQA {
			generated += p.runEnrichment(ctx, ec, doc, chapter, p.qaStrategy, &failures)
		}
		if p.includeSummary && !hasSummary {
			generated += p.runEnrichment(ctx, ec, doc, chapter, p.summaryStrategy, &failures)
		}
	}
	return generated, failures
}

func (p *Pipeline) runEnrichment(ctx context.Context, ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter, strat strategy.Strategy, failures *int) int {
	records, err := strat.Generate(ctx, ec, doc, chapter)
	if err != nil {
		p.logger.Warn("enrichment strategy failed",
			"strategy", strat.Name(), "chapterId", chapter.Id, "err", err)
		*failures++
		return 0
	}
	if len(records) == 0 {
		return 0
	}
	if _, err := p.chunks.AddChunks(ctx, records...); err != nil {
		p.logger.Warn("enrichment persist failed",
			"strategy", strat.Name(), "chapterId", chapter.Id, "err", err)
		*failures++
		return 0
	}
	return len(records)
}

// ensureStored adds the document to storage when it has no ID yet.
func (p *Pipeline) ensureStored(ctx context.Context, doc *core.Document) error {
	if doc.Id != 0 {
		return nil
	}
	added, err := p.documents.AddDocuments(ctx, doc)
	if err != nil {
		return err
	}
	doc.Id = added[0].Id
	return nil
}
