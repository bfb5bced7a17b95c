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


package docent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/openai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
	"github.com/poiesic/docent/strategy"
)

// KnowledgeBase bundles storage, the model provider, and the context
// resolver behind one handle. It is the embedding-side entry point: ingest
// documents through a pipeline, then embed queries against the same resolved
// models.
type KnowledgeBase struct {
	backend  *badger.Backend
	repos    *badger.Repositories
	provider ai.Provider
	registry *ai.Registry
	resolver *ai.Resolver
	logger   *slog.Logger
}

// KnowledgeBaseOption configures a KnowledgeBase.
type KnowledgeBaseOption func(*knowledgeBaseOptions)

type knowledgeBaseOptions struct {
	aiConfig *ai.Config
	registry *ai.Registry
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the model service configuration.
func WithAIConfig(cfg *ai.Config) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithRegistry replaces the default model registry.
func WithRegistry(registry *ai.Registry) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// WithProvider injects a model provider, bypassing the OpenAI-compatible
// client construction. Intended for tests and embedded setups.
func WithProvider(provider ai.Provider) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory, discarding everything on
// close.
func WithInMemory() KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.inMemory = true
	}
}

// Open opens (creating if necessary) a knowledge base at the given path.
func Open(filePath string, opts ...KnowledgeBaseOption) (*KnowledgeBase, error) {
	options := &knowledgeBaseOptions{
		aiConfig: ai.DefaultConfig(),
		registry: ai.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			backend.Close()
			return nil, err
		}
	}

	resolver, err := ai.NewResolver(options.registry, provider, options.aiConfig)
	if err != nil {
		provider.Close()
		repos.Close()
		backend.Close()
		return nil, err
	}

	return &KnowledgeBase{
		backend:  backend,
		repos:    repos,
		provider: provider,
		registry: options.registry,
		resolver: resolver,
		logger:   slog.Default(),
	}, nil
}

// Close releases the provider, repositories, and storage backend.
func (kb *KnowledgeBase) Close() error {
	if err := kb.provider.Close(); err != nil {
		kb.logger.Error("error closing model provider", "err", err)
	}
	if err := kb.repos.Close(); err != nil {
		kb.logger.Error("error closing repositories", "err", err)
		return err
	}
	if err := kb.backend.Close(); err != nil {
		kb.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Libraries returns the library repository.
func (kb *KnowledgeBase) Libraries() storage.LibraryRepository {
	return kb.repos.Libraries
}

// Documents returns the document repository.
func (kb *KnowledgeBase) Documents() storage.DocumentRepository {
	return kb.repos.Documents
}

// Chapters returns the chapter repository.
func (kb *KnowledgeBase) Chapters() storage.ChapterRepository {
	return kb.repos.Chapters
}

// Chunks returns the chunk repository.
func (kb *KnowledgeBase) Chunks() storage.ChunkRepository {
	return kb.repos.Chunks
}

// Registry returns the model registry for card registration at startup.
func (kb *KnowledgeBase) Registry() *ai.Registry {
	return kb.registry
}

// NewPipeline creates a document processing pipeline over this knowledge
// base's repositories and resolver.
func (kb *KnowledgeBase) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(kb.repos.Documents, kb.repos.Chapters, kb.repos.Chunks, kb.resolver, opts...)
}

// EnsureLibrary finds a library by name, creating it with equal-weight
// defaults when absent.
func (kb *KnowledgeBase) EnsureLibrary(ctx context.Context, name string) (*core.Library, error) {
	library, err := kb.repos.Libraries.FindLibraryByName(ctx, name)
	if err == nil {
		return library, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	added, err := kb.repos.Libraries.AddLibraries(ctx, &core.Library{
		Name:           name,
		SemanticWeight: 0.5,
		TextualWeight:  0.5,
	})
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// AddDocument stores a document in the library, deduplicating by content
// checksum: re-adding identical content returns the stored document instead
// of creating a second copy.
func (kb *KnowledgeBase) AddDocument(ctx context.Context, library *core.Library, title, body string, metadata map[string]string) (*core.Document, error) {
	doc := &core.Document{
		LibraryId: library.Id,
		Title:     title,
		Active:    true,
		Metadata:  metadata,
	}
	doc.SetBody(body)

	existing, err := kb.repos.Documents.FindDocumentByChecksum(ctx, library.Id, doc.Checksum)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		kb.logger.Debug("document already stored", "documentId", existing.Id, "title", existing.Title)
		return existing, nil
	}

	added, err := kb.repos.Documents.AddDocuments(ctx, doc)
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// EmbedQuery embeds a search query under the library's resolved models. The
// query representation matches what the library's chunks were indexed with.
func (kb *KnowledgeBase) EmbedQuery(ctx context.Context, library *core.Library, query string) ([]float32, error) {
	ec, err := kb.resolver.Resolve(library, nil)
	if err != nil {
		return nil, err
	}
	return strategy.NewQueryStrategy().Embed(ctx, ec, query)
}

// Search embeds the query and returns the library's most similar chunks.
func (kb *KnowledgeBase) Search(ctx context.Context, library *core.Library, query string, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	vector, err := kb.EmbedQuery(ctx, library, query)
	if err != nil {
		return nil, err
	}
	return kb.repos.Chunks.FindSimilar(ctx, library.Id, vector, minSimilarity, limit)
}
