package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// The indexing and search representations are distinct: chapter and chunk
// texts go through EmbedDocuments, free-text queries through EmbedQuery.
// The two must not be conflated even for providers where they coincide.
type Embedder interface {
	// EmbedDocuments generates indexing-representation embeddings for a batch
	// of texts. The returned slice contains embeddings in the same order as
	// the input texts. Returns an error if any embedding generation fails.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a search-representation embedding for one
	// free-text query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Completer generates text completions from a completion-capable model.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends an instruction prompt plus content to the model and
	// returns the generated text. Returns an error if generation fails.
	Complete(ctx context.Context, prompt, content string) (string, error)
}

// Provider aggregates model services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and Completer
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Completer returns the text completion service.
	// The returned Completer is safe for concurrent use.
	Completer() Completer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
