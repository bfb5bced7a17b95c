package ai

import (
	"fmt"
	"sync"
)

// ModelCard describes the capabilities of an installed model.
type ModelCard struct {
	// Name is the model identifier as known to the provider.
	Name string

	// ContextLength is the model's context window in tokens.
	ContextLength int

	// EmbeddingDimension is the native output dimension for embedding models.
	// Zero for completion-only models.
	EmbeddingDimension int

	// DimensionAdjustable reports whether the model accepts a requested
	// output dimension different from its native one.
	DimensionAdjustable bool

	// ReasoningCapable reports whether the model is suitable for
	// completion tasks like Q&A synthesis and summarization.
	ReasoningCapable bool
}

// Registry is a per-provider catalog of installed models.
// It is read-mostly: document runs look models up concurrently while
// registration happens once at startup.
type Registry struct {
	mu    sync.RWMutex
	cards map[string]ModelCard
}

// NewRegistry creates a registry pre-populated with the given cards.
func NewRegistry(cards ...ModelCard) *Registry {
	r := &Registry{cards: make(map[string]ModelCard, len(cards))}
	for _, card := range cards {
		r.cards[card.Name] = card
	}
	return r
}

// Register adds or replaces a model card.
func (r *Registry) Register(card ModelCard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.Name] = card
}

// Lookup returns the card for a model name.
// Returns ErrModelNotFound if the name is not registered.
func (r *Registry) Lookup(name string) (ModelCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	card, ok := r.cards[name]
	if !ok {
		return ModelCard{}, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	return card, nil
}

// DefaultRegistry returns a registry of commonly installed models for local
// OpenAI-compatible services and the hosted OpenAI API. Deployments with
// other models register their own cards.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ModelCard{Name: "embeddinggemma", ContextLength: 2048, EmbeddingDimension: 768},
		ModelCard{Name: "nomic-embed-text", ContextLength: 8192, EmbeddingDimension: 768},
		ModelCard{Name: "mxbai-embed-large", ContextLength: 512, EmbeddingDimension: 1024},
		ModelCard{Name: "text-embedding-3-small", ContextLength: 8191, EmbeddingDimension: 1536, DimensionAdjustable: true},
		ModelCard{Name: "text-embedding-3-large", ContextLength: 8191, EmbeddingDimension: 3072, DimensionAdjustable: true},
		ModelCard{Name: "qwen2.5:3b", ContextLength: 32768, ReasoningCapable: true},
		ModelCard{Name: "llama3.1:8b", ContextLength: 131072, ReasoningCapable: true},
		ModelCard{Name: "gpt-4o-mini", ContextLength: 128000, ReasoningCapable: true},
	)
}

// Models returns the names of all registered models.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cards))
	for name := range r.cards {
		names = append(names, name)
	}
	return names
}
