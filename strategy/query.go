package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/docent/ai"
)

// QueryStrategy embeds free-text search queries. It uses the provider's
// query representation, which asymmetric embedding models distinguish from
// the indexing representation used for chapters; the two must not be
// conflated or retrieval quality degrades silently.
type QueryStrategy struct{}

// NewQueryStrategy creates a query strategy.
func NewQueryStrategy() *QueryStrategy {
	return &QueryStrategy{}
}

// Name identifies the strategy in logs.
func (s *QueryStrategy) Name() string {
	return "query"
}

// Embed converts one query string into a vector fitted to the context's
// target dimension.
func (s *QueryStrategy) Embed(ctx context.Context, ec *ai.EmbeddingContext, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := ec.Provider().Embedder().EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	// Stored vectors are unit-normalized before persisting; queries must
	// match or dot-product similarity scores skew by raw vector norm.
	return FitDimension(NormalizeVector(vector), ec.Dimension), nil
}
