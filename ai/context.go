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


package ai

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docent/core"
)

// Overrides carries explicit per-run configuration overrides.
// Zero values mean "not set": blank strings and non-positive numerics fall
// through to the library value, then to the process default.
type Overrides struct {
	EmbeddingModel     string
	EmbeddingDimension int
	CompletionModel    string
	MaxContextTokens   int
}

// EmbeddingContext is the single source of truth for model configuration
// during one pipeline invocation. It is built once, fully enriched, and never
// mutated afterwards; resolution either completes entirely or fails.
type EmbeddingContext struct {
	EmbeddingModel   string
	CompletionModel  string
	Dimension        int // Target dimension every persisted vector must have
	MaxContextTokens int // Batch budget for provider calls

	// EmbeddingCard and CompletionCard are the registry entries the resolved
	// names were verified against.
	EmbeddingCard  ModelCard
	CompletionCard ModelCard

	provider  Provider
	estimator *TokenEstimator
}

// Provider returns the provider handle acquired at resolution time.
func (ec *EmbeddingContext) Provider() Provider {
	return ec.provider
}

// Estimator returns the token estimator bound to the resolved embedding model.
func (ec *EmbeddingContext) Estimator() *TokenEstimator {
	return ec.estimator
}

// Resolver builds EmbeddingContexts by merging explicit overrides, library
// defaults, and process-wide defaults, verifying resolved names against the
// model registry.
type Resolver struct {
	registry *Registry
	provider Provider
	defaults *Config
	logger   *slog.Logger
}

// NewResolver creates a resolver.
// The provider handle is cached on every resolved context so strategies do not
// repeat registry lookups mid-run.
func NewResolver(registry *Registry, provider Provider, defaults *Config) (*Resolver, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider required")
	}
	if defaults == nil {
		defaults = DefaultConfig()
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{
		registry: registry,
		provider: provider,
		defaults: defaults,
		logger:   slog.Default().With("component", "resolver"),
	}, nil
}

// Resolve produces a fully populated EmbeddingContext for one run.
// For each field the resolution order is explicit override, then library
// value, then process default. An unregistered resolved model name is a hard
// failure; it is never silently substituted.
func (r *Resolver) Resolve(library *core.Library, overrides *Overrides) (*EmbeddingContext, error) {
	if library == nil {
		return nil, ErrLibraryRequired
	}
	if err := core.ValidateLibrary(library); err != nil {
		return nil, err
	}
	if overrides == nil {
		overrides = &Overrides{}
	}

	embeddingModel, ok := firstResolved(nonBlank,
		overrides.EmbeddingModel, library.EmbeddingModel, r.defaults.DefaultEmbeddingModel)
	if !ok {
		return nil, ErrNoEmbeddingModel
	}

	completionModel, ok := firstResolved(nonBlank,
		overrides.CompletionModel, library.CompletionModel, r.defaults.DefaultCompletionModel)
	if !ok {
		return nil, ErrNoCompletionModel
	}

	embeddingCard, err := r.registry.Lookup(embeddingModel)
	if err != nil {
		return nil, err
	}
	completionCard, err := r.registry.Lookup(completionModel)
	if err != nil {
		return nil, err
	}

	// The desired dimension only matters for dimension-adjustable models;
	// otherwise the card's native dimension is authoritative.
	dimension := embeddingCard.EmbeddingDimension
	if embeddingCard.DimensionAdjustable {
		if d, ok := firstResolved(positive,
			overrides.EmbeddingDimension, library.EmbeddingDimension, r.defaults.DefaultEmbeddingDimension); ok {
			dimension = d
		}
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("no target dimension for model %q", embeddingModel)
	}

	maxTokens, ok := firstResolved(positive,
		overrides.MaxContextTokens, library.MaxContextTokens, r.defaults.DefaultMaxContextTokens)
	if !ok || maxTokens > embeddingCard.ContextLength {
		maxTokens = embeddingCard.ContextLength
	}

	r.logger.Debug("resolved embedding context",
		"embeddingModel", embeddingModel,
		"completionModel", completionModel,
		"dimension", dimension,
		"maxContextTokens", maxTokens)

	return &EmbeddingContext{
		EmbeddingModel:   embeddingModel,
		CompletionModel:  completionModel,
		Dimension:        dimension,
		MaxContextTokens: maxTokens,
		EmbeddingCard:    embeddingCard,
		CompletionCard:   completionCard,
		provider:         r.provider,
		estimator:        NewTokenEstimator(embeddingModel),
	}, nil
}

// firstResolved returns the first value for which set reports true.
// The layered override/library/default resolution recurs per field; this is
// its single implementation.
func firstResolved[T any](set func(T) bool, values ...T) (T, bool) {
	for _, v := range values {
		if set(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func nonBlank(s string) bool { return strings.TrimSpace(s) != "" }

func positive(n int) bool { return n > 0 }
