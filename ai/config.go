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
	"errors"
	"strings"
)

// Config holds configuration for model service providers and the
// process-wide resolution defaults.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// CompletionHost is the base URL for the completion service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	CompletionHost string

	// DefaultEmbeddingModel is the process-wide fallback embedding model,
	// used when neither an explicit override nor the library sets one.
	// Example: "embeddinggemma", "text-embedding-3-small"
	DefaultEmbeddingModel string

	// DefaultEmbeddingDimension is the process-wide fallback target dimension.
	DefaultEmbeddingDimension int

	// DefaultCompletionModel is the process-wide fallback completion model.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	DefaultCompletionModel string

	// DefaultMaxContextTokens is the process-wide fallback context budget.
	DefaultMaxContextTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.CompletionHost = host
	}
}

// WithDefaultEmbeddingModel sets the fallback embedding model identifier.
func WithDefaultEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.DefaultEmbeddingModel = model
	}
}

// WithDefaultEmbeddingDimension sets the fallback target dimension.
func WithDefaultEmbeddingDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.DefaultEmbeddingDimension = dim
	}
}

// WithDefaultCompletionModel sets the fallback completion model identifier.
func WithDefaultCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.DefaultCompletionModel = model
	}
}

// WithDefaultMaxContextTokens sets the fallback context budget.
func WithDefaultMaxContextTokens(tokens int) ConfigOption {
	return func(c *Config) {
		c.DefaultMaxContextTokens = tokens
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. By default, both hosts are the same.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:             defaultHost,
		CompletionHost:            defaultHost,
		DefaultEmbeddingModel:     "embeddinggemma",
		DefaultEmbeddingDimension: 768,
		DefaultCompletionModel:    "qwen2.5:3b",
		DefaultMaxContextTokens:   8192,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithDefaultEmbeddingModel("text-embedding-3-small"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.CompletionHost != "" && !strings.HasSuffix(c.CompletionHost, "/v1") {
		c.CompletionHost = strings.TrimSuffix(c.CompletionHost, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.CompletionHost == "" {
		return errors.New("ai config: CompletionHost is required")
	}
	if c.DefaultEmbeddingModel == "" {
		return errors.New("ai config: DefaultEmbeddingModel is required")
	}
	if c.DefaultEmbeddingDimension <= 0 {
		return errors.New("ai config: DefaultEmbeddingDimension must be positive")
	}
	if c.DefaultCompletionModel == "" {
		return errors.New("ai config: DefaultCompletionModel is required")
	}
	if c.DefaultMaxContextTokens <= 0 {
		return errors.New("ai config: DefaultMaxContextTokens must be positive")
	}
	return nil
}
