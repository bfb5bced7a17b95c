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


// Package ai provides abstractions for the model services used by Docent.
//
// This package defines interfaces for model operations, a capability catalog,
// and per-run configuration resolution. It follows the dependency inversion
// principle: the splitters, strategies, and the orchestrator depend on these
// abstractions rather than concrete provider implementations.
//
// # Key types
//
//   - Embedder: batch indexing embeddings plus the distinct query
//     representation
//   - Completer: text completion for Q&A synthesis and summaries
//   - Provider: aggregates both services for initialization and lifecycle
//   - Registry / ModelCard: read-mostly catalog of installed models and their
//     capabilities (context length, dimension, adjustability)
//   - Resolver / EmbeddingContext: merges explicit override, library default,
//     and process default into one immutable per-run configuration, verifying
//     resolved names against the Registry
//   - TokenEstimator: cheap token approximation used for splitting and
//     strategy decisions; exact when tokenizer data is available, otherwise a
//     character-ratio fallback that never fails
//
// # Implementation packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types to prevent coupling
// to provider-specific details; mock constructors return concrete types so
// tests can inject behavior and make assertions.
package ai
