// Package openai provides ai.Provider implementations backed by
// OpenAI-compatible HTTP APIs (OpenAI, Ollama, LocalAI, vLLM).
//
// Embeddings and completions may be served from different hosts; both are
// configured through ai.Config. Authentication uses a placeholder token for
// local services that do not require one.
package openai
