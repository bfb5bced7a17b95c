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
	"fmt"
	"log/slog"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/strategy"
)

// batchByTokens groups chunks into provider batches whose combined estimated
// token size stays within maxTokens. Grouping preserves chunk order. A single
// chunk larger than the budget gets a batch of its own; the provider decides
// whether to truncate or reject it.
func batchByTokens(chunks []*core.Chunk, estimator *ai.TokenEstimator, maxTokens int) [][]*core.Chunk {
	if len(chunks) == 0 {
		return nil
	}

	var batches [][]*core.Chunk
	var current []*core.Chunk
	currentTokens := 0

	for _, chunk := range chunks {
		tokens := estimator.Estimate(chunk.Text)
		if len(current) > 0 && currentTokens+tokens > maxTokens {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, chunk)
		currentTokens += tokens
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

// vectorComputer fills in the vectors that phase 1 persisted as nil.
// Texts are grouped into provider calls within the model's context budget to
// minimize round-trips; providers are typically request-rate-limited, not
// per-token-limited.
type vectorComputer struct {
	chunks storage.ChunkRepository
	logger *slog.Logger
}

// compute embeds the pending chunks and writes the vectors back.
// A provider error aborts the pass so the whole run can be retried; a
// write-back error on an individual chunk is counted and the pass continues.
func (vc *vectorComputer) compute(ctx context.Context, ec *ai.EmbeddingContext, pending []*core.Chunk) (processed, failed int, err error) {
	if len(pending) == 0 {
		return 0, 0, nil
	}

	embedder := ec.Provider().Embedder()
	batches := batchByTokens(pending, ec.Estimator(), ec.MaxContextTokens)

	for _, batch := range batches {
		if ctx.Err() != nil {
			return processed, failed, ctx.Err()
		}

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddings, embedErr := embedder.EmbedDocuments(ctx, texts)
		if embedErr != nil {
			return processed, failed, fmt.Errorf("embedding batch of %d chunks: %w", len(batch), embedErr)
		}
		if len(embeddings) != len(batch) {
			return processed, failed, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
		}

		for i, chunk := range batch {
			chunk.Vector = strategy.FitDimension(strategy.NormalizeVector(embeddings[i]), ec.Dimension)
		}

		if _, updateErr := vc.chunks.UpdateChunks(ctx, batch...); updateErr != nil {
			// Retry one-by-one so a single bad record doesn't take the
			// whole batch down with it.
			for _, chunk := range batch {
				if _, chunkErr := vc.chunks.UpdateChunks(ctx, chunk); chunkErr != nil {
					failed++
					vc.logger.Warn("vector write-back failed",
						"chunkId", chunk.Id, "chapterId", chunk.ChapterId, "err", chunkErr)
					continue
				}
				processed++
			}
			continue
		}
		processed += len(batch)
	}

	return processed, failed, nil
}
