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


package strategy

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// Strategy turns one chapter plus a resolved embedding context into zero or
// more chunk records. Implementations resolve models only through the
// context, never from their own configuration, and attach provenance
// metadata to every record they produce.
type Strategy interface {
	// Name identifies the strategy in provenance metadata and logs.
	Name() string

	// Generate produces chunk records for the chapter. Records may carry a
	// computed vector (enrichment strategies embed inline) or a nil vector
	// for the batch compute pass to fill in.
	Generate(ctx context.Context, ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error)
}

// provenance builds the metadata every generated record carries: source ids,
// strategy name, model name, and generation timestamp.
func provenance(ec *ai.EmbeddingContext, name string, doc *core.Document, chapter *core.Chapter) map[string]string {
	return map[string]string{
		"strategy":        name,
		"embedding_model": ec.EmbeddingModel,
		"generated_at":    time.Now().UTC().Format(time.RFC3339),
		"library_id":      strconv.FormatUint(uint64(doc.LibraryId), 10),
		"document_id":     strconv.FormatUint(uint64(chapter.DocumentId), 10),
		"chapter_id":      strconv.FormatUint(uint64(chapter.Id), 10),
	}
}

// renderMetadata serializes a metadata map as sorted "key: value" lines so
// metadata-bearing embeddings are deterministic.
func renderMetadata(metadata map[string]string) string {
	if len(metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(metadata[k])
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
