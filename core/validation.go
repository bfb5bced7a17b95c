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


package core

import (
	"fmt"
	"math"
)

// WeightTolerance is the permitted deviation of SemanticWeight+TextualWeight
// from 1.0.
const WeightTolerance = 0.001

// ValidateLibrary validates a Library according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Weight pair must sum to 1.0 within WeightTolerance
//   - EmbeddingDimension and MaxContextTokens, when set, must be positive
//
// NOT validated (resolved later against process defaults):
//   - Model names (blank means "use the global default")
func ValidateLibrary(library *Library) error {
	if library == nil {
		return fmt.Errorf("%w: library is nil", ErrInvalidLibrary)
	}

	if library.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidLibrary)
	}

	if err := ValidateWeights(library.SemanticWeight, library.TextualWeight); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLibrary, err)
	}

	if library.EmbeddingDimension < 0 {
		return fmt.Errorf("%w: embedding dimension cannot be negative", ErrInvalidLibrary)
	}

	if library.MaxContextTokens < 0 {
		return fmt.Errorf("%w: max context tokens cannot be negative", ErrInvalidLibrary)
	}

	return nil
}

// ValidateWeights checks the hybrid ranking weight pair. The pair is never
// silently corrected; an out-of-tolerance pair is a hard error.
func ValidateWeights(semantic, textual float64) error {
	if semantic < 0 || textual < 0 {
		return fmt.Errorf("%w: weights cannot be negative", ErrInvalidWeights)
	}
	if math.Abs(semantic+textual-1.0) > WeightTolerance {
		return fmt.Errorf("%w: got %.4f + %.4f", ErrInvalidWeights, semantic, textual)
	}
	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Body must not be empty
//   - LibraryId must be set
//   - Checksum must match the normalized body
//
// NOT validated (populated by the pipeline):
//   - TokenCount (0 is valid before estimation)
//   - ID (0 is valid from database sequences)
func ValidateDocument(document *Document) error {
	if document == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if document.Body == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if document.LibraryId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingParent)
	}

	if document.Checksum != ChecksumContent(document.Body) {
		return fmt.Errorf("%w: checksum does not match body", ErrInvalidDocument)
	}

	return nil
}

// ValidateChapter validates a Chapter according to domain rules.
//
// Validation rules:
//   - DocumentId must be set (chapters cannot exist parentless)
//   - Text must not be empty
//   - Ordinal must be 1-based
//   - Character range must be well-formed
func ValidateChapter(chapter *Chapter) error {
	if chapter == nil {
		return fmt.Errorf("%w: chapter is nil", ErrInvalidChapter)
	}

	if chapter.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChapter, ErrMissingParent)
	}

	if chapter.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChapter, ErrEmptyContent)
	}

	if chapter.Ordinal < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidChapter, ErrInvalidOrdinal)
	}

	if chapter.CharStart < 0 || chapter.CharEnd < chapter.CharStart {
		return fmt.Errorf("%w: character range [%d, %d) is malformed",
			ErrInvalidChapter, chapter.CharStart, chapter.CharEnd)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ChapterId must be set
//   - Kind must be a recognized EmbeddingKind
//   - Ordinal must be 1-based
//   - Text must not be empty unless the kind is metadata-only
//
// NOT validated (populated later):
//   - Vector (nil until the batch compute pass)
//   - Retrieval scores (query-time only)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ChapterId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingParent)
	}

	if err := ValidateEmbeddingKind(chunk.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	if chunk.Ordinal < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidOrdinal)
	}

	if chunk.Text == "" && chunk.Kind != EmbeddingKindMetadata {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	return nil
}

// ValidateEmbeddingKind validates that an EmbeddingKind has a valid value.
func ValidateEmbeddingKind(kind EmbeddingKind) error {
	if kind < EmbeddingKindDocument || kind > EmbeddingKindMetadata {
		return fmt.Errorf("%w: value %d", ErrInvalidEmbeddingKind, kind)
	}
	return nil
}
