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

import "errors"

// Domain validation errors
var (
	// ErrInvalidLibrary indicates a Library failed validation.
	ErrInvalidLibrary = errors.New("invalid library")

	// ErrInvalidWeights indicates the semantic/textual weight pair does not sum to 1.
	ErrInvalidWeights = errors.New("semantic and textual weights must sum to 1.0")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChapter indicates a Chapter failed validation.
	ErrInvalidChapter = errors.New("invalid chapter")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates a body or text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingParent indicates a child entity is missing its parent reference.
	ErrMissingParent = errors.New("parent reference required")

	// ErrInvalidOrdinal indicates an ordinal is not a positive 1-based position.
	ErrInvalidOrdinal = errors.New("ordinal must be >= 1")

	// ErrInvalidEmbeddingKind indicates an unrecognized EmbeddingKind value.
	ErrInvalidEmbeddingKind = errors.New("invalid embedding kind")

	// ErrInvalidBudgets indicates misordered or non-positive token thresholds.
	ErrInvalidBudgets = errors.New("invalid token budgets")
)
