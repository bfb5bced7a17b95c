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
	"fmt"
	"strconv"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/split"
)

// Mode selects how the chapter strategy represents a chapter as embedding
// records.
type Mode string

const (
	// ModeAuto picks one of the other modes from the chapter's token count.
	ModeAuto Mode = "auto"
	// ModeFullTextWithMetadata embeds the rendered metadata and the full
	// chapter text as a single record.
	ModeFullTextWithMetadata Mode = "full_text_with_metadata"
	// ModeMetadataOnly embeds only the chapter's rendered metadata.
	ModeMetadataOnly Mode = "metadata_only"
	// ModeTextOnly embeds the chapter text as a single record.
	ModeTextOnly Mode = "text_only"
	// ModeSplitIntoChunks cuts the chapter into pieces under the chunk
	// ceiling and emits one record per piece.
	ModeSplitIntoChunks Mode = "split_into_chunks"
)

// modeFunc renders a chapter into chunk records for one concrete mode.
type modeFunc func(s *ChapterStrategy, ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error)

// modeTable dispatches concrete modes. New representations plug in here
// without touching the orchestrator.
var modeTable = map[Mode]modeFunc{
	ModeFullTextWithMetadata: (*ChapterStrategy).fullTextWithMetadata,
	ModeMetadataOnly:         (*ChapterStrategy).metadataOnly,
	ModeTextOnly:             (*ChapterStrategy).textOnly,
	ModeSplitIntoChunks:      (*ChapterStrategy).splitIntoChunks,
}

// ChapterStrategy produces the mandatory phase-1 records for a chapter.
// Vectors are left nil; the batch compute pass fills them in.
type ChapterStrategy struct {
	mode    Mode
	budgets core.TokenBudgets
}

var _ Strategy = (*ChapterStrategy)(nil)

// NewChapterStrategy creates a chapter strategy. An empty mode means auto.
func NewChapterStrategy(mode Mode, budgets core.TokenBudgets) (*ChapterStrategy, error) {
	if mode == "" {
		mode = ModeAuto
	}
	if mode != ModeAuto {
		if _, ok := modeTable[mode]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
		}
	}
	return &ChapterStrategy{mode: mode, budgets: budgets}, nil
}

// Name identifies the strategy in provenance metadata and logs.
func (s *ChapterStrategy) Name() string {
	return "chapter"
}

// Generate renders the chapter under the configured mode. Auto applies the
// three-way token rule: under the full-text threshold the whole chapter plus
// metadata fits one record, under the text-only ceiling the bare text does,
// and above it the chapter is cut into pieces.
func (s *ChapterStrategy) Generate(_ context.Context, ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error) {
	mode := s.mode
	if mode == ModeAuto {
		mode = s.selectMode(ec, chapter)
	}
	fn, ok := modeTable[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return fn(s, ec, doc, chapter)
}

func (s *ChapterStrategy) selectMode(ec *ai.EmbeddingContext, chapter *core.Chapter) Mode {
	return modeForTokens(ec.Estimator().Estimate(chapter.Text), s.budgets)
}

// modeForTokens applies the three-way token-budget rule.
func modeForTokens(tokens int, budgets core.TokenBudgets) Mode {
	switch {
	case tokens < budgets.ChunkFullTextMax:
		return ModeFullTextWithMetadata
	case tokens <= budgets.ChunkTextOnlyMax:
		return ModeTextOnly
	default:
		return ModeSplitIntoChunks
	}
}

func (s *ChapterStrategy) fullTextWithMetadata(ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error) {
	text := chapter.Text
	if rendered := renderMetadata(chapter.Metadata); rendered != "" {
		text = rendered + "\n\n" + text
	}
	return []*core.Chunk{s.record(ec, doc, chapter, core.EmbeddingKindChapter, text, 1, ModeFullTextWithMetadata)}, nil
}

func (s *ChapterStrategy) metadataOnly(ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error) {
	rendered := renderMetadata(chapter.Metadata)
	if rendered == "" {
		return nil, core.ErrEmptyContent
	}
	return []*core.Chunk{s.record(ec, doc, chapter, core.EmbeddingKindMetadata, rendered, 1, ModeMetadataOnly)}, nil
}

func (s *ChapterStrategy) textOnly(ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error) {
	return []*core.Chunk{s.record(ec, doc, chapter, core.EmbeddingKindChapter, chapter.Text, 1, ModeTextOnly)}, nil
}

func (s *ChapterStrategy) splitIntoChunks(ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error) {
	cutter := split.NewCutter(s.budgets.ChunkTextOnlyMax, ec.Estimator())
	pieces := cutter.Cut(chapter.Text)
	if len(pieces) == 0 {
		return nil, core.ErrEmptyContent
	}

	chunks := make([]*core.Chunk, len(pieces))
	for i, piece := range pieces {
		chunk := s.record(ec, doc, chapter, core.EmbeddingKindChunk, piece, i+1, ModeSplitIntoChunks)
		chunk.Metadata["piece_position"] = strconv.Itoa(i + 1)
		chunk.Metadata["piece_count"] = strconv.Itoa(len(pieces))
		chunks[i] = chunk
	}
	return chunks, nil
}

func (s *ChapterStrategy) record(ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter, kind core.EmbeddingKind, text string, ordinal int, mode Mode) *core.Chunk {
	metadata := provenance(ec, s.Name(), doc, chapter)
	metadata["chapter_mode"] = string(mode)
	return &core.Chunk{
		ChapterId:  chapter.Id,
		DocumentId: chapter.DocumentId,
		LibraryId:  doc.LibraryId,
		Kind:       kind,
		Text:       text,
		Ordinal:    ordinal,
		Metadata:   metadata,
	}
}
