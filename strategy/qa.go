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
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// DefaultQAPairCount is how many question/answer pairs the strategy asks
// the completion model to derive per chapter.
const DefaultQAPairCount = 3

const qaPromptTemplate = `You generate question/answer pairs for a document retrieval index.
Read the provided text and derive exactly %d question/answer pairs that the text answers.
Format each pair as two lines:
Q: <the question>
A: <the answer>
Separate pairs with a blank line. Output nothing else.`

// QAStrategy derives question/answer pairs from a chapter with the
// completion model, then embeds each pair. Producing fewer pairs than
// requested is a soft failure: logged, never escalated.
type QAStrategy struct {
	pairCount int
	logger    *slog.Logger
}

var _ Strategy = (*QAStrategy)(nil)

// NewQAStrategy creates a Q&A synthesis strategy. Non-positive pairCount
// falls back to the default.
func NewQAStrategy(pairCount int, logger *slog.Logger) *QAStrategy {
	if pairCount <= 0 {
		pairCount = DefaultQAPairCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QAStrategy{
		pairCount: pairCount,
		logger:    logger.With("component", "qa_strategy"),
	}
}

// Name identifies the strategy in provenance metadata and logs.
func (s *QAStrategy) Name() string {
	return "qa"
}

// Generate asks the completion model for pairs, parses them tolerantly, and
// embeds each as "Question: ...\nAnswer: ...".
func (s *QAStrategy) Generate(ctx context.Context, ec *ai.EmbeddingContext, doc *core.Document, chapter *core.Chapter) ([]*core.Chunk, error) {
	prompt := fmt.Sprintf(qaPromptTemplate, s.pairCount)
	response, err := ec.Provider().Completer().Complete(ctx, prompt, chapter.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qa pairs: %w", err)
	}

	pairs := parseQAPairs(response)
	if len(pairs) < s.pairCount {
		s.logger.Warn("fewer qa pairs than requested",
			"chapter_id", chapter.Id,
			"requested", s.pairCount,
			"parsed", len(pairs))
	}
	if len(pairs) > s.pairCount {
		pairs = pairs[:s.pairCount]
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(pairs))
	for i, p := range pairs {
		texts[i] = fmt.Sprintf("Question: %s\nAnswer: %s", p.question, p.answer)
	}
	vectors, err := ec.Provider().Embedder().EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed qa pairs: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	chunks := make([]*core.Chunk, len(pairs))
	for i := range pairs {
		metadata := provenance(ec, s.Name(), doc, chapter)
		metadata["completion_model"] = ec.CompletionModel
		chunks[i] = &core.Chunk{
			ChapterId:  chapter.Id,
			DocumentId: chapter.DocumentId,
			LibraryId:  doc.LibraryId,
			Kind:       core.EmbeddingKindQAPair,
			Text:       texts[i],
			Ordinal:    i + 1,
			Vector:     FitDimension(NormalizeVector(vectors[i]), ec.Dimension),
			Metadata:   metadata,
		}
	}
	return chunks, nil
}

type qaPair struct {
	question string
	answer   string
}

var (
	questionMarker = regexp.MustCompile(`(?i)^\s*(?:\d+[.)]\s*)?q(?:uestion)?\s*\d*\s*[:.)]\s*(.*)$`)
	answerMarker   = regexp.MustCompile(`(?i)^\s*a(?:nswer)?\s*\d*\s*[:.)]\s*(.*)$`)
)

// parseQAPairs scans a completion response for question/answer blocks.
// Answers may span multiple lines; a block is kept only when it has a
// recognizable question marker and non-empty answer text.
func parseQAPairs(response string) []qaPair {
	var pairs []qaPair
	var question string
	var answer []string
	inAnswer := false

	flush := func() {
		a := strings.TrimSpace(strings.Join(answer, "\n"))
		if question != "" && a != "" {
			pairs = append(pairs, qaPair{question: question, answer: a})
		}
		question = ""
		answer = answer[:0]
		inAnswer = false
	}

	for _, line := range strings.Split(response, "\n") {
		if m := questionMarker.FindStringSubmatch(line); m != nil {
			flush()
			question = strings.TrimSpace(m[1])
			continue
		}
		if m := answerMarker.FindStringSubmatch(line); m != nil {
			inAnswer = true
			answer = append(answer[:0], strings.TrimSpace(m[1]))
			continue
		}
		switch {
		case inAnswer:
			answer = append(answer, line)
		case question != "" && strings.TrimSpace(line) != "":
			// multi-line question continuation
			question = question + " " + strings.TrimSpace(line)
		}
	}
	flush()

	return pairs
}
