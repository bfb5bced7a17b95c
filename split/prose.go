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


package split

import (
	"fmt"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// ProseSplitter packs consecutive paragraphs into chapters under the chapter
// token ceiling. It is the fallback strategy for bodies without structural
// markers: a new chapter starts when the next paragraph would push the
// running total past the ceiling, and the trailing partial chapter is still
// emitted.
type ProseSplitter struct {
	budgets   core.TokenBudgets
	estimator *ai.TokenEstimator
}

var _ Splitter = (*ProseSplitter)(nil)

// NewProseSplitter creates a prose splitter.
func NewProseSplitter(budgets core.TokenBudgets, estimator *ai.TokenEstimator) *ProseSplitter {
	if estimator == nil {
		estimator = ai.NewFallbackEstimator()
	}
	return &ProseSplitter{budgets: budgets, estimator: estimator}
}

// ContentType reports the structural family this splitter handles.
func (s *ProseSplitter) ContentType() ContentType {
	return ContentTypeProse
}

// Split packs paragraphs into chapters under the token ceiling.
func (s *ProseSplitter) Split(doc *core.Document) ([]*core.Chapter, error) {
	if strings.TrimSpace(doc.Body) == "" {
		return nil, ErrEmptyDocument
	}

	paras := paragraphs(doc.Body)
	if len(paras) == 0 {
		return nil, ErrNoChapters
	}

	var chapters []*core.Chapter
	var current []span
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		for i, p := range current {
			texts[i] = p.text
		}
		ordinal := len(chapters) + 1
		chapters = append(chapters, &core.Chapter{
			DocumentId: doc.Id,
			Title:      fmt.Sprintf("%s — Part %d", doc.Title, ordinal),
			Text:       strings.Join(texts, "\n\n"),
			Ordinal:    ordinal,
			CharStart:  current[0].start,
			CharEnd:    current[len(current)-1].end,
			Metadata: inheritMetadata(doc, map[string]string{
				"split_strategy": string(ContentTypeProse),
				"split_reason":   "token_ceiling",
			}),
		})
		current = nil
		currentTokens = 0
	}

	for _, p := range paras {
		tokens := s.estimator.Estimate(p.text)
		if len(current) > 0 && currentTokens+tokens > s.budgets.ChapterCeiling {
			flush()
		}
		current = append(current, p)
		currentTokens += tokens
	}
	flush() // trailing partial chapter

	return chapters, nil
}
