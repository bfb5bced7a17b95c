package split

import (
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// NormativeSplitter splits structured normative text (statutes, regulations,
// contracts) at article and section markers. Marker lines become chapter
// titles; everything until the next marker belongs to the chapter.
type NormativeSplitter struct {
	budgets   core.TokenBudgets
	estimator *ai.TokenEstimator
}

var _ Splitter = (*NormativeSplitter)(nil)

// NewNormativeSplitter creates a normative splitter.
func NewNormativeSplitter(budgets core.TokenBudgets, estimator *ai.TokenEstimator) *NormativeSplitter {
	if estimator == nil {
		estimator = ai.NewFallbackEstimator()
	}
	return &NormativeSplitter{budgets: budgets, estimator: estimator}
}

// ContentType reports the structural family this splitter handles.
func (s *NormativeSplitter) ContentType() ContentType {
	return ContentTypeNormative
}

// Split cuts the body at article/section marker lines.
func (s *NormativeSplitter) Split(doc *core.Document) ([]*core.Chapter, error) {
	if strings.TrimSpace(doc.Body) == "" {
		return nil, ErrEmptyDocument
	}

	matches := normativePattern.FindAllStringIndex(doc.Body, -1)
	if len(matches) == 0 {
		// Misdetected; delegate to paragraph packing
		return NewProseSplitter(s.budgets, s.estimator).Split(doc)
	}

	var chapters []*core.Chapter

	add := func(title, body string, start, end int) {
		text := strings.TrimSpace(body)
		if text == "" {
			return
		}
		chapters = append(chapters, &core.Chapter{
			DocumentId: doc.Id,
			Title:      title,
			Text:       text,
			Ordinal:    len(chapters) + 1,
			CharStart:  start,
			CharEnd:    end,
			Metadata: inheritMetadata(doc, map[string]string{
				"split_strategy": string(ContentTypeNormative),
				"split_reason":   "provision_marker",
			}),
		})
	}

	// Preamble before the first provision
	if lead := doc.Body[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		add(doc.Title, lead, 0, matches[0][0])
	}

	for i, m := range matches {
		sectionEnd := len(doc.Body)
		if i+1 < len(matches) {
			sectionEnd = matches[i+1][0]
		}
		section := doc.Body[m[0]:sectionEnd]
		// the marker pattern may anchor at a preceding blank line
		title := firstLine(strings.TrimSpace(section), 120)
		add(title, section, m[0], sectionEnd)
	}

	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}
	return chapters, nil
}
