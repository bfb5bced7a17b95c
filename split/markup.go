package split

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// MarkupSplitter splits sectioned bodies at heading markers.
// Each heading opens a new chapter titled by the heading text; content before
// the first heading becomes an untitled preamble chapter.
type MarkupSplitter struct {
	budgets   core.TokenBudgets
	estimator *ai.TokenEstimator
}

var _ Splitter = (*MarkupSplitter)(nil)

var headingLine = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// NewMarkupSplitter creates a markup splitter.
func NewMarkupSplitter(budgets core.TokenBudgets, estimator *ai.TokenEstimator) *MarkupSplitter {
	if estimator == nil {
		estimator = ai.NewFallbackEstimator()
	}
	return &MarkupSplitter{budgets: budgets, estimator: estimator}
}

// ContentType reports the structural family this splitter handles.
func (s *MarkupSplitter) ContentType() ContentType {
	return ContentTypeMarkup
}

// Split cuts the body at heading lines.
// Heading level and split rationale are recorded in chapter metadata.
func (s *MarkupSplitter) Split(doc *core.Document) ([]*core.Chapter, error) {
	if strings.TrimSpace(doc.Body) == "" {
		return nil, ErrEmptyDocument
	}

	matches := headingLine.FindAllStringSubmatchIndex(doc.Body, -1)
	if len(matches) == 0 {
		// No headings after all; fall back to paragraph packing
		return NewProseSplitter(s.budgets, s.estimator).Split(doc)
	}

	var chapters []*core.Chapter

	add := func(title, body string, level, start, end int) {
		text := strings.TrimSpace(body)
		if text == "" {
			return
		}
		annotations := map[string]string{
			"split_strategy": string(ContentTypeMarkup),
			"split_reason":   "heading",
		}
		if level > 0 {
			annotations["heading_level"] = strconv.Itoa(level)
		}
		chapters = append(chapters, &core.Chapter{
			DocumentId: doc.Id,
			Title:      title,
			Text:       text,
			Ordinal:    len(chapters) + 1,
			CharStart:  start,
			CharEnd:    end,
			Metadata:   inheritMetadata(doc, annotations),
		})
	}

	// Preamble before the first heading
	if lead := doc.Body[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		add(doc.Title, lead, 0, 0, matches[0][0])
	}

	for i, m := range matches {
		level := m[3] - m[2] // length of the marker run
		title := strings.TrimSpace(doc.Body[m[4]:m[5]])

		sectionEnd := len(doc.Body)
		if i+1 < len(matches) {
			sectionEnd = matches[i+1][0]
		}
		body := doc.Body[m[1]:sectionEnd]
		add(title, body, level, m[0], sectionEnd)
	}

	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}
	return chapters, nil
}
