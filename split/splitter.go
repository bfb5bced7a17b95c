package split

import (
	"regexp"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// ContentType identifies the structural family of a document body.
type ContentType string

const (
	// ContentTypeProse is unstructured running text.
	ContentTypeProse ContentType = "prose"
	// ContentTypeMarkup is sectioned text with heading markers.
	ContentTypeMarkup ContentType = "markup"
	// ContentTypeNormative is structured normative text (articles, sections).
	ContentTypeNormative ContentType = "normative"
)

// Splitter decomposes a document body into an ordered chapter sequence.
// Implementations must be deterministic: the same body with the same budgets
// yields chapters with identical text and ordinals. Output chapters, trimmed
// and concatenated, reconstruct the logical content of the document.
type Splitter interface {
	// Split turns the document body into chapters. Each chapter carries a
	// 1-based ordinal, a title, the document's metadata plus split
	// annotations, and character offsets into the body.
	Split(doc *core.Document) ([]*core.Chapter, error)

	// ContentType reports the structural family this splitter handles.
	ContentType() ContentType
}

var (
	headingPattern   = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	normativePattern = regexp.MustCompile(`(?mi)^\s*(article|section|art\.|§)\s+[0-9IVXLC]`)
)

// DetectContentType inspects a document body and classifies it.
// Normative markers take precedence over generic headings because statute
// texts frequently carry both.
func DetectContentType(body string) ContentType {
	if len(normativePattern.FindAllStringIndex(body, 3)) >= 2 {
		return ContentTypeNormative
	}
	if len(headingPattern.FindAllStringIndex(body, 2)) >= 1 {
		return ContentTypeMarkup
	}
	return ContentTypeProse
}

// ForContent returns the splitter for a content type.
// Unknown types fall back to the prose splitter.
func ForContent(ct ContentType, budgets core.TokenBudgets, estimator *ai.TokenEstimator) Splitter {
	switch ct {
	case ContentTypeMarkup:
		return NewMarkupSplitter(budgets, estimator)
	case ContentTypeNormative:
		return NewNormativeSplitter(budgets, estimator)
	default:
		return NewProseSplitter(budgets, estimator)
	}
}

// ForDocument detects the body's content type and returns the matching
// splitter.
func ForDocument(doc *core.Document, budgets core.TokenBudgets, estimator *ai.TokenEstimator) Splitter {
	return ForContent(DetectContentType(doc.Body), budgets, estimator)
}

// span is a region of the document body with its character offsets.
type span struct {
	text  string
	start int
	end   int
}

// paragraphs scans the body into blank-line-separated spans.
// Offsets index into the original body so chapter character ranges stay
// traceable to the source.
func paragraphs(body string) []span {
	var spans []span

	offset := 0
	for _, block := range strings.Split(body, "\n\n") {
		trimmed := strings.TrimSpace(block)
		if trimmed != "" {
			lead := strings.Index(block, trimmed)
			start := offset + lead
			spans = append(spans, span{
				text:  trimmed,
				start: start,
				end:   start + len(trimmed),
			})
		}
		offset += len(block) + 2 // account for the separator
	}

	return spans
}

// inheritMetadata copies document metadata and applies split annotations.
func inheritMetadata(doc *core.Document, annotations map[string]string) map[string]string {
	merged := make(map[string]string, len(doc.Metadata)+len(annotations))
	for k, v := range doc.Metadata {
		merged[k] = v
	}
	for k, v := range annotations {
		merged[k] = v
	}
	return merged
}

// firstLine returns the first line of text, truncated to max runes.
func firstLine(text string, max int) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) > max {
		line = string(runes[:max])
	}
	return line
}
