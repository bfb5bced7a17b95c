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
	"strings"

	"github.com/poiesic/docent/ai"
)

// Cutter divides chapter text into pieces that each fit under a token
// ceiling. Cuts land on paragraph boundaries when possible, then sentence
// boundaries, and only as a last resort mid-text at a fixed character
// stride. The same input always produces the same pieces.
type Cutter struct {
	maxTokens int
	estimator *ai.TokenEstimator
}

// NewCutter creates a cutter with the given per-piece token ceiling.
func NewCutter(maxTokens int, estimator *ai.TokenEstimator) *Cutter {
	if estimator == nil {
		estimator = ai.NewFallbackEstimator()
	}
	return &Cutter{maxTokens: maxTokens, estimator: estimator}
}

// Cut splits text into pieces of at most maxTokens each. Whitespace-only
// input yields no pieces.
func (c *Cutter) Cut(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if c.estimator.Estimate(text) <= c.maxTokens {
		return []string{text}
	}

	var pieces []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		pieces = append(pieces, strings.Join(current, "\n\n"))
		current = current[:0]
		currentTokens = 0
	}

	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		tokens := c.estimator.Estimate(block)
		if tokens > c.maxTokens {
			flush()
			pieces = append(pieces, c.cutOversized(block)...)
			continue
		}
		if currentTokens+tokens > c.maxTokens {
			flush()
		}
		current = append(current, block)
		currentTokens += tokens
	}
	flush()

	return pieces
}

// cutOversized handles a single block too large for the ceiling, first by
// sentence packing, then by hard character strides for sentences that are
// themselves oversized.
func (c *Cutter) cutOversized(block string) []string {
	var pieces []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		pieces = append(pieces, strings.Join(current, " "))
		current = current[:0]
		currentTokens = 0
	}

	for _, sentence := range sentences(block) {
		tokens := c.estimator.Estimate(sentence)
		if tokens > c.maxTokens {
			flush()
			pieces = append(pieces, c.hardCut(sentence)...)
			continue
		}
		if currentTokens+tokens > c.maxTokens {
			flush()
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	flush()

	return pieces
}

// hardCut slices text at a fixed character stride derived from the token
// ceiling and the fallback character ratio. Runs only when a single
// sentence exceeds the ceiling.
func (c *Cutter) hardCut(text string) []string {
	stride := int(float64(c.maxTokens) * ai.FallbackCharsPerToken)
	if stride < 1 {
		stride = 1
	}

	var pieces []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += stride {
		end := start + stride
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

// sentences splits a block on terminal punctuation followed by whitespace.
// Terminators stay attached to their sentence.
func sentences(block string) []string {
	var out []string
	start := 0
	runes := []rune(block)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// consume trailing quote or bracket
			j := i + 1
			for j < len(runes) && (runes[j] == '"' || runes[j] == '\'' || runes[j] == ')' || runes[j] == ']') {
				j++
			}
			if j >= len(runes) || runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t' {
				s := strings.TrimSpace(string(runes[start:j]))
				if s != "" {
					out = append(out, s)
				}
				start = j
				i = j - 1
			}
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}
