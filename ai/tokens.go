package ai

import (
	"math"

	"github.com/pkoukk/tiktoken-go"
)

// FallbackCharsPerToken is the character-to-token ratio used when no exact
// tokenizer is available for the model.
const FallbackCharsPerToken = 3.8

// TokenEstimator approximates token counts for chunking and strategy
// decisions. It prefers an exact tokenizer for the model; otherwise it falls
// back to a character-ratio estimate. Estimation never fails: any internal
// error silently degrades to the fallback.
type TokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTokenEstimator creates an estimator for the given model name.
// Unknown models get the fallback ratio only.
func NewTokenEstimator(model string) *TokenEstimator {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Unknown to tiktoken; try the common default encoding
		enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err != nil {
			enc = nil
		}
	}
	return &TokenEstimator{enc: enc}
}

// NewFallbackEstimator creates an estimator that only uses the character
// ratio. Useful when no tokenizer data is available, and in tests.
func NewFallbackEstimator() *TokenEstimator {
	return &TokenEstimator{}
}

// Estimate returns a non-negative token estimate for the text.
// Monotonic in length for a fixed alphabet.
func (e *TokenEstimator) Estimate(text string) (count int) {
	if text == "" {
		return 0
	}

	// The exact tokenizer must never take the pipeline down
	defer func() {
		if r := recover(); r != nil {
			count = FallbackEstimate(text)
		}
	}()

	if e != nil && e.enc != nil {
		return len(e.enc.Encode(text, nil, nil))
	}
	return FallbackEstimate(text)
}

// FallbackEstimate returns ceil(len(text) / FallbackCharsPerToken).
func FallbackEstimate(text string) int {
	return int(math.Ceil(float64(len(text)) / FallbackCharsPerToken))
}
