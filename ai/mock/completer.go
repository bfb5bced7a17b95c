package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default canned behavior keyed on the prompt.
	CompleteFunc func(ctx context.Context, prompt, content string) (string, error)

	// FailuresRemaining makes the next N calls fail before succeeding.
	FailuresRemaining int

	mu        sync.Mutex
	callCount int
}

// NewMockCompleter creates a mock completer with default canned behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns text derived deterministically from the inputs.
// Prompts mentioning questions produce a parseable Q&A block; prompts
// mentioning summaries produce a short summary line.
func (m *MockCompleter) Complete(ctx context.Context, prompt, content string) (string, error) {
	m.mu.Lock()
	m.callCount++
	if m.FailuresRemaining > 0 {
		m.FailuresRemaining--
		m.mu.Unlock()
		return "", errCompleterUnavailable
	}
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, content)
	}

	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "question"):
		var b strings.Builder
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(&b, "Q: What does part %d of the text describe?\n", i)
			fmt.Fprintf(&b, "A: It describes %s\n\n", firstWords(content, 5))
		}
		return b.String(), nil
	case strings.Contains(lower, "summar"):
		return "Summary: " + firstWords(content, 12), nil
	default:
		return firstWords(content, 8), nil
	}
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.FailuresRemaining = 0
	m.CompleteFunc = nil
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	if len(words) == 0 {
		return "the text"
	}
	return strings.Join(words, " ")
}
