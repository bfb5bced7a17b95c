package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, ChecksumContent("hello world"), ChecksumContent("hello world"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, ChecksumContent("Hello World"), ChecksumContent("hello world"))
	})

	t.Run("whitespace collapsed", func(t *testing.T) {
		assert.Equal(t, ChecksumContent("hello   world"), ChecksumContent("hello\n\tworld "))
	})

	t.Run("different content differs", func(t *testing.T) {
		assert.NotEqual(t, ChecksumContent("hello world"), ChecksumContent("hello worlds"))
	})
}

func TestNormalizeContent(t *testing.T) {
	testCases := []struct {
		name  string
		in    string
		want  string
	}{
		{"plain", "hello world", "hello world"},
		{"mixed case", "Hello WORLD", "hello world"},
		{"newlines and tabs", "a\n\nb\tc", "a b c"},
		{"leading and trailing", "  a b  ", "a b"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeContent(tc.in))
		})
	}
}

func TestDocumentSetBody(t *testing.T) {
	doc := &Document{LibraryId: 1}
	doc.SetBody("first version")
	first := doc.Checksum

	doc.SetBody("second version")
	assert.NotEqual(t, first, doc.Checksum)
	assert.Equal(t, ChecksumContent("second version"), doc.Checksum)
}

func TestTokenBudgetsValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultTokenBudgets().Validate())
	})

	t.Run("floor above ceiling", func(t *testing.T) {
		b := DefaultTokenBudgets()
		b.ChapterFloor = b.ChapterCeiling + 1
		assert.ErrorIs(t, b.Validate(), ErrInvalidBudgets)
	})

	t.Run("thresholds misordered", func(t *testing.T) {
		b := DefaultTokenBudgets()
		b.ChunkFullTextMax = b.ChunkTextOnlyMax + 1
		assert.ErrorIs(t, b.Validate(), ErrInvalidBudgets)
	})

	t.Run("zero value invalid", func(t *testing.T) {
		assert.ErrorIs(t, TokenBudgets{}.Validate(), ErrInvalidBudgets)
	})
}
