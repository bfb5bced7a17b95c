package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_DeterministicUnitVectors(t *testing.T) {
	m := NewMockEmbedder()
	m.Dimension = 16

	first, err := m.EmbedDocuments(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	require.Len(t, first, 1)
	second, err := m.EmbedDocuments(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, first, second, "same text yields the same vector")

	var sumSquares float64
	for _, v := range first[0] {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-4, "default vectors are unit length")
}

func TestMockEmbedder_QueryRepresentationDiffers(t *testing.T) {
	m := NewMockEmbedder()
	m.Dimension = 16

	docVecs, err := m.EmbedDocuments(context.Background(), []string{"same text"})
	require.NoError(t, err)
	queryVec, err := m.EmbedQuery(context.Background(), "same text")
	require.NoError(t, err)
	assert.NotEqual(t, docVecs[0], queryVec)
}
