package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedder(t *testing.T) {
	t.Run("Empty API key fails", func(t *testing.T) {
		_, _, err := OpenAIEmbedder("", DefaultEmbeddingModel)
		assert.Error(t, err, "Expected error for empty API key")
	})

	t.Run("Default model has 1536 dimensions", func(t *testing.T) {
		_, dim, err := OpenAIEmbedder("test-key", "")
		require.NoError(t, err)
		assert.Equal(t, 1536, dim)
	})

	t.Run("Large model has 3072 dimensions", func(t *testing.T) {
		_, dim, err := OpenAIEmbedder("test-key", "text-embedding-3-large")
		require.NoError(t, err)
		assert.Equal(t, 3072, dim)
	})
}

func TestHashEmbedder(t *testing.T) {
	embedder := HashEmbedder(16)
	ctx := context.Background()

	t.Run("Vectors have the requested dimension", func(t *testing.T) {
		vectors, err := embedder(ctx, []string{"hello", "world"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		for _, vector := range vectors {
			assert.Len(t, vector, 16)
		}
	})

	t.Run("Identical inputs give identical vectors", func(t *testing.T) {
		first, err := embedder(ctx, []string{"same text"})
		require.NoError(t, err)
		second, err := embedder(ctx, []string{"same text"})
		require.NoError(t, err)
		assert.Equal(t, first, second, "Expected deterministic embeddings")
	})

	t.Run("Different inputs give different vectors", func(t *testing.T) {
		vectors, err := embedder(ctx, []string{"first text", "completely different"})
		require.NoError(t, err)
		assert.NotEqual(t, vectors[0], vectors[1])
	})

	t.Run("Vectors are L2-normalized", func(t *testing.T) {
		vectors, err := embedder(ctx, []string{"normalize me"})
		require.NoError(t, err)

		var norm float64
		for _, v := range vectors[0] {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5, "Expected unit-length vector")
	})

	t.Run("Empty batch gives an empty result", func(t *testing.T) {
		vectors, err := embedder(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
	})
}
