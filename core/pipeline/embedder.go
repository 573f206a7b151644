package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/knights-analytics/hugot"
	openai "github.com/sashabaranov/go-openai"

	"github.com/siherrmann/librarian/helper"
)

// Embedding model identifiers and their dimensionalities.
const (
	DefaultEmbeddingModel = "text-embedding-3-small"
	LocalEmbeddingModel   = "sentence-transformers/all-MiniLM-L6-v2"
)

// OpenAIEmbedder creates an embedder backed by the OpenAI embeddings API.
// It returns the embed function and the fixed vector dimension for the model.
// Service errors (network, auth, quota) are propagated unchanged; retries are
// the caller's responsibility.
func OpenAIEmbedder(apiKey string, model string) (EmbedFunc, int, error) {
	if apiKey == "" {
		return nil, 0, fmt.Errorf("OpenAI API key is empty")
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}

	client := openai.NewClient(apiKey)

	dim := 1536
	if model == "text-embedding-3-large" {
		dim = 3072
	}

	fn := func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}

		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(model),
			Input: texts,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding request: %w", err)
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d inputs", len(resp.Data), len(texts))
		}

		// The API reports an index per embedding; place by index instead of
		// trusting response order.
		out := make([][]float32, len(texts))
		for _, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for i := range d.Embedding {
				vec[i] = float32(d.Embedding[i])
			}
			out[d.Index] = vec
		}

		return out, nil
	}

	return fn, dim, nil
}

// LocalEmbedder creates an embedder using a local sentence transformer model
// via hugot. Uses all-MiniLM-L6-v2 which produces 384-dimensional embeddings.
// Useful for offline ingestion and development without an API key.
func LocalEmbedder() (EmbedFunc, int, error) {
	modelPath, err := helper.PrepareModel(LocalEmbeddingModel, "onnx/model.onnx")
	if err != nil {
		return nil, 0, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "librarian-embedder",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, 0, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, 0, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	fn := func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}

		result, err := sentencePipeline.RunPipeline(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(result.Embeddings) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d inputs", len(result.Embeddings), len(texts))
		}

		return result.Embeddings, nil
	}

	return fn, 384, nil
}

// HashEmbedder creates a deterministic embedder for tests and offline
// development. The vectors carry no semantic meaning but are stable for
// identical inputs and L2-normalized so cosine distances are well-defined.
func HashEmbedder(dim int) EmbedFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for t, text := range texts {
			vec := make([]float32, dim)
			for i, char := range text {
				vec[i%dim] += float32(char) / 1000.0
			}

			var norm float32
			for _, v := range vec {
				norm += v * v
			}
			if norm > 0 {
				inv := float32(1.0 / math.Sqrt(float64(norm)))
				for i := range vec {
					vec[i] *= inv
				}
			}

			out[t] = vec
		}
		return out, nil
	}
}
