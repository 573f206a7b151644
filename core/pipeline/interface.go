package pipeline

import "context"

// ChunkFunc is a function that splits a document into ordered chunk strings.
type ChunkFunc func(text string) ([]string, error)

// EmbedFunc is a function that generates embeddings for an ordered batch of
// texts, returning one vector per input in the same order. All vectors have
// the same fixed dimensionality, determined by the embedding model.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker   ChunkFunc
	Embedder  EmbedFunc
	Dimension int
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc, dimension int) *Pipeline {
	return &Pipeline{
		Chunker:   chunker,
		Embedder:  embedder,
		Dimension: dimension,
	}
}

// Process splits text into chunks and embeds them in one batch.
// The chunk at index i corresponds to the embedding at index i.
func (p *Pipeline) Process(ctx context.Context, text string) ([]string, [][]float32, error) {
	chunks, err := p.Chunker(text)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		return []string{}, [][]float32{}, nil
	}

	embeddings, err := p.Embedder(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	return chunks, embeddings, nil
}
