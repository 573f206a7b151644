package retrieval

import (
	"context"

	"github.com/siherrmann/librarian/database"
	"github.com/siherrmann/librarian/model"
)

// Engine provides vector retrieval with rule-based reranking
type Engine struct {
	entries *database.EntriesDBHandler
}

// NewEngine creates a new retrieval engine
func NewEngine(entries *database.EntriesDBHandler) *Engine {
	return &Engine{
		entries: entries,
	}
}

// Candidates performs pure vector similarity search, returning up to n entries
// ordered by ascending cosine distance.
func (e *Engine) Candidates(ctx context.Context, embedding []float32, n int, filter *model.Filter) ([]*model.Entry, error) {
	return e.entries.SelectEntriesBySimilarity(ctx, embedding, n, filter)
}

// SearchWithRerank over-fetches candidates from the index and reranks them
// against the raw query text. The returned results are ordered by descending
// composite score and limited to config.TopK.
func (e *Engine) SearchWithRerank(ctx context.Context, query string, embedding []float32, config model.SearchConfig, filter *model.Filter) ([]*model.Result, error) {
	candidates, err := e.Candidates(ctx, embedding, config.CandidateCount(), filter)
	if err != nil {
		return nil, err
	}

	return Rerank(query, candidates, config.TopK, config), nil
}
