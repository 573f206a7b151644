package librarian

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/librarian/core/pipeline"
	"github.com/siherrmann/librarian/core/retrieval"
	"github.com/siherrmann/librarian/database"
	"github.com/siherrmann/librarian/dataset"
	"github.com/siherrmann/librarian/helper"
	"github.com/siherrmann/librarian/model"
	loadSql "github.com/siherrmann/librarian/sql"
)

// Librarian provides a unified interface to ingestion and retrieval
type Librarian struct {
	DB       *helper.Database
	Records  *database.RecordsDBHandler
	Entries  *database.EntriesDBHandler
	Pipeline *pipeline.Pipeline // Chunking and embedding pipeline
	Engine   *retrieval.Engine  // Retrieval engine with reranking
	// Logging
	log *slog.Logger
}

// NewLibrarian creates a new Librarian instance with all handlers initialized.
// The pipeline determines the embedding dimension of the index; reusing an
// existing index with a different pipeline dimension requires reingestion.
func NewLibrarian(config *helper.DatabaseConfiguration, pipe *pipeline.Pipeline) (*Librarian, error) {
	if pipe == nil {
		return nil, helper.NewError("pipeline validation", fmt.Errorf("pipeline is nil"))
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("librarian", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create handlers in the correct order (records first, then entries)
	// force=false to not reload if functions already exist
	records, err := database.NewRecordsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create records handler", err)
	}

	entries, err := database.NewEntriesDBHandler(db, pipe.Dimension, false)
	if err != nil {
		return nil, helper.NewError("create entries handler", err)
	}

	engine := retrieval.NewEngine(entries)

	return &Librarian{
		DB:       db,
		Records:  records,
		Entries:  entries,
		Pipeline: pipe,
		Engine:   engine,
		log:      logger,
	}, nil
}

// Close closes the database connection
func (l *Librarian) Close() error {
	if l.DB != nil && l.DB.Instance != nil {
		return l.DB.Instance.Close()
	}
	return nil
}

// IngestDataset loads the dataset file and rebuilds the whole index from it:
// 1. Both tables are reset
// 2. Every item is stored as a record with its full summary
// 3. Each summary is chunked and embedded, one entry per chunk
// An empty dataset still resets the index and logs a warning.
// Returns the number of entries indexed.
func (l *Librarian) IngestDataset(ctx context.Context, path string) (int, error) {
	items, err := dataset.LoadDataset(path)
	if err != nil {
		return 0, helper.NewError("load dataset", err)
	}

	// Entries first so no entry ever references a dropped record
	err = l.Entries.Reset()
	if err != nil {
		return 0, helper.NewError("reset entries", err)
	}
	err = l.Records.Reset()
	if err != nil {
		return 0, helper.NewError("reset records", err)
	}

	total := 0
	for _, item := range items {
		count, err := l.ingestItem(ctx, item)
		if err != nil {
			return total, helper.NewError(fmt.Sprintf("ingest %v", item.Title), err)
		}
		total += count
	}

	if total == 0 {
		l.log.Warn("No content to index, dataset is empty", slog.String("path", path))
		return 0, nil
	}

	l.log.Info("Ingested dataset", slog.String("path", path), slog.Int("records", len(items)), slog.Int("entries", total))

	return total, nil
}

func (l *Librarian) ingestItem(ctx context.Context, item dataset.Item) (int, error) {
	record := &model.Record{
		Title:    item.Title,
		Author:   item.Author,
		Themes:   item.Themes,
		Year:     item.Year,
		Language: item.Language,
		Summary:  item.Summary,
	}
	err := l.Records.InsertRecord(record)
	if err != nil {
		return 0, helper.NewError("insert record", err)
	}

	chunks, embeddings, err := l.Pipeline.Process(ctx, item.Summary)
	if err != nil {
		return 0, helper.NewError("process summary", err)
	}

	for i, chunk := range chunks {
		entry := &model.Entry{
			RID:       uuid.New(),
			RecordID:  record.ID,
			Content:   chunk,
			Embedding: embeddings[i],
			Metadata: model.EntryMetadata{
				Chunk:       i,
				ChunksTotal: len(chunks),
			},
		}
		err := l.Entries.InsertEntry(entry)
		if err != nil {
			return i, helper.NewError(fmt.Sprintf("insert entry %d", i), err)
		}
	}

	return len(chunks), nil
}

// Search performs pure vector similarity search, returning up to n entries
// ordered by ascending cosine distance.
func (l *Librarian) Search(ctx context.Context, query string, n int, filter *model.Filter) ([]*model.Entry, error) {
	embedding, err := l.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	return l.Engine.Candidates(ctx, embedding, n, filter)
}

// SearchWithRerank performs similarity search with rule-based reranking and
// returns the top k results by descending composite score.
func (l *Librarian) SearchWithRerank(ctx context.Context, query string, k int, filter *model.Filter) ([]*model.Result, error) {
	config := model.DefaultSearchConfig()
	config.TopK = k
	return l.SearchWithConfig(ctx, query, config, filter)
}

// SearchWithConfig is SearchWithRerank with a custom scoring configuration.
func (l *Librarian) SearchWithConfig(ctx context.Context, query string, config model.SearchConfig, filter *model.Filter) ([]*model.Result, error) {
	embedding, err := l.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	return l.Engine.SearchWithRerank(ctx, query, embedding, config, filter)
}

// SummaryByTitle returns the full stored summary for an exact title,
// case-insensitive. Returns database.ErrNotFound when the title is unknown.
func (l *Librarian) SummaryByTitle(title string) (string, error) {
	record, err := l.Records.SelectRecordByTitle(title)
	if err != nil {
		return "", err
	}
	return record.Summary, nil
}

// Titles returns all stored record titles in alphabetical order.
func (l *Librarian) Titles() ([]string, error) {
	return l.Records.SelectAllTitles()
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (l *Librarian) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return l.Entries.ChangeIndexType(ctx, indexType, params)
}

func (l *Librarian) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if l.Pipeline == nil || l.Pipeline.Embedder == nil {
		return nil, helper.NewError("embed query", fmt.Errorf("pipeline with embedder not set"))
	}

	embeddings, err := l.Pipeline.Embedder(ctx, []string{query})
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}
	if len(embeddings) != 1 {
		return nil, helper.NewError("generate embedding", fmt.Errorf("expected 1 embedding, got %v", len(embeddings)))
	}

	return embeddings[0], nil
}
