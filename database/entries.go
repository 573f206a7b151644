package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/siherrmann/librarian/helper"
	"github.com/siherrmann/librarian/model"
	loadSql "github.com/siherrmann/librarian/sql"
)

// EntriesDBHandlerFunctions defines the interface for Entries database operations.
type EntriesDBHandlerFunctions interface {
	InsertEntry(entry *model.Entry) error
	SelectEntry(rid uuid.UUID) (*model.Entry, error)
	SelectEntriesBySimilarity(ctx context.Context, embedding []float32, limit int, filter *model.Filter) ([]*model.Entry, error)
	CountEntries() (int64, error)
	DeleteEntry(rid uuid.UUID) error
	Reset() error
}

// EntriesDBHandler handles entry-related database operations.
// The embedding dimension is fixed at construction and baked into the table;
// mixing embedders with different dimensions requires a reset.
type EntriesDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewEntriesDBHandler creates a new entries database handler.
// It loads the entry-related SQL functions and ensures the table exists with
// the given embedding dimension. If force is true, it will reload the SQL
// functions even if they already exist.
func NewEntriesDBHandler(db *helper.Database, embeddingDim int, force bool) (*EntriesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %v", embeddingDim))
	}

	entriesDbHandler := &EntriesDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadEntriesSql(entriesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entries sql", err)
	}

	err = entriesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntriesDBHandler", "embeddingDim", embeddingDim)

	return entriesDbHandler, nil
}

// CreateTable creates the 'entries' table in the database.
// If the table already exists, it does not create it again.
func (h *EntriesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entries($1);`, h.embeddingDim)
	if err != nil {
		log.Panicf("error initializing entries table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entries")

	return nil
}

// InsertEntry inserts a new entry and fills in the generated fields.
// The embedding length must match the handler's dimension.
func (h *EntriesDBHandler) InsertEntry(entry *model.Entry) error {
	if len(entry.Embedding) != h.embeddingDim {
		return helper.NewError("embedding validation", fmt.Errorf("embedding has %v dimensions, index expects %v", len(entry.Embedding), h.embeddingDim))
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entry($1, $2, $3, $4, $5, $6)`,
		entry.RID,
		entry.RecordID,
		entry.Content,
		pgvector.NewVector(entry.Embedding),
		entry.Metadata.Chunk,
		entry.Metadata.ChunksTotal,
	)

	var embedding pgvector.Vector
	err := row.Scan(
		&entry.ID,
		&entry.RID,
		&entry.RecordID,
		&entry.Content,
		&embedding,
		&entry.Metadata.Chunk,
		&entry.Metadata.ChunksTotal,
		&entry.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	entry.Embedding = embedding.Slice()

	return nil
}

// SelectEntry retrieves a single entry by RID.
func (h *EntriesDBHandler) SelectEntry(rid uuid.UUID) (*model.Entry, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entry($1)`,
		rid,
	)

	entry := &model.Entry{}
	var embedding pgvector.Vector
	err := row.Scan(
		&entry.ID,
		&entry.RID,
		&entry.RecordID,
		&entry.Content,
		&embedding,
		&entry.Metadata.Chunk,
		&entry.Metadata.ChunksTotal,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	entry.Embedding = embedding.Slice()

	return entry, nil
}

// SelectEntriesBySimilarity returns up to limit entries nearest to the given
// embedding under cosine distance, ascending. A nil filter searches the whole
// index; a present-but-empty filter is rejected before any query is built.
// Filter conditions are case-insensitive equality on record metadata.
func (h *EntriesDBHandler) SelectEntriesBySimilarity(ctx context.Context, embedding []float32, limit int, filter *model.Filter) ([]*model.Entry, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding validation", fmt.Errorf("embedding has %v dimensions, index expects %v", len(embedding), h.embeddingDim))
	}
	if limit <= 0 {
		return nil, helper.NewError("limit validation", fmt.Errorf("limit must be positive, got %v", limit))
	}
	err := filter.Validate()
	if err != nil {
		return nil, helper.NewError("filter validation", err)
	}

	var author, title, language, year sql.NullString
	if filter != nil {
		author = nullable(filter.Author)
		title = nullable(filter.Title)
		language = nullable(filter.Language)
		year = nullable(filter.Year)
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_entries_by_similarity($1, $2, $3, $4, $5, $6)`,
		pgvector.NewVector(embedding),
		limit,
		author,
		title,
		language,
		year,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		entry := &model.Entry{}
		err := rows.Scan(
			&entry.RID,
			&entry.RecordID,
			&entry.Content,
			&entry.Metadata.Title,
			&entry.Metadata.Author,
			&entry.Metadata.Themes,
			&entry.Metadata.Year,
			&entry.Metadata.Language,
			&entry.Metadata.Chunk,
			&entry.Metadata.ChunksTotal,
			&entry.CreatedAt,
			&entry.Distance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		entries = append(entries, entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entries, nil
}

// CountEntries returns the number of stored entries.
func (h *EntriesDBHandler) CountEntries() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_entries()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteEntry deletes an entry by RID.
func (h *EntriesDBHandler) DeleteEntry(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entry($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// Reset destroys all entries irrecoverably and recreates the empty table with
// its cosine index. Used by full reingestion.
func (h *EntriesDBHandler) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT reset_entries($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("reset entries", err)
	}

	h.db.Logger.Info("Reset table entries")

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
