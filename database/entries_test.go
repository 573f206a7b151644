package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/librarian/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

func initEntryHandlers(t *testing.T) (*RecordsDBHandler, *EntriesDBHandler) {
	database := initDB(t)

	recordsDbHandler, err := NewRecordsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRecordsDBHandler to not return an error")

	entriesDbHandler, err := NewEntriesDBHandler(database, testDim, true)
	require.NoError(t, err, "Expected NewEntriesDBHandler to not return an error")

	// Fresh tables with the test dimension
	err = recordsDbHandler.Reset()
	require.NoError(t, err)
	err = entriesDbHandler.Reset()
	require.NoError(t, err)

	return recordsDbHandler, entriesDbHandler
}

func insertTestRecord(t *testing.T, records *RecordsDBHandler, title, author, themes, year, language string) *model.Record {
	record := &model.Record{
		Title:    title,
		Author:   author,
		Themes:   themes,
		Year:     year,
		Language: language,
		Summary:  "Summary of " + title + ".",
	}
	err := records.InsertRecord(record)
	require.NoError(t, err)
	return record
}

func unitEmbedding(axis int) []float32 {
	embedding := make([]float32, testDim)
	embedding[axis] = 1.0
	return embedding
}

func TestEntriesNewEntriesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewEntriesDBHandler", func(t *testing.T) {
		_, err := NewRecordsDBHandler(database, true)
		require.NoError(t, err, "Expected NewRecordsDBHandler to not return an error")

		entriesDbHandler, err := NewEntriesDBHandler(database, testDim, true)
		assert.NoError(t, err, "Expected NewEntriesDBHandler to not return an error")
		require.NotNil(t, entriesDbHandler, "Expected NewEntriesDBHandler to return a non-nil instance")
		require.NotNil(t, entriesDbHandler.db, "Expected NewEntriesDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewEntriesDBHandler with nil database", func(t *testing.T) {
		_, err := NewEntriesDBHandler(nil, testDim, false)
		assert.Error(t, err, "Expected error when creating EntriesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})

	t.Run("Invalid call NewEntriesDBHandler with zero dimension", func(t *testing.T) {
		_, err := NewEntriesDBHandler(database, 0, false)
		assert.Error(t, err, "Expected error when creating EntriesDBHandler with zero dimension")
		assert.Contains(t, err.Error(), "dimension must be positive", "Expected specific error message for invalid dimension")
	})
}

func TestEntriesInsert(t *testing.T) {
	recordsDbHandler, entriesDbHandler := initEntryHandlers(t)

	record := insertTestRecord(t, recordsDbHandler, "The Hobbit", "J.R.R. Tolkien", "adventure", "1937", "en")

	t.Run("Insert entry with embedding", func(t *testing.T) {
		entry := &model.Entry{
			RID:       uuid.New(),
			RecordID:  record.ID,
			Content:   "Bilbo Baggins leaves home.",
			Embedding: unitEmbedding(0),
			Metadata:  model.EntryMetadata{Chunk: 0, ChunksTotal: 2},
		}

		err := entriesDbHandler.InsertEntry(entry)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, entry.ID, "Expected inserted entry to have an ID")
		assert.Equal(t, testDim, len(entry.Embedding), "Expected embedding to be preserved")
		assert.WithinDuration(t, entry.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
	})

	t.Run("Insert entry with wrong dimension", func(t *testing.T) {
		entry := &model.Entry{
			RID:       uuid.New(),
			RecordID:  record.ID,
			Content:   "Wrong dimension.",
			Embedding: make([]float32, testDim+1),
			Metadata:  model.EntryMetadata{Chunk: 1, ChunksTotal: 2},
		}

		err := entriesDbHandler.InsertEntry(entry)
		assert.Error(t, err, "Expected error for mismatched embedding dimension")
		assert.Contains(t, err.Error(), "dimensions", "Expected error message to mention dimensions")
	})
}

func TestEntriesGet(t *testing.T) {
	recordsDbHandler, entriesDbHandler := initEntryHandlers(t)

	record := insertTestRecord(t, recordsDbHandler, "Dune", "Frank Herbert", "politics, ecology", "1965", "en")

	entry := &model.Entry{
		RID:       uuid.New(),
		RecordID:  record.ID,
		Content:   "Paul Atreides arrives on Arrakis.",
		Embedding: unitEmbedding(1),
		Metadata:  model.EntryMetadata{Chunk: 0, ChunksTotal: 1},
	}
	err := entriesDbHandler.InsertEntry(entry)
	require.NoError(t, err)

	retrieved, err := entriesDbHandler.SelectEntry(entry.RID)
	assert.NoError(t, err, "Expected Get to not return an error")
	require.NotNil(t, retrieved, "Expected Get to return a non-nil entry")
	assert.Equal(t, entry.RID, retrieved.RID, "Expected entry RIDs to match")
	assert.Equal(t, entry.Content, retrieved.Content, "Expected entry content to match")
	assert.Equal(t, entry.Embedding, retrieved.Embedding, "Expected embedding to round-trip")
}

func TestEntriesSearchBySimilarity(t *testing.T) {
	recordsDbHandler, entriesDbHandler := initEntryHandlers(t)
	ctx := context.Background()

	orwell := insertTestRecord(t, recordsDbHandler, "1984", "George Orwell", "dystopia, surveillance", "1949", "en")
	herbert := insertTestRecord(t, recordsDbHandler, "Dune", "Frank Herbert", "politics, ecology", "1965", "en")

	entries := []*model.Entry{
		{RID: uuid.New(), RecordID: orwell.ID, Content: "Big Brother is watching.", Embedding: unitEmbedding(0), Metadata: model.EntryMetadata{Chunk: 0, ChunksTotal: 2}},
		{RID: uuid.New(), RecordID: orwell.ID, Content: "The Ministry of Truth rewrites history.", Embedding: unitEmbedding(1), Metadata: model.EntryMetadata{Chunk: 1, ChunksTotal: 2}},
		{RID: uuid.New(), RecordID: herbert.ID, Content: "The spice must flow.", Embedding: unitEmbedding(2), Metadata: model.EntryMetadata{Chunk: 0, ChunksTotal: 1}},
	}
	for _, entry := range entries {
		err := entriesDbHandler.InsertEntry(entry)
		require.NoError(t, err)
	}

	t.Run("Nearest entry comes first", func(t *testing.T) {
		query := unitEmbedding(0)
		results, err := entriesDbHandler.SelectEntriesBySimilarity(ctx, query, 2, nil)
		assert.NoError(t, err, "Expected SelectEntriesBySimilarity to not return an error")
		require.Len(t, results, 2, "Expected 2 results")
		assert.Equal(t, "Big Brother is watching.", results[0].Content, "Expected exact match to rank first")
		assert.InDelta(t, 0.0, results[0].Distance, 1e-6, "Expected zero cosine distance for identical vector")
		assert.Less(t, results[0].Distance, results[1].Distance, "Expected ascending distance order")
	})

	t.Run("Results carry flattened record metadata", func(t *testing.T) {
		results, err := entriesDbHandler.SelectEntriesBySimilarity(ctx, unitEmbedding(2), 1, nil)
		assert.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Dune", results[0].Metadata.Title)
		assert.Equal(t, "Frank Herbert", results[0].Metadata.Author)
		assert.Equal(t, "politics, ecology", results[0].Metadata.Themes)
		assert.Equal(t, "1965", results[0].Metadata.Year)
		assert.Equal(t, "en", results[0].Metadata.Language)
	})

	t.Run("Author filter restricts results", func(t *testing.T) {
		filter := &model.Filter{Author: "george orwell"}
		results, err := entriesDbHandler.SelectEntriesBySimilarity(ctx, unitEmbedding(2), 10, filter)
		assert.NoError(t, err, "Expected filtered search to not return an error")
		require.NotEmpty(t, results, "Expected filtered search to return results")
		for _, result := range results {
			assert.Equal(t, "George Orwell", result.Metadata.Author, "Expected only matching author in results")
		}
	})

	t.Run("Empty filter is rejected before querying", func(t *testing.T) {
		filter := &model.Filter{}
		_, err := entriesDbHandler.SelectEntriesBySimilarity(ctx, unitEmbedding(0), 10, filter)
		assert.Error(t, err, "Expected error for present-but-empty filter")
		assert.ErrorIs(t, err, model.ErrEmptyFilter, "Expected error to wrap ErrEmptyFilter")
	})

	t.Run("Limit larger than index returns everything", func(t *testing.T) {
		results, err := entriesDbHandler.SelectEntriesBySimilarity(ctx, unitEmbedding(0), 100, nil)
		assert.NoError(t, err)
		assert.Len(t, results, len(entries), "Expected all entries when limit exceeds index size")
	})

	t.Run("Invalid limit is rejected", func(t *testing.T) {
		_, err := entriesDbHandler.SelectEntriesBySimilarity(ctx, unitEmbedding(0), 0, nil)
		assert.Error(t, err, "Expected error for non-positive limit")
	})

	t.Run("Wrong query dimension is rejected", func(t *testing.T) {
		_, err := entriesDbHandler.SelectEntriesBySimilarity(ctx, make([]float32, testDim-1), 5, nil)
		assert.Error(t, err, "Expected error for mismatched query dimension")
	})
}

func TestEntriesDelete(t *testing.T) {
	recordsDbHandler, entriesDbHandler := initEntryHandlers(t)

	record := insertTestRecord(t, recordsDbHandler, "Short Lived", "", "", "", "en")

	entry := &model.Entry{
		RID:       uuid.New(),
		RecordID:  record.ID,
		Content:   "Will be deleted.",
		Embedding: unitEmbedding(3),
		Metadata:  model.EntryMetadata{Chunk: 0, ChunksTotal: 1},
	}
	err := entriesDbHandler.InsertEntry(entry)
	require.NoError(t, err)

	err = entriesDbHandler.DeleteEntry(entry.RID)
	assert.NoError(t, err, "Expected Delete to not return an error")

	_, err = entriesDbHandler.SelectEntry(entry.RID)
	assert.Error(t, err, "Expected Get to return an error for deleted entry")
}

func TestEntriesCascadeOnRecordDelete(t *testing.T) {
	recordsDbHandler, entriesDbHandler := initEntryHandlers(t)

	record := insertTestRecord(t, recordsDbHandler, "Cascade Test", "", "", "", "en")

	entry := &model.Entry{
		RID:       uuid.New(),
		RecordID:  record.ID,
		Content:   "Referencing entry.",
		Embedding: unitEmbedding(4),
		Metadata:  model.EntryMetadata{Chunk: 0, ChunksTotal: 1},
	}
	err := entriesDbHandler.InsertEntry(entry)
	require.NoError(t, err)

	err = recordsDbHandler.DeleteRecord(record.RID)
	require.NoError(t, err)

	count, err := entriesDbHandler.CountEntries()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "Expected entries to cascade on record delete")
}

func TestEntriesReset(t *testing.T) {
	recordsDbHandler, entriesDbHandler := initEntryHandlers(t)

	record := insertTestRecord(t, recordsDbHandler, "Reset Test", "", "", "", "en")

	entry := &model.Entry{
		RID:       uuid.New(),
		RecordID:  record.ID,
		Content:   "Gone after reset.",
		Embedding: unitEmbedding(5),
		Metadata:  model.EntryMetadata{Chunk: 0, ChunksTotal: 1},
	}
	err := entriesDbHandler.InsertEntry(entry)
	require.NoError(t, err)

	err = entriesDbHandler.Reset()
	assert.NoError(t, err, "Expected Reset to not return an error")

	count, err := entriesDbHandler.CountEntries()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "Expected no entries after reset")
}
