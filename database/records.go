package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/siherrmann/librarian/helper"
	"github.com/siherrmann/librarian/model"
	loadSql "github.com/siherrmann/librarian/sql"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// RecordsDBHandlerFunctions defines the interface for Records database operations.
type RecordsDBHandlerFunctions interface {
	InsertRecord(record *model.Record) error
	SelectRecordByTitle(title string) (*model.Record, error)
	SelectAllTitles() ([]string, error)
	CountRecords() (int64, error)
	DeleteRecord(rid uuid.UUID) error
	Reset() error
}

// RecordsDBHandler handles record-related database operations
type RecordsDBHandler struct {
	db *helper.Database
}

// NewRecordsDBHandler creates a new records database handler.
// It loads the record-related SQL functions and ensures the table exists.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRecordsDBHandler(db *helper.Database, force bool) (*RecordsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	recordsDbHandler := &RecordsDBHandler{
		db: db,
	}

	err := loadSql.LoadRecordsSql(recordsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load records sql", err)
	}

	err = recordsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RecordsDBHandler")

	return recordsDbHandler, nil
}

// CreateTable creates the 'records' table in the database.
// If the table already exists, it does not create it again.
func (h *RecordsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_records();`)
	if err != nil {
		log.Panicf("error initializing records table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table records")

	return nil
}

// InsertRecord inserts a new record and fills in the generated fields.
func (h *RecordsDBHandler) InsertRecord(record *model.Record) error {
	if record.Metadata == nil {
		record.Metadata = model.Metadata{}
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_record($1, $2, $3, $4, $5, $6, $7)`,
		record.Title,
		record.Author,
		record.Themes,
		record.Year,
		record.Language,
		record.Summary,
		record.Metadata,
	)

	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.Title,
		&record.Author,
		&record.Themes,
		&record.Year,
		&record.Language,
		&record.Summary,
		&record.Metadata,
		&record.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRecordByTitle retrieves a record by case-insensitive exact title.
// Returns ErrNotFound when no record matches.
func (h *RecordsDBHandler) SelectRecordByTitle(title string) (*model.Record, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_record_by_title($1)`,
		title,
	)

	record := &model.Record{}
	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.Title,
		&record.Author,
		&record.Themes,
		&record.Year,
		&record.Language,
		&record.Summary,
		&record.Metadata,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select record by title", ErrNotFound)
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return record, nil
}

// SelectAllTitles retrieves all record titles in alphabetical order.
func (h *RecordsDBHandler) SelectAllTitles() ([]string, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_record_titles()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, helper.NewError("scan", err)
		}
		titles = append(titles, title)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return titles, nil
}

// CountRecords returns the number of stored records.
func (h *RecordsDBHandler) CountRecords() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_records()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteRecord deletes a record by RID. Entries referencing it cascade.
func (h *RecordsDBHandler) DeleteRecord(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_record($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// Reset destroys all records irrecoverably and recreates the empty table.
// The cascade also removes any remaining entries. Must not race concurrent
// inserts or queries; callers synchronize ingestion externally.
func (h *RecordsDBHandler) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT reset_records();`)
	if err != nil {
		return helper.NewError("reset records", err)
	}

	h.db.Logger.Info("Reset table records")

	return nil
}
