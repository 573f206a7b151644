package model

import (
	"time"

	"github.com/google/uuid"
)

// Record represents a source dataset unit (one book with its summary).
// Records are read once from the dataset file at ingestion time and are
// immutable afterwards. Themes are normalized to a comma-joined string at the
// ingestion boundary, never stored as a list.
type Record struct {
	ID        int64     `json:"id"`
	RID       uuid.UUID `json:"rid"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Themes    string    `json:"themes,omitempty"`
	Year      string    `json:"year,omitempty"`
	Language  string    `json:"language,omitempty"`
	Summary   string    `json:"summary"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
