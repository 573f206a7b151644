package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntryMetadata is the fixed metadata payload stored with every index entry.
// All record fields are flattened to scalars once at ingestion, so the shape
// is identical for every entry in the index.
type EntryMetadata struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Themes      string `json:"themes,omitempty"`
	Year        string `json:"year,omitempty"`
	Language    string `json:"language,omitempty"`
	Chunk       int    `json:"chunk"`
	ChunksTotal int    `json:"chunks_total"`
}

// ThemeTokens splits the comma-joined themes string into lower-cased tokens.
func (m EntryMetadata) ThemeTokens() []string {
	if strings.TrimSpace(m.Themes) == "" {
		return nil
	}
	parts := strings.Split(m.Themes, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Entry represents a chunk of a record's summary stored in the vector index.
type Entry struct {
	ID        int64         `json:"id"`
	RID       uuid.UUID     `json:"rid"`
	RecordID  int64         `json:"record_id"`
	Content   string        `json:"content"`
	Embedding []float32     `json:"embedding,omitempty"`
	Metadata  EntryMetadata `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
	// Results
	Distance float64 `json:"distance,omitempty"`
}
