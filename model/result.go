package model

// Result represents a snippet returned by a reranked search.
type Result struct {
	Document string        `json:"document"`
	Metadata EntryMetadata `json:"metadata"`
	Score    float64       `json:"score"` // Composite score, descending
	// Score components
	Semantic float64 `json:"semantic"` // Clamped 1 - cosine distance
	Lexical  float64 `json:"lexical"`  // Word-overlap ratio
	Boost    float64 `json:"boost"`    // Additive metadata boost
}
