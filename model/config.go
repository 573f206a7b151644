package model

// SearchConfig represents configuration for a reranked search query.
// The defaults reproduce the hand-tuned scoring used by the recommendation
// pipeline; individual weights can be adjusted for experimentation.
type SearchConfig struct {
	TopK int `json:"top_k"`

	// Candidate over-fetch: the index is asked for
	// max(MinCandidates, CandidateFactor*TopK) nearest neighbors so the
	// reranker has material to discriminate.
	MinCandidates   int `json:"min_candidates"`
	CandidateFactor int `json:"candidate_factor"`

	// Composite score weights
	SemanticWeight float64 `json:"semantic_weight"`
	LexicalWeight  float64 `json:"lexical_weight"`

	// LexicalFloor is the minimum word count used to normalize the lexical
	// overlap ratio, so very short documents are not unfairly inflated.
	LexicalFloor int `json:"lexical_floor"`

	// Additive metadata boosts. Boosts stack without an upper bound, so the
	// composite score can exceed 1.0.
	TitleExactBoost     float64 `json:"title_exact_boost"`
	TitleSubstringBoost float64 `json:"title_substring_boost"`
	TitleWordBoost      float64 `json:"title_word_boost"`
	TitleWordBoostCap   float64 `json:"title_word_boost_cap"`
	ThemeBoost          float64 `json:"theme_boost"`
	AuthorBoost         float64 `json:"author_boost"`
}

// DefaultSearchConfig returns the tuned default configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		TopK:                5,
		MinCandidates:       12,
		CandidateFactor:     3,
		SemanticWeight:      0.60,
		LexicalWeight:       0.25,
		LexicalFloor:        6,
		TitleExactBoost:     0.20,
		TitleSubstringBoost: 0.12,
		TitleWordBoost:      0.02,
		TitleWordBoostCap:   0.10,
		ThemeBoost:          0.04,
		AuthorBoost:         0.06,
	}
}

// CandidateCount returns the number of candidates to fetch from the index
// before reranking.
func (c SearchConfig) CandidateCount() int {
	n := c.CandidateFactor * c.TopK
	if n < c.MinCandidates {
		n = c.MinCandidates
	}
	return n
}
