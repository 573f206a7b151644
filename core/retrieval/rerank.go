package retrieval

import (
	"regexp"
	"sort"
	"strings"

	"github.com/siherrmann/librarian/model"
)

// wordRe tokenizes into Unicode word runs so diacritics survive folding.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// wordSet returns the set of lower-cased word tokens in s.
func wordSet(s string) map[string]struct{} {
	words := map[string]struct{}{}
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		words[w] = struct{}{}
	}
	return words
}

// semanticScore converts cosine distance to a similarity clamped to [0, 1].
func semanticScore(distance float64) float64 {
	s := 1.0 - distance
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// lexicalScore is the word-overlap ratio between document and query. Every
// document token occurrence counts, so repeated query words in the document
// raise the score. Normalized by the document's token count with a floor so
// very short documents are not unfairly inflated.
func lexicalScore(doc string, queryWords map[string]struct{}, floor int) float64 {
	tokens := wordRe.FindAllString(strings.ToLower(doc), -1)
	hits := 0
	for _, w := range tokens {
		if _, ok := queryWords[w]; ok {
			hits++
		}
	}
	denominator := len(tokens)
	if denominator < floor {
		denominator = floor
	}
	return float64(hits) / float64(denominator)
}

// metadataBoost computes the additive boost from title, theme and author
// matches against the raw query. Boosts stack without an upper bound.
func metadataBoost(queryLower string, queryWords map[string]struct{}, metadata model.EntryMetadata, config model.SearchConfig) float64 {
	boost := 0.0

	title := strings.ToLower(metadata.Title)
	if title != "" {
		switch {
		case title == strings.TrimSpace(queryLower):
			boost += config.TitleExactBoost
		case strings.Contains(queryLower, title) || strings.Contains(title, queryLower):
			boost += config.TitleSubstringBoost
		default:
			shared := 0
			for w := range wordSet(title) {
				if _, ok := queryWords[w]; ok {
					shared++
				}
			}
			wordBoost := config.TitleWordBoost * float64(shared)
			if wordBoost > config.TitleWordBoostCap {
				wordBoost = config.TitleWordBoostCap
			}
			boost += wordBoost
		}
	}

	for _, theme := range metadata.ThemeTokens() {
		if strings.Contains(queryLower, theme) {
			boost += config.ThemeBoost
		}
	}

	author := strings.ToLower(metadata.Author)
	if author != "" && strings.Contains(queryLower, author) {
		boost += config.AuthorBoost
	}

	return boost
}

// Rerank scores candidates against the raw query text and returns the top k
// by descending composite score. Ties keep the candidates' original order,
// which is ascending distance when they come from the index.
func Rerank(query string, candidates []*model.Entry, k int, config model.SearchConfig) []*model.Result {
	if k <= 0 || len(candidates) == 0 {
		return []*model.Result{}
	}

	queryLower := strings.ToLower(query)
	queryWords := wordSet(query)

	results := make([]*model.Result, 0, len(candidates))
	for _, candidate := range candidates {
		semantic := semanticScore(candidate.Distance)
		lexical := lexicalScore(candidate.Content, queryWords, config.LexicalFloor)
		boost := metadataBoost(queryLower, queryWords, candidate.Metadata, config)

		results = append(results, &model.Result{
			Document: candidate.Content,
			Metadata: candidate.Metadata,
			Score:    config.SemanticWeight*semantic + config.LexicalWeight*lexical + boost,
			Semantic: semantic,
			Lexical:  lexical,
			Boost:    boost,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}
