package pipeline

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default chunking parameters, tuned for short book summaries.
const (
	DefaultTargetChars  = 750
	DefaultOverlapChars = 120
)

// OverlapChunker creates a chunker that greedily packs whole sentences into
// chunks of at most targetChars characters. After a chunk is flushed, the next
// buffer is seeded with the trailing overlapChars characters of the flushed
// chunk, so context leaks across chunk boundaries and retrieval misses at
// split points are reduced.
//
// The overlap tail is taken from the previous chunk text as-is, not re-derived
// from sentence boundaries, so it can start mid-sentence. A single sentence
// longer than targetChars is emitted as its own oversized chunk rather than
// split further. Output is a pure function of the inputs.
func OverlapChunker(targetChars int, overlapChars int) ChunkFunc {
	return func(text string) ([]string, error) {
		if targetChars <= 0 {
			return nil, fmt.Errorf("target chars must be positive")
		}
		if overlapChars < 0 {
			return nil, fmt.Errorf("overlap chars must not be negative")
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return []string{}, nil
		}

		var chunks []string
		buf := ""

		for _, sentence := range splitSentences(text) {
			// Sizes are measured in runes, not bytes
			if utf8.RuneCountInString(buf)+utf8.RuneCountInString(sentence)+1 <= targetChars {
				buf = strings.TrimSpace(buf + " " + sentence)
				continue
			}

			if buf != "" {
				chunks = append(chunks, buf)
				buf = overlapTail(buf, overlapChars)
			}
			buf = strings.TrimSpace(buf + " " + sentence)
		}

		if buf != "" {
			chunks = append(chunks, buf)
		}

		return chunks, nil
	}
}

// DefaultChunker creates an OverlapChunker with the default parameters.
func DefaultChunker() ChunkFunc {
	return OverlapChunker(DefaultTargetChars, DefaultOverlapChars)
}

// splitSentences splits text on terminal punctuation (".", "!", "?", ":")
// followed by whitespace. The punctuation stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])

		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
		}
	}

	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == ':'
}

// overlapTail returns the trailing overlapChars characters of s, rune-safe.
func overlapTail(s string, overlapChars int) string {
	if overlapChars == 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= overlapChars {
		return ""
	}
	return string(runes[len(runes)-overlapChars:])
}
