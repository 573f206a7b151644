package chat

import (
	"regexp"
	"strings"
)

// Minimal deny list for user input, matched case-insensitively on word
// boundaries. Extend as needed.
var bannedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bidiot\b`),
	regexp.MustCompile(`\bprost\b`),
	regexp.MustCompile(`\bfraier\b`),
	regexp.MustCompile(`\b(?:fut|pula|muie)\b`),
}

// ContainsProfanity reports whether the text matches the deny list.
func ContainsProfanity(text string) bool {
	low := strings.ToLower(text)
	for _, pattern := range bannedPatterns {
		if pattern.MatchString(low) {
			return true
		}
	}
	return false
}
