// Package matcher decides whether a text mentions one of the bilingual keywords.
package matcher

import (
	"strings"

	"NewsRadar/internal/domain"
)

// Match tests pairs in order and returns the first whose native or English term
// occurs in text, ignoring case.
func Match(text string, pairs []domain.KeywordPair) (domain.KeywordPair, bool) {
	if text == "" {
		return domain.KeywordPair{}, false
	}
	lower := strings.ToLower(text)

	for _, pair := range pairs {
		if contains(lower, pair.Native) || contains(lower, pair.English) {
			return pair, true
		}
	}
	return domain.KeywordPair{}, false
}

func contains(lowerText, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	return strings.Contains(lowerText, strings.ToLower(term))
}
