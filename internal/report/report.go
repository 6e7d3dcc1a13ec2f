// Package report windows ranked keyword groups and derives freshness.
package report

import (
	"strings"

	"NewsRadar/internal/domain"
)

const (
	DefaultWindowSize = 20
	DefaultPrefix     = "New:"
)

// Report truncates each group to windowSize articles and marks it fresh when the
// window holds at least one article that was not known before the run.
// A non-positive windowSize falls back to DefaultWindowSize.
func Report(groups []domain.KeywordGroup, windowSize int) ([]domain.KeywordGroup, map[string]bool) {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	out := make([]domain.KeywordGroup, 0, len(groups))
	fresh := make(map[string]bool, len(groups))

	for _, group := range groups {
		window := group.Articles
		if len(window) > windowSize {
			window = window[:windowSize]
		}
		window = append([]domain.RankedArticle(nil), window...)

		isFresh := false
		for _, article := range window {
			if article.Tier < domain.TierKnown {
				isFresh = true
				break
			}
		}

		fresh[group.Keyword] = isFresh
		out = append(out, domain.KeywordGroup{
			Keyword:  group.Keyword,
			Articles: window,
			Fresh:    isFresh,
		})
	}
	return out, fresh
}

// FreshKeywords lists fresh group keywords in group order.
func FreshKeywords(groups []domain.KeywordGroup) []string {
	var keywords []string
	for _, group := range groups {
		if group.Fresh {
			keywords = append(keywords, group.Keyword)
		}
	}
	return keywords
}

// Message builds the notification text for the fresh groups, or "" when none is fresh.
func Message(prefix string, groups []domain.KeywordGroup) string {
	keywords := FreshKeywords(groups)
	if len(keywords) == 0 {
		return ""
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + " " + strings.Join(keywords, ", ")
}

// Rows flattens windowed groups into persisted rows, in group then position order.
func Rows(groups []domain.KeywordGroup) []domain.ResultRow {
	var rows []domain.ResultRow
	for _, group := range groups {
		for _, article := range group.Articles {
			rows = append(rows, domain.ResultRow{
				Date:    article.DiscoveredAt,
				Keyword: group.Keyword,
				URL:     article.URL,
				Site:    article.Site,
				Title:   article.Title,
			})
		}
	}
	return rows
}
