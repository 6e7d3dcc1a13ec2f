// Package merge unions a run's fresh articles with the persisted history.
package merge

import (
	"NewsRadar/internal/canon"
	"NewsRadar/internal/domain"
)

// Merge deduplicates the new batch by canonical key (first occurrence wins),
// pins rediscovered articles to their original discovery time and carries
// forward history records that were not seen again. The returned set holds
// every key known before this run.
func Merge(fresh []domain.Article, history []domain.HistoryRecord) ([]domain.MergedArticle, map[domain.CanonicalKey]struct{}) {
	seen := make(map[domain.CanonicalKey]struct{}, len(history))
	index := make(map[domain.CanonicalKey]domain.HistoryRecord, len(history))
	for _, rec := range history {
		key := rec.Key
		if key == "" {
			key = canon.Canonicalize(rec.URL)
		}
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := index[key]; !ok {
			rec.Key = key
			index[key] = rec
		}
	}

	merged := make([]domain.MergedArticle, 0, len(fresh)+len(history))
	emitted := make(map[domain.CanonicalKey]struct{}, len(fresh)+len(history))

	for _, article := range fresh {
		key := canon.Canonicalize(article.URL)
		if key == "" {
			continue
		}
		if _, dup := emitted[key]; dup {
			continue
		}
		emitted[key] = struct{}{}

		if rec, ok := index[key]; ok {
			article.DiscoveredAt = rec.DiscoveredAt
		}
		merged = append(merged, domain.MergedArticle{Article: article, Key: key})
	}

	for _, rec := range history {
		key := rec.Key
		if key == "" {
			key = canon.Canonicalize(rec.URL)
		}
		if key == "" {
			continue
		}
		if _, dup := emitted[key]; dup {
			continue
		}
		emitted[key] = struct{}{}
		merged = append(merged, domain.MergedArticle{Article: rec.Article(), Key: key})
	}

	return merged, seen
}
