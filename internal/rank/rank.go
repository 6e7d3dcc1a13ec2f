// Package rank assigns priority tiers and orders articles inside keyword groups.
package rank

import (
	"sort"
	"strings"

	"NewsRadar/internal/canon"
	"NewsRadar/internal/domain"
)

// Ranker holds the designated source domains used for tier 1 promotion.
type Ranker struct {
	domains []string
}

// New builds a ranker from the designated source URLs.
func New(sources []domain.Source) *Ranker {
	r := &Ranker{}
	seen := map[string]struct{}{}
	for _, src := range sources {
		d := canon.Domain(src.URL)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		r.domains = append(r.domains, d)
	}
	return r
}

// Tier evaluates the tier rules in order: known keys, designated sources,
// broad aggregator results, everything else.
func (r *Ranker) Tier(article domain.MergedArticle, seen map[domain.CanonicalKey]struct{}) domain.Tier {
	if _, ok := seen[article.Key]; ok {
		return domain.TierKnown
	}
	if article.Origin == domain.OriginDesignated || r.designated(article.Article) {
		return domain.TierDesignated
	}
	if article.Origin == domain.OriginBroad {
		return domain.TierBroad
	}
	return domain.TierNarrow
}

func (r *Ranker) designated(article domain.Article) bool {
	host := canon.Domain(article.URL)
	site := strings.ToLower(strings.TrimSpace(article.Site))
	for _, d := range r.domains {
		if canon.MatchesDomain(host, d) || canon.MatchesDomain(site, d) {
			return true
		}
	}
	return false
}

// Rank groups merged articles by keyword in order of first appearance and
// sorts each group by tier ascending, then discovery time descending. Ties keep
// arrival order.
func (r *Ranker) Rank(merged []domain.MergedArticle, seen map[domain.CanonicalKey]struct{}) []domain.KeywordGroup {
	var groups []domain.KeywordGroup
	index := map[string]int{}

	for _, article := range merged {
		i, ok := index[article.Keyword]
		if !ok {
			i = len(groups)
			index[article.Keyword] = i
			groups = append(groups, domain.KeywordGroup{Keyword: article.Keyword})
		}
		groups[i].Articles = append(groups[i].Articles, domain.RankedArticle{
			MergedArticle: article,
			Tier:          r.Tier(article, seen),
		})
	}

	for gi := range groups {
		items := groups[gi].Articles
		sort.SliceStable(items, func(a, b int) bool {
			if items[a].Tier != items[b].Tier {
				return items[a].Tier < items[b].Tier
			}
			return items[a].DiscoveredAt.After(items[b].DiscoveredAt)
		})
		for pos := range items {
			items[pos].Position = pos + 1
		}
	}
	return groups
}
