package domain

import (
	"strings"
	"time"
)

// OriginClass tags where an article came from; it drives tier assignment.
type OriginClass string

const (
	OriginDesignated OriginClass = "designated-source"
	OriginBroad      OriginClass = "broad-aggregator"
	OriginNarrow     OriginClass = "narrow-aggregator"
	// OriginHistory marks records carried forward from a previous run only.
	OriginHistory OriginClass = "history"
)

// CanonicalKey is the dedup/merge identity derived from an article URL.
type CanonicalKey string

// Source is a designated site to scan. ID is its row position in the source list.
type Source struct {
	ID         int
	URL        string
	LastStatus string
}

// KeywordPair is one logical search key expressed in two parallel terms.
type KeywordPair struct {
	Native  string
	English string
}

// Label is the term used to group and display everything matched by the pair.
func (k KeywordPair) Label() string {
	if k.Native != "" {
		return k.Native
	}
	return k.English
}

// Empty reports whether neither term is set.
func (k KeywordPair) Empty() bool {
	return strings.TrimSpace(k.Native) == "" && strings.TrimSpace(k.English) == ""
}

// KeywordRow is the stored, unresolved form of a keyword pair.
type KeywordRow struct {
	Row int
	A   string
	B   string
}

// Article is a candidate found during a run.
type Article struct {
	Title        string
	URL          string
	Site         string
	Keyword      string
	DiscoveredAt time.Time
	Origin       OriginClass
}

// HistoryRecord is an article persisted by a previous run.
type HistoryRecord struct {
	Key          CanonicalKey
	URL          string
	DiscoveredAt time.Time
	Keyword      string
	Title        string
	Site         string
}

// Article converts the record to an article tagged with the history origin.
func (h HistoryRecord) Article() Article {
	return Article{
		Title:        h.Title,
		URL:          h.URL,
		Site:         h.Site,
		Keyword:      h.Keyword,
		DiscoveredAt: h.DiscoveredAt,
		Origin:       OriginHistory,
	}
}

// MergedArticle is an article paired with its canonical key after history merge.
type MergedArticle struct {
	Article
	Key CanonicalKey
}

// Tier is the priority class of an article inside its keyword group; lower wins.
type Tier int

const (
	TierDesignated Tier = 1
	TierBroad      Tier = 2
	TierNarrow     Tier = 3
	TierKnown      Tier = 4
)

// RankedArticle is a merged article annotated with its tier and group position.
type RankedArticle struct {
	MergedArticle
	Tier     Tier
	Position int
}

// KeywordGroup is the ordered set of ranked articles sharing a keyword.
type KeywordGroup struct {
	Keyword  string
	Articles []RankedArticle
	Fresh    bool
}

// ResultRow is a persisted, windowed output row.
type ResultRow struct {
	Date    time.Time
	Keyword string
	URL     string
	Site    string
	Title   string
}

// Decision captures the LLM recommendation computed for a keyword.
type Decision struct {
	Keyword        string
	At             time.Time
	Recommendation string
	Explanation    string
	ArticleCount   int
}
