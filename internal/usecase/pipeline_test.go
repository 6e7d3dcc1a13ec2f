package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

type fakeStore struct {
	mu        sync.Mutex
	sources   []domain.Source
	keywords  []domain.KeywordRow
	history   []domain.HistoryRecord
	decisions map[string]domain.Decision

	statuses     map[int]domain.SourceStatus
	savedKw      []domain.KeywordRow
	results      []domain.ResultRow
	wroteResults bool
	historyErr   error
}

func (f *fakeStore) ListSources(context.Context) ([]domain.Source, error) { return f.sources, nil }

func (f *fakeStore) SaveStatuses(_ context.Context, statuses map[int]domain.SourceStatus) error {
	f.statuses = statuses
	return nil
}

func (f *fakeStore) ListKeywords(context.Context) ([]domain.KeywordRow, error) {
	return f.keywords, nil
}

func (f *fakeStore) SaveKeywords(_ context.Context, rows []domain.KeywordRow) error {
	f.savedKw = rows
	return nil
}

func (f *fakeStore) LoadHistory(context.Context) ([]domain.HistoryRecord, error) {
	return f.history, f.historyErr
}

func (f *fakeStore) ReplaceResults(_ context.Context, rows []domain.ResultRow) error {
	f.results = rows
	f.wroteResults = true
	return nil
}

func (f *fakeStore) ListDecisions(context.Context) (map[string]domain.Decision, error) {
	return f.decisions, nil
}

func (f *fakeStore) SaveDecision(_ context.Context, d domain.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decisions == nil {
		f.decisions = map[string]domain.Decision{}
	}
	f.decisions[d.Keyword] = d
	return nil
}

type fakeFetcher struct {
	articles []domain.Article
	statuses map[int]domain.SourceStatus
	gotPairs []domain.KeywordPair
	onFetch  func()
}

func (f *fakeFetcher) FetchAll(_ context.Context, _ []domain.Source, pairs []domain.KeywordPair, at time.Time) ([]domain.Article, map[int]domain.SourceStatus) {
	f.gotPairs = pairs
	if f.onFetch != nil {
		f.onFetch()
	}
	out := make([]domain.Article, len(f.articles))
	for i, a := range f.articles {
		a.DiscoveredAt = at
		out[i] = a
	}
	return out, f.statuses
}

type fakeSearch struct {
	articles []domain.Article
}

func (f *fakeSearch) Search(_ context.Context, _ []domain.KeywordPair, at time.Time) []domain.Article {
	out := make([]domain.Article, len(f.articles))
	for i, a := range f.articles {
		a.DiscoveredAt = at
		out[i] = a
	}
	return out
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  map[string]int
	totals map[string]int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, keyword string, total int, sample []domain.Article) (domain.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
		f.totals = map[string]int{}
	}
	f.calls[keyword] = len(sample)
	f.totals[keyword] = total
	return domain.Decision{Recommendation: "Hold", Explanation: "neutral"}, nil
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, text, _, target string) (string, error) {
	switch {
	case text == "Teva" && target == "he":
		return "טבע", nil
	case text == "אלביט" && target == "en":
		return "Elbit", nil
	case text == "Nvidia":
		return "nvidia", nil
	case text == "Unknown":
		return "", errors.New("translation service unavailable")
	case target == "he":
		return "תורגם: " + text, nil
	}
	return "", errors.New("unsupported")
}

var il = mustLocation("Asia/Jerusalem")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("IST", 2*60*60)
	}
	return loc
}

func TestRunMergesHistoryAndRanks(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2024, 1, 1, 9, 0, 0, 0, il)
	now := time.Date(2024, 3, 5, 12, 30, 42, 0, il)

	store := &fakeStore{
		sources:  []domain.Source{{ID: 2, URL: "https://www.ynet.co.il"}, {ID: 3, URL: "not a url"}},
		keywords: []domain.KeywordRow{{Row: 2, A: "טבע", B: "Teva"}},
		history: []domain.HistoryRecord{{
			Key:          "ynet.co.il/a",
			URL:          "https://www.ynet.co.il/a",
			DiscoveredAt: d1,
			Keyword:      "טבע",
			Title:        "old",
			Site:         "ynet.co.il",
		}},
	}
	fetcher := &fakeFetcher{
		articles: []domain.Article{{
			Title: "טבע מזנקת", URL: "https://www.ynet.co.il/a/", Site: "ynet.co.il",
			Keyword: "טבע", Origin: domain.OriginDesignated,
		}},
		statuses: map[int]domain.SourceStatus{2: {Code: domain.StatusOK, Matches: 1}},
	}
	search := &fakeSearch{articles: []domain.Article{{
		Title: "Teva jumps", URL: "https://www.ynet.co.il/b", Site: "Ynet",
		Keyword: "טבע", Origin: domain.OriginBroad,
	}}}
	notifier := &fakeNotifier{}

	p := NewPipeline(PipelineDeps{
		Sources:   store,
		Keywords:  store,
		History:   store,
		Decisions: store,
		Fetcher:   fetcher,
		Search:    search,
		Notifiers: []ports.Notifier{notifier},
	}, Options{Location: il})

	summary, err := p.Run(context.Background(), now)
	require.NoError(t, err)

	runTime := time.Date(2024, 3, 5, 12, 30, 0, 0, il)
	assert.True(t, runTime.Equal(summary.At))
	assert.Equal(t, 1, summary.Sources)
	assert.Equal(t, []domain.KeywordPair{{Native: "טבע", English: "Teva"}}, fetcher.gotPairs)

	require.Len(t, summary.Groups, 1)
	group := summary.Groups[0]
	assert.Equal(t, "טבע", group.Keyword)
	assert.True(t, group.Fresh)
	require.Len(t, group.Articles, 2)

	fresh, known := group.Articles[0], group.Articles[1]
	assert.Equal(t, domain.TierDesignated, fresh.Tier)
	assert.Equal(t, domain.CanonicalKey("ynet.co.il/b"), fresh.Key)
	assert.True(t, runTime.Equal(fresh.DiscoveredAt))

	assert.Equal(t, domain.TierKnown, known.Tier)
	assert.Equal(t, domain.CanonicalKey("ynet.co.il/a"), known.Key)
	assert.True(t, d1.Equal(known.DiscoveredAt))

	require.Len(t, store.results, 2)
	assert.Equal(t, "https://www.ynet.co.il/b", store.results[0].URL)
	assert.Equal(t, store.statuses, fetcher.statuses)
	assert.Empty(t, store.savedKw)

	assert.Equal(t, []string{"טבע"}, summary.Fresh)
	assert.Equal(t, []string{"New: טבע"}, notifier.messages)
}

func TestRunNothingToReport(t *testing.T) {
	t.Parallel()

	store := &fakeStore{keywords: []domain.KeywordRow{{Row: 2, A: "Teva"}}}
	p := NewPipeline(PipelineDeps{Sources: store, Keywords: store, History: store, Translator: fakeTranslator{}}, Options{})

	_, err := p.Run(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrNothingToReport)
	assert.False(t, store.wroteResults)
	assert.Nil(t, store.savedKw, "keyword rows stay untouched when nothing is reported")
	assert.Nil(t, store.statuses)
}

func TestRunHistoryOnlyStillReports(t *testing.T) {
	t.Parallel()

	store := &fakeStore{history: []domain.HistoryRecord{{
		URL: "https://example.com/a", DiscoveredAt: time.Now(), Keyword: "k", Title: "t",
	}}}
	notifier := &fakeNotifier{}
	p := NewPipeline(PipelineDeps{Sources: store, Keywords: store, History: store, Notifiers: []ports.Notifier{notifier}}, Options{})

	summary, err := p.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Len(t, store.results, 1)
	assert.Empty(t, summary.Fresh)
	assert.Empty(t, notifier.messages, "nothing new, nothing to announce")
}

func TestRunAbortsWithoutWritingWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	store := &fakeStore{sources: []domain.Source{{ID: 2, URL: "https://example.com"}}}
	fetcher := &fakeFetcher{
		articles: []domain.Article{{Title: "x", URL: "https://example.com/x", Keyword: "k", Origin: domain.OriginDesignated}},
		statuses: map[int]domain.SourceStatus{2: {Code: domain.StatusTimeout}},
		onFetch:  cancel,
	}
	notifier := &fakeNotifier{}
	p := NewPipeline(PipelineDeps{Sources: store, History: store, Fetcher: fetcher, Notifiers: []ports.Notifier{notifier}}, Options{})

	_, err := p.Run(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.wroteResults)
	assert.Nil(t, store.statuses)
	assert.Empty(t, notifier.messages)
}

func TestRunHistoryLoadFailureIsFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{historyErr: errors.New("db down")}
	p := NewPipeline(PipelineDeps{Sources: store, History: store}, Options{})

	_, err := p.Run(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load history")
}

func TestRunTranslatesTitlesAndAnalyzes(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		sources:  []domain.Source{{ID: 2, URL: "https://example.com"}},
		keywords: []domain.KeywordRow{{Row: 2, A: "Teva"}, {Row: 3, A: "אלביט", B: "Elbit"}},
		decisions: map[string]domain.Decision{
			"אלביט": {Keyword: "אלביט", Recommendation: "Buy"},
			"old":   {Keyword: "old", Recommendation: "Sell"},
		},
		history: []domain.HistoryRecord{{URL: "https://example.com/h", DiscoveredAt: time.Now(), Keyword: "אלביט", Title: "h"}},
	}
	fetcher := &fakeFetcher{articles: []domain.Article{
		{Title: "Teva rallies", URL: "https://example.com/1", Keyword: "טבע", Origin: domain.OriginDesignated},
		{Title: "כותרת בעברית", URL: "https://example.com/2", Keyword: "טבע", Origin: domain.OriginDesignated},
	}}
	analyzer := &fakeAnalyzer{}

	p := NewPipeline(PipelineDeps{
		Sources:    store,
		Keywords:   store,
		History:    store,
		Decisions:  store,
		Fetcher:    fetcher,
		Translator: fakeTranslator{},
		Analyzer:   analyzer,
	}, Options{TranslateTitles: true, AnalysisMaxArticles: 1})

	summary, err := p.Run(context.Background(), time.Now())
	require.NoError(t, err)

	require.Len(t, store.savedKw, 1)
	assert.Equal(t, domain.KeywordRow{Row: 2, A: "טבע", B: "Teva"}, store.savedKw[0])

	var titles []string
	for _, row := range store.results {
		titles = append(titles, row.Title)
	}
	assert.Contains(t, titles, "תורגם: Teva rallies")
	assert.Contains(t, titles, "כותרת בעברית")

	assert.Equal(t, map[string]int{"טבע": 1}, analyzer.calls, "only keywords with new articles or no decision")
	assert.Equal(t, map[string]int{"טבע": 2}, analyzer.totals)
	assert.Equal(t, 1, summary.Analyzed)
	assert.Equal(t, 2, store.decisions["טבע"].ArticleCount)
	assert.Equal(t, "Hold", store.decisions["טבע"].Recommendation)
}

func TestKeywordResolver(t *testing.T) {
	t.Parallel()

	r := NewKeywordResolver(fakeTranslator{}, "", nil)
	pairs, changed := r.Resolve(context.Background(), []domain.KeywordRow{
		{Row: 2, A: "טבע", B: "Teva"},
		{Row: 3, A: "", B: ""},
		{Row: 4, A: "Teva"},
		{Row: 5, A: "אלביט"},
		{Row: 6, A: "Nvidia"},
		{Row: 7, A: "Unknown"},
		{Row: 8, A: " Teva ", B: "טבע"},
	})

	assert.Equal(t, []domain.KeywordPair{
		{Native: "טבע", English: "Teva"},
		{Native: "טבע", English: "Teva"},
		{Native: "אלביט", English: "Elbit"},
		{Native: "Nvidia", English: "Nvidia"},
		{English: "Unknown"},
		{Native: "טבע", English: "Teva"},
	}, pairs)

	var rows []int
	for _, row := range changed {
		rows = append(rows, row.Row)
	}
	assert.Equal(t, []int{4, 5, 6, 7, 8}, rows)
}

func TestKeywordResolverWithoutTranslator(t *testing.T) {
	t.Parallel()

	pairs, _ := NewKeywordResolver(nil, "he", nil).Resolve(context.Background(), []domain.KeywordRow{{Row: 2, A: "Teva"}})
	assert.Equal(t, []domain.KeywordPair{{English: "Teva"}}, pairs)
}

func TestIsForeign(t *testing.T) {
	t.Parallel()

	assert.True(t, isForeign("Teva rallies"))
	assert.False(t, isForeign("כותרת"))
	assert.False(t, isForeign("טבע Teva"))
	assert.False(t, isForeign("2024"))
}
