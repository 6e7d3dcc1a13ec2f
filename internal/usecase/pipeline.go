package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/merge"
	"NewsRadar/internal/ports"
	"NewsRadar/internal/rank"
	"NewsRadar/internal/report"
)

// ErrNothingToReport is returned when a run has neither sources nor history.
var ErrNothingToReport = errors.New("no sources and no history to report")

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources    ports.SourceStore
	Keywords   ports.KeywordStore
	History    ports.HistoryStore
	Decisions  ports.DecisionStore
	Fetcher    ports.SourceFetcher
	Search     ports.AggregatorSearch
	Translator ports.Translator
	Analyzer   ports.Analyzer
	Notifiers  []ports.Notifier
	Logger     *slog.Logger
}

// Options tunes a pipeline run.
type Options struct {
	WindowSize     int
	MessagePrefix  string
	NativeLanguage string
	Location       *time.Location

	TranslateTitles      bool
	TranslateConcurrency int

	AnalysisMaxArticles int
	AnalysisDelay       time.Duration
}

// RunSummary describes what a run found and reported.
type RunSummary struct {
	At       time.Time
	Sources  int
	Keywords int
	Fetched  int
	Searched int
	Merged   int
	Rows     int
	Statuses map[int]domain.SourceStatus
	Groups   []domain.KeywordGroup
	Fresh    []string
	Message  string
	Analyzed int
}

// Pipeline implements the keyword discovery workflow.
type Pipeline struct {
	sources    ports.SourceStore
	keywords   ports.KeywordStore
	history    ports.HistoryStore
	decisions  ports.DecisionStore
	fetcher    ports.SourceFetcher
	search     ports.AggregatorSearch
	translator ports.Translator
	analyzer   ports.Analyzer
	notifiers  []ports.Notifier
	resolver   *KeywordResolver
	opts       Options
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts Options) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.NativeLanguage == "" {
		opts.NativeLanguage = DefaultNativeLanguage
	}
	if opts.TranslateConcurrency <= 0 {
		opts.TranslateConcurrency = 4
	}
	if opts.AnalysisMaxArticles <= 0 {
		opts.AnalysisMaxArticles = 50
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{
		sources:    deps.Sources,
		keywords:   deps.Keywords,
		history:    deps.History,
		decisions:  deps.Decisions,
		fetcher:    deps.Fetcher,
		search:     deps.Search,
		translator: deps.Translator,
		analyzer:   deps.Analyzer,
		notifiers:  deps.Notifiers,
		resolver:   NewKeywordResolver(deps.Translator, opts.NativeLanguage, logger),
		opts:       opts,
		logger:     logger,
	}
}

// Run executes one discovery run stamped with now. Results are written only
// when every fetch stage finished before ctx was done.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (RunSummary, error) {
	at := now.In(p.opts.Location).Truncate(time.Minute)
	summary := RunSummary{At: at}

	var history []domain.HistoryRecord
	if p.history != nil {
		var err error
		history, err = p.history.LoadHistory(ctx)
		if err != nil {
			return summary, fmt.Errorf("load history: %w", err)
		}
	}

	sources, err := p.loadSources(ctx)
	if err != nil {
		return summary, err
	}
	summary.Sources = len(sources)

	if len(sources) == 0 && len(history) == 0 {
		return summary, ErrNothingToReport
	}

	pairs, err := p.loadKeywords(ctx)
	if err != nil {
		return summary, err
	}
	summary.Keywords = len(pairs)

	var fetched []domain.Article
	if p.fetcher != nil && len(sources) > 0 {
		fetched, summary.Statuses = p.fetcher.FetchAll(ctx, sources, pairs, at)
	}
	summary.Fetched = len(fetched)

	var searched []domain.Article
	if p.search != nil && len(pairs) > 0 && ctx.Err() == nil {
		searched = p.search.Search(ctx, pairs, at)
	}
	summary.Searched = len(searched)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run aborted: %w", err)
	}

	if p.sources != nil && len(summary.Statuses) > 0 {
		if err := p.sources.SaveStatuses(ctx, summary.Statuses); err != nil {
			p.logger.Warn("save source statuses", "error", err)
		}
	}

	batch := append(fetched, searched...)
	if p.opts.TranslateTitles {
		p.translateTitles(ctx, batch)
	}

	merged, seen := merge.Merge(batch, history)
	groups := rank.New(sources).Rank(merged, seen)
	windowed, _ := report.Report(groups, p.opts.WindowSize)
	summary.Merged = len(merged)
	summary.Groups = windowed

	summary.Analyzed = p.analyze(ctx, groups, batch, at)

	rows := report.Rows(windowed)
	if p.history != nil {
		if err := p.history.ReplaceResults(ctx, rows); err != nil {
			return summary, fmt.Errorf("write results: %w", err)
		}
	}
	summary.Rows = len(rows)

	summary.Fresh = report.FreshKeywords(windowed)
	summary.Message = report.Message(p.opts.MessagePrefix, windowed)
	if summary.Message != "" {
		p.notify(ctx, summary.Message)
	}

	p.logger.Info("run finished",
		"at", at.Format("2006-01-02 15:04"),
		"sources", summary.Sources,
		"keywords", summary.Keywords,
		"fetched", summary.Fetched,
		"searched", summary.Searched,
		"rows", summary.Rows,
		"fresh", strings.Join(summary.Fresh, ", "),
	)
	return summary, nil
}

func (p *Pipeline) loadKeywords(ctx context.Context) ([]domain.KeywordPair, error) {
	if p.keywords == nil {
		return nil, nil
	}

	rows, err := p.keywords.ListKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}

	pairs, changed := p.resolver.Resolve(ctx, rows)
	if len(changed) > 0 {
		if err := p.keywords.SaveKeywords(ctx, changed); err != nil {
			p.logger.Warn("save resolved keywords", "rows", len(changed), "error", err)
		}
	}
	return pairs, nil
}

func (p *Pipeline) loadSources(ctx context.Context) ([]domain.Source, error) {
	if p.sources == nil {
		return nil, nil
	}

	all, err := p.sources.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	sources := all[:0:0]
	for _, src := range all {
		if strings.HasPrefix(strings.TrimSpace(src.URL), "http") {
			src.URL = strings.TrimSpace(src.URL)
			sources = append(sources, src)
		}
	}
	return sources, nil
}

func (p *Pipeline) translateTitles(ctx context.Context, batch []domain.Article) {
	if p.translator == nil {
		return
	}

	var g errgroup.Group
	g.SetLimit(p.opts.TranslateConcurrency)
	for i := range batch {
		if !isForeign(batch[i].Title) {
			continue
		}
		g.Go(func() error {
			title, err := p.translator.Translate(ctx, batch[i].Title, "en", p.opts.NativeLanguage)
			if err != nil {
				p.logger.Debug("translate title", "title", batch[i].Title, "error", err)
				return nil
			}
			if title = strings.TrimSpace(title); title != "" {
				batch[i].Title = title
			}
			return nil
		})
	}
	_ = g.Wait()
}

// analyze refreshes decisions for keywords that received articles this run or
// have none stored yet. It returns the number of decisions saved.
func (p *Pipeline) analyze(ctx context.Context, groups []domain.KeywordGroup, batch []domain.Article, at time.Time) int {
	if p.analyzer == nil || len(groups) == 0 {
		return 0
	}

	existing := map[string]domain.Decision{}
	if p.decisions != nil {
		stored, err := p.decisions.ListDecisions(ctx)
		if err != nil {
			p.logger.Warn("load decisions", "error", err)
		} else if stored != nil {
			existing = stored
		}
	}

	updated := make(map[string]bool, len(batch))
	for _, article := range batch {
		updated[article.Keyword] = true
	}

	calls, saved := 0, 0
	for _, group := range groups {
		if _, ok := existing[group.Keyword]; ok && !updated[group.Keyword] {
			continue
		}
		if calls > 0 && !sleep(ctx, p.opts.AnalysisDelay) {
			break
		}
		calls++

		articles := make([]domain.Article, 0, len(group.Articles))
		for _, item := range group.Articles {
			articles = append(articles, item.Article)
		}
		sample := articles
		if len(sample) > p.opts.AnalysisMaxArticles {
			sample = sample[:p.opts.AnalysisMaxArticles]
		}

		decision, err := p.analyzer.Analyze(ctx, group.Keyword, len(articles), sample)
		if err != nil {
			p.logger.Warn("analyze keyword", "keyword", group.Keyword, "error", err)
			continue
		}
		decision.Keyword = group.Keyword
		decision.At = at
		decision.ArticleCount = len(articles)

		if p.decisions != nil {
			if err := p.decisions.SaveDecision(ctx, decision); err != nil {
				p.logger.Warn("save decision", "keyword", group.Keyword, "error", err)
				continue
			}
		}
		saved++
	}
	return saved
}

func (p *Pipeline) notify(ctx context.Context, message string) {
	for _, n := range p.notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, message); err != nil {
			p.logger.Warn("send notification", "error", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
