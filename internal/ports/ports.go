package ports

import (
	"context"
	"time"

	"NewsRadar/internal/domain"
)

// SourceStore lists the designated sources and records their last status.
type SourceStore interface {
	ListSources(ctx context.Context) ([]domain.Source, error)
	SaveStatuses(ctx context.Context, statuses map[int]domain.SourceStatus) error
}

// KeywordStore holds the raw keyword rows and accepts resolved pairs back.
type KeywordStore interface {
	ListKeywords(ctx context.Context) ([]domain.KeywordRow, error)
	SaveKeywords(ctx context.Context, rows []domain.KeywordRow) error
}

// HistoryStore loads previously reported articles and replaces them with a run's output.
type HistoryStore interface {
	LoadHistory(ctx context.Context) ([]domain.HistoryRecord, error)
	ReplaceResults(ctx context.Context, rows []domain.ResultRow) error
}

// DecisionStore keeps the latest recommendation per keyword.
type DecisionStore interface {
	ListDecisions(ctx context.Context) (map[string]domain.Decision, error)
	SaveDecision(ctx context.Context, decision domain.Decision) error
}

// Translator converts text between languages (ISO codes, "auto" allowed as source).
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Analyzer asks an LLM for a recommendation about a keyword's coverage.
// total is the number of articles found; sample holds the ones shown.
type Analyzer interface {
	Analyze(ctx context.Context, keyword string, total int, sample []domain.Article) (domain.Decision, error)
}

// Notifier delivers a short announcement to a channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// SourceFetcher scans designated sources and returns one status per source ID.
type SourceFetcher interface {
	FetchAll(ctx context.Context, sources []domain.Source, pairs []domain.KeywordPair, at time.Time) ([]domain.Article, map[int]domain.SourceStatus)
}

// AggregatorSearch runs keyword searches against a news aggregator.
type AggregatorSearch interface {
	Search(ctx context.Context, pairs []domain.KeywordPair, at time.Time) []domain.Article
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
