package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"NewsRadar/internal/config"
	"NewsRadar/internal/fetcher"
	"NewsRadar/internal/infrastructure/googlenews"
	"NewsRadar/internal/infrastructure/llm"
	"NewsRadar/internal/infrastructure/notify"
	"NewsRadar/internal/infrastructure/parser"
	"NewsRadar/internal/infrastructure/scheduler"
	"NewsRadar/internal/infrastructure/storage"
	"NewsRadar/internal/infrastructure/telegram"
	"NewsRadar/internal/infrastructure/translate"
	"NewsRadar/internal/logging"
	"NewsRadar/internal/ports"
	"NewsRadar/internal/scanner"
	"NewsRadar/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	closers   []func() error
	logger    *slog.Logger
}

type stores struct {
	sources   ports.SourceStore
	keywords  ports.KeywordStore
	history   ports.HistoryStore
	decisions ports.DecisionStore
}

// New builds the application: storage, fetch adapters, optional translator,
// analyzer and notifiers, then the pipeline and its scheduler.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	feed := parser.NewFeedScanner()
	registry := scanner.NewRegistry(feed, parser.NewHTMLScanner(cfg.Fetcher.MinLinkText))
	body := parser.NewBodyFetcher(httpClient, cfg.Fetcher.BodyTimeout, cfg.Fetcher.UserAgent)

	pool := fetcher.New(httpClient, registry, body, fetcher.Config{
		MaxConcurrency: cfg.Fetcher.MaxConcurrency,
		RequestTimeout: cfg.Fetcher.RequestTimeout,
		MaxEntries:     cfg.Fetcher.MaxEntries,
		MaxLinks:       cfg.Fetcher.MaxLinks,
		UserAgent:      cfg.Fetcher.UserAgent,
		Aliases:        cfg.Fetcher.Aliases,
	}, baseLogger.With("component", "fetcher"))

	var search ports.AggregatorSearch
	if !cfg.Aggregator.Disabled {
		search = googlenews.NewClient(httpClient, feed, googlenews.Config{
			BaseURL:    cfg.Aggregator.BaseURL,
			MaxEntries: cfg.Aggregator.MaxEntries,
			Timeout:    cfg.Aggregator.Timeout,
			UserAgent:  cfg.Fetcher.UserAgent,
		}, baseLogger.With("component", "aggregator"))
	}

	var translator ports.Translator
	if cfg.Translator.Endpoint != "" {
		translator = translate.NewClient(cfg.Translator.Endpoint, cfg.Translator.APIKey, cfg.Translator.Timeout)
	}

	analyzer, err := a.newAnalyzer(ctx)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:    st.sources,
		Keywords:   st.keywords,
		History:    st.history,
		Decisions:  st.decisions,
		Fetcher:    pool,
		Search:     search,
		Translator: translator,
		Analyzer:   analyzer,
		Notifiers:  a.notifiers(),
		Logger:     baseLogger.With("component", "pipeline"),
	}, usecase.Options{
		WindowSize:          cfg.Report.WindowSize,
		MessagePrefix:       cfg.Report.MessagePrefix,
		NativeLanguage:      cfg.Translator.NativeLanguage,
		Location:            cfg.Scheduler.Location(),
		TranslateTitles:     cfg.Translator.TranslateTitles && translator != nil,
		AnalysisMaxArticles: cfg.Analysis.MaxArticles,
		AnalysisDelay:       cfg.Analysis.Delay,
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), cfg.Scheduler.RunOnStart)
	a.pipeline = pipeline
	a.scheduler = usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler"))
	return a, nil
}

func (a *Application) openStores(ctx context.Context) (stores, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Info("no database configured, using in-memory store", "sources", len(a.cfg.Sources), "keywords", len(a.cfg.Keywords))
		mem := storage.NewMemoryStore(a.cfg.Sources, a.cfg.SeedKeywords())
		return stores{sources: mem, keywords: mem, history: mem, decisions: mem}, nil
	}

	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return stores{}, err
	}
	a.closers = append(a.closers, db.Close)

	repo := storage.NewPostgresRepository(db)
	if a.cfg.Database.EnsureSchema {
		if err := repo.EnsureSchema(ctx); err != nil {
			a.closeAll()
			return stores{}, err
		}
	}
	return stores{sources: repo, keywords: repo, history: repo, decisions: repo}, nil
}

func (a *Application) newAnalyzer(ctx context.Context) (ports.Analyzer, error) {
	cfg := a.cfg.Analysis
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", config.ProviderNone:
		return nil, nil
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			a.logger.Warn("gemini analysis requested without api key, analysis disabled")
			return nil, nil
		}
		gemini, err := llm.NewGeminiAnalyzer(ctx, cfg.Gemini, cfg.Language)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gemini.Close)
		return gemini, nil
	case config.ProviderChatGPT:
		if cfg.ChatGPT.APIKey == "" {
			a.logger.Warn("chatgpt analysis requested without api key, analysis disabled")
			return nil, nil
		}
		return llm.NewChatGPTAnalyzer(cfg.ChatGPT, cfg.Language), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Provider)
	}
}

func (a *Application) notifiers() []ports.Notifier {
	var out []ports.Notifier
	n := a.cfg.Notifications
	if n.Ntfy.Topic != "" {
		out = append(out, notify.NewNtfy(n.Ntfy.Server, n.Ntfy.Topic, notify.Options{
			Title:    n.Ntfy.Title,
			Click:    n.Ntfy.Click,
			Tags:     n.Ntfy.Tags,
			Priority: n.Ntfy.Priority,
		}))
	}
	if n.Telegram.BotToken != "" && n.Telegram.ChatID != "" {
		out = append(out, telegram.NewNotifier(n.Telegram.APIBase, n.Telegram.BotToken, n.Telegram.ChatID))
	}
	return out
}

// Run performs a single pipeline execution stamped with the current time.
func (a *Application) Run(ctx context.Context) (usecase.RunSummary, error) {
	return a.pipeline.Run(ctx, time.Now())
}

// Schedule runs the pipeline on the configured cron expression until ctx is done.
func (a *Application) Schedule(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
	)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("scheduler stopped")
	return nil
}

// Close releases database connections and API clients.
func (a *Application) Close() error {
	return a.closeAll()
}

func (a *Application) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
