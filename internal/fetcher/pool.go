// Package fetcher scans designated sources concurrently and reports one status per source.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsRadar/internal/canon"
	"NewsRadar/internal/domain"
	"NewsRadar/internal/matcher"
	"NewsRadar/internal/ports"
	"NewsRadar/internal/scanner"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

	maxResponseBytes = 8 << 20
)

// BodyReader returns the visible text of an article page.
type BodyReader interface {
	Fetch(ctx context.Context, link string) (string, error)
}

// Config bounds the work done per run and per source.
type Config struct {
	MaxConcurrency int
	RequestTimeout time.Duration
	MaxEntries     int
	MaxLinks       int
	UserAgent      string
	// Aliases maps a site domain to the feed fetched in its place.
	Aliases map[string]string
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 10
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 30
	}
	if c.MaxLinks <= 0 {
		c.MaxLinks = 30
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Aliases == nil {
		c.Aliases = DefaultAliases
	}
	return c
}

// Pool runs one isolated task per source with bounded concurrency.
type Pool struct {
	client   *http.Client
	registry *scanner.Registry
	body     BodyReader
	cfg      Config
	logger   *slog.Logger
}

var _ ports.SourceFetcher = (*Pool)(nil)

// New wires the pool. body may be nil, in which case unmatched titles are not
// checked against the article page.
func New(client *http.Client, registry *scanner.Registry, body BodyReader, cfg Config, logger *slog.Logger) *Pool {
	if client == nil {
		client = &http.Client{}
	}
	return &Pool{
		client:   client,
		registry: registry,
		body:     body,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

type sourceResult struct {
	articles []domain.Article
	status   domain.SourceStatus
}

// FetchAll scans every source and returns the matched articles in source order
// along with exactly one status per source ID. A failing source never affects
// the others.
func (p *Pool) FetchAll(ctx context.Context, sources []domain.Source, pairs []domain.KeywordPair, at time.Time) ([]domain.Article, map[int]domain.SourceStatus) {
	results := make([]sourceResult, len(sources))

	var g errgroup.Group
	g.SetLimit(p.cfg.MaxConcurrency)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = p.scanSource(ctx, src, pairs, at)
			return nil
		})
	}
	_ = g.Wait()

	var articles []domain.Article
	statuses := make(map[int]domain.SourceStatus, len(sources))
	for i, src := range sources {
		articles = append(articles, results[i].articles...)
		statuses[src.ID] = results[i].status
		p.debug("source scanned", "source", src.URL, "status", results[i].status.String())
	}
	return articles, statuses
}

func (p *Pool) scanSource(ctx context.Context, src domain.Source, pairs []domain.KeywordPair, at time.Time) (res sourceResult) {
	defer func() {
		if r := recover(); r != nil {
			res = sourceResult{status: domain.SourceStatus{
				Code:   domain.StatusTransportError,
				Detail: fmt.Sprintf("panic: %v", r),
			}}
		}
	}()

	target := ResolveTarget(src.URL, p.cfg.Aliases)
	body, contentType, err := p.get(ctx, target)
	if err != nil {
		var se statusError
		if errors.As(err, &se) {
			return sourceResult{status: se.status}
		}
		return sourceResult{status: classifyError(err)}
	}

	name, limit := scanner.NameHTML, p.cfg.MaxLinks
	if isFeed(contentType, target) {
		name, limit = scanner.NameFeed, p.cfg.MaxEntries
	}
	strategy, err := p.registry.Resolve(name)
	if err != nil {
		return sourceResult{status: domain.SourceStatus{Code: domain.StatusTransportError, Detail: err.Error()}}
	}

	candidates, err := strategy.Scan(ctx, scanner.Request{BaseURL: target, Body: body, Limit: limit})
	if err != nil {
		return sourceResult{status: domain.SourceStatus{Code: domain.StatusTransportError, Detail: err.Error()}}
	}

	site := canon.SiteName(src.URL)
	for _, c := range candidates {
		pair, ok := matcher.Match(c.Title, pairs)
		if !ok {
			pair, ok = p.matchBody(ctx, c.Link, pairs)
		}
		if !ok {
			continue
		}
		res.articles = append(res.articles, domain.Article{
			Title:        c.Title,
			URL:          c.Link,
			Site:         site,
			Keyword:      pair.Label(),
			DiscoveredAt: at,
			Origin:       domain.OriginDesignated,
		})
	}

	res.status = domain.SourceStatus{Code: domain.StatusOK, HTTPStatus: http.StatusOK, Matches: len(res.articles)}
	if len(res.articles) == 0 {
		res.status.Code = domain.StatusNoMatch
	}
	return res
}

type statusError struct {
	status domain.SourceStatus
}

func (e statusError) Error() string {
	return e.status.String()
}

func (p *Pool) get(ctx context.Context, target string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if st, failed := classifyResponse(resp.StatusCode); failed {
		return nil, "", statusError{status: st}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (p *Pool) matchBody(ctx context.Context, link string, pairs []domain.KeywordPair) (domain.KeywordPair, bool) {
	if p.body == nil || link == "" {
		return domain.KeywordPair{}, false
	}
	text, err := p.body.Fetch(ctx, link)
	if err != nil {
		p.debug("body fetch failed", "link", link, "error", err)
		return domain.KeywordPair{}, false
	}
	return matcher.Match(text, pairs)
}

func isFeed(contentType, target string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") {
		return strings.HasSuffix(strings.ToLower(target), "xml")
	}
	if strings.Contains(ct, "xml") || strings.Contains(ct, "rss") || strings.Contains(ct, "atom") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(target), "xml")
}

func (p *Pool) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
