// Package googlenews queries the Google News RSS search endpoint per keyword and region.
package googlenews

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsRadar/internal/canon"
	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
	"NewsRadar/internal/scanner"
)

const (
	DefaultBaseURL    = "https://news.google.com"
	defaultMaxEntries = 10
	maxFeedBytes      = 4 << 20
)

// Region is one search edition. Native regions query the native keyword term,
// the others query the English term.
type Region struct {
	Name     string
	Language string
	Country  string
	Edition  string
	Native   bool
	Origin   domain.OriginClass
}

// DefaultRegions returns the global English edition and the local Hebrew edition.
func DefaultRegions() []Region {
	return []Region{
		{Name: "Global", Language: "en", Country: "US", Edition: "US:en", Origin: domain.OriginBroad},
		{Name: "Local", Language: "he", Country: "IL", Edition: "IL:he", Native: true, Origin: domain.OriginNarrow},
	}
}

// Config controls the search endpoint and result bounds.
type Config struct {
	BaseURL    string
	Regions    []Region
	MaxEntries int
	Timeout    time.Duration
	UserAgent  string
}

// Client runs keyword searches one query at a time.
type Client struct {
	http   *http.Client
	feed   scanner.Scanner
	cfg    Config
	logger *slog.Logger
}

var _ ports.AggregatorSearch = (*Client)(nil)

// NewClient wires an HTTP client and the feed strategy used to read search results.
func NewClient(httpClient *http.Client, feed scanner.Scanner, cfg Config, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Regions == nil {
		cfg.Regions = DefaultRegions()
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{http: httpClient, feed: feed, cfg: cfg, logger: logger}
}

// Search queries every region for every keyword pair. Failed queries are logged
// and skipped; the search stops early when ctx is done.
func (c *Client) Search(ctx context.Context, pairs []domain.KeywordPair, at time.Time) []domain.Article {
	var articles []domain.Article
	for _, region := range c.cfg.Regions {
		for _, pair := range pairs {
			if ctx.Err() != nil {
				return articles
			}

			term := pair.English
			if region.Native {
				term = pair.Native
			}
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}

			found, err := c.query(ctx, region, term)
			if err != nil {
				c.warn("search failed", "region", region.Name, "term", term, "error", err)
				continue
			}

			for _, cand := range found {
				title, site := splitTitle(cand.Title)
				if site == "" {
					site = canon.SiteName(cand.Link)
				}
				articles = append(articles, domain.Article{
					Title:        title,
					URL:          cand.Link,
					Site:         site,
					Keyword:      pair.Label(),
					DiscoveredAt: at,
					Origin:       region.Origin,
				})
			}
		}
	}
	return articles
}

func (c *Client) query(ctx context.Context, region Region, term string) ([]scanner.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := SearchURL(c.cfg.BaseURL, region, term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read search results: %w", err)
	}

	return c.feed.Scan(ctx, scanner.Request{BaseURL: endpoint, Body: body, Limit: c.cfg.MaxEntries})
}

// SearchURL builds the RSS search endpoint for a term in a region.
func SearchURL(base string, region Region, term string) string {
	q := url.Values{}
	q.Set("q", term)
	q.Set("hl", region.Language)
	q.Set("gl", region.Country)
	q.Set("ceid", region.Edition)
	return strings.TrimSuffix(base, "/") + "/rss/search?" + q.Encode()
}

// splitTitle separates "headline - Publisher" into its parts.
func splitTitle(raw string) (string, string) {
	i := strings.LastIndex(raw, " - ")
	if i < 0 {
		return strings.TrimSpace(raw), ""
	}
	return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+3:])
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
