package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"NewsRadar/internal/scanner"
)

// FeedScanner extracts entries from RSS and Atom documents.
type FeedScanner struct{}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner builds a feed strategy.
func NewFeedScanner() *FeedScanner {
	return &FeedScanner{}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return scanner.NameFeed
}

// Scan parses the body as a feed and returns its first req.Limit entries that carry a link.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]scanner.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := feed.Items
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
	}

	candidates := make([]scanner.Candidate, 0, len(items))
	for _, item := range items {
		link := itemLink(item)
		if link == "" {
			continue
		}
		candidates = append(candidates, scanner.Candidate{
			Title: strings.TrimSpace(item.Title),
			Link:  resolve(req.BaseURL, link),
		})
	}
	return candidates, nil
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return strings.TrimSpace(item.Link)
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}
