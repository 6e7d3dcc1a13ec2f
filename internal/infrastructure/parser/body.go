package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const maxBodyBytes = 4 << 20

// ErrUnavailable is returned when an article page does not answer 200 OK.
var ErrUnavailable = errors.New("article body unavailable")

// BodyFetcher downloads an article page and returns its visible text.
type BodyFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewBodyFetcher wires an HTTP client; every fetch is bounded by timeout.
func NewBodyFetcher(client *http.Client, timeout time.Duration, userAgent string) *BodyFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BodyFetcher{client: client, timeout: timeout, userAgent: userAgent}
}

// Fetch returns the visible text of the page at link, without script and style content.
func (b *BodyFetcher) Fetch(ctx context.Context, link string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request body: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parse body: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	for _, n := range doc.Nodes {
		collectText(n, &sb)
	}
	return strings.Join(strings.Fields(sb.String()), " "), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
