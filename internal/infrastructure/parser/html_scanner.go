package parser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"NewsRadar/internal/scanner"
)

// HTMLScanner extracts anchor links from a plain web page.
type HTMLScanner struct {
	minText int
}

var _ scanner.Scanner = (*HTMLScanner)(nil)

// NewHTMLScanner builds an anchor strategy; anchors whose visible text is
// shorter than minText runes are skipped.
func NewHTMLScanner(minText int) *HTMLScanner {
	return &HTMLScanner{minText: minText}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return scanner.NameHTML
}

// Scan looks at the first req.Limit anchors with an href and returns those with
// enough visible text, links resolved against req.BaseURL.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]scanner.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var candidates []scanner.Candidate
	doc.Find("a[href]").EachWithBreak(func(i int, a *goquery.Selection) bool {
		if req.Limit > 0 && i >= req.Limit {
			return false
		}

		text := visibleText(a)
		if utf8.RuneCountInString(text) < h.minText {
			return true
		}

		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}

		candidates = append(candidates, scanner.Candidate{
			Title: text,
			Link:  resolve(req.BaseURL, href),
		})
		return true
	})

	return candidates, nil
}

func visibleText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func resolve(base, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == "" {
		return ref.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref.String()
	}
	return baseURL.ResolveReference(ref).String()
}
