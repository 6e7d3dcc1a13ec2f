package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"NewsRadar/internal/scanner"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Markets</title>
    <item><title>Teva shares rally</title><link>https://www.example.com/a/</link></item>
    <item><title>Weather update</title><link>/relative/b</link></item>
    <item><title>No link here</title></item>
    <item><title>Third</title><guid>https://www.example.com/c</guid></item>
  </channel>
</rss>`

func TestFeedScannerScan(t *testing.T) {
	t.Parallel()

	sc := NewFeedScanner()
	if sc.Name() != scanner.NameFeed {
		t.Fatalf("unexpected name: %s", sc.Name())
	}

	got, err := sc.Scan(context.Background(), scanner.Request{
		BaseURL: "https://www.example.com/rss.xml",
		Body:    []byte(sampleFeed),
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].Title != "Teva shares rally" || got[0].Link != "https://www.example.com/a/" {
		t.Fatalf("unexpected first candidate: %+v", got[0])
	}
	if got[1].Link != "https://www.example.com/relative/b" {
		t.Fatalf("relative link not resolved: %s", got[1].Link)
	}
	if got[2].Link != "https://www.example.com/c" {
		t.Fatalf("guid link not used: %s", got[2].Link)
	}
}

func TestFeedScannerLimit(t *testing.T) {
	t.Parallel()

	got, err := NewFeedScanner().Scan(context.Background(), scanner.Request{Body: []byte(sampleFeed), Limit: 1})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
}

func TestFeedScannerRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := NewFeedScanner().Scan(context.Background(), scanner.Request{Body: []byte("not a feed")}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestHTMLScannerScan(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	  <a href="/news/1">Elbit wins a big contract</a>
	  <a href="/x">Hi</a>
	  <a>no href at all</a>
	  <a href="https://other.com/2">  Bank   of Israel
	     holds rates </a>
	  <a href="/news/3">Beyond the limit link</a>
	</body></html>`

	sc := NewHTMLScanner(5)
	if sc.Name() != scanner.NameHTML {
		t.Fatalf("unexpected name: %s", sc.Name())
	}

	got, err := sc.Scan(context.Background(), scanner.Request{
		BaseURL: "https://www.site.co.il/section/",
		Body:    []byte(page),
		Limit:   3,
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Link != "https://www.site.co.il/news/1" || got[0].Title != "Elbit wins a big contract" {
		t.Fatalf("unexpected first candidate: %+v", got[0])
	}
	if got[1].Title != "Bank of Israel holds rates" {
		t.Fatalf("text not normalized: %q", got[1].Title)
	}
}

func TestHTMLScannerCountsRunes(t *testing.T) {
	t.Parallel()

	got, err := NewHTMLScanner(5).Scan(context.Background(), scanner.Request{
		Body: []byte(`<a href="/a">טבע</a><a href="/b">מניית טבע</a>`),
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "מניית טבע" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}

func TestBodyFetcherFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Header.Get("User-Agent") != "test-agent" {
				t.Errorf("unexpected user agent: %s", r.Header.Get("User-Agent"))
			}
			_, _ = w.Write([]byte(`<html><head><script>var teva = 1;</script><style>.x{}</style></head>
			<body><p>Shares of   Elbit</p><p>rose</p></body></html>`))
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	bf := NewBodyFetcher(server.Client(), 100*time.Millisecond, "test-agent")

	text, err := bf.Fetch(context.Background(), server.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if strings.Contains(text, "teva") {
		t.Fatalf("script content leaked into text: %q", text)
	}
	if text != "Shares of Elbit rose" {
		t.Fatalf("unexpected text: %q", text)
	}

	if _, err := bf.Fetch(context.Background(), server.URL+"/missing"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if _, err := bf.Fetch(context.Background(), server.URL+"/slow"); err == nil {
		t.Fatalf("expected timeout error")
	}
}
