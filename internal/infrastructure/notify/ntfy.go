package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsRadar/internal/ports"
)

const (
	defaultServer = "https://ntfy.sh"
	defaultTitle  = "NewsRadar"
)

// Ntfy publishes messages to an ntfy topic.
type Ntfy struct {
	server   string
	topic    string
	title    string
	click    string
	tags     string
	priority string
	client   *http.Client
}

var _ ports.Notifier = (*Ntfy)(nil)

// Options configures the optional ntfy headers.
type Options struct {
	Title    string
	Click    string
	Tags     string
	Priority string
}

// NewNtfy creates a notifier for server/topic.
func NewNtfy(server, topic string, opts Options) *Ntfy {
	if server == "" {
		server = defaultServer
	}
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	if opts.Tags == "" {
		opts.Tags = "newspaper"
	}
	if opts.Priority == "" {
		opts.Priority = "3"
	}
	return &Ntfy{
		server:   strings.TrimRight(server, "/"),
		topic:    topic,
		title:    opts.Title,
		click:    opts.Click,
		tags:     opts.Tags,
		priority: opts.Priority,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts message as the plain-text body.
func (n *Ntfy) Notify(ctx context.Context, message string) error {
	if n.topic == "" {
		return fmt.Errorf("ntfy notifier misconfigured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.server+"/"+n.topic, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", encodeHeader(n.title))
	req.Header.Set("Tags", n.tags)
	req.Header.Set("Priority", n.priority)
	if n.click != "" {
		req.Header.Set("Click", n.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy error: %s", resp.Status)
	}

	return nil
}

// encodeHeader wraps non-ASCII values in RFC 2047 form.
func encodeHeader(value string) string {
	for _, r := range value {
		if r > 127 {
			return "=?utf-8?b?" + base64.StdEncoding.EncodeToString([]byte(value)) + "?="
		}
	}
	return value
}
