package scanner

import (
	"context"
	"fmt"
)

// Names of the built-in extraction strategies.
const (
	NameFeed = "feed"
	NameHTML = "html"
)

// Request carries a fetched response body to an extraction strategy.
type Request struct {
	// BaseURL resolves relative links found in Body.
	BaseURL string
	Body    []byte
	// Limit bounds the number of candidates returned; zero means no limit.
	Limit int
}

// Candidate is a titled link extracted from a source page or feed.
type Candidate struct {
	Title string
	Link  string
}

// Scanner captures a single extraction strategy (feed, HTML anchors, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]Candidate, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry holding the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
