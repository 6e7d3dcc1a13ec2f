package storage

import (
	"context"
	"sync"

	"NewsRadar/internal/canon"
	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

// MemoryStore keeps all state in process. It backs runs without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	sources   []domain.Source
	keywords  []domain.KeywordRow
	results   []domain.ResultRow
	decisions map[string]domain.Decision
}

var (
	_ ports.SourceStore   = (*MemoryStore)(nil)
	_ ports.KeywordStore  = (*MemoryStore)(nil)
	_ ports.HistoryStore  = (*MemoryStore)(nil)
	_ ports.DecisionStore = (*MemoryStore)(nil)
)

// NewMemoryStore seeds the store with source URLs and raw keyword rows; row
// positions start at 1 in the given order.
func NewMemoryStore(sourceURLs []string, keywords [][2]string) *MemoryStore {
	m := &MemoryStore{decisions: map[string]domain.Decision{}}
	for i, u := range sourceURLs {
		m.sources = append(m.sources, domain.Source{ID: i + 1, URL: u})
	}
	for i, kw := range keywords {
		m.keywords = append(m.keywords, domain.KeywordRow{Row: i + 1, A: kw[0], B: kw[1]})
	}
	return m
}

func (m *MemoryStore) ListSources(context.Context) ([]domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Source(nil), m.sources...), nil
}

func (m *MemoryStore) SaveStatuses(_ context.Context, statuses map[int]domain.SourceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sources {
		if st, ok := statuses[m.sources[i].ID]; ok {
			m.sources[i].LastStatus = st.String()
		}
	}
	return nil
}

func (m *MemoryStore) ListKeywords(context.Context) ([]domain.KeywordRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.KeywordRow(nil), m.keywords...), nil
}

func (m *MemoryStore) SaveKeywords(_ context.Context, rows []domain.KeywordRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		for i := range m.keywords {
			if m.keywords[i].Row == row.Row {
				m.keywords[i] = row
			}
		}
	}
	return nil
}

func (m *MemoryStore) LoadHistory(context.Context) ([]domain.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make([]domain.HistoryRecord, 0, len(m.results))
	for _, row := range m.results {
		if row.Date.IsZero() || row.URL == "" || row.Keyword == "" {
			continue
		}
		history = append(history, domain.HistoryRecord{
			Key:          canon.Canonicalize(row.URL),
			URL:          row.URL,
			DiscoveredAt: row.Date,
			Keyword:      row.Keyword,
			Title:        row.Title,
			Site:         row.Site,
		})
	}
	return history, nil
}

func (m *MemoryStore) ReplaceResults(_ context.Context, rows []domain.ResultRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append([]domain.ResultRow(nil), rows...)
	return nil
}

// Results returns a copy of the last written rows.
func (m *MemoryStore) Results() []domain.ResultRow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.ResultRow(nil), m.results...)
}

func (m *MemoryStore) ListDecisions(context.Context) (map[string]domain.Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.Decision, len(m.decisions))
	for k, v := range m.decisions {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) SaveDecision(_ context.Context, d domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[d.Keyword] = d
	return nil
}
