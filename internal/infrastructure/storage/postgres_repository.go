package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsRadar/internal/canon"
	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

const insertBatchSize = 500

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository keeps sources, keywords, reported results and decisions in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var (
	_ ports.SourceStore   = (*PostgresRepository)(nil)
	_ ports.KeywordStore  = (*PostgresRepository)(nil)
	_ ports.HistoryStore  = (*PostgresRepository)(nil)
	_ ports.DecisionStore = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		row_id INTEGER PRIMARY KEY,
		url TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS keywords (
		row_id INTEGER PRIMARY KEY,
		native TEXT NOT NULL DEFAULT '',
		english TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		position INTEGER NOT NULL,
		discovered_at TIMESTAMPTZ,
		keyword TEXT,
		article_url TEXT,
		site TEXT,
		title TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS decisions (
		keyword TEXT PRIMARY KEY,
		decided_at TIMESTAMPTZ NOT NULL,
		recommendation TEXT NOT NULL,
		explanation TEXT NOT NULL,
		article_count INTEGER NOT NULL
	)`,
}

// EnsureSchema creates the tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ListSources returns the source rows ordered by row position.
func (r *PostgresRepository) ListSources(ctx context.Context) ([]domain.Source, error) {
	query, args, err := psql.Select("row_id", "url", "status").From("sources").OrderBy("row_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sources query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var src domain.Source
		if err := rows.Scan(&src.ID, &src.URL, &src.LastStatus); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return sources, nil
}

// SaveStatuses writes each source's rendered status in one transaction.
func (r *PostgresRepository) SaveStatuses(ctx context.Context, statuses map[int]domain.SourceStatus) error {
	ids := make([]int, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			query, args, err := psql.Update("sources").
				Set("status", statuses[id].String()).
				Where(sq.Eq{"row_id": id}).
				ToSql()
			if err != nil {
				return fmt.Errorf("build status update: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update status of source %d: %w", id, err)
			}
		}
		return nil
	})
}

// ListKeywords returns the raw keyword rows ordered by row position.
func (r *PostgresRepository) ListKeywords(ctx context.Context) ([]domain.KeywordRow, error) {
	query, args, err := psql.Select("row_id", "native", "english").From("keywords").OrderBy("row_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keywords query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()

	var keywords []domain.KeywordRow
	for rows.Next() {
		var row domain.KeywordRow
		if err := rows.Scan(&row.Row, &row.A, &row.B); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		keywords = append(keywords, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return keywords, nil
}

// SaveKeywords stores the resolved native and English terms of the given rows.
func (r *PostgresRepository) SaveKeywords(ctx context.Context, keywords []domain.KeywordRow) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, row := range keywords {
			query, args, err := psql.Update("keywords").
				SetMap(map[string]any{"native": row.A, "english": row.B}).
				Where(sq.Eq{"row_id": row.Row}).
				ToSql()
			if err != nil {
				return fmt.Errorf("build keyword update: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update keyword row %d: %w", row.Row, err)
			}
		}
		return nil
	})
}

// LoadHistory returns the previously reported rows. Rows without a date, URL
// or keyword are dropped.
func (r *PostgresRepository) LoadHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	query, args, err := psql.Select("discovered_at", "keyword", "article_url", "site", "title").
		From("results").
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []domain.HistoryRecord
	for rows.Next() {
		var (
			at                               sql.NullTime
			keyword, articleURL, site, title sql.NullString
		)
		if err := rows.Scan(&at, &keyword, &articleURL, &site, &title); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}

		link := strings.TrimSpace(articleURL.String)
		kw := strings.TrimSpace(keyword.String)
		if !at.Valid || link == "" || kw == "" {
			continue
		}

		history = append(history, domain.HistoryRecord{
			Key:          canon.Canonicalize(link),
			URL:          link,
			DiscoveredAt: at.Time,
			Keyword:      kw,
			Title:        title.String,
			Site:         site.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return history, nil
}

// ReplaceResults swaps the stored results for rows atomically.
func (r *PostgresRepository) ReplaceResults(ctx context.Context, rows []domain.ResultRow) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		query, args, err := psql.Delete("results").ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear results: %w", err)
		}

		for start := 0; start < len(rows); start += insertBatchSize {
			end := min(start+insertBatchSize, len(rows))

			insert := psql.Insert("results").
				Columns("position", "discovered_at", "keyword", "article_url", "site", "title")
			for i, row := range rows[start:end] {
				insert = insert.Values(start+i+1, row.Date, row.Keyword, row.URL, row.Site, row.Title)
			}

			query, args, err := insert.ToSql()
			if err != nil {
				return fmt.Errorf("build insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert results: %w", err)
			}
		}
		return nil
	})
}

// ListDecisions returns the stored decision per keyword.
func (r *PostgresRepository) ListDecisions(ctx context.Context) (map[string]domain.Decision, error) {
	query, args, err := psql.Select("keyword", "decided_at", "recommendation", "explanation", "article_count").
		From("decisions").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build decisions query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	decisions := map[string]domain.Decision{}
	for rows.Next() {
		var d domain.Decision
		if err := rows.Scan(&d.Keyword, &d.At, &d.Recommendation, &d.Explanation, &d.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions[d.Keyword] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return decisions, nil
}

// SaveDecision upserts the decision for its keyword.
func (r *PostgresRepository) SaveDecision(ctx context.Context, d domain.Decision) error {
	query, args, err := psql.Insert("decisions").
		Columns("keyword", "decided_at", "recommendation", "explanation", "article_count").
		Values(d.Keyword, d.At, d.Recommendation, d.Explanation, d.ArticleCount).
		Suffix(`ON CONFLICT (keyword) DO UPDATE
			SET decided_at = EXCLUDED.decided_at,
			    recommendation = EXCLUDED.recommendation,
			    explanation = EXCLUDED.explanation,
			    article_count = EXCLUDED.article_count`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build decision upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert decision: %w", err)
	}
	return nil
}

func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
