package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRadar/internal/domain"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestListSources(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT row_id, url, status FROM sources ORDER BY row_id").
		WillReturnRows(sqlmock.NewRows([]string{"row_id", "url", "status"}).
			AddRow(2, "https://www.ynet.co.il", "OK (3)").
			AddRow(3, "https://www.globes.co.il", ""))

	sources, err := repo.ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Source{
		{ID: 2, URL: "https://www.ynet.co.il", LastStatus: "OK (3)"},
		{ID: 3, URL: "https://www.globes.co.il"},
	}, sources)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStatuses(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE sources SET status = \$1 WHERE row_id = \$2`).
		WithArgs("OK (2)", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sources SET status = \$1 WHERE row_id = \$2`).
		WithArgs("Blocked", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveStatuses(context.Background(), map[int]domain.SourceStatus{
		5: {Code: domain.StatusBlocked, HTTPStatus: 403},
		2: {Code: domain.StatusOK, Matches: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStatusesRollsBackOnError(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE sources").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.SaveStatuses(context.Background(), map[int]domain.SourceStatus{1: {Code: domain.StatusTimeout}})
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT row_id, native, english FROM keywords ORDER BY row_id").
		WillReturnRows(sqlmock.NewRows([]string{"row_id", "native", "english"}).
			AddRow(2, "Teva", ""))

	rows, err := repo.ListKeywords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.KeywordRow{{Row: 2, A: "Teva"}}, rows)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE keywords SET english = \$1, native = \$2 WHERE row_id = \$3`).
		WithArgs("Teva", "טבע", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveKeywords(context.Background(), []domain.KeywordRow{{Row: 2, A: "טבע", B: "Teva"}}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadHistoryDropsMalformedRows(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT discovered_at, keyword, article_url, site, title FROM results ORDER BY position").
		WillReturnRows(sqlmock.NewRows([]string{"discovered_at", "keyword", "article_url", "site", "title"}).
			AddRow(d1, "טבע", "https://www.ynet.co.il/a", "ynet.co.il", "old").
			AddRow(nil, "טבע", "https://www.ynet.co.il/b", "ynet.co.il", "no date").
			AddRow(d1, "טבע", "", "ynet.co.il", "no url").
			AddRow(d1, nil, "https://www.ynet.co.il/c", "ynet.co.il", "no keyword"))

	history, err := repo.LoadHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.CanonicalKey("ynet.co.il/a"), history[0].Key)
	assert.Equal(t, d1, history[0].DiscoveredAt)
	assert.Equal(t, "old", history[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceResults(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC)
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM results").WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(`INSERT INTO results \(position,discovered_at,keyword,article_url,site,title\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6\),\(\$7,\$8,\$9,\$10,\$11,\$12\)`).
		WithArgs(1, at, "טבע", "https://a", "a", "A", 2, at, "טבע", "https://b", "b", "B").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.ReplaceResults(context.Background(), []domain.ResultRow{
		{Date: at, Keyword: "טבע", URL: "https://a", Site: "a", Title: "A"},
		{Date: at, Keyword: "טבע", URL: "https://b", Site: "b", Title: "B"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceResultsEmptyOnlyClears(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM results").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceResults(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecisions(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC)
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT keyword, decided_at, recommendation, explanation, article_count FROM decisions").
		WillReturnRows(sqlmock.NewRows([]string{"keyword", "decided_at", "recommendation", "explanation", "article_count"}).
			AddRow("טבע", at, "Hold", "ניטרלי", 12))

	decisions, err := repo.ListDecisions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Decision{Keyword: "טבע", At: at, Recommendation: "Hold", Explanation: "ניטרלי", ArticleCount: 12}, decisions["טבע"])

	mock.ExpectExec(`INSERT INTO decisions .* ON CONFLICT \(keyword\) DO UPDATE`).
		WithArgs("טבע", at, "Buy", "חיובי", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveDecision(context.Background(), domain.Decision{
		Keyword: "טבע", At: at, Recommendation: "Buy", Explanation: "חיובי", ArticleCount: 3,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	for range schema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
