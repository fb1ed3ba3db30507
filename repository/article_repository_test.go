package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"feedly-sync/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

var articleColumnNames = []string{
	"id", "article_id", "feed_id", "url", "external_url", "title", "content_html", "summary",
	"image_url", "authors", "date_published", "date_modified", "read", "starred", "fetched_at",
}

func TestPostgreSQLArticleRepository_UpsertBatch(t *testing.T) {
	tests := map[string]struct {
		setup         func(mock sqlmock.Sqlmock)
		expectCreated int
		expectError   bool
	}{
		"counts only inserted rows": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare("INSERT INTO feedly_articles")
				prep.ExpectQuery().WithArgs(anyArgs(15)...).
					WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))
				prep.ExpectQuery().WithArgs(anyArgs(15)...).
					WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))
				mock.ExpectCommit()
			},
			expectCreated: 1,
		},
		"row failure rolls back": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare("INSERT INTO feedly_articles")
				prep.ExpectQuery().WithArgs(anyArgs(15)...).
					WillReturnError(errors.New("constraint violation"))
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tc.setup(mock)

			repo := NewPostgreSQLArticleRepository(db, nil)
			item := &models.ParsedItem{UniqueID: "a1", FeedURL: "feed/x", Title: "One"}
			other := &models.ParsedItem{UniqueID: "a2", FeedURL: "feed/x", Title: "Two"}
			created, err := repo.UpsertBatch(context.Background(), []*models.Article{
				models.NewArticleFromParsedItem(item, false),
				models.NewArticleFromParsedItem(other, true),
			})

			if tc.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectCreated, created)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgreSQLArticleRepository_UpsertBatchEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created, err := NewPostgreSQLArticleRepository(db, nil).UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLArticleRepository_FindUnreadByFeedIDsBetween(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	before := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	published := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectQuery(`read = FALSE AND COALESCE\(.+\) < \$2 AND COALESCE\(.+\) > \$3 ORDER BY .+ DESC LIMIT \$4`).
		WithArgs(sqlmock.AnyArg(), before, after, 10).
		WillReturnRows(sqlmock.NewRows(articleColumnNames).AddRow(
			id.String(), "a1", "feed/x", "https://example.com/1", "", "One", "<p>1</p>", "1",
			"", "{Jane}", published, nil, false, true, published,
		))

	articles, err := NewPostgreSQLArticleRepository(db, nil).
		FindUnreadByFeedIDsBetween(context.Background(), []string{"feed/x"}, 10, &before, &after)
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "a1", a.ArticleID)
	assert.Equal(t, []string{"Jane"}, a.Authors)
	require.NotNil(t, a.DatePublished)
	assert.True(t, published.Equal(*a.DatePublished))
	assert.Nil(t, a.DateModified)
	assert.True(t, a.Starred)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLArticleRepository_FindByFeedIDs(t *testing.T) {
	tests := map[string]struct {
		feedIDs    []string
		unreadOnly bool
		pattern    string
		expectCall bool
	}{
		"all articles": {
			feedIDs:    []string{"feed/a", "feed/b"},
			pattern:    `WHERE feed_id = ANY\(\$1\) ORDER BY`,
			expectCall: true,
		},
		"unread only": {
			feedIDs:    []string{"feed/a"},
			unreadOnly: true,
			pattern:    `WHERE feed_id = ANY\(\$1\) AND read = FALSE ORDER BY`,
			expectCall: true,
		},
		"no feeds": {},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			if tc.expectCall {
				mock.ExpectQuery(tc.pattern).WillReturnRows(sqlmock.NewRows(articleColumnNames))
			}

			articles, err := NewPostgreSQLArticleRepository(db, nil).FindByFeedIDs(context.Background(), tc.feedIDs, tc.unreadOnly)
			require.NoError(t, err)
			assert.Empty(t, articles)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgreSQLArticleRepository_DeleteReadOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM feedly_articles WHERE read = TRUE AND starred = FALSE AND fetched_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := NewPostgreSQLArticleRepository(db, nil).DeleteReadOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 7, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
