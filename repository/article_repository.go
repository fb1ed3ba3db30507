// ABOUTME: PostgreSQL implementation of ArticleRepository interface
// ABOUTME: Merges Feedly articles by remote ID and serves feed/folder queries

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feedly-sync/models"

	"github.com/lib/pq"
)

const articleColumns = `id, article_id, feed_id, url, external_url, title, content_html, summary,
	image_url, authors, date_published, date_modified, read, starred, fetched_at`

// PostgreSQLArticleRepository implements ArticleRepository using PostgreSQL
type PostgreSQLArticleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgreSQLArticleRepository creates a new PostgreSQL article repository
func NewPostgreSQLArticleRepository(db *sql.DB, logger *slog.Logger) *PostgreSQLArticleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgreSQLArticleRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertBatch merges articles in a single transaction
func (r *PostgreSQLArticleRepository) UpsertBatch(ctx context.Context, articles []*models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// xmax is zero only for rows this statement inserted
	query := `
		INSERT INTO feedly_articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (article_id) DO UPDATE SET
			title = EXCLUDED.title,
			content_html = EXCLUDED.content_html,
			summary = EXCLUDED.summary,
			image_url = EXCLUDED.image_url,
			date_modified = EXCLUDED.date_modified,
			read = EXCLUDED.read,
			starred = EXCLUDED.starred
		RETURNING (xmax = 0)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	created := 0
	for _, article := range articles {
		var inserted bool
		err := stmt.QueryRowContext(ctx,
			article.ID,
			article.ArticleID,
			article.FeedID,
			article.URL,
			article.ExternalURL,
			article.Title,
			article.ContentHTML,
			article.Summary,
			article.ImageURL,
			pq.Array(article.Authors),
			article.DatePublished,
			article.DateModified,
			article.Read,
			article.Starred,
			article.FetchedAt,
		).Scan(&inserted)
		if err != nil {
			r.logger.Error("Failed to upsert article",
				"article_id", article.ArticleID,
				"error", err)
			return 0, fmt.Errorf("failed to upsert article %s: %w", article.ArticleID, err)
		}
		if inserted {
			created++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Batch article upsert completed",
		"total_articles", len(articles),
		"created", created,
		"updated", len(articles)-created)

	return created, nil
}

// FindByFeedIDs returns articles of the given feeds, newest first
func (r *PostgreSQLArticleRepository) FindByFeedIDs(ctx context.Context, feedIDs []string, unreadOnly bool) ([]*models.Article, error) {
	if len(feedIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + articleColumns + ` FROM feedly_articles WHERE feed_id = ANY($1)`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY COALESCE(date_published, date_modified, fetched_at) DESC`

	return r.queryArticles(ctx, query, pq.Array(feedIDs))
}

// FindUnreadByFeedIDsBetween returns unread articles in the (after, before) window
func (r *PostgreSQLArticleRepository) FindUnreadByFeedIDsBetween(ctx context.Context, feedIDs []string, limit int, before, after *time.Time) ([]*models.Article, error) {
	if len(feedIDs) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + articleColumns + ` FROM feedly_articles WHERE feed_id = ANY($1) AND read = FALSE`)
	args := []interface{}{pq.Array(feedIDs)}

	sortDate := `COALESCE(date_published, date_modified, fetched_at)`
	if before != nil {
		args = append(args, *before)
		fmt.Fprintf(&b, ` AND %s < $%d`, sortDate, len(args))
	}
	if after != nil {
		args = append(args, *after)
		fmt.Fprintf(&b, ` AND %s > $%d`, sortDate, len(args))
	}
	b.WriteString(` ORDER BY ` + sortDate + ` DESC`)
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}

	return r.queryArticles(ctx, b.String(), args...)
}

// CountUnread counts unread articles of the given feeds
func (r *PostgreSQLArticleRepository) CountUnread(ctx context.Context, feedIDs []string) (int, error) {
	if len(feedIDs) == 0 {
		return 0, nil
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedly_articles WHERE feed_id = ANY($1) AND read = FALSE`,
		pq.Array(feedIDs),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread articles: %w", err)
	}
	return count, nil
}

// DeleteReadOlderThan removes read, unstarred articles fetched before cutoff
func (r *PostgreSQLArticleRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM feedly_articles WHERE read = TRUE AND starred = FALSE AND fetched_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old articles: %w", err)
	}

	deleted, _ := result.RowsAffected()
	r.logger.Info("Deleted old read articles",
		"cutoff", cutoff,
		"deleted", deleted)
	return int(deleted), nil
}

func (r *PostgreSQLArticleRepository) queryArticles(ctx context.Context, query string, args ...interface{}) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(
			&a.ID,
			&a.ArticleID,
			&a.FeedID,
			&a.URL,
			&a.ExternalURL,
			&a.Title,
			&a.ContentHTML,
			&a.Summary,
			&a.ImageURL,
			pq.Array(&a.Authors),
			&a.DatePublished,
			&a.DateModified,
			&a.Read,
			&a.Starred,
			&a.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}
