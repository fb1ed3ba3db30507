// ABOUTME: This file handles persistence of Feedly subscriptions
// ABOUTME: Folder fetches resolve their member feeds through this table

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedly-sync/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrSubscriptionNotFound is returned when no subscription matches a feed ID
var ErrSubscriptionNotFound = errors.New("subscription not found")

// PostgreSQLSubscriptionRepository implements SubscriptionRepository using PostgreSQL
type PostgreSQLSubscriptionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgreSQLSubscriptionRepository creates a new PostgreSQL subscription repository
func NewPostgreSQLSubscriptionRepository(db *sql.DB, logger *slog.Logger) *PostgreSQLSubscriptionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgreSQLSubscriptionRepository{db: db, logger: logger}
}

const subscriptionColumns = `id, feed_id, title, website, categories, synced_at, created_at`

// SaveSubscriptions upserts the given subscriptions and returns how many were new
func (r *PostgreSQLSubscriptionRepository) SaveSubscriptions(ctx context.Context, subscriptions []*models.Subscription) (int, error) {
	if len(subscriptions) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feedly_subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (feed_id) DO UPDATE SET
			title = EXCLUDED.title,
			website = EXCLUDED.website,
			categories = EXCLUDED.categories,
			synced_at = EXCLUDED.synced_at
		RETURNING (xmax = 0)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	created := 0
	for _, sub := range subscriptions {
		id := sub.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		createdAt := sub.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		var inserted bool
		err := stmt.QueryRowContext(ctx,
			id, sub.FeedID, sub.Title, sub.Website, pq.Array(sub.Categories), now, createdAt,
		).Scan(&inserted)
		if err != nil {
			return 0, fmt.Errorf("failed to save subscription %s: %w", sub.FeedID, err)
		}
		if inserted {
			created++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Saved subscriptions",
		"total_subscriptions", len(subscriptions),
		"created", created)
	return created, nil
}

// GetAll returns every subscription ordered by title
func (r *PostgreSQLSubscriptionRepository) GetAll(ctx context.Context) ([]*models.Subscription, error) {
	return r.query(ctx, `SELECT `+subscriptionColumns+` FROM feedly_subscriptions ORDER BY title`)
}

// FindByCategory returns the subscriptions filed under a category stream
func (r *PostgreSQLSubscriptionRepository) FindByCategory(ctx context.Context, categoryID string) ([]*models.Subscription, error) {
	return r.query(ctx,
		`SELECT `+subscriptionColumns+` FROM feedly_subscriptions WHERE $1 = ANY(categories) ORDER BY title`,
		categoryID)
}

// FindByFeedID returns a single subscription
func (r *PostgreSQLSubscriptionRepository) FindByFeedID(ctx context.Context, feedID string) (*models.Subscription, error) {
	subs, err := r.query(ctx, `SELECT `+subscriptionColumns+` FROM feedly_subscriptions WHERE feed_id = $1`, feedID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrSubscriptionNotFound
	}
	return subs[0], nil
}

// DeleteByFeedIDs removes subscriptions the user no longer follows
func (r *PostgreSQLSubscriptionRepository) DeleteByFeedIDs(ctx context.Context, feedIDs []string) (int, error) {
	if len(feedIDs) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM feedly_subscriptions WHERE feed_id = ANY($1)`, pq.Array(feedIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *PostgreSQLSubscriptionRepository) query(ctx context.Context, query string, args ...any) ([]*models.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []*models.Subscription
	for rows.Next() {
		var sub models.Subscription
		var website sql.NullString
		if err := rows.Scan(
			&sub.ID,
			&sub.FeedID,
			&sub.Title,
			&website,
			pq.Array(&sub.Categories),
			&sub.SyncedAt,
			&sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		sub.Website = website.String
		subscriptions = append(subscriptions, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return subscriptions, nil
}
