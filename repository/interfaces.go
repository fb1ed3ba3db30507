// ABOUTME: Repository layer common interfaces for clean architecture
// ABOUTME: Defines contracts for article, sync state and token storage

package repository

import (
	"context"
	"errors"
	"time"

	"feedly-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_repositories.go -package=mocks

// ErrSyncStateNotFound is returned when no sync state exists for a stream
var ErrSyncStateNotFound = errors.New("sync state not found")

// ArticleRepository stores articles synchronized from Feedly
type ArticleRepository interface {
	// UpsertBatch inserts new articles and refreshes the status and content of
	// known ones. It returns how many articles were newly created.
	UpsertBatch(ctx context.Context, articles []*models.Article) (int, error)

	// FindByFeedIDs returns the articles of the given feeds, newest first
	FindByFeedIDs(ctx context.Context, feedIDs []string, unreadOnly bool) ([]*models.Article, error)

	// FindUnreadByFeedIDsBetween returns unread articles whose sort date lies
	// in (after, before). nil bounds are open; limit <= 0 means no limit.
	FindUnreadByFeedIDsBetween(ctx context.Context, feedIDs []string, limit int, before, after *time.Time) ([]*models.Article, error)

	// CountUnread counts unread articles of the given feeds
	CountUnread(ctx context.Context, feedIDs []string) (int, error)

	// DeleteReadOlderThan removes read, unstarred articles fetched before cutoff
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// SyncStateRepository tracks the per-stream sync position
type SyncStateRepository interface {
	FindByStreamID(ctx context.Context, streamID string) (*models.SyncState, error)
	GetOldestOne(ctx context.Context) (*models.SyncState, error)
	GetAll(ctx context.Context) ([]*models.SyncState, error)
	Upsert(ctx context.Context, syncState *models.SyncState) error
	DeleteByStreamID(ctx context.Context, streamID string) error
}

// SubscriptionRepository stores the feeds the Feedly user follows
type SubscriptionRepository interface {
	// SaveSubscriptions upserts subscriptions and returns how many were new
	SaveSubscriptions(ctx context.Context, subscriptions []*models.Subscription) (int, error)
	GetAll(ctx context.Context) ([]*models.Subscription, error)
	FindByCategory(ctx context.Context, categoryID string) ([]*models.Subscription, error)
	FindByFeedID(ctx context.Context, feedID string) (*models.Subscription, error)
	DeleteByFeedIDs(ctx context.Context, feedIDs []string) (int, error)
}
