// ABOUTME: Mirrors the Feedly subscription list into the local database
// ABOUTME: New feeds get an empty sync state so the scheduler picks them up first

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedly-sync/driver"
	"feedly-sync/models"
	"feedly-sync/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

//go:generate mockgen -source=subscription_sync_service.go -destination=../mocks/mock_subscription_source.go -package=mocks

// SubscriptionSource lists the feeds the Feedly user follows
type SubscriptionSource interface {
	GetSubscriptions(ctx context.Context) ([]driver.FeedlySubscription, error)
}

// SubscriptionSyncResult represents the result of a subscription synchronization
type SubscriptionSyncResult struct {
	Created        int           `json:"created"`
	Updated        int           `json:"updated"`
	Deleted        int           `json:"deleted"`
	TotalProcessed int           `json:"total_processed"`
	SyncTime       time.Time     `json:"sync_time"`
	Duration       time.Duration `json:"duration"`
}

// SubscriptionSyncStats represents synchronization statistics
type SubscriptionSyncStats struct {
	LastSyncTime    time.Time `json:"last_sync_time"`
	TotalSyncs      int64     `json:"total_syncs"`
	SuccessfulSyncs int64     `json:"successful_syncs"`
	FailedSyncs     int64     `json:"failed_syncs"`
	Created         int       `json:"total_created"`
	Updated         int       `json:"total_updated"`
	Deleted         int       `json:"total_deleted"`
	LastError       string    `json:"last_error,omitempty"`
	NextSyncTime    time.Time `json:"next_sync_time"`
}

// SubscriptionSyncService keeps feedly_subscriptions in step with Feedly
type SubscriptionSyncService struct {
	source           SubscriptionSource
	subscriptionRepo repository.SubscriptionRepository
	syncRepo         repository.SyncStateRepository
	logger           *slog.Logger

	mu           sync.RWMutex
	syncInterval time.Duration
	lastSyncTime time.Time
	syncStats    SubscriptionSyncStats
}

func NewSubscriptionSyncService(
	source SubscriptionSource,
	subscriptionRepo repository.SubscriptionRepository,
	syncRepo repository.SyncStateRepository,
	syncInterval time.Duration,
	logger *slog.Logger,
) *SubscriptionSyncService {
	if logger == nil {
		logger = slog.Default()
	}
	if syncInterval <= 0 {
		syncInterval = 4 * time.Hour
	}
	return &SubscriptionSyncService{
		source:           source,
		subscriptionRepo: subscriptionRepo,
		syncRepo:         syncRepo,
		logger:           logger,
		syncInterval:     syncInterval,
	}
}

// SyncSubscriptions fetches the subscription list and applies it locally.
// An empty remote list is treated as suspicious and deletes nothing.
func (s *SubscriptionSyncService) SyncSubscriptions(ctx context.Context) (*SubscriptionSyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.syncStats.TotalSyncs++

	result, err := s.sync(ctx)
	if err != nil {
		s.syncStats.FailedSyncs++
		s.syncStats.LastError = err.Error()
		s.logger.Error("Subscription synchronization failed", "error", err)
		return nil, err
	}

	result.SyncTime = start
	result.Duration = time.Since(start)

	s.lastSyncTime = start
	s.syncStats.SuccessfulSyncs++
	s.syncStats.LastError = ""
	s.syncStats.LastSyncTime = start
	s.syncStats.NextSyncTime = start.Add(s.syncInterval)
	s.syncStats.Created += result.Created
	s.syncStats.Updated += result.Updated
	s.syncStats.Deleted += result.Deleted

	s.logger.Info("Subscription synchronization completed",
		"duration_ms", result.Duration.Milliseconds(),
		"created", result.Created,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"total_processed", result.TotalProcessed)
	return result, nil
}

func (s *SubscriptionSyncService) sync(ctx context.Context) (*SubscriptionSyncResult, error) {
	remote, err := s.source.GetSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch subscriptions from Feedly: %w", err)
	}
	result := &SubscriptionSyncResult{TotalProcessed: len(remote)}
	if len(remote) == 0 {
		s.logger.Warn("Feedly returned no subscriptions, keeping local list")
		return result, nil
	}

	existing, err := s.subscriptionRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored subscriptions: %w", err)
	}
	existingByFeed := lo.KeyBy(existing, func(sub *models.Subscription) string { return sub.FeedID })

	incoming := lo.Map(remote, func(sub driver.FeedlySubscription, _ int) *models.Subscription {
		return models.NewSubscription(sub.ID, sub.Title, sub.Website, sub.CategoryIDs())
	})
	result.Updated = lo.CountBy(incoming, func(sub *models.Subscription) bool {
		old, ok := existingByFeed[sub.FeedID]
		return ok && isSubscriptionChanged(old, sub)
	})

	created, err := s.subscriptionRepo.SaveSubscriptions(ctx, incoming)
	if err != nil {
		return nil, fmt.Errorf("save subscriptions: %w", err)
	}
	result.Created = created

	remoteIDs := lo.Map(incoming, func(sub *models.Subscription, _ int) string { return sub.FeedID })
	_, stale := lo.Difference(remoteIDs, lo.Keys(existingByFeed))
	if len(stale) > 0 {
		deleted, err := s.subscriptionRepo.DeleteByFeedIDs(ctx, stale)
		if err != nil {
			return nil, fmt.Errorf("delete unsubscribed feeds: %w", err)
		}
		result.Deleted = deleted
		for _, feedID := range stale {
			if err := s.syncRepo.DeleteByStreamID(ctx, feedID); err != nil {
				s.logger.Warn("Failed to drop sync state of unsubscribed feed", "stream_id", feedID, "error", err)
			}
		}
	}

	for _, feedID := range remoteIDs {
		if _, known := existingByFeed[feedID]; known {
			continue
		}
		// zero LastSync makes the first pass a full fetch
		state := &models.SyncState{ID: uuid.New(), StreamID: feedID}
		if err := s.syncRepo.Upsert(ctx, state); err != nil {
			s.logger.Error("Failed to create sync state", "stream_id", feedID, "error", err)
		}
	}

	return result, nil
}

func isSubscriptionChanged(existing, incoming *models.Subscription) bool {
	if existing.Title != incoming.Title || existing.Website != incoming.Website {
		return true
	}
	added, removed := lo.Difference(existing.Categories, incoming.Categories)
	return len(added) > 0 || len(removed) > 0
}

// GetSyncStats returns a copy of the synchronization statistics
func (s *SubscriptionSyncService) GetSyncStats() SubscriptionSyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncStats
}

// IsReadyForSync reports whether the sync interval has passed since the last success
func (s *SubscriptionSyncService) IsReadyForSync() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastSyncTime.IsZero() {
		return true
	}
	return time.Since(s.lastSyncTime) >= s.syncInterval
}
