package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"feedly-sync/models"
	"feedly-sync/repository"
	"feedly-sync/service"
	"feedly-sync/usecase"
)

// StreamSyncer runs one sync pass over a stream
type StreamSyncer interface {
	SyncStream(ctx context.Context, resource models.ResourceID, newerThan *time.Time, unreadOnly *bool) (*usecase.SyncResult, error)
}

// SubscriptionSyncer mirrors the remote subscription list
type SubscriptionSyncer interface {
	SyncSubscriptions(ctx context.Context) (*service.SubscriptionSyncResult, error)
	IsReadyForSync() bool
}

// Scheduler rotates through subscribed streams, syncing the stalest one per tick
type Scheduler struct {
	syncRepo      repository.SyncStateRepository
	subscriptions SubscriptionSyncer
	streams       StreamSyncer
	logger        *slog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
}

// Config holds scheduler configuration
type Config struct {
	FetchInterval   time.Duration
	RefreshInterval time.Duration
	UnreadOnly      bool
	// RunTimeout bounds a single stream sync or subscription refresh
	RunTimeout time.Duration
}

// DefaultConfig returns the default configuration for the scheduler
func DefaultConfig() Config {
	return Config{
		FetchInterval:   30 * time.Minute,
		RefreshInterval: 4 * time.Hour,
		RunTimeout:      5 * time.Minute,
	}
}

func NewScheduler(
	syncRepo repository.SyncStateRepository,
	subscriptions SubscriptionSyncer,
	streams StreamSyncer,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		syncRepo:      syncRepo,
		subscriptions: subscriptions,
		streams:       streams,
		logger:        logger,
	}
}

// Start starts the scheduling loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context, cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.logger.Warn("Scheduler is already running")
		return
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultConfig().RunTimeout
	}

	s.logger.Info("Starting stream scheduler",
		"fetch_interval", cfg.FetchInterval,
		"refresh_interval", cfg.RefreshInterval,
		"unread_only", cfg.UnreadOnly)

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.isRunning = true

	go s.runLoop(ctx, cfg)
}

// Stop stops the scheduler and waits for an in-flight run to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.logger.Info("Stopping stream scheduler")
	s.cancel()
	done := s.done
	s.isRunning = false
	s.mu.Unlock()

	<-done
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) runLoop(ctx context.Context, cfg Config) {
	defer close(s.done)

	refreshTicker := time.NewTicker(cfg.RefreshInterval)
	defer refreshTicker.Stop()
	fetchTicker := time.NewTicker(cfg.FetchInterval)
	defer fetchTicker.Stop()

	// pick up a fresh subscription list before the first fetch
	s.refreshSubscriptions(ctx, cfg)

	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshTicker.C:
			s.refreshSubscriptions(ctx, cfg)
		case <-fetchTicker.C:
			s.fetchNextStream(ctx, cfg)
		}
	}
}

func (s *Scheduler) refreshSubscriptions(ctx context.Context, cfg Config) {
	if !s.subscriptions.IsReadyForSync() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	result, err := s.subscriptions.SyncSubscriptions(ctx)
	if err != nil {
		s.logger.Error("Failed to refresh subscriptions", "error", err)
		return
	}

	s.logger.Info("Refreshed subscriptions",
		"created", result.Created,
		"updated", result.Updated,
		"deleted", result.Deleted)
}

func (s *Scheduler) fetchNextStream(ctx context.Context, cfg Config) {
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	syncState, err := s.syncRepo.GetOldestOne(ctx)
	if errors.Is(err, repository.ErrSyncStateNotFound) {
		s.logger.Info("No streams found to sync")
		return
	}
	if err != nil {
		s.logger.Error("Failed to get oldest sync state", "error", err)
		return
	}

	resource := models.ResourceID(syncState.StreamID)
	s.logger.Info("Syncing stream",
		"stream_id", syncState.StreamID,
		"last_sync", syncState.LastSync)

	var unreadOnly *bool
	if cfg.UnreadOnly {
		unreadOnly = &cfg.UnreadOnly
	}

	result, err := s.streams.SyncStream(ctx, resource, nil, unreadOnly)
	if err != nil {
		s.logger.Error("Failed to sync stream",
			"stream_id", syncState.StreamID,
			"error", err)
		return
	}

	s.logger.Info("Successfully processed stream",
		"stream_id", result.StreamID,
		"pages", result.Pages,
		"new_articles_saved", result.Created,
		"has_continuation", result.Continuation != "")
}
