package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"feedly-sync/mocks"
	"feedly-sync/models"
	"feedly-sync/repository"
	"feedly-sync/service"
	"feedly-sync/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/mock/gomock"
)

type MockStreamSyncer struct {
	mock.Mock
}

func (m *MockStreamSyncer) SyncStream(ctx context.Context, resource models.ResourceID, newerThan *time.Time, unreadOnly *bool) (*usecase.SyncResult, error) {
	args := m.Called(ctx, resource, newerThan, unreadOnly)
	result, _ := args.Get(0).(*usecase.SyncResult)
	return result, args.Error(1)
}

type MockSubscriptionSyncer struct {
	mock.Mock
}

func (m *MockSubscriptionSyncer) SyncSubscriptions(ctx context.Context) (*service.SubscriptionSyncResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*service.SubscriptionSyncResult)
	return result, args.Error(1)
}

func (m *MockSubscriptionSyncer) IsReadyForSync() bool {
	return m.Called().Bool(0)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Minute, cfg.FetchInterval)
	assert.Equal(t, 4*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Minute, cfg.RunTimeout)
	assert.False(t, cfg.UnreadOnly)
}

func TestScheduler_FetchNextStream(t *testing.T) {
	feed := "feed/https://example.com/rss"
	syncErr := errors.New("feedly unavailable")

	tests := map[string]struct {
		unreadOnly bool
		oldest     *models.SyncState
		oldestErr  error
		syncErr    error
		expectSync bool
	}{
		"syncs the stalest stream": {
			oldest:     &models.SyncState{StreamID: feed},
			expectSync: true,
		},
		"threads unread only": {
			unreadOnly: true,
			oldest:     &models.SyncState{StreamID: feed},
			expectSync: true,
		},
		"no streams yet": {
			oldestErr: repository.ErrSyncStateNotFound,
		},
		"sync state lookup fails": {
			oldestErr: errors.New("connection reset"),
		},
		"sync failure is logged": {
			oldest:     &models.SyncState{StreamID: feed},
			syncErr:    syncErr,
			expectSync: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			syncRepo := mocks.NewMockSyncStateRepository(ctrl)
			syncRepo.EXPECT().GetOldestOne(gomock.Any()).Return(tc.oldest, tc.oldestErr)

			streams := &MockStreamSyncer{}
			if tc.expectSync {
				streams.On("SyncStream", mock.Anything, models.ResourceID(feed), (*time.Time)(nil), mock.MatchedBy(func(unreadOnly *bool) bool {
					if !tc.unreadOnly {
						return unreadOnly == nil
					}
					return unreadOnly != nil && *unreadOnly
				})).Return(&usecase.SyncResult{StreamID: feed, Pages: 1}, tc.syncErr).Once()
			}

			s := NewScheduler(syncRepo, &MockSubscriptionSyncer{}, streams, nil)
			cfg := DefaultConfig()
			cfg.UnreadOnly = tc.unreadOnly
			s.fetchNextStream(context.Background(), cfg)

			streams.AssertExpectations(t)
		})
	}
}

func TestScheduler_RefreshSubscriptions(t *testing.T) {
	t.Run("skips until the interval elapsed", func(t *testing.T) {
		subscriptions := &MockSubscriptionSyncer{}
		subscriptions.On("IsReadyForSync").Return(false)

		s := NewScheduler(nil, subscriptions, &MockStreamSyncer{}, nil)
		s.refreshSubscriptions(context.Background(), DefaultConfig())

		subscriptions.AssertNotCalled(t, "SyncSubscriptions", mock.Anything)
	})

	t.Run("syncs when ready", func(t *testing.T) {
		subscriptions := &MockSubscriptionSyncer{}
		subscriptions.On("IsReadyForSync").Return(true)
		subscriptions.On("SyncSubscriptions", mock.Anything).
			Return(&service.SubscriptionSyncResult{Created: 2}, nil).Once()

		s := NewScheduler(nil, subscriptions, &MockStreamSyncer{}, nil)
		s.refreshSubscriptions(context.Background(), DefaultConfig())

		subscriptions.AssertExpectations(t)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	subscriptions := &MockSubscriptionSyncer{}
	subscriptions.On("IsReadyForSync").Return(false)

	s := NewScheduler(nil, subscriptions, &MockStreamSyncer{}, nil)
	cfg := Config{
		FetchInterval:   time.Hour,
		RefreshInterval: time.Hour,
	}

	s.Start(context.Background(), cfg)
	assert.True(t, s.running())

	// a second start is ignored
	s.Start(context.Background(), cfg)

	s.Stop()
	assert.False(t, s.running())
	s.Stop()
}
