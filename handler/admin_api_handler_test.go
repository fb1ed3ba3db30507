// ABOUTME: This file tests the admin API handler functionality
// ABOUTME: Covers authentication, rate limiting, validation and the sync and article endpoints

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedly-sync/account"
	"feedly-sync/models"
	"feedly-sync/repository"
	"feedly-sync/security"
	"feedly-sync/service"
	"feedly-sync/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testFeed   = "feed/https://example.com/rss"
	testFolder = "user/u1/category/tech"
)

type MockStreamSyncer struct {
	mock.Mock
}

func (m *MockStreamSyncer) SyncStream(ctx context.Context, resource models.ResourceID, newerThan *time.Time, unreadOnly *bool) (*usecase.SyncResult, error) {
	args := m.Called(ctx, resource, newerThan, unreadOnly)
	result, _ := args.Get(0).(*usecase.SyncResult)
	return result, args.Error(1)
}

type MockArticleFacade struct {
	mock.Mock
}

func (m *MockArticleFacade) Container(ctx context.Context, scope account.FetchType) (account.ArticleFetcher, error) {
	args := m.Called(ctx, scope)
	container, _ := args.Get(0).(account.ArticleFetcher)
	return container, args.Error(1)
}

func (m *MockArticleFacade) Feeds(ctx context.Context) ([]*account.Feed, error) {
	args := m.Called(ctx)
	feeds, _ := args.Get(0).([]*account.Feed)
	return feeds, args.Error(1)
}

func (m *MockArticleFacade) Folders(ctx context.Context) ([]*account.Folder, error) {
	args := m.Called(ctx)
	folders, _ := args.Get(0).([]*account.Folder)
	return folders, args.Error(1)
}

func (m *MockArticleFacade) UnreadCount(ctx context.Context, scope account.FetchType) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}

func (m *MockArticleFacade) Refresh(ctx context.Context, scope account.FetchType) (*usecase.SyncResult, error) {
	args := m.Called(ctx, scope)
	result, _ := args.Get(0).(*usecase.SyncResult)
	return result, args.Error(1)
}

// MockArticleStore backs real Feed and Folder containers
type MockArticleStore struct {
	mock.Mock
}

func (m *MockArticleStore) FetchArticles(ctx context.Context, fetchType account.FetchType) (models.ArticleSet, error) {
	args := m.Called(ctx, fetchType)
	set, _ := args.Get(0).(models.ArticleSet)
	return set, args.Error(1)
}

func (m *MockArticleStore) FetchArticlesAsync(ctx context.Context, fetchType account.FetchType, completion account.ArticleSetResultFunc) {
	go func() {
		completion(m.FetchArticles(ctx, fetchType))
	}()
}

func (m *MockArticleStore) FetchUnreadArticlesBetween(ctx context.Context, scope account.FetchType, limit int, before, after *time.Time) (models.ArticleSet, error) {
	args := m.Called(ctx, scope, limit, before, after)
	set, _ := args.Get(0).(models.ArticleSet)
	return set, args.Error(1)
}

type MockTokenStatusProvider struct {
	mock.Mock
}

func (m *MockTokenStatusProvider) Status(ctx context.Context) (*service.TokenStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(*service.TokenStatus)
	return status, args.Error(1)
}

type stubAuthenticator struct {
	err error
}

func (s stubAuthenticator) Authenticate(token string) (*security.ServiceAccountInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token == "" {
		return nil, security.ErrMissingToken
	}
	return &security.ServiceAccountInfo{Namespace: "feedly", Name: "cron"}, nil
}

type stubRateLimiter struct {
	allow bool
}

func (s stubRateLimiter) Allow(client, endpoint string) bool { return s.allow }

type handlerFixture struct {
	streams  *MockStreamSyncer
	articles *MockArticleFacade
	tokens   *MockTokenStatusProvider
	mux      *http.ServeMux
}

func newHandlerFixture(auth Authenticator, limiter RateLimiter) *handlerFixture {
	f := &handlerFixture{
		streams:  &MockStreamSyncer{},
		articles: &MockArticleFacade{},
		tokens:   &MockTokenStatusProvider{},
		mux:      http.NewServeMux(),
	}
	NewAdminAPIHandler(f.streams, f.articles, f.tokens, auth, limiter, nil).Register(f.mux)
	return f
}

func (f *handlerFixture) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer sa-token")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAdminAPIHandler_Guard(t *testing.T) {
	tests := map[string]struct {
		auth         Authenticator
		limiter      RateLimiter
		noToken      bool
		expectStatus int
		expectCode   string
	}{
		"rate limited": {
			auth:         stubAuthenticator{},
			limiter:      stubRateLimiter{allow: false},
			expectStatus: http.StatusTooManyRequests,
			expectCode:   "RATE_LIMITED",
		},
		"missing token": {
			auth:         stubAuthenticator{},
			limiter:      stubRateLimiter{allow: true},
			noToken:      true,
			expectStatus: http.StatusUnauthorized,
			expectCode:   "UNAUTHORIZED",
		},
		"invalid token": {
			auth:         stubAuthenticator{err: security.ErrInvalidToken},
			limiter:      stubRateLimiter{allow: true},
			expectStatus: http.StatusUnauthorized,
			expectCode:   "UNAUTHORIZED",
		},
		"account not allowed": {
			auth:         stubAuthenticator{err: fmt.Errorf("%w: other:sa", security.ErrAccountForbidden)},
			limiter:      stubRateLimiter{allow: true},
			expectStatus: http.StatusForbidden,
			expectCode:   "INSUFFICIENT_PERMISSIONS",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newHandlerFixture(tc.auth, tc.limiter)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/streams/sync?stream_id="+testFeed, nil)
			if !tc.noToken {
				req.Header.Set("Authorization", "Bearer sa-token")
			}
			rec := httptest.NewRecorder()
			f.mux.ServeHTTP(rec, req)

			assert.Equal(t, tc.expectStatus, rec.Code)
			assert.Equal(t, tc.expectCode, decodeError(t, rec).ErrorCode)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			f.streams.AssertNotCalled(t, "SyncStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAdminAPIHandler_StreamSync(t *testing.T) {
	newerThan := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("syncs with parsed parameters", func(t *testing.T) {
		f := newHandlerFixture(stubAuthenticator{}, stubRateLimiter{allow: true})
		f.streams.On("SyncStream", mock.Anything, models.ResourceID(testFeed),
			mock.MatchedBy(func(t *time.Time) bool { return t != nil && t.Equal(newerThan) }),
			mock.MatchedBy(func(b *bool) bool { return b != nil && *b })).
			Return(&usecase.SyncResult{StreamID: testFeed, Pages: 2, Created: 7}, nil).Once()

		rec := f.do(http.MethodPost, "/api/v1/streams/sync?stream_id="+testFeed+"&newer_than=2024-05-01T00:00:00Z&unread_only=true")

		require.Equal(t, http.StatusOK, rec.Code)
		var body SyncResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "success", body.Status)
		assert.Equal(t, 7, body.Result.Created)
		f.streams.AssertExpectations(t)
	})

	t.Run("wrong method is not routed", func(t *testing.T) {
		f := newHandlerFixture(stubAuthenticator{}, stubRateLimiter{allow: true})
		rec := f.do(http.MethodGet, "/api/v1/streams/sync?stream_id="+testFeed)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	tests := map[string]struct {
		target       string
		syncErr      error
		expectStatus int
		expectCode   string
	}{
		"missing stream": {
			target:       "/api/v1/streams/sync",
			expectStatus: http.StatusBadRequest,
			expectCode:   "VALIDATION_ERROR",
		},
		"bad timestamp": {
			target:       "/api/v1/streams/sync?stream_id=" + testFeed + "&newer_than=soon",
			expectStatus: http.StatusBadRequest,
			expectCode:   "VALIDATION_ERROR",
		},
		"upstream failure": {
			target:       "/api/v1/streams/sync?stream_id=" + testFeed,
			syncErr:      fmt.Errorf("page 1: %w", errors.New("503 from feedly")),
			expectStatus: http.StatusBadGateway,
			expectCode:   "SYNC_FAILED",
		},
		"timeout": {
			target:       "/api/v1/streams/sync?stream_id=" + testFeed,
			syncErr:      fmt.Errorf("page 2: %w", context.DeadlineExceeded),
			expectStatus: http.StatusGatewayTimeout,
			expectCode:   "SYNC_TIMEOUT",
		},
		"rejected resource": {
			target:       "/api/v1/streams/sync?stream_id=" + testFeed,
			syncErr:      fmt.Errorf("%w: %q", service.ErrInvalidResource, testFeed),
			expectStatus: http.StatusBadRequest,
			expectCode:   "INVALID_STREAM",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newHandlerFixture(stubAuthenticator{}, stubRateLimiter{allow: true})
			if tc.syncErr != nil {
				f.streams.On("SyncStream", mock.Anything, models.ResourceID(testFeed), (*time.Time)(nil), (*bool)(nil)).
					Return(nil, tc.syncErr).Once()
			}

			rec := f.do(http.MethodPost, tc.target)

			assert.Equal(t, tc.expectStatus, rec.Code)
			assert.Equal(t, tc.expectCode, decodeError(t, rec).ErrorCode)
			f.streams.AssertExpectations(t)
		})
	}
}

func TestAdminAPIHandler_Refresh(t *testing.T) {
	f := newHandlerFixture(nil, nil)
	f.articles.On("Refresh", mock.Anything, account.FolderFetch(testFolder, true)).
		Return(&usecase.SyncResult{StreamID: testFolder, Pages: 1}, nil).Once()

	rec := f.do(http.MethodPost, "/api/v1/refresh?folder_id="+testFolder+"&unread_only=true")

	require.Equal(t, http.StatusOK, rec.Code)
	f.articles.AssertExpectations(t)
}

func TestAdminAPIHandler_Articles(t *testing.T) {
	older := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	set := models.NewArticleSet(
		&models.Article{ArticleID: "a1", FeedID: testFeed, DatePublished: &older},
		&models.Article{ArticleID: "a2", FeedID: testFeed, DatePublished: &newer, Read: true},
	)

	// feedContainer resolves the feed scope to a real Feed over store
	feedContainer := func(f *handlerFixture, scope account.FetchType) *MockArticleStore {
		store := &MockArticleStore{}
		f.articles.On("Container", mock.Anything, scope).Return(account.NewFeed(store, testFeed, "Example", nil), nil).Once()
		return store
	}

	t.Run("lists a feed newest first", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		scope := account.FeedFetch(testFeed)
		store := feedContainer(f, scope)
		store.On("FetchArticles", mock.Anything, account.FeedFetch(testFeed)).Return(set, nil).Once()
		f.articles.On("UnreadCount", mock.Anything, scope).Return(1, nil).Once()

		rec := f.do(http.MethodGet, "/api/v1/articles?feed_id="+testFeed)

		require.Equal(t, http.StatusOK, rec.Code)
		var body ArticlesResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, 2, body.Count)
		assert.Equal(t, 1, body.UnreadCount)
		require.Len(t, body.Articles, 2)
		assert.Equal(t, "a2", body.Articles[0].ArticleID)
		assert.Equal(t, "a1", body.Articles[1].ArticleID)
		store.AssertExpectations(t)
	})

	t.Run("unread feed reads through the feed container", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		scope := account.FeedFetch(testFeed)
		scope.UnreadOnly = true
		store := feedContainer(f, scope)
		store.On("FetchArticles", mock.Anything, account.FeedFetch(testFeed)).Return(set, nil).Once()
		f.articles.On("UnreadCount", mock.Anything, scope).Return(1, nil).Once()

		rec := f.do(http.MethodGet, "/api/v1/articles?feed_id="+testFeed+"&unread_only=true")

		require.Equal(t, http.StatusOK, rec.Code)
		var body ArticlesResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body.Articles, 1)
		assert.Equal(t, "a1", body.Articles[0].ArticleID)
	})

	t.Run("unread folder asks the store for unread articles", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		scope := account.FolderFetch(testFolder, true)
		store := &MockArticleStore{}
		f.articles.On("Container", mock.Anything, scope).Return(account.NewFolder(store, testFolder, "tech", nil), nil).Once()
		store.On("FetchArticles", mock.Anything, account.FolderFetch(testFolder, true)).
			Return(models.NewArticleSet(set["a1"]), nil).Once()
		f.articles.On("UnreadCount", mock.Anything, scope).Return(1, nil).Once()

		rec := f.do(http.MethodGet, "/api/v1/articles?folder_id="+testFolder+"&unread_only=true")

		require.Equal(t, http.StatusOK, rec.Code)
		store.AssertExpectations(t)
	})

	t.Run("window queries unread articles between bounds and applies the limit", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		scope := account.FolderFetch(testFolder, false)
		store := &MockArticleStore{}
		f.articles.On("Container", mock.Anything, scope).Return(account.NewFolder(store, testFolder, "tech", nil), nil).Once()
		store.On("FetchUnreadArticlesBetween", mock.Anything, account.FolderFetch(testFolder, true), 0,
			mock.MatchedBy(func(t *time.Time) bool { return t != nil && t.Equal(newer) }),
			(*time.Time)(nil)).
			Return(set, nil).Once()
		f.articles.On("UnreadCount", mock.Anything, scope).Return(0, errors.New("count failed")).Once()

		rec := f.do(http.MethodGet, "/api/v1/articles?folder_id="+testFolder+"&before=2024-05-01T00:00:00Z&limit=1")

		require.Equal(t, http.StatusOK, rec.Code)
		var body ArticlesResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body.Articles, 1)
		assert.Equal(t, "a2", body.Articles[0].ArticleID)
		store.AssertExpectations(t)
		f.articles.AssertExpectations(t)
	})

	t.Run("container without an account answers empty", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		scope := account.FolderFetch(testFolder, false)
		f.articles.On("Container", mock.Anything, scope).Return(account.NewFolder(nil, testFolder, "tech", nil), nil).Once()
		f.articles.On("UnreadCount", mock.Anything, scope).Return(0, nil).Once()

		rec := f.do(http.MethodGet, "/api/v1/articles?folder_id="+testFolder)

		require.Equal(t, http.StatusOK, rec.Code)
		var body ArticlesResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Zero(t, body.Count)
	})

	t.Run("unknown feed", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		f.articles.On("Container", mock.Anything, account.FeedFetch(testFeed)).
			Return(nil, fmt.Errorf("resolve feed: %w", repository.ErrSubscriptionNotFound)).Once()

		rec := f.do(http.MethodGet, "/api/v1/articles?feed_id="+testFeed)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "UNKNOWN_FEED", decodeError(t, rec).ErrorCode)
	})

	tests := map[string]struct {
		target string
	}{
		"no scope":        {target: "/api/v1/articles"},
		"both scopes":     {target: "/api/v1/articles?feed_id=" + testFeed + "&folder_id=" + testFolder},
		"folder as feed":  {target: "/api/v1/articles?feed_id=" + testFolder},
		"limit too large": {target: "/api/v1/articles?feed_id=" + testFeed + "&limit=5000"},
		"bad unread flag": {target: "/api/v1/articles?feed_id=" + testFeed + "&unread_only=maybe"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newHandlerFixture(nil, nil)
			rec := f.do(http.MethodGet, tc.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).ErrorCode)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		scope := account.FeedFetch(testFeed)
		store := feedContainer(f, scope)
		store.On("FetchArticles", mock.Anything, scope).Return(nil, errors.New("connection refused")).Once()
		f.articles.On("UnreadCount", mock.Anything, scope).Return(0, nil).Once()

		rec := f.do(http.MethodGet, "/api/v1/articles?feed_id="+testFeed)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "QUERY_FAILED", decodeError(t, rec).ErrorCode)
	})
}

func TestAdminAPIHandler_Containers(t *testing.T) {
	t.Run("lists feeds and folders", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		f.articles.On("Feeds", mock.Anything).Return([]*account.Feed{account.NewFeed(nil, testFeed, "Example", nil)}, nil).Once()
		f.articles.On("Folders", mock.Anything).Return([]*account.Folder{account.NewFolder(nil, testFolder, "tech", nil)}, nil).Once()

		rec := f.do(http.MethodGet, "/api/v1/containers")

		require.Equal(t, http.StatusOK, rec.Code)
		var body ContainersResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, []ContainerInfo{{ID: testFeed, Name: "Example"}}, body.Feeds)
		assert.Equal(t, []ContainerInfo{{ID: testFolder, Name: "tech"}}, body.Folders)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		f.articles.On("Feeds", mock.Anything).Return(nil, errors.New("connection refused")).Once()

		rec := f.do(http.MethodGet, "/api/v1/containers")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "QUERY_FAILED", decodeError(t, rec).ErrorCode)
	})
}

func TestAdminAPIHandler_TokenStatus(t *testing.T) {
	t.Run("reports status", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		f.tokens.On("Status", mock.Anything).Return(&service.TokenStatus{HasToken: true, UserID: "u1"}, nil).Once()

		rec := f.do(http.MethodGet, "/api/v1/token/status")

		require.Equal(t, http.StatusOK, rec.Code)
		var body service.TokenStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.True(t, body.HasToken)
		assert.NotContains(t, rec.Body.String(), "access_token")
	})

	t.Run("no token", func(t *testing.T) {
		f := newHandlerFixture(nil, nil)
		f.tokens.On("Status", mock.Anything).Return(nil, service.ErrNoRefreshToken).Once()

		rec := f.do(http.MethodGet, "/api/v1/token/status")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetClientIP(t *testing.T) {
	tests := map[string]struct {
		headers map[string]string
		expect  string
	}{
		"forwarded chain": {headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, expect: "10.0.0.1"},
		"real ip":         {headers: map[string]string{"X-Real-IP": "10.0.0.3"}, expect: "10.0.0.3"},
		"remote addr":     {expect: "192.0.2.1:1234"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.expect, getClientIP(req))
		})
	}
}
