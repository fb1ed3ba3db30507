// ABOUTME: Account is the account-level article store behind feeds and folders
// ABOUTME: Serves queries from PostgreSQL and refreshes containers through a stream sync

package account

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"feedly-sync/models"
	"feedly-sync/repository"
	"feedly-sync/usecase"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// refreshTimeout bounds a shared refresh, which outlives the caller that started it
const refreshTimeout = 5 * time.Minute

// StreamSyncer pulls a Feedly stream into local storage
type StreamSyncer interface {
	SyncStream(ctx context.Context, resource models.ResourceID, newerThan *time.Time, unreadOnly *bool) (*usecase.SyncResult, error)
}

// Account is the store for one Feedly user
type Account struct {
	id            string
	articles      repository.ArticleRepository
	subscriptions repository.SubscriptionRepository
	syncer        StreamSyncer
	refreshes     singleflight.Group
	logger        *slog.Logger
}

func NewAccount(
	id string,
	articles repository.ArticleRepository,
	subscriptions repository.SubscriptionRepository,
	syncer StreamSyncer,
	logger *slog.Logger,
) *Account {
	if logger == nil {
		logger = slog.Default()
	}
	return &Account{
		id:            id,
		articles:      articles,
		subscriptions: subscriptions,
		syncer:        syncer,
		logger:        logger,
	}
}

// AccountID returns the Feedly user ID
func (a *Account) AccountID() string {
	return a.id
}

// feedIDs resolves the feeds a query covers
func (a *Account) feedIDs(ctx context.Context, scope FetchType) ([]string, error) {
	switch scope.Kind {
	case FetchKindFeed:
		return []string{scope.FeedID}, nil
	case FetchKindFolder:
		subs, err := a.subscriptions.FindByCategory(ctx, scope.FolderID)
		if err != nil {
			return nil, fmt.Errorf("resolve feeds of folder %s: %w", scope.FolderID, err)
		}
		return lo.Map(subs, func(s *models.Subscription, _ int) string { return s.FeedID }), nil
	default:
		return nil, fmt.Errorf("unsupported fetch type %s", scope.Kind)
	}
}

func (a *Account) FetchArticles(ctx context.Context, fetchType FetchType) (models.ArticleSet, error) {
	feedIDs, err := a.feedIDs(ctx, fetchType)
	if err != nil {
		return nil, err
	}
	if len(feedIDs) == 0 {
		return models.NewArticleSet(), nil
	}

	unreadOnly := fetchType.Kind == FetchKindFolder && fetchType.UnreadOnly
	articles, err := a.articles.FindByFeedIDs(ctx, feedIDs, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("fetch articles for %s: %w", fetchType, err)
	}
	return models.NewArticleSet(articles...), nil
}

// FetchArticlesAsync runs FetchArticles on its own goroutine and reports
// through completion
func (a *Account) FetchArticlesAsync(ctx context.Context, fetchType FetchType, completion ArticleSetResultFunc) {
	go func() {
		articles, err := a.FetchArticles(ctx, fetchType)
		completion(articles, err)
	}()
}

func (a *Account) FetchUnreadArticlesBetween(ctx context.Context, scope FetchType, limit int, before, after *time.Time) (models.ArticleSet, error) {
	feedIDs, err := a.feedIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(feedIDs) == 0 {
		return models.NewArticleSet(), nil
	}

	articles, err := a.articles.FindUnreadByFeedIDsBetween(ctx, feedIDs, limit, before, after)
	if err != nil {
		return nil, fmt.Errorf("fetch unread articles for %s: %w", scope, err)
	}
	return models.NewArticleSet(articles...), nil
}

// UnreadCount counts the unread articles a container holds
func (a *Account) UnreadCount(ctx context.Context, scope FetchType) (int, error) {
	feedIDs, err := a.feedIDs(ctx, scope)
	if err != nil {
		return 0, err
	}
	if len(feedIDs) == 0 {
		return 0, nil
	}
	return a.articles.CountUnread(ctx, feedIDs)
}

// Refresh syncs the stream behind scope. Concurrent refreshes of the same
// stream share one sync, which keeps running when the caller that started
// it goes away. Each caller still stops waiting when its own ctx is done.
func (a *Account) Refresh(ctx context.Context, scope FetchType) (*usecase.SyncResult, error) {
	resource := scope.Resource()
	var unreadOnly *bool
	if scope.Kind == FetchKindFolder && scope.UnreadOnly {
		unreadOnly = lo.ToPtr(true)
	}

	ch := a.refreshes.DoChan(resource.String(), func() (interface{}, error) {
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return a.syncer.SyncStream(syncCtx, resource, nil, unreadOnly)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			a.logger.Debug("Joined in-flight refresh", "stream_id", resource.String())
		}
		return res.Val.(*usecase.SyncResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Container resolves scope to the feed or folder it names. Feeds must be
// subscribed; folders are resolved by ID alone.
func (a *Account) Container(ctx context.Context, scope FetchType) (ArticleFetcher, error) {
	switch scope.Kind {
	case FetchKindFeed:
		feed, err := a.Feed(ctx, scope.FeedID)
		if err != nil {
			return nil, fmt.Errorf("resolve feed %s: %w", scope.FeedID, err)
		}
		return feed, nil
	case FetchKindFolder:
		return a.Folder(scope.FolderID), nil
	default:
		return nil, fmt.Errorf("unsupported fetch type %s", scope.Kind)
	}
}

// Feed returns the subscribed feed with the given stream ID
func (a *Account) Feed(ctx context.Context, feedID string) (*Feed, error) {
	sub, err := a.subscriptions.FindByFeedID(ctx, feedID)
	if err != nil {
		return nil, err
	}
	return NewFeed(a, sub.FeedID, sub.Title, a.logger), nil
}

// Feeds returns every subscribed feed
func (a *Account) Feeds(ctx context.Context) ([]*Feed, error) {
	subs, err := a.subscriptions.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return lo.Map(subs, func(s *models.Subscription, _ int) *Feed {
		return NewFeed(a, s.FeedID, s.Title, a.logger)
	}), nil
}

// Folders returns every category at least one subscription is filed under
func (a *Account) Folders(ctx context.Context) ([]*Folder, error) {
	subs, err := a.subscriptions.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	ids := lo.Uniq(lo.FlatMap(subs, func(s *models.Subscription, _ int) []string { return s.Categories }))
	sort.Strings(ids)
	return lo.Map(ids, func(id string, _ int) *Folder {
		return NewFolder(a, id, folderName(id), a.logger)
	}), nil
}

// Folder returns the folder for a category stream ID
func (a *Account) Folder(folderID string) *Folder {
	return NewFolder(a, folderID, folderName(folderID), a.logger)
}

// folderName is the label part of "user/<id>/category/<label>"
func folderName(categoryID string) string {
	if i := strings.LastIndex(categoryID, "/category/"); i >= 0 {
		return categoryID[i+len("/category/"):]
	}
	return categoryID
}
