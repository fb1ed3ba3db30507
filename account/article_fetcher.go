// ABOUTME: Uniform article queries over feeds and folders
// ABOUTME: Both containers delegate to the ArticleStore of their owning account

package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feedly-sync/models"
)

// ErrNoOwningAccount is logged when a container is queried without an account
var ErrNoOwningAccount = errors.New("container has no owning account")

// ArticleSetResultFunc receives the outcome of an asynchronous fetch
type ArticleSetResultFunc func(articles models.ArticleSet, err error)

// ArticleStore is the account-level store the containers delegate to
type ArticleStore interface {
	FetchArticles(ctx context.Context, fetchType FetchType) (models.ArticleSet, error)
	FetchArticlesAsync(ctx context.Context, fetchType FetchType, completion ArticleSetResultFunc)
	// FetchUnreadArticlesBetween returns unread articles of scope dated in
	// (after, before). nil bounds are open; limit <= 0 means no limit.
	FetchUnreadArticlesBetween(ctx context.Context, scope FetchType, limit int, before, after *time.Time) (models.ArticleSet, error)
}

// ArticleFetcher is implemented by every container articles can be read from
type ArticleFetcher interface {
	FetchArticles(ctx context.Context) (models.ArticleSet, error)
	FetchArticlesAsync(ctx context.Context, completion ArticleSetResultFunc)
	FetchUnreadArticles(ctx context.Context) (models.ArticleSet, error)
	FetchUnreadArticlesBetween(ctx context.Context, before, after *time.Time) (models.ArticleSet, error)
	FetchUnreadArticlesAsync(ctx context.Context, completion ArticleSetResultFunc)
}

var (
	_ ArticleFetcher = (*Feed)(nil)
	_ ArticleFetcher = (*Folder)(nil)
	_ ArticleStore   = (*Account)(nil)
)

// ownerOf drops a typed nil *Account so the nil checks below see it
func ownerOf(store ArticleStore) ArticleStore {
	if a, ok := store.(*Account); ok && a == nil {
		return nil
	}
	return store
}

func missingOwner(logger *slog.Logger, kind, id string) {
	logger.Error("Expected container account, but got nil",
		"container", kind,
		"id", id,
		"error", ErrNoOwningAccount,
		"assertion", true)
}

// Feed is a single subscribed feed
type Feed struct {
	ID    string
	Title string

	account ArticleStore
	logger  *slog.Logger
}

func NewFeed(account ArticleStore, id, title string, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{ID: id, Title: title, account: ownerOf(account), logger: logger}
}

func (f *Feed) FetchArticles(ctx context.Context) (models.ArticleSet, error) {
	if f.account == nil {
		missingOwner(f.logger, "feed", f.ID)
		return models.NewArticleSet(), nil
	}
	return f.account.FetchArticles(ctx, FeedFetch(f.ID))
}

func (f *Feed) FetchArticlesAsync(ctx context.Context, completion ArticleSetResultFunc) {
	if f.account == nil {
		missingOwner(f.logger, "feed", f.ID)
		completion(models.NewArticleSet(), nil)
		return
	}
	f.account.FetchArticlesAsync(ctx, FeedFetch(f.ID), completion)
}

func (f *Feed) FetchUnreadArticles(ctx context.Context) (models.ArticleSet, error) {
	articles, err := f.FetchArticles(ctx)
	if err != nil {
		return nil, err
	}
	return articles.UnreadArticles(), nil
}

func (f *Feed) FetchUnreadArticlesBetween(ctx context.Context, before, after *time.Time) (models.ArticleSet, error) {
	if f.account == nil {
		missingOwner(f.logger, "feed", f.ID)
		return models.NewArticleSet(), nil
	}
	return f.account.FetchUnreadArticlesBetween(ctx, FeedFetch(f.ID), 0, before, after)
}

func (f *Feed) FetchUnreadArticlesAsync(ctx context.Context, completion ArticleSetResultFunc) {
	if f.account == nil {
		missingOwner(f.logger, "feed", f.ID)
		completion(models.NewArticleSet(), nil)
		return
	}
	f.account.FetchArticlesAsync(ctx, FeedFetch(f.ID), func(articles models.ArticleSet, err error) {
		if err != nil {
			completion(nil, err)
			return
		}
		completion(articles.UnreadArticles(), nil)
	})
}

// Folder is a Feedly category holding any number of feeds
type Folder struct {
	ID   string
	Name string

	account ArticleStore
	logger  *slog.Logger
}

func NewFolder(account ArticleStore, id, name string, logger *slog.Logger) *Folder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Folder{ID: id, Name: name, account: ownerOf(account), logger: logger}
}

func (f *Folder) fetch(ctx context.Context, unreadOnly bool) (models.ArticleSet, error) {
	if f.account == nil {
		missingOwner(f.logger, "folder", f.ID)
		return models.NewArticleSet(), nil
	}
	return f.account.FetchArticles(ctx, FolderFetch(f.ID, unreadOnly))
}

func (f *Folder) fetchAsync(ctx context.Context, unreadOnly bool, completion ArticleSetResultFunc) {
	if f.account == nil {
		missingOwner(f.logger, "folder", f.ID)
		completion(models.NewArticleSet(), nil)
		return
	}
	f.account.FetchArticlesAsync(ctx, FolderFetch(f.ID, unreadOnly), completion)
}

func (f *Folder) FetchArticles(ctx context.Context) (models.ArticleSet, error) {
	return f.fetch(ctx, false)
}

func (f *Folder) FetchArticlesAsync(ctx context.Context, completion ArticleSetResultFunc) {
	f.fetchAsync(ctx, false, completion)
}

func (f *Folder) FetchUnreadArticles(ctx context.Context) (models.ArticleSet, error) {
	return f.fetch(ctx, true)
}

func (f *Folder) FetchUnreadArticlesBetween(ctx context.Context, before, after *time.Time) (models.ArticleSet, error) {
	if f.account == nil {
		missingOwner(f.logger, "folder", f.ID)
		return models.NewArticleSet(), nil
	}
	return f.account.FetchUnreadArticlesBetween(ctx, FolderFetch(f.ID, true), 0, before, after)
}

func (f *Folder) FetchUnreadArticlesAsync(ctx context.Context, completion ArticleSetResultFunc) {
	f.fetchAsync(ctx, true, completion)
}
