// ABOUTME: Pipeline operations that persist fetched stream pages
// ABOUTME: Ingest merges parsed entries into the article store; the state update records the sync position

package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"feedly-sync/driver"
	"feedly-sync/models"
	"feedly-sync/operation"
	"feedly-sync/repository"
	"feedly-sync/service"
	"feedly-sync/utils"

	"github.com/samber/lo"
)

const savedTagSuffix = "/tag/global.saved"

// FetchedPage is the output of a finished stream fetch
type FetchedPage interface {
	service.EntryProvider
	service.ParsedItemProvider
}

// lastAttempt exposes the page fetched by the final attempt of a retried fetch
type lastAttempt struct {
	retrying *operation.Retrying
}

func (l lastAttempt) page() FetchedPage {
	if op, ok := l.retrying.Last().(*service.GetStreamContentsOperation); ok {
		return op
	}
	return nil
}

func (l lastAttempt) Entries() []driver.FeedlyEntry {
	if p := l.page(); p != nil {
		return p.Entries()
	}
	return []driver.FeedlyEntry{}
}

func (l lastAttempt) ParsedEntries() models.ParsedItemSet {
	if p := l.page(); p != nil {
		return p.ParsedEntries()
	}
	return models.NewParsedItemSet()
}

func (l lastAttempt) ParsedItemProviderName() string {
	if p := l.page(); p != nil {
		return p.ParsedItemProviderName()
	}
	return l.retrying.Name()
}

// IngestParsedItemsOperation stores the parsed entries of one page
type IngestParsedItemsOperation struct {
	operation.Base

	page     FetchedPage
	articles repository.ArticleRepository
	logger   *slog.Logger

	mu      sync.Mutex
	entries int
	parsed  int
	created int
}

// NewIngestParsedItemsOperation creates an ingest for page. The caller must
// make the operation depend on whatever produces the page.
func NewIngestParsedItemsOperation(name string, page FetchedPage, articles repository.ArticleRepository, logger *slog.Logger) *IngestParsedItemsOperation {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestParsedItemsOperation{
		Base:     operation.NewBase(name),
		page:     page,
		articles: articles,
		logger:   logger,
	}
}

func (o *IngestParsedItemsOperation) Run(ctx context.Context) {
	if !o.MarkStarted() {
		return
	}

	entries := o.page.Entries()
	items := o.page.ParsedEntries()

	// read and starred state live on the raw entry
	unread := make(map[string]bool, len(entries))
	starred := make(map[string]bool, len(entries))
	for _, e := range entries {
		unread[e.ID] = e.Unread
		starred[e.ID] = lo.ContainsBy(e.Tags, func(tag driver.FeedlyTag) bool {
			return strings.HasSuffix(tag.ID, savedTagSuffix)
		})
	}

	articles := lo.Map(items.Items(), func(item *models.ParsedItem, _ int) *models.Article {
		article := models.NewArticleFromParsedItem(item, !unread[item.UniqueID])
		article.Starred = starred[item.UniqueID]
		return article
	})

	created, err := o.articles.UpsertBatch(ctx, articles)
	if err != nil {
		o.logger.Error("Failed to store parsed items",
			"provider", o.page.ParsedItemProviderName(),
			"items", len(articles),
			"error", err)
		o.DidFinish(err)
		return
	}

	utils.ArticlesIngestedTotal.Add(float64(created))

	o.mu.Lock()
	o.entries = len(entries)
	o.parsed = len(articles)
	o.created = created
	o.mu.Unlock()

	o.logger.Debug("Stored parsed items",
		"provider", o.page.ParsedItemProviderName(),
		"entries", len(entries),
		"parsed", len(articles),
		"created", created)
	o.DidFinish(nil)
}

// Counts returns raw entries, parsed items and newly created articles
func (o *IngestParsedItemsOperation) Counts() (entries, parsed, created int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.entries, o.parsed, o.created
}

// UpdateSyncStateOperation records how far a stream has been synchronized
type UpdateSyncStateOperation struct {
	operation.Base

	state      *models.SyncState
	syncStates repository.SyncStateRepository
}

func NewUpdateSyncStateOperation(state *models.SyncState, syncStates repository.SyncStateRepository) *UpdateSyncStateOperation {
	return &UpdateSyncStateOperation{
		Base:       operation.NewBase("update_sync_state:" + state.StreamID),
		state:      state,
		syncStates: syncStates,
	}
}

func (o *UpdateSyncStateOperation) Run(ctx context.Context) {
	if !o.MarkStarted() {
		return
	}
	o.DidFinish(o.syncStates.Upsert(ctx, o.state))
}
