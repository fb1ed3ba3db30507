// ABOUTME: Pipeline operation fetching one page of a Feedly stream
// ABOUTME: Exposes raw entries and a lazily normalized, deduplicated item set

package service

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"feedly-sync/driver"
	"feedly-sync/models"
	"feedly-sync/operation"
	"feedly-sync/utils"

	"github.com/samber/lo"
)

//go:generate mockgen -source=get_stream_contents_operation.go -destination=../mocks/mock_stream_contents.go -package=mocks -exclude_interfaces=StreamListener,EntryProvider,ParsedItemProvider

// ErrNoStreamPage is reported when the sync service returns neither a page nor an error
var ErrNoStreamPage = errors.New("sync service returned no stream page")

// StreamContentsService performs one paginated streams/contents call
type StreamContentsService interface {
	GetStreamContents(ctx context.Context, resource models.ResourceID, continuation *string, newerThan *time.Time, unreadOnly *bool) (*driver.FeedlyStream, error)
}

// StreamListener is told about a fetched page just before the operation finishes
type StreamListener interface {
	StreamContentsFetched(op *GetStreamContentsOperation, stream *driver.FeedlyStream)
}

// AccountInfo identifies the account an operation syncs for
type AccountInfo interface {
	AccountID() string
}

// UserAccount is an AccountInfo holding only the Feedly user ID
type UserAccount string

func (u UserAccount) AccountID() string { return string(u) }

// EntryProvider exposes the raw entries of a finished fetch
type EntryProvider interface {
	Entries() []driver.FeedlyEntry
}

// ParsedItemProvider exposes normalized items of a finished fetch
type ParsedItemProvider interface {
	ParsedItemProviderName() string
	ParsedEntries() models.ParsedItemSet
}

var defaultEntryParser = sync.OnceValue(NewEntryParser)

// GetStreamContentsOperation fetches a single page of a stream. It is single-shot.
type GetStreamContentsOperation struct {
	operation.Base

	account      AccountInfo
	resource     models.ResourceID
	service      StreamContentsService
	parser       *EntryParser
	continuation *string
	newerThan    *time.Time
	unreadOnly   *bool
	logger       *slog.Logger

	listenerMu sync.Mutex
	listener   StreamListener

	mu         sync.Mutex
	stream     *driver.FeedlyStream
	parsed     models.ParsedItemSet
	droppedIDs []string
}

// NewGetStreamContentsOperation creates a fetch for one page of resource.
// A nil continuation fetches the first page; nil newerThan and unreadOnly
// leave those filters unset.
func NewGetStreamContentsOperation(
	account AccountInfo,
	resource models.ResourceID,
	svc StreamContentsService,
	continuation *string,
	newerThan *time.Time,
	unreadOnly *bool,
	logger *slog.Logger,
) *GetStreamContentsOperation {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetStreamContentsOperation{
		Base:         operation.NewBase("get_stream_contents:" + resource.String()),
		account:      account,
		resource:     resource,
		service:      svc,
		parser:       defaultEntryParser(),
		continuation: continuation,
		newerThan:    newerThan,
		unreadOnly:   unreadOnly,
		logger:       logger,
	}
}

// NewGetStreamContentsOperationWithProvider fetches the first page of the
// resource named by provider
func NewGetStreamContentsOperationWithProvider(
	account AccountInfo,
	provider models.ResourceProvider,
	svc StreamContentsService,
	newerThan *time.Time,
	unreadOnly *bool,
	logger *slog.Logger,
) *GetStreamContentsOperation {
	return NewGetStreamContentsOperation(account, provider.Resource(), svc, nil, newerThan, unreadOnly, logger)
}

// Resource returns the stream this operation fetches
func (o *GetStreamContentsOperation) Resource() models.ResourceID {
	return o.resource
}

// Continuation returns the cursor this operation was created with
func (o *GetStreamContentsOperation) Continuation() *string {
	return o.continuation
}

// Account returns the owning account, which may be nil
func (o *GetStreamContentsOperation) Account() AccountInfo {
	return o.account
}

// SetStreamListener registers the listener for the fetched page. The
// operation drops the reference once it finishes.
func (o *GetStreamContentsOperation) SetStreamListener(listener StreamListener) {
	o.listenerMu.Lock()
	defer o.listenerMu.Unlock()
	o.listener = listener
}

func (o *GetStreamContentsOperation) takeListener() StreamListener {
	o.listenerMu.Lock()
	defer o.listenerMu.Unlock()
	l := o.listener
	o.listener = nil
	return l
}

// Run calls the sync service once and finishes with its outcome
func (o *GetStreamContentsOperation) Run(ctx context.Context) {
	if !o.MarkStarted() {
		o.logger.Error("Stream contents operation run more than once",
			"stream_id", o.resource.String(),
			"assertion", true)
		return
	}

	if o.IsCancelled() {
		o.finish(operation.ErrCancelled)
		return
	}

	start := time.Now()
	stream, err := o.service.GetStreamContents(ctx, o.resource, o.continuation, o.newerThan, o.unreadOnly)
	if err == nil && stream == nil {
		err = ErrNoStreamPage
	}
	if err != nil {
		utils.RecordStreamFetch("failure", time.Since(start).Seconds(), 0)
		o.logger.Error("Unable to get stream contents",
			"stream_id", o.resource.String(),
			"has_continuation", o.continuation != nil,
			"error", err)
		o.finish(err)
		return
	}

	if o.IsCancelled() || ctx.Err() != nil {
		utils.RecordStreamFetch("cancelled", time.Since(start).Seconds(), 0)
		o.logger.Debug("Discarding stream page fetched after cancellation",
			"stream_id", o.resource.String())
		o.finish(operation.ErrCancelled)
		return
	}

	utils.RecordStreamFetch("success", time.Since(start).Seconds(), len(stream.Items))
	o.setStream(stream)

	if listener := o.takeListener(); listener != nil {
		listener.StreamContentsFetched(o, stream)
	}

	o.finish(nil)
}

func (o *GetStreamContentsOperation) finish(err error) {
	o.takeListener()
	o.DidFinish(err)
}

// setStream stores a page and clears everything derived from the previous one
func (o *GetStreamContentsOperation) setStream(stream *driver.FeedlyStream) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stream = stream
	o.parsed = nil
	o.droppedIDs = nil
}

// Stream returns the fetched page, or nil if none was stored
func (o *GetStreamContentsOperation) Stream() *driver.FeedlyStream {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stream
}

// Entries returns the raw entries of the fetched page. Reading entries before
// a page was fetched is a caller bug; it is logged and yields no entries.
func (o *GetStreamContentsOperation) Entries() []driver.FeedlyEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.entriesLocked()
}

func (o *GetStreamContentsOperation) entriesLocked() []driver.FeedlyEntry {
	if o.stream == nil {
		o.logger.Error("Stream entries read before the page was fetched; is the reader a dependent of this operation?",
			"stream_id", o.resource.String(),
			"finished", o.IsFinished(),
			"assertion", true)
		return []driver.FeedlyEntry{}
	}
	return o.stream.Items
}

// ParsedEntries returns the normalized, deduplicated items of the page.
// The set is computed on first use and kept until a new page is stored;
// each call returns its own copy.
func (o *GetStreamContentsOperation) ParsedEntries() models.ParsedItemSet {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.parsed != nil {
		return maps.Clone(o.parsed)
	}

	entries := o.entriesLocked()
	parsed := models.NewParsedItemSet()
	for _, entry := range entries {
		item, err := o.parser.ParseEntry(entry)
		if err != nil {
			o.logger.Debug("Skipping unrepresentable entry",
				"stream_id", o.resource.String(),
				"entry_id", entry.ID,
				"error", err)
			continue
		}
		parsed.Insert(item)
	}

	entryIDs := lo.Uniq(lo.Map(entries, func(e driver.FeedlyEntry, _ int) string { return e.ID }))
	dropped, _ := lo.Difference(entryIDs, parsed.UniqueIDs())
	if len(dropped) > 0 {
		utils.DroppedEntriesTotal.Add(float64(len(dropped)))
		o.logger.Debug("Dropping articles with ids",
			"stream_id", o.resource.String(),
			"dropped_ids", dropped)
	}

	// Only a fetched page is memoized, so a premature read does not pin an empty set
	if o.stream != nil {
		o.parsed = parsed
		o.droppedIDs = dropped
		return maps.Clone(parsed)
	}
	return parsed
}

// ParsedItemProviderName identifies the source of the parsed items in logs
func (o *GetStreamContentsOperation) ParsedItemProviderName() string {
	return o.resource.String()
}

// DroppedEntryIDs returns the raw IDs missing from the last computed ParsedEntries
func (o *GetStreamContentsOperation) DroppedEntryIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.droppedIDs...)
}

var (
	_ operation.Operation = (*GetStreamContentsOperation)(nil)
	_ EntryProvider       = (*GetStreamContentsOperation)(nil)
	_ ParsedItemProvider  = (*GetStreamContentsOperation)(nil)
)
