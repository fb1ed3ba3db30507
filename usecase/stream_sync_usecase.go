// ABOUTME: StreamSyncUsecase pages through a Feedly stream and merges it into local storage
// ABOUTME: Builds the fetch / ingest / state-update operation graph for one sync pass

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"feedly-sync/driver"
	"feedly-sync/models"
	"feedly-sync/operation"
	"feedly-sync/repository"
	"feedly-sync/service"

	"github.com/samber/lo"
)

// SyncResult summarizes one sync pass over a stream
type SyncResult struct {
	StreamID     string        `json:"stream_id"`
	Pages        int           `json:"pages"`
	Entries      int           `json:"entries"`
	Parsed       int           `json:"parsed"`
	Dropped      int           `json:"dropped"`
	Created      int           `json:"created"`
	Continuation string        `json:"continuation,omitempty"`
	Resumed      bool          `json:"resumed"`
	Duration     time.Duration `json:"duration"`
}

// StreamSyncConfig tunes a sync pass
type StreamSyncConfig struct {
	MaxPages      int
	MaxConcurrent int
	// RetryPolicy wraps each page fetch in a retry when set
	RetryPolicy operation.RetryPolicy
}

// StreamSyncUsecase synchronizes Feedly streams into the article store
type StreamSyncUsecase struct {
	account    service.AccountInfo
	streams    service.StreamContentsService
	articles   repository.ArticleRepository
	syncStates repository.SyncStateRepository
	config     StreamSyncConfig
	logger     *slog.Logger
}

func NewStreamSyncUsecase(
	account service.AccountInfo,
	streams service.StreamContentsService,
	articles repository.ArticleRepository,
	syncStates repository.SyncStateRepository,
	config StreamSyncConfig,
	logger *slog.Logger,
) *StreamSyncUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 10
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	return &StreamSyncUsecase{
		account:    account,
		streams:    streams,
		articles:   articles,
		syncStates: syncStates,
		config:     config,
		logger:     logger,
	}
}

// SyncStream fetches resource page by page and stores every page. A nil
// newerThan continues from the stream's sync state: a pass suspended at the
// page limit is resumed from its cursor with its original lower bound,
// otherwise the window starts at the last completed pass.
func (u *StreamSyncUsecase) SyncStream(ctx context.Context, resource models.ResourceID, newerThan *time.Time, unreadOnly *bool) (*SyncResult, error) {
	if !resource.IsValid() {
		return nil, fmt.Errorf("%w: %q", service.ErrInvalidResource, resource)
	}

	start := time.Now()
	startedAt := start
	var resume *string
	if newerThan == nil {
		state, err := u.syncStates.FindByStreamID(ctx, resource.String())
		switch {
		case errors.Is(err, repository.ErrSyncStateNotFound):
		case err != nil:
			return nil, fmt.Errorf("load sync state for %s: %w", resource, err)
		default:
			newerThan = state.NewerThan()
			if state.Resumable() {
				resume = lo.ToPtr(state.ContinuationToken)
				if !state.PendingSince.IsZero() {
					startedAt = state.PendingSince
				}
			}
		}
	}

	u.logger.Info("Starting stream sync",
		"stream_id", resource.String(),
		"newer_than", newerThan,
		"resumed", resume != nil,
		"max_pages", u.config.MaxPages)

	run := &syncRun{
		usecase:    u,
		resource:   resource,
		newerThan:  newerThan,
		unreadOnly: unreadOnly,
		startedAt:  startedAt,
		resumed:    resume != nil,
		queue:      operation.NewQueue(ctx, "stream_sync", u.config.MaxConcurrent, u.logger),
	}

	if err := run.enqueuePage(resume, 1); err != nil {
		return nil, err
	}

	waitErr := run.queue.Wait()
	if err := run.recordedErr(); err != nil {
		waitErr = errors.Join(waitErr, err)
	}

	result := run.result()
	result.Duration = time.Since(start)

	if waitErr != nil {
		if run.resumed && isStaleContinuation(waitErr) {
			u.restartWindow(ctx, resource, newerThan)
		}
		u.logger.Error("Stream sync failed",
			"stream_id", resource.String(),
			"pages", result.Pages,
			"error", waitErr)
		return nil, fmt.Errorf("sync stream %s: %w", resource, waitErr)
	}

	u.logger.Info("Stream sync completed",
		"stream_id", resource.String(),
		"pages", result.Pages,
		"entries", result.Entries,
		"parsed", result.Parsed,
		"dropped", result.Dropped,
		"created", result.Created,
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// syncRun is the state of one SyncStream call
type syncRun struct {
	usecase    *StreamSyncUsecase
	resource   models.ResourceID
	newerThan  *time.Time
	unreadOnly *bool
	startedAt  time.Time
	resumed    bool
	queue      *operation.Queue

	mu           sync.Mutex
	ingests      []*IngestParsedItemsOperation
	continuation string
	err          error
}

// enqueuePage queues the fetch of one page plus its ingest
func (r *syncRun) enqueuePage(continuation *string, page int) error {
	u := r.usecase
	name := pageName(r.resource, page)

	newFetch := func() *service.GetStreamContentsOperation {
		op := service.NewGetStreamContentsOperation(u.account, r.resource, u.streams, continuation, r.newerThan, r.unreadOnly, u.logger)
		op.SetName("get_stream_contents:" + name)
		return op
	}

	var fetch operation.Operation
	var source FetchedPage
	if u.config.RetryPolicy != nil {
		retrying := operation.NewRetrying("fetch_with_retry:"+name, func(attempt int) operation.Operation {
			op := newFetch()
			op.SetStreamListener(&pageListener{run: r, page: page})
			return op
		}, u.config.RetryPolicy, isRetryableFetchError, u.logger)
		fetch, source = retrying, lastAttempt{retrying: retrying}
	} else {
		op := newFetch()
		op.SetStreamListener(&pageListener{run: r, page: page})
		fetch, source = op, op
	}

	ingest := NewIngestParsedItemsOperation("ingest:"+name, source, u.articles, u.logger)
	ingest.AddDependency(fetch)

	r.mu.Lock()
	r.ingests = append(r.ingests, ingest)
	r.mu.Unlock()

	if err := r.queue.Add(fetch, ingest); err != nil {
		return fmt.Errorf("queue page %d of %s: %w", page, r.resource, err)
	}
	return nil
}

// finish queues the state update once the last page is known
func (r *syncRun) finish(continuation string) error {
	r.mu.Lock()
	r.continuation = continuation
	ingests := append([]*IngestParsedItemsOperation(nil), r.ingests...)
	r.mu.Unlock()

	state := models.NewSyncState(r.resource.String(), "")
	if continuation == "" {
		state.CompletePass(r.startedAt)
	} else {
		state.SuspendPass(continuation, r.newerThan, r.startedAt)
	}
	update := NewUpdateSyncStateOperation(state, r.usecase.syncStates)
	for _, ingest := range ingests {
		update.AddDependency(ingest)
	}
	return r.queue.Add(update)
}

func (r *syncRun) recordErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = errors.Join(r.err, err)
}

func (r *syncRun) recordedErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *syncRun) result() *SyncResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := &SyncResult{StreamID: r.resource.String(), Continuation: r.continuation, Resumed: r.resumed}
	for _, ingest := range r.ingests {
		if ingest.Err() != nil || !ingest.IsFinished() {
			continue
		}
		entries, parsed, created := ingest.Counts()
		result.Pages++
		result.Entries += entries
		result.Parsed += parsed
		result.Created += created
		result.Dropped += len(lo.Uniq(lo.Map(ingest.page.Entries(), func(e driver.FeedlyEntry, _ int) string { return e.ID }))) - parsed
	}
	return result
}

// pageListener chains the next page, or the final state update, off a fetched page
type pageListener struct {
	run  *syncRun
	page int
}

func (l *pageListener) StreamContentsFetched(op *service.GetStreamContentsOperation, stream *driver.FeedlyStream) {
	r := l.run
	maxPages := r.usecase.config.MaxPages

	if stream.HasContinuation() && l.page < maxPages {
		if err := r.enqueuePage(stream.Continuation, l.page+1); err != nil {
			r.recordErr(err)
		}
		return
	}

	continuation := ""
	if stream.HasContinuation() {
		continuation = *stream.Continuation
		r.usecase.logger.Info("Stopping stream sync at page limit",
			"stream_id", r.resource.String(),
			"pages", l.page,
			"continuation", continuation)
	}
	if err := r.finish(continuation); err != nil {
		r.recordErr(err)
	}
}

func isRetryableFetchError(err error) bool {
	if errors.Is(err, operation.ErrCancelled) {
		return false
	}
	return service.IsTransientAPIError(err)
}

// isStaleContinuation reports whether Feedly rejected the cursor itself
func isStaleContinuation(err error) bool {
	var apiErr *driver.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

// restartWindow drops a rejected cursor. The lower bound is kept, so the
// next pass fetches the whole window again instead of skipping its tail.
func (u *StreamSyncUsecase) restartWindow(ctx context.Context, resource models.ResourceID, newerThan *time.Time) {
	state := models.NewSyncState(resource.String(), "")
	state.LastSync = lo.FromPtr(newerThan)
	if err := u.syncStates.Upsert(ctx, state); err != nil {
		u.logger.Error("Failed to drop rejected continuation", "stream_id", resource.String(), "error", err)
		return
	}
	u.logger.Warn("Feedly rejected the stored continuation, restarting the window",
		"stream_id", resource.String(),
		"newer_than", newerThan)
}

// pageName labels the operations of one page
func pageName(resource models.ResourceID, page int) string {
	return resource.String() + "#" + strconv.Itoa(page)
}
