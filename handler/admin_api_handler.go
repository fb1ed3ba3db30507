// ABOUTME: Admin API handler for on-demand stream syncs and article queries
// ABOUTME: ServiceAccount authentication, per-client rate limiting and parameter validation

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"feedly-sync/account"
	"feedly-sync/models"
	"feedly-sync/repository"
	"feedly-sync/security"
	"feedly-sync/service"
	"feedly-sync/usecase"
	"feedly-sync/utils"

	"github.com/samber/lo"
)

const (
	maxArticleLimit = 1000
	requestTimeout  = 5 * time.Minute
)

// Authenticator verifies the bearer token of an admin request
type Authenticator interface {
	Authenticate(token string) (*security.ServiceAccountInfo, error)
}

// RateLimiter admits or rejects a request per client
type RateLimiter interface {
	Allow(client, endpoint string) bool
}

// StreamSyncer runs one sync pass over a stream
type StreamSyncer interface {
	SyncStream(ctx context.Context, resource models.ResourceID, newerThan *time.Time, unreadOnly *bool) (*usecase.SyncResult, error)
}

// ArticleFacade resolves feeds and folders and refreshes them
type ArticleFacade interface {
	Container(ctx context.Context, scope account.FetchType) (account.ArticleFetcher, error)
	Feeds(ctx context.Context) ([]*account.Feed, error)
	Folders(ctx context.Context) ([]*account.Folder, error)
	UnreadCount(ctx context.Context, scope account.FetchType) (int, error)
	Refresh(ctx context.Context, scope account.FetchType) (*usecase.SyncResult, error)
}

// TokenStatusProvider reports the state of the Feedly OAuth2 token
type TokenStatusProvider interface {
	Status(ctx context.Context) (*service.TokenStatus, error)
}

// AdminAPIHandler serves the /api/v1 admin endpoints
type AdminAPIHandler struct {
	streams        StreamSyncer
	articles       ArticleFacade
	tokens         TokenStatusProvider
	authenticator  Authenticator
	rateLimiter    RateLimiter
	inputValidator *security.InputValidator
	logger         *slog.Logger
}

// ErrorResponse is the body of every failed admin request
type ErrorResponse struct {
	Status    string    `json:"status"`
	ErrorCode string    `json:"error_code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ContainersResponse lists the feeds and folders articles can be read from
type ContainersResponse struct {
	Status    string          `json:"status"`
	Feeds     []ContainerInfo `json:"feeds"`
	Folders   []ContainerInfo `json:"folders"`
	Timestamp time.Time       `json:"timestamp"`
}

type ContainerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SyncResponse wraps the outcome of a sync or refresh
type SyncResponse struct {
	Status    string              `json:"status"`
	Result    *usecase.SyncResult `json:"result"`
	Timestamp time.Time           `json:"timestamp"`
}

// ArticlesResponse lists articles newest first
type ArticlesResponse struct {
	Status      string            `json:"status"`
	Scope       string            `json:"scope"`
	Count       int               `json:"count"`
	UnreadCount int               `json:"unread_count"`
	Articles    []*models.Article `json:"articles"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewAdminAPIHandler creates the admin handler. A nil authenticator disables
// authentication, which is only meant for local development.
func NewAdminAPIHandler(
	streams StreamSyncer,
	articles ArticleFacade,
	tokens TokenStatusProvider,
	authenticator Authenticator,
	rateLimiter RateLimiter,
	logger *slog.Logger,
) *AdminAPIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminAPIHandler{
		streams:        streams,
		articles:       articles,
		tokens:         tokens,
		authenticator:  authenticator,
		rateLimiter:    rateLimiter,
		inputValidator: security.NewInputValidator(),
		logger:         logger,
	}
}

// Register mounts the admin endpoints on mux
func (h *AdminAPIHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/v1/streams/sync", h.guard("/api/v1/streams/sync", h.HandleStreamSync))
	mux.Handle("POST /api/v1/refresh", h.guard("/api/v1/refresh", h.HandleRefresh))
	mux.Handle("GET /api/v1/articles", h.guard("/api/v1/articles", h.HandleArticles))
	mux.Handle("GET /api/v1/containers", h.guard("/api/v1/containers", h.HandleContainers))
	mux.Handle("GET /api/v1/token/status", h.guard("/api/v1/token/status", h.HandleTokenStatus))
}

// guard applies security headers, rate limiting, authentication and request metrics
func (h *AdminAPIHandler) guard(endpoint string, next func(w http.ResponseWriter, r *http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := "success"
		defer func() {
			utils.RecordAdminRequest(endpoint, status, time.Since(start).Seconds())
		}()

		setSecurityHeaders(w)
		clientIP := getClientIP(r)

		if h.rateLimiter != nil && !h.rateLimiter.Allow(clientIP, endpoint) {
			h.respondWithError(w, "RATE_LIMITED", "Rate limit exceeded", http.StatusTooManyRequests)
			status = "rate_limited"
			return
		}

		if h.authenticator != nil {
			info, err := h.authenticator.Authenticate(security.BearerToken(r.Header.Get("Authorization")))
			switch {
			case errors.Is(err, security.ErrAccountForbidden):
				h.respondWithError(w, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions for this operation", http.StatusForbidden)
				status = "forbidden"
				return
			case err != nil:
				h.logger.Warn("Admin authentication failed",
					"error", err,
					"client_ip", clientIP,
					"endpoint", endpoint)
				h.respondWithError(w, "UNAUTHORIZED", "Invalid or missing authentication token", http.StatusUnauthorized)
				status = "unauthorized"
				return
			}
			r = r.WithContext(withServiceAccount(r.Context(), info))
		}

		status = next(w, r)
	})
}

// HandleStreamSync syncs the stream named by stream_id
func (h *AdminAPIHandler) HandleStreamSync(w http.ResponseWriter, r *http.Request) string {
	query := r.URL.Query()

	resource, err := h.inputValidator.ValidateStreamID("stream_id", query.Get("stream_id"))
	if err != nil {
		return h.validationFailed(w, err)
	}
	newerThan, err := h.inputValidator.ParseOptionalTime("newer_than", query.Get("newer_than"))
	if err != nil {
		return h.validationFailed(w, err)
	}
	unreadOnly, err := h.inputValidator.ParseOptionalBool("unread_only", query.Get("unread_only"))
	if err != nil {
		return h.validationFailed(w, err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	h.logger.Info("Processing stream sync request",
		"stream_id", resource.String(),
		"service_account", serviceAccountName(r.Context()),
		"newer_than", newerThan,
		"unread_only", unreadOnly)

	result, err := h.streams.SyncStream(ctx, resource, newerThan, unreadOnly)
	if err != nil {
		return h.syncFailed(w, resource, err)
	}

	h.respondJSON(w, http.StatusOK, SyncResponse{Status: "success", Result: result, Timestamp: time.Now()})
	return "success"
}

// HandleRefresh refreshes a feed or folder through the account facade
func (h *AdminAPIHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) string {
	scope, err := h.parseScope(r)
	if err != nil {
		return h.validationFailed(w, err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.articles.Refresh(ctx, scope)
	if err != nil {
		return h.syncFailed(w, scope.Resource(), err)
	}

	h.respondJSON(w, http.StatusOK, SyncResponse{Status: "success", Result: result, Timestamp: time.Now()})
	return "success"
}

// HandleArticles lists stored articles of a feed or folder
func (h *AdminAPIHandler) HandleArticles(w http.ResponseWriter, r *http.Request) string {
	query := r.URL.Query()

	scope, err := h.parseScope(r)
	if err != nil {
		return h.validationFailed(w, err)
	}
	before, err := h.inputValidator.ParseOptionalTime("before", query.Get("before"))
	if err != nil {
		return h.validationFailed(w, err)
	}
	after, err := h.inputValidator.ParseOptionalTime("after", query.Get("after"))
	if err != nil {
		return h.validationFailed(w, err)
	}
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		return h.validationFailed(w, err)
	}

	ctx := r.Context()
	container, err := h.articles.Container(ctx, scope)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		h.respondWithError(w, "UNKNOWN_FEED", "Feed is not subscribed", http.StatusNotFound)
		return "unknown_feed"
	}
	if err != nil {
		h.logger.Error("Article container lookup failed", "scope", scope.String(), "error", err)
		h.respondWithError(w, "QUERY_FAILED", "Failed to load articles", http.StatusInternalServerError)
		return "query_failed"
	}

	var articles models.ArticleSet
	var unread int
	if before != nil || after != nil || limit > 0 {
		articles, err = container.FetchUnreadArticlesBetween(ctx, before, after)
		unread = h.unreadCount(ctx, scope)
	} else {
		type fetched struct {
			articles models.ArticleSet
			err      error
		}
		done := make(chan fetched, 1)
		completion := func(articles models.ArticleSet, err error) { done <- fetched{articles, err} }
		if scope.UnreadOnly {
			container.FetchUnreadArticlesAsync(ctx, completion)
		} else {
			container.FetchArticlesAsync(ctx, completion)
		}
		unread = h.unreadCount(ctx, scope)
		result := <-done
		articles, err = result.articles, result.err
	}
	if err != nil {
		h.logger.Error("Article query failed", "scope", scope.String(), "error", err)
		h.respondWithError(w, "QUERY_FAILED", "Failed to load articles", http.StatusInternalServerError)
		return "query_failed"
	}

	list := lo.Values(articles)
	sort.Slice(list, func(i, j int) bool {
		return list[i].SortDate().After(list[j].SortDate())
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	h.respondJSON(w, http.StatusOK, ArticlesResponse{
		Status:      "success",
		Scope:       scope.String(),
		Count:       len(list),
		UnreadCount: unread,
		Articles:    list,
		Timestamp:   time.Now(),
	})
	return "success"
}

// HandleContainers lists subscribed feeds and the folders they are filed under
func (h *AdminAPIHandler) HandleContainers(w http.ResponseWriter, r *http.Request) string {
	feeds, err := h.articles.Feeds(r.Context())
	if err != nil {
		return h.listingFailed(w, err)
	}
	folders, err := h.articles.Folders(r.Context())
	if err != nil {
		return h.listingFailed(w, err)
	}

	h.respondJSON(w, http.StatusOK, ContainersResponse{
		Status: "success",
		Feeds: lo.Map(feeds, func(f *account.Feed, _ int) ContainerInfo {
			return ContainerInfo{ID: f.ID, Name: f.Title}
		}),
		Folders: lo.Map(folders, func(f *account.Folder, _ int) ContainerInfo {
			return ContainerInfo{ID: f.ID, Name: f.Name}
		}),
		Timestamp: time.Now(),
	})
	return "success"
}

func (h *AdminAPIHandler) listingFailed(w http.ResponseWriter, err error) string {
	h.logger.Error("Container listing failed", "error", err)
	h.respondWithError(w, "QUERY_FAILED", "Failed to list feeds and folders", http.StatusInternalServerError)
	return "query_failed"
}

// unreadCount is best effort; a failure only leaves the count at zero
func (h *AdminAPIHandler) unreadCount(ctx context.Context, scope account.FetchType) int {
	unread, err := h.articles.UnreadCount(ctx, scope)
	if err != nil {
		h.logger.Warn("Unread count failed", "scope", scope.String(), "error", err)
	}
	return unread
}

// HandleTokenStatus reports the OAuth2 token state without exposing the token
func (h *AdminAPIHandler) HandleTokenStatus(w http.ResponseWriter, r *http.Request) string {
	status, err := h.tokens.Status(r.Context())
	if err != nil {
		h.respondWithError(w, "TOKEN_UNAVAILABLE", "No OAuth2 token available", http.StatusServiceUnavailable)
		return "token_unavailable"
	}
	h.respondJSON(w, http.StatusOK, status)
	return "success"
}

// parseScope reads exactly one of feed_id or folder_id
func (h *AdminAPIHandler) parseScope(r *http.Request) (account.FetchType, error) {
	query := r.URL.Query()
	feedID, folderID := query.Get("feed_id"), query.Get("folder_id")

	unreadOnly, err := h.inputValidator.ParseOptionalBool("unread_only", query.Get("unread_only"))
	if err != nil {
		return account.FetchType{}, err
	}

	switch {
	case feedID != "" && folderID != "":
		return account.FetchType{}, security.ValidationError{Field: "feed_id", Message: "cannot be combined with folder_id"}
	case feedID != "":
		resource, err := h.inputValidator.ValidateStreamID("feed_id", feedID, models.ResourceKindFeed)
		if err != nil {
			return account.FetchType{}, err
		}
		scope := account.FeedFetch(resource.String())
		scope.UnreadOnly = lo.FromPtr(unreadOnly)
		return scope, nil
	case folderID != "":
		resource, err := h.inputValidator.ValidateStreamID("folder_id", folderID, models.ResourceKindCategory)
		if err != nil {
			return account.FetchType{}, err
		}
		return account.FolderFetch(resource.String(), lo.FromPtr(unreadOnly)), nil
	default:
		return account.FetchType{}, security.ValidationError{Field: "feed_id", Message: "feed_id or folder_id is required"}
	}
}

func parseLimit(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit < 1 || limit > maxArticleLimit {
		return 0, security.ValidationError{Field: "limit", Message: "must be between 1 and 1000"}
	}
	return limit, nil
}

func (h *AdminAPIHandler) validationFailed(w http.ResponseWriter, err error) string {
	h.respondWithError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	return "validation_error"
}

func (h *AdminAPIHandler) syncFailed(w http.ResponseWriter, resource models.ResourceID, err error) string {
	h.logger.Error("Stream sync failed",
		"stream_id", resource.String(),
		"error", err)

	switch {
	case errors.Is(err, service.ErrInvalidResource):
		h.respondWithError(w, "INVALID_STREAM", err.Error(), http.StatusBadRequest)
		return "invalid_stream"
	case errors.Is(err, context.DeadlineExceeded):
		h.respondWithError(w, "SYNC_TIMEOUT", "Stream sync timed out", http.StatusGatewayTimeout)
		return "timeout"
	default:
		h.respondWithError(w, "SYNC_FAILED", "Stream sync failed", http.StatusBadGateway)
		return "sync_failed"
	}
}

func (h *AdminAPIHandler) respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("Failed to encode response", "error", err)
	}
}

func (h *AdminAPIHandler) respondWithError(w http.ResponseWriter, errorCode, message string, statusCode int) {
	h.respondJSON(w, statusCode, ErrorResponse{
		Status:    "error",
		ErrorCode: errorCode,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
}

// getClientIP prefers the first hop of X-Forwarded-For
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

type serviceAccountKey struct{}

func withServiceAccount(ctx context.Context, info *security.ServiceAccountInfo) context.Context {
	return context.WithValue(ctx, serviceAccountKey{}, info)
}

func serviceAccountName(ctx context.Context) string {
	if info, ok := ctx.Value(serviceAccountKey{}).(*security.ServiceAccountInfo); ok && info != nil {
		return info.QualifiedName()
	}
	return "anonymous"
}
