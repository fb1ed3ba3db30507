// ABOUTME: Authenticated Feedly client used by stream fetch operations
// ABOUTME: Adds bearer tokens, circuit breaking and one re-auth retry on 401

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"feedly-sync/driver"
	"feedly-sync/models"
	"feedly-sync/utils"
)

//go:generate mockgen -source=feedly_client.go -destination=../mocks/mock_feedly_client.go -package=mocks

// ErrInvalidResource is returned for stream IDs Feedly would not recognize
var ErrInvalidResource = errors.New("invalid feedly resource id")

// FeedlyStreamAPI is the raw Feedly API surface the client needs
type FeedlyStreamAPI interface {
	GetStreamContents(ctx context.Context, accessToken string, params driver.StreamContentsParams) (*driver.FeedlyStream, error)
	GetSubscriptions(ctx context.Context, accessToken string) ([]driver.FeedlySubscription, error)
}

// AccessTokenSource supplies bearer tokens
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Invalidate()
}

// QuotaGuard holds back calls while the API quota is exhausted
type QuotaGuard interface {
	CheckAllowed() error
}

// FeedlyClient implements StreamContentsService over the Feedly API
type FeedlyClient struct {
	api      FeedlyStreamAPI
	tokens   AccessTokenSource
	breaker  *utils.CircuitBreaker
	quota    QuotaGuard
	pageSize int
	logger   *slog.Logger
}

// NewFeedlyClient creates a client. A nil breaker gets the default configuration.
func NewFeedlyClient(api FeedlyStreamAPI, tokens AccessTokenSource, breaker *utils.CircuitBreaker, pageSize int, logger *slog.Logger) *FeedlyClient {
	if logger == nil {
		logger = slog.Default()
	}
	if breaker == nil {
		config := utils.DefaultCircuitBreakerConfig()
		config.IsFailure = IsTransientAPIError
		breaker = utils.NewCircuitBreaker(config, logger)
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &FeedlyClient{
		api:      api,
		tokens:   tokens,
		breaker:  breaker,
		pageSize: pageSize,
		logger:   logger,
	}
}

// GetStreamContents fetches one page of resource
func (c *FeedlyClient) GetStreamContents(
	ctx context.Context,
	resource models.ResourceID,
	continuation *string,
	newerThan *time.Time,
	unreadOnly *bool,
) (*driver.FeedlyStream, error) {
	if !resource.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResource, resource)
	}

	params := driver.StreamContentsParams{
		StreamID:     resource.String(),
		Count:        c.pageSize,
		Continuation: continuation,
		NewerThan:    newerThan,
		UnreadOnly:   unreadOnly,
		Ranked:       "newest",
	}

	var stream *driver.FeedlyStream
	err := c.authorized(ctx, func(ctx context.Context, token string) error {
		var err error
		stream, err = c.api.GetStreamContents(ctx, token, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get stream contents %s: %w", resource, err)
	}
	return stream, nil
}

// GetSubscriptions lists the user's subscriptions
func (c *FeedlyClient) GetSubscriptions(ctx context.Context) ([]driver.FeedlySubscription, error) {
	var subs []driver.FeedlySubscription
	err := c.authorized(ctx, func(ctx context.Context, token string) error {
		var err error
		subs, err = c.api.GetSubscriptions(ctx, token)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get subscriptions: %w", err)
	}
	return subs, nil
}

// SetQuotaGuard makes every call check guard first
func (c *FeedlyClient) SetQuotaGuard(guard QuotaGuard) {
	c.quota = guard
}

// authorized runs call through the circuit breaker with a bearer token,
// retrying once with a fresh token if the API answers 401
func (c *FeedlyClient) authorized(ctx context.Context, call func(ctx context.Context, token string) error) error {
	if c.quota != nil {
		if err := c.quota.CheckAllowed(); err != nil {
			return err
		}
	}
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("obtain access token: %w", err)
		}

		err = call(ctx, token)
		if !errors.Is(err, driver.ErrUnauthorized) {
			return err
		}

		c.logger.Warn("Feedly rejected access token, refreshing and retrying once")
		c.tokens.Invalidate()
		token, err = c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("obtain access token after 401: %w", err)
		}
		return call(ctx, token)
	})
}

// IsTransientAPIError reports errors that say the Feedly service itself is
// unhealthy (5xx, 429, transport failures). Client errors, credential
// problems and cancellation do not count.
func IsTransientAPIError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrMalformedResponse) ||
		errors.Is(err, driver.ErrInvalidRefreshToken) ||
		errors.Is(err, ErrNoRefreshToken) ||
		errors.Is(err, ErrQuotaExhausted) {
		return false
	}
	var apiErr *driver.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

var _ StreamContentsService = (*FeedlyClient)(nil)
