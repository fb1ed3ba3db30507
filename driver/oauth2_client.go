package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedly-sync/models"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://cloud.feedly.com"
	defaultUserAgent = "feedly-sync/1.0"
)

// Feedly API error types for better error handling
var (
	ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired")
	ErrUnauthorized        = errors.New("authentication failed: token may be expired or invalid")
	ErrRateLimited         = errors.New("feedly API rate limit exceeded")
	ErrTemporaryFailure    = errors.New("temporary feedly service failure")
	ErrMalformedResponse   = errors.New("malformed feedly API response")
)

// APIError describes a non-2xx response from the Feedly API
type APIError struct {
	StatusCode int
	ErrorID    string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("feedly API request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("feedly API request failed with status %d", e.StatusCode)
}

// Unwrap maps the status code onto the package sentinel errors
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrTemporaryFailure
	default:
		return nil
	}
}

// StreamContentsParams are the query parameters of streams/contents
type StreamContentsParams struct {
	StreamID     string
	Count        int
	Continuation *string
	NewerThan    *time.Time
	UnreadOnly   *bool
	Ranked       string // "newest" or "oldest"
}

// FeedlyAPIClient performs authenticated HTTP calls against the Feedly cloud API
type FeedlyAPIClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	observer     ResponseObserver
	logger       *slog.Logger
}

// ResponseObserver sees the status and headers of every API response
type ResponseObserver interface {
	ObserveResponse(statusCode int, headers http.Header)
}

// NewFeedlyAPIClient creates a new client for the Feedly API
func NewFeedlyAPIClient(clientID, clientSecret, baseURL string, logger *slog.Logger) *FeedlyAPIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &FeedlyAPIClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		logger:       logger,
		// Feedly allows bursts but throttles sustained traffic; one request per second keeps us well clear
		limiter: rate.NewLimiter(rate.Every(time.Second), 4),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   2,
			},
		},
	}
}

// SetHTTPClient allows injecting a custom HTTP client
func (c *FeedlyAPIClient) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetResponseObserver registers an observer for API responses
func (c *FeedlyAPIClient) SetResponseObserver(observer ResponseObserver) {
	c.observer = observer
}

// SetRateLimit replaces the client-side request limiter
func (c *FeedlyAPIClient) SetRateLimit(interval time.Duration, burst int) {
	if interval <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	c.limiter = rate.NewLimiter(rate.Every(interval), burst)
}

// RefreshToken exchanges a refresh token for a new access token
func (c *FeedlyAPIClient) RefreshToken(ctx context.Context, refreshToken string) (*models.FeedlyTokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/auth/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute refresh token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := c.readAPIError(resp)
		c.logger.Error("OAuth2 refresh token failed",
			"status_code", resp.StatusCode,
			"error_id", apiErr.ErrorID,
			"message", apiErr.Message)

		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRefreshToken, apiErr.Message)
		default:
			return nil, apiErr
		}
	}

	var tokenResponse models.FeedlyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	c.logger.Info("OAuth2 refresh successful",
		"access_token_length", len(tokenResponse.AccessToken),
		"expires_in_seconds", tokenResponse.ExpiresIn,
		"has_new_refresh_token", tokenResponse.RefreshToken != "")

	return &tokenResponse, nil
}

// GetStreamContents fetches one page of a stream
func (c *FeedlyAPIClient) GetStreamContents(ctx context.Context, accessToken string, params StreamContentsParams) (*FeedlyStream, error) {
	if params.StreamID == "" {
		return nil, fmt.Errorf("stream id is required")
	}

	query := url.Values{}
	query.Set("streamId", params.StreamID)
	if params.Count > 0 {
		query.Set("count", strconv.Itoa(params.Count))
	}
	if params.Ranked != "" {
		query.Set("ranked", params.Ranked)
	}
	if params.Continuation != nil && *params.Continuation != "" {
		query.Set("continuation", *params.Continuation)
	}
	if params.NewerThan != nil {
		query.Set("newerThan", strconv.FormatInt(params.NewerThan.UnixMilli(), 10))
	}
	if params.UnreadOnly != nil {
		query.Set("unreadOnly", strconv.FormatBool(*params.UnreadOnly))
	}

	body, err := c.get(ctx, accessToken, "/v3/streams/contents", query)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var stream FeedlyStream
	if err := json.NewDecoder(body).Decode(&stream); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	c.logger.Debug("Fetched stream contents",
		"stream_id", params.StreamID,
		"items", len(stream.Items),
		"has_continuation", stream.HasContinuation())

	return &stream, nil
}

// GetSubscriptions lists every feed the authenticated user follows
func (c *FeedlyAPIClient) GetSubscriptions(ctx context.Context, accessToken string) ([]FeedlySubscription, error) {
	body, err := c.get(ctx, accessToken, "/v3/subscriptions", nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var subscriptions []FeedlySubscription
	if err := json.NewDecoder(body).Decode(&subscriptions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return subscriptions, nil
}

// get performs a rate-limited authenticated GET and returns the body of a 200 response
func (c *FeedlyAPIClient) get(ctx context.Context, accessToken, endpoint string, query url.Values) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute authenticated request: %w", err)
	}

	c.logger.Debug("Feedly API request completed",
		"endpoint", endpoint,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if c.observer != nil {
		c.observer.ObserveResponse(resp.StatusCode, resp.Header)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.readAPIError(resp)
	}

	return resp.Body, nil
}

func (c *FeedlyAPIClient) readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var errResp FeedlyErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorMessage != "" {
		apiErr.ErrorID = errResp.ErrorID
		apiErr.Message = errResp.ErrorMessage
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			apiErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return apiErr
}
