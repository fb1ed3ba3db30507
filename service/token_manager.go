// ABOUTME: OAuth2 token lifecycle for the Feedly API
// ABOUTME: Loads, refreshes (single-flight, with retry) and persists access tokens

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedly-sync/driver"
	"feedly-sync/models"
	"feedly-sync/repository"
	"feedly-sync/utils"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=token_manager.go -destination=../mocks/mock_token_manager.go -package=mocks

// ErrNoRefreshToken is returned when neither storage nor configuration holds a refresh token
var ErrNoRefreshToken = errors.New("no refresh token available")

// TokenRefresher exchanges a refresh token for a new access token
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*models.FeedlyTokenResponse, error)
}

// TokenStatus is a snapshot of the current token for health reporting
type TokenStatus struct {
	HasToken        bool          `json:"has_token"`
	UserID          string        `json:"user_id,omitempty"`
	ExpiresAt       time.Time     `json:"expires_at"`
	TimeUntilExpiry time.Duration `json:"time_until_expiry"`
	NeedsRefresh    bool          `json:"needs_refresh"`
}

// TokenManager hands out valid access tokens, refreshing them before expiry
type TokenManager struct {
	repo                  repository.OAuth2TokenRepository
	refresher             TokenRefresher
	bootstrapRefreshToken string
	refreshBuffer         time.Duration
	retryPolicy           func() backoff.BackOff
	logger                *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	cached *models.OAuth2Token
}

// NewTokenManager creates a token manager. bootstrapRefreshToken seeds the
// first refresh when storage holds no token yet.
func NewTokenManager(
	repo repository.OAuth2TokenRepository,
	refresher TokenRefresher,
	bootstrapRefreshToken string,
	refreshBuffer time.Duration,
	logger *slog.Logger,
) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	if refreshBuffer <= 0 {
		refreshBuffer = 5 * time.Minute
	}
	return &TokenManager{
		repo:                  repo,
		refresher:             refresher,
		bootstrapRefreshToken: bootstrapRefreshToken,
		refreshBuffer:         refreshBuffer,
		logger:                logger,
		retryPolicy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 2 * time.Minute
			return backoff.WithMaxRetries(b, 3)
		},
	}
}

// SetRetryPolicy replaces the refresh retry policy
func (m *TokenManager) SetRetryPolicy(policy func() backoff.BackOff) {
	m.retryPolicy = policy
}

// AccessToken returns a valid access token, refreshing it when close to expiry
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	token, err := m.currentToken(ctx)
	if err != nil {
		return "", err
	}

	if token.AccessToken != "" && !token.NeedsRefresh(m.refreshBuffer) {
		return token.AccessToken, nil
	}

	m.logger.Info("Access token needs refresh",
		"expires_at", token.ExpiresAt,
		"refresh_buffer", m.refreshBuffer)

	refreshed, err := m.refresh(ctx, token)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// UserID returns the Feedly user the current token belongs to
func (m *TokenManager) UserID(ctx context.Context) (string, error) {
	if _, err := m.AccessToken(ctx); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cached.UserID, nil
}

// Invalidate forces the next AccessToken call to refresh. Called after the
// API rejected the current token.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == nil {
		return
	}
	expired := *m.cached
	expired.ExpiresAt = time.Time{}
	m.cached = &expired
}

// Status reports the state of the current token without refreshing it
func (m *TokenManager) Status(ctx context.Context) (*TokenStatus, error) {
	token, err := m.currentToken(ctx)
	if errors.Is(err, ErrNoRefreshToken) {
		return &TokenStatus{NeedsRefresh: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &TokenStatus{
		HasToken:        token.AccessToken != "",
		UserID:          token.UserID,
		ExpiresAt:       token.ExpiresAt,
		TimeUntilExpiry: token.TimeUntilExpiry(),
		NeedsRefresh:    token.NeedsRefresh(m.refreshBuffer),
	}, nil
}

func (m *TokenManager) currentToken(ctx context.Context) (*models.OAuth2Token, error) {
	m.mu.RLock()
	cached := m.cached
	m.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	token, err := m.repo.GetCurrentToken(ctx)
	switch {
	case errors.Is(err, repository.ErrTokenNotFound):
		if m.bootstrapRefreshToken == "" {
			return nil, ErrNoRefreshToken
		}
		m.logger.Info("No stored token, bootstrapping from configured refresh token")
		token = &models.OAuth2Token{RefreshToken: m.bootstrapRefreshToken}
	case err != nil:
		return nil, fmt.Errorf("token storage access failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == nil {
		m.cached = token
	}
	return m.cached, nil
}

func (m *TokenManager) refresh(ctx context.Context, current *models.OAuth2Token) (*models.OAuth2Token, error) {
	result, err, shared := m.group.Do("refresh", func() (interface{}, error) {
		// Another caller may have finished a refresh while we waited to get here
		m.mu.RLock()
		latest := m.cached
		m.mu.RUnlock()
		if latest != nil && latest.AccessToken != "" && !latest.NeedsRefresh(m.refreshBuffer) {
			return latest, nil
		}
		if latest != nil {
			current = latest
		}
		return m.performRefresh(ctx, current)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.logger.Debug("Token refresh result shared with concurrent caller")
	}
	return result.(*models.OAuth2Token), nil
}

func (m *TokenManager) performRefresh(ctx context.Context, current *models.OAuth2Token) (*models.OAuth2Token, error) {
	if current.RefreshToken == "" {
		utils.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return nil, ErrNoRefreshToken
	}

	var response *models.FeedlyTokenResponse
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		resp, err := m.refresher.RefreshToken(ctx, current.RefreshToken)
		if err != nil {
			if errors.Is(err, driver.ErrInvalidRefreshToken) {
				return backoff.Permanent(err)
			}
			return err
		}
		response = resp
		return nil
	}, backoff.WithContext(m.retryPolicy(), ctx), func(err error, wait time.Duration) {
		m.logger.Warn("Token refresh failed, retrying",
			"attempt", attempt,
			"retry_in", wait,
			"error", err)
	})
	if err != nil {
		utils.TokenRefreshTotal.WithLabelValues("failure").Inc()
		m.logger.Error("Token refresh failed", "attempts", attempt, "error", err)
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	refreshed := models.NewOAuth2Token(*response, current.RefreshToken)
	rotated := response.RefreshToken != "" && response.RefreshToken != current.RefreshToken
	if refreshed.UserID == "" {
		refreshed.UserID = current.UserID
	}

	if err := m.store(ctx, refreshed); err != nil {
		// A rotated refresh token that is not persisted is lost on restart
		if rotated {
			utils.TokenRefreshTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("refresh token rotated but storage failed: %w", err)
		}
		m.logger.Warn("Token refreshed but storage failed, keeping in-memory token", "error", err)
	}

	m.mu.Lock()
	m.cached = refreshed
	m.mu.Unlock()

	utils.TokenRefreshTotal.WithLabelValues("success").Inc()
	m.logger.Info("Token refresh completed",
		"expires_at", refreshed.ExpiresAt,
		"refresh_token_rotated", rotated,
		"attempts", attempt)
	return refreshed, nil
}

func (m *TokenManager) store(ctx context.Context, token *models.OAuth2Token) error {
	err := m.repo.UpdateToken(ctx, token)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return m.repo.SaveToken(ctx, token)
	}
	return err
}
