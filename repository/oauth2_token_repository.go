// ABOUTME: This file defines the OAuth2 token repository interface and an in-memory implementation
// ABOUTME: Tokens authorize calls against the Feedly cloud API

package repository

import (
	"context"
	"errors"
	"sync"

	"feedly-sync/models"
)

//go:generate mockgen -source=oauth2_token_repository.go -destination=../mocks/mock_token_repository.go -package=mocks OAuth2TokenRepository

// OAuth2TokenRepository defines the interface for OAuth2 token storage operations
type OAuth2TokenRepository interface {
	// GetCurrentToken retrieves the current OAuth2 token from storage
	GetCurrentToken(ctx context.Context) (*models.OAuth2Token, error)

	// SaveToken stores a new OAuth2 token
	SaveToken(ctx context.Context, token *models.OAuth2Token) error

	// UpdateToken updates an existing OAuth2 token
	UpdateToken(ctx context.Context, token *models.OAuth2Token) error

	// DeleteToken removes the current OAuth2 token from storage
	DeleteToken(ctx context.Context) error
}

// Repository error definitions
var (
	ErrTokenNotFound = errors.New("OAuth2 token not found in storage")
	ErrInvalidToken  = errors.New("invalid OAuth2 token provided")
)

// MemoryTokenRepository keeps the token in process memory. Used when the
// sidecar runs outside Kubernetes; tokens do not survive restarts.
type MemoryTokenRepository struct {
	mu    sync.RWMutex
	token *models.OAuth2Token
}

// NewMemoryTokenRepository creates an empty in-memory repository
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{}
}

func (r *MemoryTokenRepository) GetCurrentToken(ctx context.Context) (*models.OAuth2Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.token == nil {
		return nil, ErrTokenNotFound
	}
	token := *r.token
	return &token, nil
}

func (r *MemoryTokenRepository) SaveToken(ctx context.Context, token *models.OAuth2Token) error {
	if token == nil || token.AccessToken == "" {
		return ErrInvalidToken
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *token
	r.token = &stored
	return nil
}

// UpdateToken replaces the stored token; it fails if none was saved yet
func (r *MemoryTokenRepository) UpdateToken(ctx context.Context, token *models.OAuth2Token) error {
	if token == nil || token.AccessToken == "" {
		return ErrInvalidToken
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token == nil {
		return ErrTokenNotFound
	}
	stored := *token
	r.token = &stored
	return nil
}

func (r *MemoryTokenRepository) DeleteToken(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = nil
	return nil
}
