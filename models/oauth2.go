// ABOUTME: This file defines domain models for OAuth2 token management
// ABOUTME: Handles access token, refresh token, and expiration logic

package models

import (
	"time"
)

// OAuth2Token represents an OAuth2 access token with metadata
type OAuth2Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	UserID       string    `json:"user_id"`
	ExpiresIn    int       `json:"expires_in"` // Seconds until expiration
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	IssuedAt     time.Time `json:"issued_at"`
}

// FeedlyTokenResponse represents the OAuth2 token response from the Feedly auth endpoint
type FeedlyTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"` // Not always rotated
	UserID       string `json:"id"`
	Plan         string `json:"plan,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// NewOAuth2Token creates a new OAuth2Token from a token response
func NewOAuth2Token(response FeedlyTokenResponse, existingRefreshToken string) *OAuth2Token {
	now := time.Now()

	refreshToken := response.RefreshToken
	if refreshToken == "" {
		refreshToken = existingRefreshToken
	}

	return &OAuth2Token{
		AccessToken:  response.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    response.TokenType,
		UserID:       response.UserID,
		ExpiresIn:    response.ExpiresIn,
		ExpiresAt:    now.Add(time.Duration(response.ExpiresIn) * time.Second),
		Scope:        response.Scope,
		IssuedAt:     now,
	}
}

// IsExpired checks if the token is expired
func (t *OAuth2Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// NeedsRefresh checks if the token needs to be refreshed based on buffer time
func (t *OAuth2Token) NeedsRefresh(buffer time.Duration) bool {
	return time.Now().Add(buffer).After(t.ExpiresAt)
}

// TimeUntilExpiry returns the duration until token expiry
func (t *OAuth2Token) TimeUntilExpiry() time.Duration {
	return time.Until(t.ExpiresAt)
}

// IsValid checks if the token is valid and not expired
func (t *OAuth2Token) IsValid() bool {
	return t.AccessToken != "" && !t.IsExpired()
}
