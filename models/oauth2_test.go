// ABOUTME: This file tests OAuth2 token models and validation logic
// ABOUTME: Ensures proper token expiration checking and refresh logic

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOAuth2Token(t *testing.T) {
	tests := map[string]struct {
		response             FeedlyTokenResponse
		existingRefreshToken string
		validate             func(t *testing.T, token *OAuth2Token)
	}{
		"full_response_with_refresh_token": {
			response: FeedlyTokenResponse{
				AccessToken:  "new_access_token",
				TokenType:    "Bearer",
				ExpiresIn:    3600,
				RefreshToken: "new_refresh_token",
				UserID:       "c805fcbf-3acf-4302-a97e-d82f9d7c897f",
				Scope:        "https://cloud.feedly.com/subscriptions",
			},
			existingRefreshToken: "existing_refresh_token",
			validate: func(t *testing.T, token *OAuth2Token) {
				assert.Equal(t, "new_access_token", token.AccessToken)
				assert.Equal(t, "Bearer", token.TokenType)
				assert.Equal(t, 3600, token.ExpiresIn)
				assert.Equal(t, "new_refresh_token", token.RefreshToken)
				assert.Equal(t, "c805fcbf-3acf-4302-a97e-d82f9d7c897f", token.UserID)
				assert.True(t, token.ExpiresAt.After(time.Now()))
				assert.True(t, token.IssuedAt.Before(time.Now().Add(time.Second)))
			},
		},
		"response_without_refresh_token": {
			response: FeedlyTokenResponse{
				AccessToken: "new_access_token",
				TokenType:   "Bearer",
				ExpiresIn:   3600,
			},
			existingRefreshToken: "existing_refresh_token",
			validate: func(t *testing.T, token *OAuth2Token) {
				assert.Equal(t, "new_access_token", token.AccessToken)
				assert.Equal(t, "existing_refresh_token", token.RefreshToken)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			token := NewOAuth2Token(tc.response, tc.existingRefreshToken)
			require.NotNil(t, token)
			if tc.validate != nil {
				tc.validate(t, token)
			}
		})
	}
}

func TestOAuth2Token_IsExpired(t *testing.T) {
	tests := map[string]struct {
		expiresAt time.Time
		expected  bool
	}{
		"not_expired": {
			expiresAt: time.Now().Add(1 * time.Hour),
			expected:  false,
		},
		"expired": {
			expiresAt: time.Now().Add(-1 * time.Hour),
			expected:  true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			token := &OAuth2Token{AccessToken: "token", ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.expected, token.IsExpired())
			assert.Equal(t, !tc.expected, token.IsValid())
		})
	}
}

func TestOAuth2Token_NeedsRefresh(t *testing.T) {
	token := &OAuth2Token{AccessToken: "token", ExpiresAt: time.Now().Add(3 * time.Minute)}

	assert.True(t, token.NeedsRefresh(5*time.Minute))
	assert.False(t, token.NeedsRefresh(1*time.Minute))
}

func TestSyncState_NewerThan(t *testing.T) {
	var nilState *SyncState
	assert.Nil(t, nilState.NewerThan())

	state := NewSyncState("feed/http://example.com/rss", "")
	newerThan := state.NewerThan()
	require.NotNil(t, newerThan)
	assert.Equal(t, state.LastSync, *newerThan)

	assert.False(t, state.Resumable())
}

func TestSyncState_PassBookkeeping(t *testing.T) {
	lowerBound := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	startedAt := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		apply           func(s *SyncState)
		expectToken     string
		expectLastSync  time.Time
		expectPending   time.Time
		expectResumable bool
	}{
		"suspended with a lower bound": {
			apply:           func(s *SyncState) { s.SuspendPass("c2", &lowerBound, startedAt) },
			expectToken:     "c2",
			expectLastSync:  lowerBound,
			expectPending:   startedAt,
			expectResumable: true,
		},
		"suspended full fetch": {
			apply:           func(s *SyncState) { s.SuspendPass("c2", nil, startedAt) },
			expectToken:     "c2",
			expectPending:   startedAt,
			expectResumable: true,
		},
		"completed": {
			apply: func(s *SyncState) {
				s.SuspendPass("c2", &lowerBound, startedAt)
				s.CompletePass(startedAt)
			},
			expectLastSync: startedAt,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			state := NewSyncState("feed/http://example.com/rss", "")
			tc.apply(state)

			assert.Equal(t, tc.expectToken, state.ContinuationToken)
			assert.Equal(t, tc.expectLastSync, state.LastSync)
			assert.Equal(t, tc.expectPending, state.PendingSince)
			assert.Equal(t, tc.expectResumable, state.Resumable())
		})
	}
}
