// ABOUTME: This file defines the per-stream synchronization state
// ABOUTME: Tracks the last continuation token and sync time of each Feedly stream

package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncState represents the synchronization state of one stream.
//
// LastSync is the point up to which the stream is known to be complete.
// While a pass is suspended at its page limit, ContinuationToken holds the
// cursor to resume from and PendingSince the start of the suspended pass.
type SyncState struct {
	ID                uuid.UUID `json:"id" db:"id"`
	StreamID          string    `json:"stream_id" db:"stream_id"`
	ContinuationToken string    `json:"continuation_token" db:"continuation_token"`
	LastSync          time.Time `json:"last_sync" db:"last_sync"`
	PendingSince      time.Time `json:"pending_since,omitempty" db:"pending_since"`
}

// NewSyncState creates a new sync state for a stream
func NewSyncState(streamID, continuationToken string) *SyncState {
	return &SyncState{
		ID:                uuid.New(),
		StreamID:          streamID,
		ContinuationToken: continuationToken,
		LastSync:          time.Now(),
	}
}

// CompletePass records a pass that reached the end of the stream. startedAt
// becomes the lower bound of the next pass.
func (s *SyncState) CompletePass(startedAt time.Time) {
	s.ContinuationToken = ""
	s.PendingSince = time.Time{}
	s.LastSync = startedAt
}

// SuspendPass records a pass stopped with more pages left. The lower bound
// it ran with is kept so the resumed pass asks for the same window.
func (s *SyncState) SuspendPass(continuation string, lowerBound *time.Time, startedAt time.Time) {
	s.ContinuationToken = continuation
	s.PendingSince = startedAt
	s.LastSync = time.Time{}
	if lowerBound != nil {
		s.LastSync = *lowerBound
	}
}

// Resumable reports whether a suspended pass is waiting to be resumed
func (s *SyncState) Resumable() bool {
	return s != nil && s.ContinuationToken != ""
}

// NewerThan returns the lower bound for an incremental fetch of the stream
func (s *SyncState) NewerThan() *time.Time {
	if s == nil || s.LastSync.IsZero() {
		return nil
	}
	t := s.LastSync
	return &t
}
