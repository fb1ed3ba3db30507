// ABOUTME: This file defines the Feedly subscription model
// ABOUTME: Subscriptions map feeds to the categories (folders) they are filed under

package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Subscription represents one feed the Feedly user follows
type Subscription struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FeedID     string    `json:"feed_id" db:"feed_id"` // e.g. "feed/https://example.com/rss"
	Title      string    `json:"title" db:"title"`
	Website    string    `json:"website" db:"website"`
	Categories []string  `json:"categories" db:"categories"` // category stream IDs
	SyncedAt   time.Time `json:"synced_at" db:"synced_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NewSubscription creates a subscription record for a feed
func NewSubscription(feedID, title, website string, categories []string) *Subscription {
	now := time.Now()
	return &Subscription{
		ID:         uuid.New(),
		FeedID:     feedID,
		Title:      title,
		Website:    website,
		Categories: categories,
		SyncedAt:   now,
		CreatedAt:  now,
	}
}

// InCategory reports whether the feed is filed under the given category stream
func (s *Subscription) InCategory(categoryID string) bool {
	return slices.Contains(s.Categories, categoryID)
}

// Resource returns the stream ID of the subscribed feed
func (s *Subscription) Resource() ResourceID {
	return ResourceID(s.FeedID)
}
