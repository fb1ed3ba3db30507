// ABOUTME: This file defines the stored article model synchronized from Feedly
// ABOUTME: ArticleSet provides set semantics keyed by the remote article ID

package models

import (
	"time"

	"github.com/google/uuid"
)

// Article represents an article persisted in the local store
type Article struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	ArticleID     string     `json:"article_id" db:"article_id"`
	FeedID        string     `json:"feed_id" db:"feed_id"`
	URL           string     `json:"url" db:"url"`
	ExternalURL   string     `json:"external_url" db:"external_url"`
	Title         string     `json:"title" db:"title"`
	ContentHTML   string     `json:"content_html" db:"content_html"`
	Summary       string     `json:"summary" db:"summary"`
	ImageURL      string     `json:"image_url" db:"image_url"`
	Authors       []string   `json:"authors" db:"authors"`
	DatePublished *time.Time `json:"date_published" db:"date_published"`
	DateModified  *time.Time `json:"date_modified" db:"date_modified"`
	Read          bool       `json:"read" db:"read"`
	Starred       bool       `json:"starred" db:"starred"`
	FetchedAt     time.Time  `json:"fetched_at" db:"fetched_at"`
}

// NewArticleFromParsedItem creates a new article from a normalized item
func NewArticleFromParsedItem(item *ParsedItem, read bool) *Article {
	return &Article{
		ID:            uuid.New(),
		ArticleID:     item.UniqueID,
		FeedID:        item.FeedURL,
		URL:           item.URL,
		ExternalURL:   item.ExternalURL,
		Title:         item.Title,
		ContentHTML:   item.ContentHTML,
		Summary:       item.Summary,
		ImageURL:      item.ImageURL,
		Authors:       item.Authors,
		DatePublished: item.DatePublished,
		DateModified:  item.DateModified,
		Read:          read,
		FetchedAt:     time.Now(),
	}
}

// SortDate returns the date used to order articles and window queries
func (a *Article) SortDate() time.Time {
	if a.DatePublished != nil {
		return *a.DatePublished
	}
	if a.DateModified != nil {
		return *a.DateModified
	}
	return a.FetchedAt
}

// ArticleSet is a set of articles keyed by ArticleID
type ArticleSet map[string]*Article

// NewArticleSet builds a set from a slice of articles
func NewArticleSet(articles ...*Article) ArticleSet {
	set := make(ArticleSet, len(articles))
	for _, a := range articles {
		if a == nil {
			continue
		}
		set[a.ArticleID] = a
	}
	return set
}

// UnreadArticles returns the subset of articles not yet read
func (s ArticleSet) UnreadArticles() ArticleSet {
	unread := make(ArticleSet)
	for id, a := range s {
		if !a.Read {
			unread[id] = a
		}
	}
	return unread
}

// ArticleIDs returns the remote IDs of every article in the set
func (s ArticleSet) ArticleIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// Equal reports whether both sets hold the same article IDs
func (s ArticleSet) Equal(other ArticleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}
