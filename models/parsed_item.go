// ABOUTME: Normalized article representation produced from remote Feedly entries
// ABOUTME: ParsedItemSet collapses duplicates by unique ID

package models

import (
	"sort"
	"time"
)

// ParsedItem is the canonical article shape, independent of the remote schema
type ParsedItem struct {
	UniqueID      string     `json:"unique_id"`
	FeedURL       string     `json:"feed_url"`
	URL           string     `json:"url,omitempty"`
	ExternalURL   string     `json:"external_url,omitempty"`
	Title         string     `json:"title,omitempty"`
	ContentHTML   string     `json:"content_html,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	Language      string     `json:"language,omitempty"`
	Authors       []string   `json:"authors,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	DatePublished *time.Time `json:"date_published,omitempty"`
	DateModified  *time.Time `json:"date_modified,omitempty"`
}

// ParsedItemSet is a set of parsed items keyed by UniqueID
type ParsedItemSet map[string]*ParsedItem

// NewParsedItemSet builds a set from items; later duplicates replace earlier ones
func NewParsedItemSet(items ...*ParsedItem) ParsedItemSet {
	set := make(ParsedItemSet, len(items))
	for _, item := range items {
		set.Insert(item)
	}
	return set
}

// Insert adds item to the set, ignoring nil items and items without an ID
func (s ParsedItemSet) Insert(item *ParsedItem) {
	if item == nil || item.UniqueID == "" {
		return
	}
	s[item.UniqueID] = item
}

// Contains reports whether an item with the given unique ID is present
func (s ParsedItemSet) Contains(uniqueID string) bool {
	_, ok := s[uniqueID]
	return ok
}

// UniqueIDs returns the IDs in the set, sorted for stable output
func (s ParsedItemSet) UniqueIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Items returns the items sorted by unique ID
func (s ParsedItemSet) Items() []*ParsedItem {
	items := make([]*ParsedItem, 0, len(s))
	for _, id := range s.UniqueIDs() {
		items = append(items, s[id])
	}
	return items
}
