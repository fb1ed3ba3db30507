// ABOUTME: Feedly API response structures - Driver Layer
// ABOUTME: Exact JSON bindings for the streams/contents endpoint

package driver

import "time"

// FeedlyStream is one page of the streams/contents API.
// Based on https://developer.feedly.com/v3/streams/
type FeedlyStream struct {
	ID           string        `json:"id"`
	Title        string        `json:"title,omitempty"`
	Direction    string        `json:"direction,omitempty"`
	Updated      int64         `json:"updated,omitempty"` // milliseconds
	Items        []FeedlyEntry `json:"items"`
	Continuation *string       `json:"continuation,omitempty"`
}

// FeedlyEntry is a single article as Feedly returns it
type FeedlyEntry struct {
	ID           string            `json:"id"`
	OriginID     string            `json:"originId,omitempty"`
	Fingerprint  string            `json:"fingerprint,omitempty"`
	Title        string            `json:"title,omitempty"`
	Content      *FeedlyContent    `json:"content,omitempty"`
	Summary      *FeedlyContent    `json:"summary,omitempty"`
	Author       string            `json:"author,omitempty"`
	Crawled      int64             `json:"crawled,omitempty"`   // milliseconds
	Published    int64             `json:"published,omitempty"` // milliseconds
	Updated      int64             `json:"updated,omitempty"`   // milliseconds
	Origin       *FeedlyOrigin     `json:"origin,omitempty"`
	Alternate    []FeedlyLink      `json:"alternate,omitempty"`
	Canonical    []FeedlyLink      `json:"canonical,omitempty"`
	CanonicalURL string            `json:"canonicalUrl,omitempty"`
	AmpURL       string            `json:"ampUrl,omitempty"`
	Visual       *FeedlyVisual     `json:"visual,omitempty"`
	Enclosure    []FeedlyEnclosure `json:"enclosure,omitempty"`
	Unread       bool              `json:"unread"`
	Tags         []FeedlyTag       `json:"tags,omitempty"`
	Categories   []FeedlyCategory  `json:"categories,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	Language     string            `json:"language,omitempty"`
	Engagement   int               `json:"engagement,omitempty"`
}

// FeedlyContent holds HTML content and its text direction
type FeedlyContent struct {
	Content   string `json:"content"`
	Direction string `json:"direction,omitempty"` // "ltr" or "rtl"
}

// FeedlyOrigin identifies the feed an entry came from
type FeedlyOrigin struct {
	StreamID string `json:"streamId"` // e.g. "feed/https://example.com/rss"
	Title    string `json:"title,omitempty"`
	HTMLURL  string `json:"htmlUrl,omitempty"`
}

// FeedlyLink is an alternate or canonical link
type FeedlyLink struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

// FeedlyVisual is the lead image Feedly picked for an entry
type FeedlyVisual struct {
	URL         string `json:"url"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// FeedlyEnclosure is a media attachment
type FeedlyEnclosure struct {
	Href   string `json:"href"`
	Type   string `json:"type,omitempty"`
	Length int64  `json:"length,omitempty"`
}

// FeedlyTag is a user tag applied to an entry (global.saved, global.read, ...)
type FeedlyTag struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// FeedlyCategory is a user category (collection) an entry's feed belongs to
type FeedlyCategory struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// FeedlyErrorResponse is the body Feedly returns with non-2xx statuses
type FeedlyErrorResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorID      string `json:"errorId"`
	ErrorMessage string `json:"errorMessage"`
}

// millisToTime converts a Feedly millisecond timestamp; zero means absent
func millisToTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

func (s *FeedlyStream) GetUpdatedTime() *time.Time {
	return millisToTime(s.Updated)
}

// HasContinuation reports whether another page is available
func (s *FeedlyStream) HasContinuation() bool {
	return s.Continuation != nil && *s.Continuation != ""
}

func (e *FeedlyEntry) GetPublishedTime() *time.Time {
	return millisToTime(e.Published)
}

func (e *FeedlyEntry) GetUpdatedTime() *time.Time {
	return millisToTime(e.Updated)
}

func (e *FeedlyEntry) GetCrawledTime() *time.Time {
	return millisToTime(e.Crawled)
}

// GetOriginStreamID returns the stream ID of the entry's source feed
func (e *FeedlyEntry) GetOriginStreamID() string {
	if e.Origin == nil {
		return ""
	}
	return e.Origin.StreamID
}

// GetCanonicalURL prefers canonicalUrl, then the first canonical link
func (e *FeedlyEntry) GetCanonicalURL() string {
	if e.CanonicalURL != "" {
		return e.CanonicalURL
	}
	if len(e.Canonical) > 0 {
		return e.Canonical[0].Href
	}
	return ""
}

// GetAlternateURL returns the first text/html alternate link, or the first link of any type
func (e *FeedlyEntry) GetAlternateURL() string {
	for _, link := range e.Alternate {
		if link.Type == "" || link.Type == "text/html" {
			return link.Href
		}
	}
	if len(e.Alternate) > 0 {
		return e.Alternate[0].Href
	}
	return ""
}

// HasContent reports whether the content block carries any HTML
func (c *FeedlyContent) HasContent() bool {
	return c != nil && len(c.Content) > 0
}

// IsRTL reports right-to-left text direction
func (c *FeedlyContent) IsRTL() bool {
	return c != nil && c.Direction == "rtl"
}

// FeedlySubscription is one entry of the /v3/subscriptions response
type FeedlySubscription struct {
	ID         string           `json:"id"`
	Title      string           `json:"title,omitempty"`
	Website    string           `json:"website,omitempty"`
	Updated    int64            `json:"updated,omitempty"`
	Categories []FeedlyCategory `json:"categories,omitempty"`
}

// CategoryIDs returns the stream IDs of the subscription's categories
func (s *FeedlySubscription) CategoryIDs() []string {
	ids := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}
