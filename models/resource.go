// ABOUTME: Feedly resource identifiers (feeds, categories, tags, global streams)
// ABOUTME: Opaque stream IDs passed to the stream contents API

package models

import (
	"fmt"
	"strings"
)

// ResourceID names a remote Feedly stream. Equality is by value.
type ResourceID string

// ResourceKind classifies a ResourceID by its prefix
type ResourceKind string

const (
	ResourceKindFeed     ResourceKind = "feed"
	ResourceKindCategory ResourceKind = "category"
	ResourceKindTag      ResourceKind = "tag"
	ResourceKindGlobal   ResourceKind = "global"
	ResourceKindUnknown  ResourceKind = "unknown"
)

// ResourceProvider supplies the resource an operation should fetch
type ResourceProvider interface {
	Resource() ResourceID
}

// FeedResourceID builds the stream ID of a single feed from its URL
func FeedResourceID(feedURL string) ResourceID {
	return ResourceID("feed/" + feedURL)
}

// CategoryResourceID builds the stream ID of a user category (collection)
func CategoryResourceID(userID, label string) ResourceID {
	return ResourceID(fmt.Sprintf("user/%s/category/%s", userID, label))
}

// GlobalAllResourceID is the stream of every article the user is subscribed to
func GlobalAllResourceID(userID string) ResourceID {
	return ResourceID(fmt.Sprintf("user/%s/category/global.all", userID))
}

// TagResourceID builds the stream ID of a user tag, e.g. global.saved
func TagResourceID(userID, label string) ResourceID {
	return ResourceID(fmt.Sprintf("user/%s/tag/%s", userID, label))
}

func (r ResourceID) String() string {
	return string(r)
}

// Resource lets a bare ResourceID act as its own provider
func (r ResourceID) Resource() ResourceID {
	return r
}

// Kind reports what sort of stream the identifier names
func (r ResourceID) Kind() ResourceKind {
	s := string(r)
	switch {
	case strings.HasPrefix(s, "feed/"):
		return ResourceKindFeed
	case strings.HasPrefix(s, "user/") && strings.Contains(s, "/category/global."):
		return ResourceKindGlobal
	case strings.HasPrefix(s, "user/") && strings.Contains(s, "/category/"):
		return ResourceKindCategory
	case strings.HasPrefix(s, "user/") && strings.Contains(s, "/tag/"):
		return ResourceKindTag
	default:
		return ResourceKindUnknown
	}
}

// FeedURL returns the feed URL for feed resources, or "" otherwise
func (r ResourceID) FeedURL() string {
	if r.Kind() != ResourceKindFeed {
		return ""
	}
	return strings.TrimPrefix(string(r), "feed/")
}

// IsValid reports whether the identifier has a recognizable shape
func (r ResourceID) IsValid() bool {
	return r.Kind() != ResourceKindUnknown
}
