package account

import (
	"fmt"

	"feedly-sync/models"
)

// FetchKind tells which container a FetchType is scoped to
type FetchKind int

const (
	FetchKindFeed FetchKind = iota
	FetchKindFolder
)

func (k FetchKind) String() string {
	switch k {
	case FetchKindFeed:
		return "feed"
	case FetchKindFolder:
		return "folder"
	default:
		return fmt.Sprintf("FetchKind(%d)", int(k))
	}
}

// FetchType is the filter an ArticleStore query is scoped to
type FetchType struct {
	Kind     FetchKind
	FeedID   string
	FolderID string
	// UnreadOnly is only meaningful for folder fetches
	UnreadOnly bool
}

// FeedFetch scopes a query to a single feed stream ID
func FeedFetch(feedID string) FetchType {
	return FetchType{Kind: FetchKindFeed, FeedID: feedID}
}

// FolderFetch scopes a query to every feed filed under a category stream ID
func FolderFetch(folderID string, unreadOnly bool) FetchType {
	return FetchType{Kind: FetchKindFolder, FolderID: folderID, UnreadOnly: unreadOnly}
}

// Resource returns the Feedly stream the filter covers
func (f FetchType) Resource() models.ResourceID {
	if f.Kind == FetchKindFolder {
		return models.ResourceID(f.FolderID)
	}
	return models.ResourceID(f.FeedID)
}

func (f FetchType) String() string {
	if f.Kind == FetchKindFolder {
		return fmt.Sprintf("folder(%s, unread_only=%t)", f.FolderID, f.UnreadOnly)
	}
	return fmt.Sprintf("feed(%s)", f.FeedID)
}
