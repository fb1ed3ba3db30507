// ABOUTME: Converts raw Feedly entries into normalized ParsedItems
// ABOUTME: Entries that cannot be represented are reported, never fixed up

package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"feedly-sync/driver"
	"feedly-sync/models"
	"feedly-sync/utils"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryRunes = 400

// Entry normalization errors
var (
	ErrUnrepresentableEntry = errors.New("entry cannot be represented as an article")
	ErrMissingEntryID       = fmt.Errorf("%w: missing id", ErrUnrepresentableEntry)
	ErrMissingOrigin        = fmt.Errorf("%w: missing origin feed", ErrUnrepresentableEntry)
	ErrEmptyEntry           = fmt.Errorf("%w: no title, content, summary or link", ErrUnrepresentableEntry)
)

// EntryParser maps Feedly entries to ParsedItems. It holds no mutable state
// and may be shared between goroutines.
type EntryParser struct {
	sanitizer *utils.Sanitizer
}

// NewEntryParser creates a parser with the default sanitizing policies
func NewEntryParser() *EntryParser {
	return &EntryParser{sanitizer: utils.NewSanitizer()}
}

// ParseEntry normalizes one entry or reports why it cannot be represented
func (p *EntryParser) ParseEntry(entry driver.FeedlyEntry) (*models.ParsedItem, error) {
	// the raw ID is the key everywhere else, so it is kept untrimmed
	id := entry.ID
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingEntryID
	}

	feedID := entry.GetOriginStreamID()
	if feedID == "" {
		return nil, fmt.Errorf("entry %s: %w", id, ErrMissingOrigin)
	}

	title := p.sanitizer.StripTags(entry.Title)
	contentHTML := ""
	if entry.Content.HasContent() {
		contentHTML = entry.Content.Content
	}
	summaryHTML := ""
	if entry.Summary.HasContent() {
		summaryHTML = entry.Summary.Content
	}
	link := entry.GetCanonicalURL()
	alternate := entry.GetAlternateURL()
	if link == "" {
		link = alternate
	}

	if title == "" && contentHTML == "" && summaryHTML == "" && link == "" {
		return nil, fmt.Errorf("entry %s: %w", id, ErrEmptyEntry)
	}

	body := contentHTML
	if body == "" {
		body = summaryHTML
	}

	item := &models.ParsedItem{
		UniqueID:      id,
		FeedURL:       feedID,
		URL:           normalizeLink(link),
		Title:         title,
		ContentHTML:   p.sanitizer.SanitizeHTML(body),
		Language:      entry.Language,
		DatePublished: entry.GetPublishedTime(),
		DateModified:  entry.GetUpdatedTime(),
	}

	if item.DatePublished == nil {
		item.DatePublished = entry.GetCrawledTime()
	}
	if ext := normalizeLink(alternate); ext != "" && ext != item.URL {
		item.ExternalURL = ext
	}
	if author := p.sanitizer.StripTags(entry.Author); author != "" {
		item.Authors = []string{author}
	}
	for _, tag := range entry.Tags {
		item.Tags = append(item.Tags, tag.ID)
	}

	summarySource := summaryHTML
	if summarySource == "" {
		summarySource = contentHTML
	}
	item.Summary, item.ImageURL = extractSummaryAndImage(summarySource, body)

	if entry.Visual != nil && entry.Visual.URL != "" && entry.Visual.URL != "none" {
		item.ImageURL = entry.Visual.URL
	}

	return item, nil
}

// normalizeLink keeps links that fail normalization as they are
func normalizeLink(link string) string {
	if link == "" {
		return ""
	}
	normalized, err := utils.NormalizeURL(link)
	if err != nil {
		return link
	}
	return normalized
}

// extractSummaryAndImage returns a plain-text summary of summaryHTML and the
// first image referenced by bodyHTML
func extractSummaryAndImage(summaryHTML, bodyHTML string) (string, string) {
	summary := ""
	if summaryHTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(summaryHTML)); err == nil {
			summary = truncateRunes(strings.Join(strings.Fields(doc.Text()), " "), maxSummaryRunes)
		}
	}

	image := ""
	if bodyHTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML)); err == nil {
			doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				src, _ := s.Attr("src")
				if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
					image = src
					return false
				}
				return true
			})
		}
	}

	return summary, image
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
