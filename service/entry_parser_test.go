package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"feedly-sync/driver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedID = "feed/https://example.com/rss"

func testEntry(id, title string) driver.FeedlyEntry {
	return driver.FeedlyEntry{
		ID:     id,
		Title:  title,
		Origin: &driver.FeedlyOrigin{StreamID: testFeedID, Title: "Example"},
		Unread: true,
	}
}

func TestEntryParser_ParseEntry(t *testing.T) {
	parser := NewEntryParser()

	entry := testEntry("entry-1", "<b>Hello</b> &amp; welcome")
	entry.Author = "Jane Doe"
	entry.Published = 1700000000000
	entry.Updated = 1700000500000
	entry.Language = "en"
	entry.Content = &driver.FeedlyContent{Content: `<p>Body text</p><img src="https://example.com/lead.jpg"><script>x()</script>`}
	entry.Summary = &driver.FeedlyContent{Content: "<p>Short   summary</p>"}
	entry.CanonicalURL = "https://Example.com/post/?utm_source=feedly"
	entry.Alternate = []driver.FeedlyLink{{Href: "https://mirror.example.org/post", Type: "text/html"}}
	entry.Tags = []driver.FeedlyTag{{ID: "user/u1/tag/global.saved"}}

	item, err := parser.ParseEntry(entry)
	require.NoError(t, err)

	assert.Equal(t, "entry-1", item.UniqueID)
	assert.Equal(t, testFeedID, item.FeedURL)
	assert.Equal(t, "Hello & welcome", item.Title)
	assert.Equal(t, "https://example.com/post", item.URL)
	assert.Equal(t, "https://mirror.example.org/post", item.ExternalURL)
	assert.Contains(t, item.ContentHTML, "<p>Body text</p>")
	assert.NotContains(t, item.ContentHTML, "script")
	assert.Equal(t, "Short summary", item.Summary)
	assert.Equal(t, "https://example.com/lead.jpg", item.ImageURL)
	assert.Equal(t, []string{"Jane Doe"}, item.Authors)
	assert.Equal(t, []string{"user/u1/tag/global.saved"}, item.Tags)
	assert.Equal(t, "en", item.Language)
	require.NotNil(t, item.DatePublished)
	assert.Equal(t, int64(1700000000000), item.DatePublished.UnixMilli())
	require.NotNil(t, item.DateModified)
	assert.Equal(t, int64(1700000500000), item.DateModified.UnixMilli())
}

func TestEntryParser_Rejections(t *testing.T) {
	parser := NewEntryParser()

	tests := map[string]struct {
		entry       driver.FeedlyEntry
		expectError error
	}{
		"missing id": {
			entry:       testEntry("  ", "Title"),
			expectError: ErrMissingEntryID,
		},
		"missing origin": {
			entry:       driver.FeedlyEntry{ID: "entry-2", Title: "Title"},
			expectError: ErrMissingOrigin,
		},
		"nothing to show": {
			entry:       testEntry("entry-3", ""),
			expectError: ErrEmptyEntry,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			item, err := parser.ParseEntry(tc.entry)
			assert.Nil(t, item)
			assert.ErrorIs(t, err, tc.expectError)
			assert.ErrorIs(t, err, ErrUnrepresentableEntry)
		})
	}
}

func TestEntryParser_Fallbacks(t *testing.T) {
	parser := NewEntryParser()

	tests := map[string]struct {
		modify func(e *driver.FeedlyEntry)
		check  func(t *testing.T, e driver.FeedlyEntry)
	}{
		"link only is enough": {
			modify: func(e *driver.FeedlyEntry) {
				e.Title = ""
				e.Alternate = []driver.FeedlyLink{{Href: "https://example.com/a"}}
			},
			check: func(t *testing.T, e driver.FeedlyEntry) {
				item, err := parser.ParseEntry(e)
				require.NoError(t, err)
				assert.Equal(t, "https://example.com/a", item.URL)
				assert.Empty(t, item.ExternalURL)
			},
		},
		"crawled date used when unpublished": {
			modify: func(e *driver.FeedlyEntry) { e.Crawled = 1700000000000 },
			check: func(t *testing.T, e driver.FeedlyEntry) {
				item, err := parser.ParseEntry(e)
				require.NoError(t, err)
				require.NotNil(t, item.DatePublished)
				assert.Equal(t, int64(1700000000000), item.DatePublished.UnixMilli())
			},
		},
		"summary becomes body when content missing": {
			modify: func(e *driver.FeedlyEntry) {
				e.Summary = &driver.FeedlyContent{Content: "<em>only summary</em>"}
			},
			check: func(t *testing.T, e driver.FeedlyEntry) {
				item, err := parser.ParseEntry(e)
				require.NoError(t, err)
				assert.Equal(t, "<em>only summary</em>", item.ContentHTML)
				assert.Equal(t, "only summary", item.Summary)
			},
		},
		"visual wins over inline image": {
			modify: func(e *driver.FeedlyEntry) {
				e.Content = &driver.FeedlyContent{Content: `<img src="https://example.com/inline.png">`}
				e.Visual = &driver.FeedlyVisual{URL: "https://cdn.example.com/visual.png"}
			},
			check: func(t *testing.T, e driver.FeedlyEntry) {
				item, err := parser.ParseEntry(e)
				require.NoError(t, err)
				assert.Equal(t, "https://cdn.example.com/visual.png", item.ImageURL)
			},
		},
		"visual none is ignored": {
			modify: func(e *driver.FeedlyEntry) {
				e.Content = &driver.FeedlyContent{Content: `<img src="/relative.png"><img src="https://example.com/abs.png">`}
				e.Visual = &driver.FeedlyVisual{URL: "none"}
			},
			check: func(t *testing.T, e driver.FeedlyEntry) {
				item, err := parser.ParseEntry(e)
				require.NoError(t, err)
				assert.Equal(t, "https://example.com/abs.png", item.ImageURL)
			},
		},
		"long summary truncated": {
			modify: func(e *driver.FeedlyEntry) {
				e.Summary = &driver.FeedlyContent{Content: strings.Repeat("word ", 200)}
			},
			check: func(t *testing.T, e driver.FeedlyEntry) {
				item, err := parser.ParseEntry(e)
				require.NoError(t, err)
				assert.LessOrEqual(t, utf8.RuneCountInString(item.Summary), maxSummaryRunes+1)
				assert.True(t, strings.HasSuffix(item.Summary, "…"))
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := testEntry("entry", "Title")
			tc.modify(&e)
			tc.check(t, e)
		})
	}
}
