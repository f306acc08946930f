package homepage

import (
	"strings"
	"testing"
	"time"
)

func fixedMapper() *Mapper {
	return &Mapper{now: func() time.Time { return time.UnixMilli(42) }}
}

func TestMapperMapBookmarks(t *testing.T) {
	config, err := Parse([]byte(bookmarksYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	bookmarks, err := fixedMapper().MapBookmarks(config)
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}

	// Reddit has no href once its template variable is stripped
	if len(bookmarks) != 2 {
		t.Fatalf("MapBookmarks() returned %d bookmarks, want 2", len(bookmarks))
	}

	tests := []struct {
		title, url, category, icon string
	}{
		{"Github", "https://github.com/", "Developer", ""},
		{"Go Docs", "https://go.dev/doc", "Developer", "go.svg"},
	}
	for i, tt := range tests {
		bm := bookmarks[i]
		if bm.Link.Title != tt.title || bm.Link.URL != tt.url {
			t.Errorf("bookmark %d = {%q %q}, want {%q %q}", i, bm.Link.Title, bm.Link.URL, tt.title, tt.url)
		}
		if bm.Category != tt.category || bm.Icon != tt.icon {
			t.Errorf("bookmark %d category/icon = %q/%q", i, bm.Category, bm.Icon)
		}
		if bm.Link.CreatedAt != 42 {
			t.Errorf("bookmark %d CreatedAt = %d, want 42", i, bm.Link.CreatedAt)
		}
		if !strings.HasPrefix(bm.Link.ID, "hp-") || len(bm.Link.ID) != 19 {
			t.Errorf("bookmark %d ID = %q", i, bm.Link.ID)
		}
	}
}

func TestMapperStableIDs(t *testing.T) {
	config := BookmarksConfig{
		{"A": {{"Site": {{Href: "https://Example.com"}}}}},
		{"B": {{"Same site again": {{Href: "example.com"}}}}},
	}

	bookmarks, err := fixedMapper().MapBookmarks(config)
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}
	if len(bookmarks) != 1 {
		t.Errorf("duplicate URLs should collapse, got %d bookmarks", len(bookmarks))
	}
	if bookmarks[0].Link.ID != generateBookmarkID("https://example.com/") {
		t.Errorf("ID = %q, want the hash of the normalized URL", bookmarks[0].Link.ID)
	}
}

func TestMapperMapBookmarksEmptyConfig(t *testing.T) {
	bookmarks, err := NewMapper().MapBookmarks(BookmarksConfig{})

	if err == nil {
		t.Error("MapBookmarks() with empty config should return error")
	}
	if bookmarks != nil {
		t.Errorf("MapBookmarks() with empty config should return nil, got %d", len(bookmarks))
	}
}

func TestMapperSkipsUnusableEntries(t *testing.T) {
	config := BookmarksConfig{
		{"Test": {
			{"No entry": {}},
			{"No href": {{Abbr: "NH"}}},
			{"Spaces": {{Href: "bad url with spaces"}}},
		}},
	}

	if _, err := NewMapper().MapBookmarks(config); err == nil {
		t.Error("MapBookmarks() should return error when no valid bookmarks found")
	}
}
