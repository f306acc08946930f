package homepage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/MrSnakeDoc/startpage/internal/domain"
)

// Bookmark is one mapped entry, with its icon reference kept for the seeder.
type Bookmark struct {
	Link     domain.Link
	Category string
	Icon     string
}

// Mapper converts bookmarks.yaml content into links.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a mapper stamping links with the current time.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// MapBookmarks flattens the categories into links, in file order.
// Entries without a usable href are skipped; a config with no usable entry is an error.
func (m *Mapper) MapBookmarks(config BookmarksConfig) ([]Bookmark, error) {
	bookmarks := make([]Bookmark, 0)
	seen := make(map[string]bool)
	created := m.now().UnixMilli()

	for _, category := range config {
		for _, categoryName := range sortedKeys(category) {
			for _, bookmarkMap := range category[categoryName] {
				for _, name := range sortedKeys(bookmarkMap) {
					entries := bookmarkMap[name]
					if len(entries) == 0 {
						continue
					}
					entry := entries[0]

					u, err := domain.ParseURL(entry.Href)
					if err != nil {
						continue
					}

					id := generateBookmarkID(u)
					if seen[id] {
						continue
					}
					seen[id] = true

					title := name
					if title == "" {
						title = entry.Abbr
					}

					bookmarks = append(bookmarks, Bookmark{
						Link: domain.Link{
							ID:        id,
							Title:     domain.TitleOrHost(title, u),
							URL:       u,
							CreatedAt: created,
						},
						Category: categoryName,
						Icon:     entry.Icon,
					})
				}
			}
		}
	}

	if len(bookmarks) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}

	return bookmarks, nil
}

// generateBookmarkID derives a stable id from the normalized URL so that
// seeding the same file twice yields the same ids.
func generateBookmarkID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "hp-" + hex.EncodeToString(hash[:])[:16]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
