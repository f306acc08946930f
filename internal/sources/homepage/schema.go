package homepage

// BookmarkEntry is one bookmark's properties in bookmarks.yaml.
type BookmarkEntry struct {
	Icon        string `yaml:"icon"`
	Abbr        string `yaml:"abbr"`
	Href        string `yaml:"href"`
	Description string `yaml:"description"`
}

// BookmarkCategory maps a category name to its bookmarks.
// The YAML structure is: - CategoryName: [ - BookmarkName: [ {icon, abbr, href} ] ]
// Each bookmark name maps to a list holding a single entry.
type BookmarkCategory map[string][]map[string][]BookmarkEntry

// BookmarksConfig is the root structure of bookmarks.yaml.
type BookmarksConfig []BookmarkCategory
