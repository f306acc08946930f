package homepage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/startpage/internal/domain"
	"github.com/MrSnakeDoc/startpage/internal/logger"
)

// Store is the part of the link store seeding writes to.
type Store interface {
	Len() int
	ReplaceAll(ctx context.Context, links []domain.Link) error
}

// IconLoader turns a local icon file into a data URI.
type IconLoader interface {
	LoadFile(ctx context.Context, path string) (string, error)
}

// Seeder fills the collection from a bookmarks.yaml file.
type Seeder struct {
	loader  *Loader
	mapper  *Mapper
	store   Store
	logger  logger.Logger
	iconDir string
	icons   IconLoader
}

// NewSeeder creates a seeder reading bookmarkFile into store.
func NewSeeder(bookmarkFile string, store Store, log logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{
		loader: NewLoader(bookmarkFile),
		mapper: NewMapper(),
		store:  store,
		logger: log,
	}
}

// WithIcons embeds icons found in dir as thumbnails. Icons that are URLs or
// Homepage built-ins (mdi-*, si-*) are not files and are left out.
func (s *Seeder) WithIcons(dir string, icons IconLoader) *Seeder {
	s.iconDir = dir
	s.icons = icons
	return s
}

// Seed replaces the collection with the file's bookmarks.
// Without force a non-empty collection is left alone and Seed returns 0.
// A failed save is returned as is: the seeded links stay in memory.
func (s *Seeder) Seed(ctx context.Context, force bool) (int, error) {
	if n := s.store.Len(); n > 0 && !force {
		s.logger.Info("collection not empty, skipping homepage seed",
			logger.Int("links", n))
		return 0, nil
	}

	config, err := s.loader.Load()
	if err != nil {
		return 0, err
	}

	bookmarks, err := s.mapper.MapBookmarks(config)
	if err != nil {
		return 0, fmt.Errorf("failed to map bookmarks: %w", err)
	}

	links := make([]domain.Link, 0, len(bookmarks))
	for _, bm := range bookmarks {
		link := bm.Link
		link.Thumb = s.icon(ctx, bm.Icon)
		links = append(links, link)
	}

	s.logger.Info("seeding collection from homepage bookmarks",
		logger.String("file", s.loader.Path()),
		logger.Int("count", len(links)))

	if err := s.store.ReplaceAll(ctx, links); err != nil {
		return len(links), err
	}
	return len(links), nil
}

func (s *Seeder) icon(ctx context.Context, icon string) string {
	if s.icons == nil || s.iconDir == "" || !isLocalIcon(icon) {
		return ""
	}

	uri, err := s.icons.LoadFile(ctx, filepath.Join(s.iconDir, filepath.Base(icon)))
	if err != nil {
		s.logger.Debug("icon not embedded",
			logger.String("icon", icon),
			logger.Error(err))
		return ""
	}
	return uri
}

func isLocalIcon(icon string) bool {
	if icon == "" || strings.Contains(icon, "://") {
		return false
	}
	for _, prefix := range []string{"mdi-", "si-", "sh-"} {
		if strings.HasPrefix(icon, prefix) {
			return false
		}
	}
	return filepath.Ext(icon) != ""
}
