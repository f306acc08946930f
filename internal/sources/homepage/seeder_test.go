package homepage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/startpage/internal/domain"
)

type fakeStore struct {
	links []domain.Link
	err   error
}

func (f *fakeStore) Len() int { return len(f.links) }

func (f *fakeStore) ReplaceAll(_ context.Context, links []domain.Link) error {
	f.links = links
	return f.err
}

type fakeIcons struct{ loaded []string }

func (f *fakeIcons) LoadFile(_ context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	f.loaded = append(f.loaded, filepath.Base(path))
	return "data:image/svg+xml;base64,PHN2Zy8+", nil
}

func TestSeedEmptyCollection(t *testing.T) {
	store := &fakeStore{}
	n, err := NewSeeder(writeBookmarks(t, bookmarksYAML), store, nil).Seed(context.Background(), false)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 2 || len(store.links) != 2 {
		t.Errorf("Seed() = %d, store has %d links, want 2", n, len(store.links))
	}
}

func TestSeedSkipsNonEmptyUnlessForced(t *testing.T) {
	path := writeBookmarks(t, bookmarksYAML)
	store := &fakeStore{links: []domain.Link{{ID: "mine", URL: "https://mine.org/"}}}
	seeder := NewSeeder(path, store, nil)

	n, err := seeder.Seed(context.Background(), false)
	if n != 0 || err != nil || store.links[0].ID != "mine" {
		t.Errorf("Seed(false) = %d, %v; store = %+v", n, err, store.links)
	}

	n, err = seeder.Seed(context.Background(), true)
	if n != 2 || err != nil {
		t.Errorf("Seed(true) = %d, %v", n, err)
	}
}

func TestSeedWithIcons(t *testing.T) {
	iconDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(iconDir, "go.svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := &fakeStore{}
	icons := &fakeIcons{}

	_, err := NewSeeder(writeBookmarks(t, bookmarksYAML), store, nil).
		WithIcons(iconDir, icons).
		Seed(context.Background(), false)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if store.links[0].HasThumb() {
		t.Errorf("Github has no icon, got thumb %q", store.links[0].Thumb)
	}
	if !store.links[1].HasThumb() {
		t.Error("Go Docs icon should be embedded")
	}
}

func TestSeedPropagatesSaveFailure(t *testing.T) {
	boom := errors.New("not saved")
	store := &fakeStore{err: boom}

	n, err := NewSeeder(writeBookmarks(t, bookmarksYAML), store, nil).Seed(context.Background(), false)
	if !errors.Is(err, boom) || n != 2 {
		t.Errorf("Seed() = %d, %v, want 2 and the save error", n, err)
	}
}

func TestIsLocalIcon(t *testing.T) {
	tests := map[string]bool{
		"":                         false,
		"go.svg":                   true,
		"https://x.org/icon.png":   false,
		"mdi-github":               false,
		"si-github":                false,
		"/app/public/icons/gh.png": true,
	}
	for icon, want := range tests {
		if got := isLocalIcon(icon); got != want {
			t.Errorf("isLocalIcon(%q) = %v, want %v", icon, got, want)
		}
	}
}
