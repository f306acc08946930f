// Package linkstore owns the ordered link collection and is its only writer.
package linkstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/startpage/internal/domain"
	"github.com/MrSnakeDoc/startpage/internal/logger"
	"github.com/MrSnakeDoc/startpage/internal/persist"
)

// ErrNotFound is returned when an id does not match any link.
var ErrNotFound = errors.New("link not found")

// Gateway is the persistence contract the store writes through.
type Gateway interface {
	Load(ctx context.Context) ([]domain.Link, persist.LoadStatus)
	Save(ctx context.Context, links []domain.Link) error
}

// Observer is notified after every mutation attempt.
type Observer interface {
	Mutation(op string, err error)
	Size(n int)
}

type nopObserver struct{}

func (nopObserver) Mutation(string, error) {}
func (nopObserver) Size(int)               {}

// Status describes how far the in-memory collection is from the slot.
type Status struct {
	Links     int
	Revision  uint64
	Persisted bool   // false when the last write failed
	LastError string // message of the last failed write
	Loaded    persist.LoadStatus
}

// Store holds the collection and serializes every mutation.
//
// Mutations are applied in memory first and then written through the
// gateway. When the write fails the change stays in memory, the returned
// error wraps persist.ErrNotPersisted, and the caller must tell the user.
type Store struct {
	mu        sync.Mutex
	links     []domain.Link
	revision  uint64
	persisted bool
	lastErr   error
	loaded    persist.LoadStatus

	gw     Gateway
	logger logger.Logger
	now    func() time.Time
	newID  func() string
	obs    Observer
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(s *Store) { s.logger = l } }

// WithClock sets the time source used for createdAt.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator sets the id source; defaults to random UUIDs.
func WithIDGenerator(gen func() string) Option { return func(s *Store) { s.newID = gen } }

// WithObserver registers a mutation observer such as the metrics collector.
func WithObserver(o Observer) Option { return func(s *Store) { s.obs = o } }

// New loads the collection once through gw and returns the store.
func New(ctx context.Context, gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:        gw,
		logger:    logger.Nop(),
		now:       time.Now,
		newID:     uuid.NewString,
		obs:       nopObserver{},
		persisted: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	var loaded []domain.Link
	loaded, s.loaded = gw.Load(ctx)
	s.replaceLocked(loaded)
	if dropped := len(loaded) - len(s.links); dropped > 0 {
		s.logger.Warn("dropped stored links without a url", logger.Int("dropped", dropped))
	}

	s.obs.Size(len(s.links))
	s.logger.Info("link collection loaded",
		logger.Int("links", len(s.links)),
		logger.String("status", s.loaded.String()))
	return s
}

// ─────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────

// Create inserts a new link at the front of the collection.
// An empty thumb means no thumbnail. Returns domain.ErrInvalidURL without
// mutating anything when rawURL normalizes to "".
func (s *Store) Create(ctx context.Context, title, rawURL, thumb string) (domain.Link, error) {
	u := domain.NormalizeURL(rawURL)
	if u == "" {
		return domain.Link{}, domain.ErrInvalidURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	link := domain.Link{
		ID:        s.freshIDLocked(),
		Title:     domain.TitleOrHost(title, u),
		URL:       u,
		Thumb:     thumb,
		CreatedAt: s.now().UnixMilli(),
	}
	s.links = slices.Insert(s.links, 0, link)

	return link, s.commitLocked(ctx, "create")
}

// Update replaces title and URL of the link with id, applying thumb on top of
// its current thumbnail. ID and CreatedAt never change.
func (s *Store) Update(ctx context.Context, id, title, rawURL string, thumb domain.ThumbChange) (domain.Link, error) {
	u := domain.NormalizeURL(rawURL)
	if u == "" {
		return domain.Link{}, domain.ErrInvalidURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx == -1 {
		return domain.Link{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	link := s.links[idx]
	link.Title = domain.TitleOrHost(title, u)
	link.URL = u
	link.Thumb = thumb.Apply(link.Thumb)
	s.links[idx] = link

	return link, s.commitLocked(ctx, "update")
}

// Delete removes the link with id. It reports false, with no write, when the id is unknown.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx == -1 {
		return false, nil
	}
	s.links = slices.Delete(s.links, idx, idx+1)

	return true, s.commitLocked(ctx, "delete")
}

// Move takes the link fromID out of the collection and reinserts it at the
// index toID occupied before the removal, so moving A onto C in [A B C]
// gives [B C A]. Unknown or equal ids are a no-op and report false.
func (s *Store) Move(ctx context.Context, fromID, toID string) (bool, error) {
	if fromID == toID {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := s.indexLocked(fromID), s.indexLocked(toID)
	if from == -1 || to == -1 {
		return false, nil
	}

	moved := s.links[from]
	s.links = slices.Delete(s.links, from, from+1)
	s.links = slices.Insert(s.links, to, moved)

	return true, s.commitLocked(ctx, "move")
}

// ReplaceAll swaps the whole collection and persists once.
// Links with an empty URL are dropped; missing or repeated ids get fresh ones.
func (s *Store) ReplaceAll(ctx context.Context, links []domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaceLocked(links)
	return s.commitLocked(ctx, "replace")
}

// Import parses an export file and replaces the collection with its
// sanitized links. A malformed file leaves the store untouched and returns
// domain.ErrMalformedImport. Returns the number of links imported.
func (s *Store) Import(ctx context.Context, raw []byte) (int, error) {
	links, err := domain.SanitizeImport(raw, s.now, s.newID)
	if err != nil {
		s.obs.Mutation("import", err)
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaceLocked(links)
	return len(s.links), s.commitLocked(ctx, "import")
}

// Reset empties the collection.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.links = []domain.Link{}
	return s.commitLocked(ctx, "reset")
}

// ─────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────

// List returns a copy of the collection in stored order.
func (s *Store) List() []domain.Link {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.links)
}

// Search returns the links matching query, see domain.Filter.
func (s *Store) Search(query string) []domain.Link {
	return domain.Filter(s.List(), query)
}

// Get returns the link with id.
func (s *Store) Get(id string) (domain.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx == -1 {
		return domain.Link{}, false
	}
	return s.links[idx], true
}

// Len returns the number of links.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.links)
}

// Revision increases on every applied mutation, persisted or not.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.revision
}

// Status reports whether the last write reached the slot.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Links:     len(s.links),
		Revision:  s.revision,
		Persisted: s.persisted,
		Loaded:    s.loaded,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Export serializes {"version":1,"links":[...]} with two-space indentation.
func (s *Store) Export() ([]byte, error) {
	env := domain.Envelope{
		Version: domain.ExportVersion,
		Links:   s.List(),
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// ─────────────────────────────────────────────────────────────────
// Internals (callers hold s.mu)
// ─────────────────────────────────────────────────────────────────

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.links, func(l domain.Link) bool { return l.ID == id })
}

func (s *Store) freshIDLocked() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) == -1 {
			return id
		}
	}
}

func (s *Store) replaceLocked(links []domain.Link) {
	next := make([]domain.Link, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		if l.URL == "" {
			continue
		}
		for l.ID == "" || seen[l.ID] {
			l.ID = s.newID()
		}
		seen[l.ID] = true
		next = append(next, l)
	}
	s.links = next
}

// commitLocked bumps the revision and writes the collection through the gateway.
// The write ignores cancellation of ctx: the change is already applied in memory.
func (s *Store) commitLocked(ctx context.Context, op string) error {
	s.revision++
	err := s.gw.Save(context.WithoutCancel(ctx), s.links)

	s.persisted = err == nil
	s.lastErr = err
	s.obs.Mutation(op, err)
	s.obs.Size(len(s.links))

	if err != nil {
		s.logger.Warn("mutation applied in memory only",
			logger.String("op", op),
			logger.Uint64("revision", s.revision),
			logger.Bool("quota", errors.Is(err, persist.ErrQuotaExceeded)),
			logger.Error(err))
		return err
	}

	s.logger.Debug("mutation persisted",
		logger.String("op", op),
		logger.Int("links", len(s.links)),
		logger.Uint64("revision", s.revision))
	return nil
}
