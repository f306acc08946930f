// Package editor holds the single add/edit session shared by every client:
// which link is being edited and which thumbnail is staged for it.
//
// A staged thumbnail only becomes part of a link when the session is
// committed. Thumbnail reads that finish after their session was cancelled,
// committed or replaced are dropped silently.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/startpage/internal/domain"
	"github.com/MrSnakeDoc/startpage/internal/linkstore"
	"github.com/MrSnakeDoc/startpage/internal/logger"
)

var (
	// ErrNoSession is returned when no session is open.
	ErrNoSession = errors.New("no edit session is open")

	// ErrStaleSession is returned when the token belongs to a session that was replaced or closed.
	ErrStaleSession = errors.New("edit session is no longer current")
)

// Token identifies one opened session.
type Token string

// Mode tells whether commit creates or updates.
type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "add"
}

// Store is the subset of the link store the editor commits to.
type Store interface {
	Create(ctx context.Context, title, rawURL, thumb string) (domain.Link, error)
	Update(ctx context.Context, id, title, rawURL string, thumb domain.ThumbChange) (domain.Link, error)
	Delete(ctx context.Context, id string) (bool, error)
	Get(id string) (domain.Link, bool)
}

// ThumbnailLoader reads a selected file into a data URI.
type ThumbnailLoader interface {
	Load(ctx context.Context, r io.Reader, declaredType string) (string, error)
}

// Staged is a snapshot of the open session.
type Staged struct {
	Token   Token
	Mode    Mode
	Link    domain.Link // the record being edited, zero in add mode
	Thumb   domain.ThumbChange
	Loading bool // a thumbnail read is in flight
}

// Preview is the thumbnail the form should currently show.
func (s Staged) Preview() string {
	return s.Thumb.Apply(s.Link.Thumb)
}

type session struct {
	token  Token
	mode   Mode
	linkID string
	thumb  domain.ThumbChange

	// selection increases on every file pick so that only the latest read lands.
	selection uint64
	loading   bool
}

// Editor owns at most one open session.
type Editor struct {
	mu       sync.Mutex
	current  *session
	store    Store
	loader   ThumbnailLoader
	logger   logger.Logger
	newToken func() string
}

// New creates an editor committing to store. log may be nil.
func New(store Store, loader ThumbnailLoader, log logger.Logger) *Editor {
	if log == nil {
		log = logger.Nop()
	}
	return &Editor{
		store:    store,
		loader:   loader,
		logger:   log,
		newToken: uuid.NewString,
	}
}

// OpenAdd starts a create session, replacing any open one.
func (e *Editor) OpenAdd() Token {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.openLocked(ModeAdd, "")
}

// OpenEdit starts an update session for id, replacing any open one.
func (e *Editor) OpenEdit(id string) (Token, domain.Link, error) {
	link, ok := e.store.Get(id)
	if !ok {
		return "", domain.Link{}, fmt.Errorf("%w: %s", linkstore.ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.openLocked(ModeEdit, id), link, nil
}

func (e *Editor) openLocked(mode Mode, id string) Token {
	if e.current != nil {
		e.logger.Debug("replacing open edit session", logger.String("mode", e.current.mode.String()))
	}
	e.current = &session{
		token:  Token(e.newToken()),
		mode:   mode,
		linkID: id,
	}
	return e.current.token
}

// Staged returns the open session's state.
func (e *Editor) Staged(tok Token) (Staged, error) {
	e.mu.Lock()
	s, err := e.sessionLocked(tok)
	if err != nil {
		e.mu.Unlock()
		return Staged{}, err
	}
	st := Staged{
		Token:   s.token,
		Mode:    s.mode,
		Thumb:   s.thumb,
		Loading: s.loading,
	}
	id := s.linkID
	e.mu.Unlock()

	if st.Mode == ModeEdit {
		st.Link, _ = e.store.Get(id)
	}
	return st, nil
}

// StageThumbnail reads r in the background and stages the result.
//
// The returned channel yields one value: nil once the thumbnail is staged,
// or the read error. A read whose session has moved on (cancelled,
// committed, or a newer file picked) is discarded and also yields nil.
func (e *Editor) StageThumbnail(ctx context.Context, tok Token, r io.Reader, declaredType string) <-chan error {
	out := make(chan error, 1)

	e.mu.Lock()
	s, err := e.sessionLocked(tok)
	if err != nil {
		e.mu.Unlock()
		out <- err
		close(out)
		return out
	}
	s.selection++
	s.loading = true
	selection := s.selection
	e.mu.Unlock()

	go func() {
		defer close(out)
		uri, err := e.loader.Load(ctx, r, declaredType)

		e.mu.Lock()
		defer e.mu.Unlock()

		cur := e.current
		if cur == nil || cur.token != tok || cur.selection != selection {
			e.logger.Debug("discarding thumbnail for a session that moved on")
			out <- nil
			return
		}
		cur.loading = false
		if err != nil {
			// the edit goes on without a new thumbnail
			out <- err
			return
		}
		cur.thumb = domain.SetThumb(uri)
		out <- nil
	}()
	return out
}

// ClearThumbnail stages removal of the current thumbnail.
func (e *Editor) ClearThumbnail(tok Token) error {
	return e.setThumb(tok, domain.ClearThumb())
}

// Unstage drops any staged thumbnail so that commit keeps the existing one.
func (e *Editor) Unstage(tok Token) error {
	return e.setThumb(tok, domain.KeepThumb())
}

func (e *Editor) setThumb(tok Token, c domain.ThumbChange) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.sessionLocked(tok)
	if err != nil {
		return err
	}
	// a read still in flight must not overwrite this choice
	s.selection++
	s.loading = false
	s.thumb = c
	return nil
}

// Commit creates or updates the link with the staged thumbnail and closes
// the session. An invalid URL keeps the session open so the input can be
// fixed. A persistence failure still closes it: the change is applied in
// memory and the returned error wraps persist.ErrNotPersisted.
func (e *Editor) Commit(ctx context.Context, tok Token, title, rawURL string) (domain.Link, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.sessionLocked(tok)
	if err != nil {
		return domain.Link{}, err
	}

	var link domain.Link
	switch s.mode {
	case ModeEdit:
		link, err = e.store.Update(ctx, s.linkID, title, rawURL, s.thumb)
	default:
		link, err = e.store.Create(ctx, title, rawURL, s.thumb.Apply(""))
	}

	if errors.Is(err, domain.ErrInvalidURL) {
		return domain.Link{}, err
	}
	e.current = nil
	return link, err
}

// Delete removes the link being edited and closes the session.
// It reports false in add mode or when the link is already gone.
func (e *Editor) Delete(ctx context.Context, tok Token) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.sessionLocked(tok)
	if err != nil {
		return false, err
	}
	if s.mode != ModeEdit {
		return false, nil
	}

	e.current = nil
	return e.store.Delete(ctx, s.linkID)
}

// Cancel closes the session without side effects. Unknown tokens are ignored.
func (e *Editor) Cancel(tok Token) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil && e.current.token == tok {
		e.current = nil
	}
}

func (e *Editor) sessionLocked(tok Token) (*session, error) {
	if e.current == nil {
		return nil, ErrNoSession
	}
	if e.current.token != tok {
		return nil, ErrStaleSession
	}
	return e.current, nil
}
