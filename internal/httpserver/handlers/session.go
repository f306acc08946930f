package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/startpage/internal/editor"
	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/linkstore"
)

type sessionView struct {
	Token   editor.Token `json:"token"`
	Mode    string       `json:"mode"`
	Link    *linkView    `json:"link,omitempty"`
	Preview *string      `json:"preview"`
	Thumb   string       `json:"thumbAction"`
	Loading bool         `json:"loading"`
}

func sessionOf(st editor.Staged) sessionView {
	v := sessionView{
		Token:   st.Token,
		Mode:    st.Mode.String(),
		Thumb:   st.Thumb.Action.String(),
		Loading: st.Loading,
	}
	if st.Mode == editor.ModeEdit {
		lv := viewOf(st.Link)
		v.Link = &lv
	}
	if p := st.Preview(); p != "" {
		v.Preview = &p
	}
	return v
}

type openRequest struct {
	ID string `json:"id"` // empty opens an add session
}

// OpenSession starts the add/edit session, replacing any open one.
func OpenSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		var tok editor.Token
		if req.ID == "" {
			tok = d.Editor.OpenAdd()
		} else {
			var err error
			if tok, _, err = d.Editor.OpenEdit(req.ID); err != nil {
				writeFailure(w, d, err, nil)
				return
			}
		}

		writeStaged(w, d, tok, http.StatusCreated)
	}
}

func GetSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeStaged(w, d, token(r), http.StatusOK)
	}
}

// StageThumbnail reads the uploaded file into the session. A request
// without a file unstages any pending thumbnail. When the session moved on
// while the file was read the result is discarded and 202 is returned.
func StageThumbnail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := token(r)
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes)

		file, declared, err := formFile(r)
		if err != nil {
			if err := d.Editor.Unstage(tok); err != nil {
				writeFailure(w, d, err, nil)
				return
			}
			writeStaged(w, d, tok, http.StatusOK)
			return
		}
		defer file.Close()

		select {
		case err := <-d.Editor.StageThumbnail(r.Context(), tok, file, declared):
			if err != nil {
				writeFailure(w, d, err, nil)
				return
			}
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "upload abandoned")
			return
		}

		st, err := d.Editor.Staged(tok)
		if err != nil {
			writeJSON(w, http.StatusAccepted, map[string]bool{"discarded": true})
			return
		}
		writeJSON(w, http.StatusOK, sessionOf(st))
	}
}

// ClearThumbnail stages removal of the link's thumbnail.
func ClearThumbnail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := token(r)
		if err := d.Editor.ClearThumbnail(tok); err != nil {
			writeFailure(w, d, err, nil)
			return
		}
		writeStaged(w, d, tok, http.StatusOK)
	}
}

// CommitSession saves the form. An invalid URL leaves the session open.
func CommitSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		link, err := d.Editor.Commit(r.Context(), token(r), req.Title, req.URL)
		if err != nil {
			writeFailure(w, d, err, appliedOrNil(link))
			return
		}
		writeJSON(w, http.StatusOK, viewOf(link))
	}
}

// DeleteFromSession removes the link being edited.
func DeleteFromSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := d.Editor.Delete(r.Context(), token(r))
		switch {
		case err != nil:
			writeFailure(w, d, err, nil)
		case !removed:
			writeError(w, http.StatusNotFound, linkstore.ErrNotFound.Error())
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func CancelSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Editor.Cancel(token(r))
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeStaged(w http.ResponseWriter, d deps.Deps, tok editor.Token, status int) {
	st, err := d.Editor.Staged(tok)
	if err != nil {
		writeFailure(w, d, err, nil)
		return
	}
	writeJSON(w, status, sessionOf(st))
}

func token(r *http.Request) editor.Token {
	return editor.Token(chi.URLParam(r, "token"))
}
