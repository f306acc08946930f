package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/startpage/internal/domain"
	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/linkstore"
)

type listResponse struct {
	Links []linkView `json:"links"`
	Count int        `json:"count"`
	Total int        `json:"total"`
}

// ListLinks returns the collection in stored order, filtered by ?q=.
func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links := d.Store.Search(r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, listResponse{
			Links: viewsOf(links),
			Count: len(links),
			Total: d.Store.Len(),
		})
	}
}

func GetLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, ok := d.Store.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, linkstore.ErrNotFound.Error())
			return
		}
		writeJSON(w, http.StatusOK, viewOf(link))
	}
}

type createRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Thumb string `json:"thumb"`
}

// CreateLink adds a link at the front of the collection.
func CreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		link, err := d.Store.Create(r.Context(), req.Title, req.URL, req.Thumb)
		if err != nil {
			writeFailure(w, d, err, appliedOrNil(link))
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(link))
	}
}

// updateRequest leaves absent fields unchanged. For thumb, absent keeps the
// current thumbnail, null clears it and a string replaces it.
type updateRequest struct {
	Title *string         `json:"title"`
	URL   *string         `json:"url"`
	Thumb json.RawMessage `json:"thumb"`
}

func (u updateRequest) thumbChange() (domain.ThumbChange, error) {
	raw := bytes.TrimSpace(u.Thumb)
	switch {
	case len(raw) == 0:
		return domain.KeepThumb(), nil
	case bytes.Equal(raw, []byte("null")):
		return domain.ClearThumb(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.ThumbChange{}, errors.New("thumb must be a string or null")
	}
	return domain.SetThumb(s), nil
}

// UpdateLink edits the title, URL or thumbnail of one link.
func UpdateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, ok := d.Store.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, linkstore.ErrNotFound.Error())
			return
		}

		var req updateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		thumb, err := req.thumbChange()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		title, url := current.Title, current.URL
		if req.Title != nil {
			title = *req.Title
		}
		if req.URL != nil {
			url = *req.URL
		}

		link, err := d.Store.Update(r.Context(), id, title, url, thumb)
		if err != nil {
			writeFailure(w, d, err, appliedOrNil(link))
			return
		}
		writeJSON(w, http.StatusOK, viewOf(link))
	}
}

func DeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := d.Store.Delete(r.Context(), chi.URLParam(r, "id"))
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

type moveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// MoveLink drops the link "from" onto the position of the link "to" and
// returns the new order.
func MoveLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveRequest
		if err := decodeJSON(r, &req); err != nil || req.From == "" || req.To == "" {
			writeError(w, http.StatusBadRequest, `body must be {"from":"<id>","to":"<id>"}`)
			return
		}

		moved, err := d.Store.Move(r.Context(), req.From, req.To)
		if err != nil {
			writeFailure(w, d, err, nil)
			return
		}
		if !moved && req.From != req.To {
			writeError(w, http.StatusNotFound, linkstore.ErrNotFound.Error())
			return
		}

		links := d.Store.List()
		writeJSON(w, http.StatusOK, listResponse{
			Links: viewsOf(links),
			Count: len(links),
			Total: len(links),
		})
	}
}

// ResetLinks empties the collection.
func ResetLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Reset(r.Context()); err != nil {
			writeFailure(w, d, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func appliedOrNil(l domain.Link) *domain.Link {
	if l.ID == "" {
		return nil
	}
	return &l
}
