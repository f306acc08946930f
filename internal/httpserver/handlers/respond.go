package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/startpage/internal/domain"
	"github.com/MrSnakeDoc/startpage/internal/editor"
	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/linkstore"
	"github.com/MrSnakeDoc/startpage/internal/logger"
	"github.com/MrSnakeDoc/startpage/internal/persist"
	"github.com/MrSnakeDoc/startpage/internal/thumbnail"
)

// errBadRequest marks request shape problems that map to 400.
var errBadRequest = errors.New("bad request")

// notPersistedMessage is shown when a change only lives in memory.
const notPersistedMessage = "Your change was applied but could not be saved, it will be lost on restart. " +
	"Storage is probably full: remove some thumbnails or export your links."

type errorResponse struct {
	Error string    `json:"error"`
	Link  *linkView `json:"link,omitempty"`
}

// linkView is the API shape of a link, with the display fallbacks precomputed.
type linkView struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Thumb        *string `json:"thumb"`
	CreatedAt    int64   `json:"createdAt"`
	DisplayTitle string  `json:"displayTitle"`
	Host         string  `json:"host"`
	Initials     string  `json:"initials"`
}

func viewOf(l domain.Link) linkView {
	v := linkView{
		ID:           l.ID,
		Title:        l.Title,
		URL:          l.URL,
		CreatedAt:    l.CreatedAt,
		DisplayTitle: l.DisplayTitle(),
		Host:         domain.Hostname(l.URL),
		Initials:     domain.Initials(l.Title, l.URL),
	}
	if l.HasThumb() {
		thumb := l.Thumb
		v.Thumb = &thumb
	}
	return v
}

func viewsOf(links []domain.Link) []linkView {
	out := make([]linkView, len(links))
	for i, l := range links {
		out[i] = viewOf(l)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusOf maps the error taxonomy onto HTTP statuses.
func statusOf(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, persist.ErrNotPersisted):
		return http.StatusInsufficientStorage
	case errors.Is(err, thumbnail.ErrTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrMalformedImport),
		errors.Is(err, thumbnail.ErrRead),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, linkstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNoSession), errors.Is(err, editor.ErrStaleSession):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure reports err. A not-persisted failure still carries the
// applied link, when there is one, so the client can render it.
func writeFailure(w http.ResponseWriter, d deps.Deps, err error, applied *domain.Link) {
	status := statusOf(err)
	resp := errorResponse{Error: err.Error()}

	switch status {
	case http.StatusInsufficientStorage:
		resp.Error = notPersistedMessage
		if applied != nil {
			v := viewOf(*applied)
			resp.Link = &v
		}
	case http.StatusInternalServerError:
		d.Logger.Error("request failed", logger.Error(err))
		resp.Error = "internal error"
	}

	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
