package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/logger"
)

// ExportFilename is the name offered to browsers downloading an export.
const ExportFilename = "startpage-links.json"

// Export downloads the collection as an export file.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Store.Export()
		if err != nil {
			writeFailure(w, d, err, nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ExportFilename}))
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(data); err != nil {
			d.Logger.Debug("failed to write export", logger.Error(err))
		}
	}
}

type importResponse struct {
	Imported int `json:"imported"`
}

// Import replaces the collection with an export file, sent either as the
// request body or as the "file" field of a multipart form.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes)

		raw, err := readImport(r)
		if err != nil {
			writeFailure(w, d, err, nil)
			return
		}

		n, err := d.Store.Import(r.Context(), raw)
		if err != nil {
			writeFailure(w, d, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, importResponse{Imported: n})
	}
}

func readImport(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return io.ReadAll(r.Body)
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: missing file field", errBadRequest)
	}
	defer f.Close()
	return io.ReadAll(f)
}
