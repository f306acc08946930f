package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
)

type thumbnailResponse struct {
	DataURI string `json:"dataUri"`
}

// EncodeThumbnail turns an uploaded image ("file" form field) into the data
// URI stored on links, without touching the collection.
func EncodeThumbnail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes)

		file, declared, err := formFile(r)
		if err != nil {
			writeFailure(w, d, err, nil)
			return
		}
		defer file.Close()

		select {
		case res := <-d.Thumbnails.LoadAsync(r.Context(), file, declared):
			if res.Err != nil {
				writeFailure(w, d, res.Err, nil)
				return
			}
			writeJSON(w, http.StatusOK, thumbnailResponse{DataURI: res.DataURI})
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "upload abandoned")
		}
	}
}

// formFile returns the "file" part of a multipart upload and its declared
// type. The generic octet-stream type browsers send for unknown files is
// dropped so that the content gets sniffed.
func formFile(r *http.Request) (io.ReadCloser, string, error) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing file field: %w", errBadRequest, err)
	}
	declared := hdr.Header.Get("Content-Type")
	if declared == "application/octet-stream" {
		declared = ""
	}
	return f, declared, nil
}
