package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"media-gallery/internal/logging"
	"media-gallery/internal/thumbnail"
)

// GetThumbnail serves the preview image for ?path=, generating it on the
// first request.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	thumb, err := h.thumbs.GetThumbnail(r.Context(), path)
	if err != nil {
		if r.Context().Err() != nil {
			logging.Debug("Thumbnail: client went away while waiting for %s", path)
			return
		}
		switch {
		case errors.Is(err, thumbnail.ErrMissingPath):
			writeJSONError(w, "Path is required", http.StatusBadRequest)
		case errors.Is(err, thumbnail.ErrUnsupportedType):
			logging.Debug("Thumbnail: unsupported file type for %s", path)
			writeJSONError(w, "Unsupported file type", http.StatusBadRequest)
		case errors.Is(err, thumbnail.ErrNotFound):
			logging.Debug("Thumbnail: file not found: %s", path)
			writeJSONError(w, "File not found", http.StatusNotFound)
		default:
			logging.Error("Thumbnail: generation failed for %s: %v", path, err)
			writeJSONError(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", thumb.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(thumb.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(thumb.Data); err != nil {
		logging.Debug("Thumbnail: write failed for %s: %v", path, err)
	}
}
