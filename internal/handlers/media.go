package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"

	"media-gallery/internal/filesystem"
	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"
)

// GetMedia serves the raw file at ?path= with range support.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	retry := filesystem.DefaultRetryConfig()

	info, err := filesystem.StatWithRetry(path, retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSONError(w, "File not found", http.StatusNotFound)
			return
		}
		logging.Error("Media: failed to stat %s: %v", path, err)
		writeJSONError(w, "Failed to access file", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		writeJSONError(w, "Path is a directory", http.StatusBadRequest)
		return
	}

	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		logging.Error("Media: failed to open %s: %v", path, err)
		writeJSONError(w, "Failed to access file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	name := filepath.Base(path)
	w.Header().Set("Content-Type", mediatypes.GetMimeType(mediatypes.Ext(name)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	http.ServeContent(w, r, name, info.ModTime(), f)
}
