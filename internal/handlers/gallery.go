package handlers

import (
	"net/http"
)

// GetGallery lists the media files and subfolders of ?path=.
func (h *Handlers) GetGallery(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	listing, err := h.gallery.List(path)
	if err != nil {
		writeGalleryError(w, "Gallery", path, err)
		return
	}
	writeJSON(w, listing)
}

// GetFolderInfo describes ?path= for gallery cards, including its tags.
func (h *Handlers) GetFolderInfo(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	info, err := h.library.FolderInfo(r.Context(), path)
	if err != nil {
		writeGalleryError(w, "FolderInfo", path, err)
		return
	}
	writeJSON(w, info)
}

// SearchSubfolder finds folders below ?path= whose name contains ?query=.
func (h *Handlers) SearchSubfolder(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	query := r.URL.Query().Get("query")
	if path == "" || query == "" {
		writeJSONError(w, "Path and query are required", http.StatusBadRequest)
		return
	}

	results, err := h.gallery.SearchSubfolders(r.Context(), path, query)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeGalleryError(w, "SearchSubfolder", path, err)
		return
	}
	writeJSON(w, results)
}
