package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// TagRequest represents a request to manage global or gallery tags
type TagRequest struct {
	Path string `json:"path,omitempty"`
	Tag  string `json:"tag"`
}

// GetAllTags returns all global tags
func (h *Handlers) GetAllTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.library.Tags(r.Context())
	if err != nil {
		writeGalleryError(w, "GetAllTags", "", err)
		return
	}
	writeJSON(w, tags)
}

// AddTag registers a global tag
func (h *Handlers) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Tag == "" {
		writeJSONError(w, "Tag is required", http.StatusBadRequest)
		return
	}

	if err := h.library.AddTag(r.Context(), req.Tag); err != nil {
		writeGalleryError(w, "AddTag", req.Tag, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// DeleteTag removes a global tag
func (h *Handlers) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]

	if err := h.library.RemoveTag(r.Context(), tag); err != nil {
		writeGalleryError(w, "DeleteTag", tag, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// GetGalleriesByTag returns the paths carrying a gallery tag
func (h *Handlers) GetGalleriesByTag(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]

	paths, err := h.library.GalleriesByTag(r.Context(), tag)
	if err != nil {
		writeGalleryError(w, "GetGalleriesByTag", tag, err)
		return
	}
	writeJSON(w, paths)
}

// GetGalleryTags returns the tags of ?path=
func (h *Handlers) GetGalleryTags(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	tags, err := h.library.GalleryTags(r.Context(), path)
	if err != nil {
		writeGalleryError(w, "GetGalleryTags", path, err)
		return
	}
	writeJSON(w, tags)
}

// AddGalleryTag attaches a tag to a gallery
func (h *Handlers) AddGalleryTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" || req.Tag == "" {
		writeJSONError(w, "Path and tag are required", http.StatusBadRequest)
		return
	}

	if err := h.library.AddGalleryTag(r.Context(), req.Path, req.Tag); err != nil {
		writeGalleryError(w, "AddGalleryTag", req.Path, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// RemoveGalleryTag detaches a tag from a gallery
func (h *Handlers) RemoveGalleryTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" || req.Tag == "" {
		writeJSONError(w, "Path and tag are required", http.StatusBadRequest)
		return
	}

	if err := h.library.RemoveGalleryTag(r.Context(), req.Path, req.Tag); err != nil {
		writeGalleryError(w, "RemoveGalleryTag", req.Path, err)
		return
	}
	writeJSONStatus(w, "ok")
}
