package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// KeywordRequest creates or re-types a keyword.
type KeywordRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PathRequest names a library folder.
type PathRequest struct {
	Path string `json:"path"`
}

// GetKeywords returns all keywords
func (h *Handlers) GetKeywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.library.Keywords(r.Context())
	if err != nil {
		writeGalleryError(w, "GetKeywords", "", err)
		return
	}
	writeJSON(w, keywords)
}

// GetKeyword returns a single keyword
func (h *Handlers) GetKeyword(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	kw, err := h.library.Keyword(r.Context(), name)
	if err != nil {
		writeGalleryError(w, "GetKeyword", name, err)
		return
	}
	writeJSON(w, kw)
}

// AddKeyword creates a keyword or changes its type
func (h *Handlers) AddKeyword(w http.ResponseWriter, r *http.Request) {
	var req KeywordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSONError(w, "Name is required", http.StatusBadRequest)
		return
	}

	if err := h.library.AddKeyword(r.Context(), req.Name, req.Type); err != nil {
		writeGalleryError(w, "AddKeyword", req.Name, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// RemoveKeyword deletes a keyword
func (h *Handlers) RemoveKeyword(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.library.RemoveKeyword(r.Context(), name); err != nil {
		writeGalleryError(w, "RemoveKeyword", name, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// AddKeywordPath attaches a folder to a keyword
func (h *Handlers) AddKeywordPath(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	if err := h.library.AddKeywordPath(r.Context(), name, req.Path); err != nil {
		writeGalleryError(w, "AddKeywordPath", req.Path, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// RemoveKeywordPath detaches a folder from a keyword
func (h *Handlers) RemoveKeywordPath(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	if err := h.library.RemoveKeywordPath(r.Context(), name, req.Path); err != nil {
		writeGalleryError(w, "RemoveKeywordPath", req.Path, err)
		return
	}
	writeJSONStatus(w, "ok")
}
