package handlers

import (
	"net/http"
)

// Search resolves ?q= against keywords, gallery tags and folder names.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSONError(w, "Query is required", http.StatusBadRequest)
		return
	}

	results, err := h.library.Search(r.Context(), query)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeGalleryError(w, "Search", query, err)
		return
	}
	writeJSON(w, results)
}
