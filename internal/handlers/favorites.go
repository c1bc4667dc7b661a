package handlers

import (
	"net/http"
)

func (h *Handlers) GetFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.library.Favorites(r.Context())
	if err != nil {
		writeGalleryError(w, "GetFavorites", "", err)
		return
	}
	writeJSON(w, favorites)
}

// ToggleFavorite adds or removes a favorite and reports the new state.
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	isFavorite, err := h.library.ToggleFavorite(r.Context(), req.Path)
	if err != nil {
		writeGalleryError(w, "ToggleFavorite", req.Path, err)
		return
	}
	writeJSON(w, map[string]bool{"isFavorite": isFavorite})
}

func (h *Handlers) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	isFavorite, err := h.library.IsFavorite(r.Context(), path)
	if err != nil {
		writeGalleryError(w, "CheckFavorite", path, err)
		return
	}
	writeJSON(w, map[string]bool{"isFavorite": isFavorite})
}
