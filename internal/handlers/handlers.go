package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"media-gallery/internal/gallery"
	"media-gallery/internal/library"
	"media-gallery/internal/logging"
	"media-gallery/internal/startup"
	"media-gallery/internal/thumbnail"
)

// ThumbnailService produces preview images for files and directories.
type ThumbnailService interface {
	GetThumbnail(ctx context.Context, path string) (*thumbnail.Thumbnail, error)
}

// Handlers holds the dependencies shared by the HTTP handlers.
type Handlers struct {
	thumbs       ThumbnailService
	gallery      *gallery.Browser
	library      *library.Library
	storeBackend string
	startTime    time.Time
}

// New creates a Handlers. Only the store backend name is read from config.
func New(thumbs ThumbnailService, browser *gallery.Browser, lib *library.Library, config *startup.Config) *Handlers {
	return &Handlers{
		thumbs:       thumbs,
		gallery:      browser,
		library:      lib,
		storeBackend: config.StoreBackend,
		startTime:    time.Now(),
	}
}

// galleryStatus maps browsing and library errors to a status code and a
// message safe to return to the client.
func galleryStatus(err error) (int, string) {
	switch {
	case errors.Is(err, gallery.ErrNotFound):
		return http.StatusNotFound, "Path not found"
	case errors.Is(err, gallery.ErrNotDirectory):
		return http.StatusBadRequest, "Path is not a directory"
	case errors.Is(err, library.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeGalleryError logs err with the operation and path and writes the
// mapped JSON error.
func writeGalleryError(w http.ResponseWriter, op, path string, err error) {
	status, msg := galleryStatus(err)
	if status >= http.StatusInternalServerError {
		logging.Error("%s %s: %v", op, path, err)
	} else {
		logging.Debug("%s %s: %v", op, path, err)
	}
	writeJSONError(w, msg, status)
}
