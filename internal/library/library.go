package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"media-gallery/internal/gallery"
	"media-gallery/internal/store"
)

// Store namespaces.
const (
	nsKeywords    = "keywords"
	nsTags        = "tags"
	nsGalleryTags = "gallery-tags"
	nsFavorites   = "favorites"
)

var (
	// ErrNotFound is returned when a keyword does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for empty names, tags or paths.
	ErrInvalidInput = errors.New("invalid input")
)

// Folders is the part of the gallery browser the library depends on.
type Folders interface {
	FolderInfo(path string) (*gallery.FolderInfo, error)
	SearchSubfolders(ctx context.Context, root, query string) ([]gallery.Subfolder, error)
}

// Library keeps keywords, tags, gallery tags and favorites in a store.
// Read-modify-write sequences are serialised by mu.
type Library struct {
	store   store.Store
	folders Folders
	mu      sync.Mutex
}

// New creates a Library backed by s. folders resolves folder details for
// favorites and search.
func New(s store.Store, folders Folders) *Library {
	return &Library{store: s, folders: folders}
}

// Counts reports the number of keywords, global tags and favorites.
func (l *Library) Counts(ctx context.Context) (keywords, tags, favorites int, err error) {
	for _, c := range []struct {
		ns  string
		dst *int
	}{
		{nsKeywords, &keywords},
		{nsTags, &tags},
		{nsFavorites, &favorites},
	} {
		keys, err := l.store.Keys(ctx, c.ns)
		if err != nil {
			return 0, 0, 0, err
		}
		*c.dst = len(keys)
	}
	return keywords, tags, favorites, nil
}

// FolderInfo returns the folder details of path with its gallery tags.
func (l *Library) FolderInfo(ctx context.Context, path string) (*gallery.FolderInfo, error) {
	info, err := l.folders.FolderInfo(path)
	if err != nil {
		return nil, err
	}
	tags, err := l.GalleryTags(ctx, path)
	if err != nil {
		return nil, err
	}
	info.Tags = tags
	return info, nil
}

func (l *Library) getJSON(ctx context.Context, namespace, key string, v interface{}) error {
	data, err := l.store.Get(ctx, namespace, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (l *Library) setJSON(ctx context.Context, namespace, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", namespace, key, err)
	}
	return l.store.Set(ctx, namespace, key, data)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func without(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
