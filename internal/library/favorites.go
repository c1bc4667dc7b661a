package library

import (
	"context"
	"errors"
	"fmt"

	"media-gallery/internal/gallery"
	"media-gallery/internal/logging"
	"media-gallery/internal/store"
)

// ToggleFavorite removes path from the favorites when present, otherwise
// captures its current folder info, gallery tags included, and adds it. It reports whether path is a
// favorite afterwards.
func (l *Library) ToggleFavorite(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("%w: path is required", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fav, err := l.IsFavorite(ctx, path)
	if err != nil {
		return false, err
	}
	if fav {
		if err := l.store.Delete(ctx, nsFavorites, path); err != nil {
			return true, err
		}
		logging.Debug("Removed favorite %s", path)
		return false, nil
	}

	info, err := l.FolderInfo(ctx, path)
	if err != nil {
		return false, fmt.Errorf("capturing folder info for %s: %w", path, err)
	}
	if err := l.setJSON(ctx, nsFavorites, path, info); err != nil {
		return false, err
	}
	logging.Debug("Added favorite %s", path)
	return true, nil
}

// IsFavorite reports whether path is a favorite.
func (l *Library) IsFavorite(ctx context.Context, path string) (bool, error) {
	_, err := l.store.Get(ctx, nsFavorites, path)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Favorites returns the folder info captured when each favorite was added,
// ordered by path. Undecodable entries are logged and skipped.
func (l *Library) Favorites(ctx context.Context) ([]gallery.FolderInfo, error) {
	paths, err := l.store.Keys(ctx, nsFavorites)
	if err != nil {
		return nil, err
	}

	favorites := make([]gallery.FolderInfo, 0, len(paths))
	for _, p := range paths {
		var info gallery.FolderInfo
		err := l.getJSON(ctx, nsFavorites, p, &info)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			logging.Warn("Skipping favorite %s: %v", p, err)
			continue
		}
		favorites = append(favorites, info)
	}
	return favorites, nil
}
