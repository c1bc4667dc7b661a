package library

import (
	"context"
	"errors"
	"fmt"

	"media-gallery/internal/store"
)

// AddTag registers a global tag. Adding an existing tag is a no-op.
func (l *Library) AddTag(ctx context.Context, tag string) error {
	if tag == "" {
		return fmt.Errorf("%w: tag is required", ErrInvalidInput)
	}
	return l.store.Set(ctx, nsTags, tag, []byte(tag))
}

// RemoveTag deletes a global tag. Gallery tags using it are kept.
func (l *Library) RemoveTag(ctx context.Context, tag string) error {
	return l.store.Delete(ctx, nsTags, tag)
}

// Tags lists the global tags in ascending order.
func (l *Library) Tags(ctx context.Context) ([]string, error) {
	return l.store.Keys(ctx, nsTags)
}

// GalleryTags returns the tags attached to path in the order they were added.
func (l *Library) GalleryTags(ctx context.Context, path string) ([]string, error) {
	var tags []string
	err := l.getJSON(ctx, nsGalleryTags, path, &tags)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// AddGalleryTag attaches tag to path once.
func (l *Library) AddGalleryTag(ctx context.Context, path, tag string) error {
	if path == "" || tag == "" {
		return fmt.Errorf("%w: path and tag are required", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tags, err := l.GalleryTags(ctx, path)
	if err != nil {
		return err
	}
	if contains(tags, tag) {
		return nil
	}
	return l.setJSON(ctx, nsGalleryTags, path, append(tags, tag))
}

// RemoveGalleryTag detaches tag from path. A path left without tags is
// removed from the store.
func (l *Library) RemoveGalleryTag(ctx context.Context, path, tag string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tags, err := l.GalleryTags(ctx, path)
	if err != nil {
		return err
	}
	tags = without(tags, tag)
	if len(tags) == 0 {
		return l.store.Delete(ctx, nsGalleryTags, path)
	}
	return l.setJSON(ctx, nsGalleryTags, path, tags)
}

// GalleriesByTag returns the paths carrying tag, ordered by path.
func (l *Library) GalleriesByTag(ctx context.Context, tag string) ([]string, error) {
	paths, err := l.store.Keys(ctx, nsGalleryTags)
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, p := range paths {
		tags, err := l.GalleryTags(ctx, p)
		if err != nil {
			return nil, err
		}
		if contains(tags, tag) {
			out = append(out, p)
		}
	}
	return out, nil
}
