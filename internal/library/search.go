package library

import (
	"context"
	"errors"
	"path/filepath"

	"media-gallery/internal/gallery"
	"media-gallery/internal/logging"
)

// Result is one search hit.
type Result struct {
	Name       string              `json:"name"`
	Path       string              `json:"path"`
	Type       string              `json:"type"`
	Thumbnail  string              `json:"thumbnail,omitempty"`
	Subfolders []gallery.Subfolder `json:"subfolders,omitempty"`
	Tags       []string            `json:"tags,omitempty"`
	IsFavorite bool                `json:"isFavorite"`
}

// Search resolves query in three steps, stopping at the first that applies:
// an exact keyword name yields its paths, a gallery tag yields the tagged
// paths, and anything else is matched against folder names below every
// keyword path.
func (l *Library) Search(ctx context.Context, query string) ([]Result, error) {
	kw, err := l.keyword(ctx, query)
	switch {
	case err == nil:
		return l.folderResults(ctx, kw.Paths, kw.Type)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	tagged, err := l.GalleriesByTag(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(tagged) > 0 {
		return l.folderResults(ctx, tagged, "unknown")
	}

	return l.subfolderResults(ctx, query)
}

// folderResults describes each path. A path that cannot be read becomes a
// stub of the given type.
func (l *Library) folderResults(ctx context.Context, paths []string, stubType string) ([]Result, error) {
	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		r := Result{Name: filepath.Base(p), Path: p, Type: stubType}

		info, err := l.FolderInfo(ctx, p)
		if err != nil {
			logging.Warn("search: failed to get folder info for %s: %v", p, err)
		} else {
			r = Result{
				Name:       info.Name,
				Path:       info.Path,
				Type:       info.Type,
				Subfolders: info.Subfolders,
				Tags:       info.Tags,
			}
		}

		if r.IsFavorite, err = l.IsFavorite(ctx, p); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (l *Library) subfolderResults(ctx context.Context, query string) ([]Result, error) {
	keywords, err := l.Keywords(ctx)
	if err != nil {
		return nil, err
	}

	results := []Result{}
	for _, kw := range keywords {
		for _, root := range kw.Paths {
			found, err := l.folders.SearchSubfolders(ctx, root, query)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logging.Warn("search: skipping %s: %v", root, err)
				continue
			}
			for _, sf := range found {
				fav, err := l.IsFavorite(ctx, sf.Path)
				if err != nil {
					return nil, err
				}
				results = append(results, Result{
					Name:       sf.Name,
					Path:       sf.Path,
					Type:       sf.Type,
					Thumbnail:  sf.Thumbnail,
					IsFavorite: fav,
				})
			}
		}
	}
	return results, nil
}
