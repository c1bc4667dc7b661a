package gallery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"media-gallery/internal/filesystem"
	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"
)

var (
	// ErrNotFound is returned when the requested path does not exist.
	ErrNotFound = errors.New("path not found")
	// ErrNotDirectory is returned when a listing is requested for a file.
	ErrNotDirectory = errors.New("path is not a directory")
)

// Folder types reported by FolderType.
const (
	TypeImages = "images"
	TypeVideos = "videos"
	TypeAudio  = "audio"
	TypeMixed  = "mixed"
	TypeFolder = "folder"
)

// MediaItem is a playable or viewable file inside a gallery.
type MediaItem struct {
	Name string              `json:"name"`
	Path string              `json:"path"`
	Size int64               `json:"size"`
	Type mediatypes.FileType `json:"type"`
}

// Subfolder is a child directory with the file used as its preview.
type Subfolder struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Listing is the content of one directory.
type Listing struct {
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	Media      []MediaItem `json:"media"`
	Subfolders []Subfolder `json:"subfolders"`
}

// FolderInfo summarises a directory for gallery cards and favorites.
type FolderInfo struct {
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	Type       string      `json:"type"`
	Subfolders []Subfolder `json:"subfolders"`
	Tags       []string    `json:"tags"`
}

// Browser reads directory structure from the local filesystem.
type Browser struct {
	retry filesystem.RetryConfig
}

// New returns a Browser using the default NFS retry policy.
func New() *Browser {
	return &Browser{retry: filesystem.DefaultRetryConfig()}
}

// child is a directory entry with its target resolved through symlinks.
type child struct {
	name string
	path string
	info os.FileInfo
}

// children lists dir in name order. Entries that cannot be stat'ed are
// skipped.
func (b *Browser) children(dir string) ([]child, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, b.retry)
	if err != nil {
		return nil, err
	}

	out := make([]child, 0, len(entries))
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		info, err := filesystem.StatWithRetry(p, b.retry)
		if err != nil {
			logging.Debug("skipping %s: %v", p, err)
			continue
		}
		out = append(out, child{name: e.Name(), path: p, info: info})
	}
	return out, nil
}

// requireDir stats path and checks that it is a directory.
func (b *Browser) requireDir(path string) error {
	info, err := filesystem.StatWithRetry(path, b.retry)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return nil
}

// List returns the media files and subfolders directly inside path.
func (b *Browser) List(path string) (*Listing, error) {
	if err := b.requireDir(path); err != nil {
		return nil, err
	}

	kids, err := b.children(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	listing := &Listing{
		Name:       filepath.Base(path),
		Path:       path,
		Media:      []MediaItem{},
		Subfolders: []Subfolder{},
	}

	for _, c := range kids {
		if c.info.IsDir() {
			listing.Subfolders = append(listing.Subfolders, Subfolder{
				Name:      c.name,
				Path:      c.path,
				Thumbnail: b.FindThumbnail(c.path),
			})
			continue
		}

		ft := mediatypes.GetFileType(mediatypes.Ext(c.name))
		if ft == mediatypes.FileTypeOther {
			continue
		}
		listing.Media = append(listing.Media, MediaItem{
			Name: c.name,
			Path: c.path,
			Size: c.info.Size(),
			Type: ft,
		})
	}

	return listing, nil
}

// FolderInfo describes path and lists only the subfolders that directly
// contain media. Tags are left empty for the caller to fill.
func (b *Browser) FolderInfo(path string) (*FolderInfo, error) {
	if err := b.requireDir(path); err != nil {
		return nil, err
	}

	kids, err := b.children(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	info := &FolderInfo{
		Name:       filepath.Base(path),
		Path:       path,
		Type:       folderType(kids),
		Subfolders: []Subfolder{},
		Tags:       []string{},
	}

	for _, c := range kids {
		if !c.info.IsDir() || !b.hasMedia(c.path) {
			continue
		}
		info.Subfolders = append(info.Subfolders, Subfolder{
			Name:      c.name,
			Path:      c.path,
			Thumbnail: b.FindThumbnail(c.path),
		})
	}

	return info, nil
}

// FindThumbnail returns the first image directly inside dir, else the first
// video, else "". Listing errors are logged and yield "".
func (b *Browser) FindThumbnail(dir string) string {
	kids, err := b.children(dir)
	if err != nil {
		logging.Warn("failed to look for a thumbnail in %s: %v", dir, err)
		return ""
	}

	firstVideo := ""
	for _, c := range kids {
		if c.info.IsDir() {
			continue
		}
		switch mediatypes.GetFileType(mediatypes.Ext(c.name)) {
		case mediatypes.FileTypeImage:
			return c.path
		case mediatypes.FileTypeVideo:
			if firstVideo == "" {
				firstVideo = c.path
			}
		}
	}
	return firstVideo
}

// FolderType reports the predominant media type directly inside dir.
func (b *Browser) FolderType(dir string) string {
	kids, err := b.children(dir)
	if err != nil {
		logging.Warn("failed to determine folder type of %s: %v", dir, err)
		return TypeFolder
	}
	return folderType(kids)
}

// folderType returns the strictly largest category, mixed on a tie between
// non-empty categories, and folder when there is no media at all.
func folderType(kids []child) string {
	var images, videos, audio int
	for _, c := range kids {
		if c.info.IsDir() {
			continue
		}
		switch mediatypes.GetFileType(mediatypes.Ext(c.name)) {
		case mediatypes.FileTypeImage:
			images++
		case mediatypes.FileTypeVideo:
			videos++
		case mediatypes.FileTypeAudio:
			audio++
		}
	}

	switch {
	case images > videos && images > audio:
		return TypeImages
	case videos > images && videos > audio:
		return TypeVideos
	case audio > images && audio > videos:
		return TypeAudio
	case images+videos+audio > 0:
		return TypeMixed
	default:
		return TypeFolder
	}
}

func (b *Browser) hasMedia(dir string) bool {
	kids, err := b.children(dir)
	if err != nil {
		logging.Warn("failed to check %s for media: %v", dir, err)
		return false
	}
	for _, c := range kids {
		if !c.info.IsDir() && mediatypes.IsMediaFile(mediatypes.Ext(c.name)) {
			return true
		}
	}
	return false
}

// SearchSubfolders walks root depth-first and returns every folder whose
// name contains query, ignoring case. Unreadable directories are logged and
// skipped.
func (b *Browser) SearchSubfolders(ctx context.Context, root, query string) ([]Subfolder, error) {
	if err := b.requireDir(root); err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	results := []Subfolder{}

	var walk func(dir string) error
	walk = func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		kids, err := b.children(dir)
		if err != nil {
			logging.Warn("failed to traverse %s: %v", dir, err)
			return nil
		}

		for _, c := range kids {
			if !c.info.IsDir() {
				continue
			}
			if strings.Contains(strings.ToLower(c.name), needle) {
				results = append(results, Subfolder{
					Name:      c.name,
					Path:      c.path,
					Type:      b.FolderType(c.path),
					Thumbnail: b.FindThumbnail(c.path),
				})
			}
			if err := walk(c.path); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return results, nil
}
