package thumbnail

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry is a stored thumbnail.
type Entry struct {
	Data        []byte
	ContentType string
}

// candidateExts lists the extensions a stem may be stored under, in lookup
// order.
var candidateExts = []string{".jpg", ".gif", ".webp"}

func extForContentType(contentType string) (string, error) {
	switch contentType {
	case ContentTypeJPEG:
		return ".jpg", nil
	case ContentTypeGIF:
		return ".gif", nil
	case ContentTypeWebP:
		return ".webp", nil
	default:
		return "", fmt.Errorf("no cache extension for content type %q", contentType)
	}
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".gif":
		return ContentTypeGIF
	case ".webp":
		return ContentTypeWebP
	default:
		return ContentTypeJPEG
	}
}

// maxMemoryEntrySize bounds a single in-memory entry. Generated thumbnails
// are a few tens of kilobytes; anything larger stays on disk only.
const maxMemoryEntrySize = 256 << 10

// Cache stores thumbnails as <stem><ext> files in a directory, fronted by an
// optional in-memory LRU of generated JPEGs. Entries are never evicted from
// disk; removing a file there evicts it from memory too.
type Cache struct {
	dir string
	mem *lru.Cache[string, memEntry]
}

// memEntry remembers which disk file an in-memory entry was loaded from, so
// a hit can be checked against the file still being there.
type memEntry struct {
	Entry
	file    string
	size    int64
	modTime time.Time
}

// NewCache creates a cache rooted at dir. memoryEntries bounds the in-memory
// layer; zero disables it. The directory itself is created on first write.
func NewCache(dir string, memoryEntries int) (*Cache, error) {
	c := &Cache{dir: dir}
	if memoryEntries > 0 {
		mem, err := lru.New[string, memEntry](memoryEntries)
		if err != nil {
			return nil, fmt.Errorf("creating memory cache: %w", err)
		}
		c.mem = mem
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Get looks stem up in memory, then on disk under each candidate extension.
// A memory hit is served only while its file is unchanged on disk.
// A missing entry is reported as ok == false with a nil error.
func (c *Cache) Get(stem string) (Entry, bool, error) {
	if e, ok := c.memoryGet(stem); ok {
		metrics.ThumbnailCacheHits.WithLabelValues("memory").Inc()
		return e, true, nil
	}

	for _, ext := range candidateExts {
		file := filepath.Join(c.dir, stem+ext)
		info, err := os.Stat(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Entry{}, false, fmt.Errorf("reading cache entry %s%s: %w", stem, ext, err)
		}
		data, err := os.ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Entry{}, false, fmt.Errorf("reading cache entry %s%s: %w", stem, ext, err)
		}

		e := Entry{Data: data, ContentType: contentTypeForExt(ext)}
		c.memoryAdd(stem, e, file, info)
		metrics.ThumbnailCacheHits.WithLabelValues("disk").Inc()
		return e, true, nil
	}

	return Entry{}, false, nil
}

func (c *Cache) memoryGet(stem string) (Entry, bool) {
	if c.mem == nil {
		return Entry{}, false
	}
	m, ok := c.mem.Get(stem)
	if !ok {
		return Entry{}, false
	}
	info, err := os.Stat(m.file)
	if err != nil || info.Size() != m.size || !info.ModTime().Equal(m.modTime) {
		c.mem.Remove(stem)
		return Entry{}, false
	}
	return m.Entry, true
}

// memoryAdd keeps e in memory when it is a generated JPEG of bounded size.
// Pass-through entries are whole source files and are only served from disk.
func (c *Cache) memoryAdd(stem string, e Entry, file string, info os.FileInfo) {
	if c.mem == nil {
		return
	}
	if e.ContentType != ContentTypeJPEG || len(e.Data) > maxMemoryEntrySize {
		c.mem.Remove(stem)
		return
	}
	c.mem.Add(stem, memEntry{Entry: e, file: file, size: info.Size(), modTime: info.ModTime()})
}

// Put stores data for stem under the extension implied by contentType. The
// bytes are written to a temporary file and renamed into place so that a
// concurrent reader sees either nothing or the complete entry.
func (c *Cache) Put(stem string, data []byte, contentType string) error {
	ext, err := extForContentType(contentType)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, stem+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	final := filepath.Join(c.dir, stem+ext)
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming cache entry: %w", err)
	}

	if info, err := os.Stat(final); err == nil {
		c.memoryAdd(stem, Entry{Data: data, ContentType: contentType}, final, info)
	}
	logging.Debug("Thumbnail cached: %s", final)
	return nil
}

// MemoryLen returns the number of entries held in memory.
func (c *Cache) MemoryLen() int {
	if c.mem == nil {
		return 0
	}
	return c.mem.Len()
}

// isEntryName reports whether name looks like a finished cache entry rather
// than a temp file or an intermediate video frame.
func isEntryName(name string) bool {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" || strings.Contains(stem, ".") || strings.HasSuffix(stem, "_frame") {
		return false
	}
	for _, candidate := range candidateExts {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Stats counts entries on disk and their total size. A cache directory that
// does not exist yet is empty.
func (c *Cache) Stats() (count int, size int64, err error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache directory: %w", err)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() || !isEntryName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}

// Clear removes every entry from disk and memory and returns how many files
// were deleted. Temp files from interrupted writes are removed too.
func (c *Cache) Clear() (int, error) {
	if c.mem != nil {
		c.mem.Purge()
	}

	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !isEntryName(name) && !strings.HasSuffix(name, ".tmp") && !strings.HasSuffix(name, "_frame.jpg") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			return removed, fmt.Errorf("removing %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
