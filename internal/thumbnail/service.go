package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"
	"media-gallery/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// Thumbnail is an encoded preview image ready to be served.
type Thumbnail struct {
	Data        []byte
	ContentType string
}

// Options configures a Service. Zero values select the defaults noted on
// each field.
type Options struct {
	// CacheDir holds generated entries. Required.
	CacheDir string
	// MemoryEntries bounds the in-memory cache layer; zero disables it.
	MemoryEntries int
	// Key names cache entries. Defaults to LegacyKey.
	Key KeyFunc

	// FS reads the media library. Defaults to NewOSFileSystem().
	FS FileSystem
	// Extractor grabs video frames. Defaults to an FFmpegExtractor writing
	// into CacheDir.
	Extractor FrameExtractor
	// FFmpegPath is used by the default extractor and the last-resort image
	// decoder. Defaults to "ffmpeg"; set DisableFFmpegDecode to skip the
	// decoder fallback.
	FFmpegPath          string
	DisableFFmpegDecode bool

	// FrameOffset is the video position to grab. Defaults to one second.
	FrameOffset time.Duration
	// FrameTimeout bounds one extraction. Zero means no bound.
	FrameTimeout time.Duration

	// VideoPlaceholder and FolderPlaceholder name image files used when a
	// video frame or directory cover cannot be produced.
	VideoPlaceholder  string
	FolderPlaceholder string

	// FrameCounter counts frames in WebP data. Defaults to libvips when
	// available, otherwise a RIFF chunk walk.
	FrameCounter func(data []byte) (int, error)
}

// Service produces and caches thumbnails for files and directories.
type Service struct {
	cache     *Cache
	key       KeyFunc
	fs        FileSystem
	extractor FrameExtractor
	decoder   decoder
	frames    func([]byte) (int, error)

	frameOffset       time.Duration
	frameTimeout      time.Duration
	videoPlaceholder  string
	folderPlaceholder string
	size              int

	group singleflight.Group
}

// NewService validates opts and builds a Service.
func NewService(opts Options) (*Service, error) {
	if opts.CacheDir == "" {
		return nil, fmt.Errorf("%w: cache directory is required", ErrInternal)
	}

	cache, err := NewCache(opts.CacheDir, opts.MemoryEntries)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cache:             cache,
		key:               opts.Key,
		fs:                opts.FS,
		extractor:         opts.Extractor,
		frames:            opts.FrameCounter,
		frameOffset:       opts.FrameOffset,
		frameTimeout:      opts.FrameTimeout,
		videoPlaceholder:  opts.VideoPlaceholder,
		folderPlaceholder: opts.FolderPlaceholder,
		size:              Size,
	}

	ffmpeg := opts.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if !opts.DisableFFmpegDecode {
		s.decoder.ffmpeg = ffmpeg
	}

	if s.key == nil {
		s.key = LegacyKey
	}
	if s.fs == nil {
		s.fs = NewOSFileSystem()
	}
	if s.extractor == nil {
		s.extractor = &FFmpegExtractor{Binary: ffmpeg, Dir: opts.CacheDir, Key: s.key}
	}
	if s.frames == nil {
		s.frames = webpFrameCount
	}
	if s.frameOffset == 0 {
		s.frameOffset = time.Second
	}

	return s, nil
}

// Cache exposes the underlying cache for maintenance and statistics.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Key returns the cache stem for path.
func (s *Service) Key(path string) string {
	return s.key(path)
}

// GetThumbnail returns the thumbnail for path, generating and caching it on
// the first request. Concurrent first requests for the same entry share one
// generation. Generation is not cancelled when ctx is; the caller simply
// stops waiting.
func (s *Service) GetThumbnail(ctx context.Context, path string) (*Thumbnail, error) {
	if path == "" {
		return nil, ErrMissingPath
	}

	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrInternal, path, err)
	}

	stem := s.key(path)

	entry, ok, err := s.cache.Get(stem)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if ok {
		logging.Debug("Thumbnail cache hit: %s", path)
		metrics.ThumbnailRequestsTotal.WithLabelValues(string(s.kindHint(path, info)), "hit").Inc()
		return &Thumbnail{Data: entry.Data, ContentType: entry.ContentType}, nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	detached := context.WithoutCancel(ctx)
	// leader is set only when this call's func runs; the channel receive
	// below orders the write before the read.
	leader := false
	ch := s.group.DoChan(stem, func() (interface{}, error) {
		leader = true
		// Another flight may have stored the entry since our lookup.
		if e, ok, err := s.cache.Get(stem); err == nil && ok {
			return &Thumbnail{Data: e.Data, ContentType: e.ContentType}, nil
		}
		return s.generate(detached, path, info, stem)
	})

	select {
	case res := <-ch:
		if res.Shared && !leader {
			metrics.ThumbnailCoalescedTotal.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		th := res.Val.(*Thumbnail)
		return &Thumbnail{Data: th.Data, ContentType: th.ContentType}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Classify reports the generation strategy for path.
func (s *Service) Classify(path string, info os.FileInfo) Kind {
	ext := mediatypes.Ext(path)

	switch {
	case ext == ".gif":
		return KindAnimatedImage
	case ext == ".webp" && s.isAnimated(path):
		return KindAnimatedImage
	case staticExtensions[ext]:
		return KindStaticImage
	case isVideoExt(ext):
		return KindVideo
	case info != nil && info.IsDir():
		return KindDirectory
	default:
		return KindUnsupported
	}
}

// kindHint labels cache hits without reading the file again.
func (s *Service) kindHint(path string, info os.FileInfo) Kind {
	ext := mediatypes.Ext(path)
	switch {
	case ext == ".gif":
		return KindAnimatedImage
	case staticExtensions[ext]:
		return KindStaticImage
	case isVideoExt(ext):
		return KindVideo
	case info.IsDir():
		return KindDirectory
	default:
		return KindUnsupported
	}
}

// isAnimated reports whether the WebP file at path has more than one frame.
// Unreadable or malformed files count as still images.
func (s *Service) isAnimated(path string) bool {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		logging.Warn("failed to read %s for frame count: %v", path, err)
		return false
	}
	n, err := s.frames(data)
	if err != nil {
		logging.Warn("failed to count frames in %s: %v", path, err)
		return false
	}
	return n > 1
}

func (s *Service) generate(ctx context.Context, path string, info os.FileInfo, stem string) (*Thumbnail, error) {
	kind := s.Classify(path, info)
	start := time.Now()

	var (
		th  *Thumbnail
		err error
	)
	switch kind {
	case KindAnimatedImage:
		th, err = s.passThrough(path)
	case KindStaticImage:
		th, err = s.staticImage(ctx, path)
	case KindVideo:
		th, err = s.video(ctx, path)
	case KindDirectory:
		th, err = s.directory(ctx, path)
	default:
		metrics.ThumbnailRequestsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, path)
	}
	if err != nil {
		metrics.ThumbnailRequestsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, err
	}

	if err := s.cache.Put(stem, th.Data, th.ContentType); err != nil {
		metrics.ThumbnailRequestsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	elapsed := time.Since(start)
	metrics.ThumbnailGenerationDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	metrics.ThumbnailRequestsTotal.WithLabelValues(string(kind), "generated").Inc()
	logging.Debug("Thumbnail generated: %s (%s, %d bytes, %v)", path, kind, len(th.Data), elapsed)

	return th, nil
}

func (s *Service) passThrough(path string) (*Thumbnail, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrGenerationFailed, path, err)
	}
	return &Thumbnail{Data: data, ContentType: passThroughType(mediatypes.Ext(path))}, nil
}

func (s *Service) staticImage(ctx context.Context, path string) (*Thumbnail, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrGenerationFailed, path, err)
	}
	img, err := s.decoder.decode(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	out, err := coverJPEG(img, s.size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return &Thumbnail{Data: out, ContentType: ContentTypeJPEG}, nil
}

func (s *Service) video(ctx context.Context, path string) (*Thumbnail, error) {
	th, err := s.videoFrame(ctx, path)
	if err == nil {
		metrics.ThumbnailFrameExtractions.WithLabelValues("success").Inc()
		return th, nil
	}
	metrics.ThumbnailFrameExtractions.WithLabelValues("error").Inc()
	logging.Warn("frame extraction failed for %s, using placeholder: %v", path, err)

	th, err = s.placeholder(ctx, KindVideo, s.videoPlaceholder, videoPlaceholderColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return th, nil
}

func (s *Service) videoFrame(ctx context.Context, path string) (*Thumbnail, error) {
	if s.frameTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.frameTimeout)
		defer cancel()
	}

	frame, err := s.extractor.ExtractFrame(ctx, path, s.frameOffset)
	if err != nil {
		return nil, err
	}
	img, err := s.decoder.decode(ctx, "", frame)
	if err != nil {
		return nil, err
	}
	out, err := coverJPEG(img, s.size)
	if err != nil {
		return nil, err
	}
	return &Thumbnail{Data: out, ContentType: ContentTypeJPEG}, nil
}

func (s *Service) directory(ctx context.Context, path string) (*Thumbnail, error) {
	cover, err := s.findCover(path)
	if err != nil {
		logging.Warn("failed to scan %s for a cover image: %v", path, err)
	}

	if cover != "" {
		ext := mediatypes.Ext(cover)
		if ext == ".gif" || (ext == ".webp" && s.isAnimated(cover)) {
			th, err := s.passThrough(cover)
			if err == nil {
				return th, nil
			}
			logging.Warn("failed to read cover %s: %v", cover, err)
		} else {
			th, err := s.staticImage(ctx, cover)
			if err == nil {
				return th, nil
			}
			logging.Warn("cover image %s could not be used: %v", cover, err)
		}
	}

	th, err := s.placeholder(ctx, KindDirectory, s.folderPlaceholder, folderPlaceholderColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return th, nil
}

// findCover returns the first regular file directly under dir with a cover
// extension, in listing order, or "" when there is none.
func (s *Service) findCover(dir string) (string, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		if e.IsDir() || !coverExtensions[mediatypes.Ext(e.Name())] {
			continue
		}
		child := filepath.Join(dir, e.Name())

		regular := e.Type().IsRegular()
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := s.fs.Stat(child)
			regular = err == nil && info.Mode().IsRegular()
		}
		if regular {
			return child, nil
		}
	}
	return "", nil
}
