package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"media-gallery/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	red   = color.NRGBA{R: 220, G: 20, B: 20, A: 255}
	blue  = color.NRGBA{R: 20, G: 20, B: 220, A: 255}
	green = color.NRGBA{R: 20, G: 200, B: 20, A: 255}
)

// countingExtractor returns frame (or err) and counts calls. When gate is
// non-nil each call blocks until it is closed or ctx ends.
type countingExtractor struct {
	calls   atomic.Int32
	frame   []byte
	err     error
	gate    chan struct{}
	started chan struct{}
	once    sync.Once

	lastOffset   time.Duration
	lastDeadline bool
	mu           sync.Mutex
}

func (e *countingExtractor) ExtractFrame(ctx context.Context, _ string, offset time.Duration) ([]byte, error) {
	e.calls.Add(1)
	e.mu.Lock()
	e.lastOffset = offset
	_, e.lastDeadline = ctx.Deadline()
	e.mu.Unlock()

	if e.started != nil {
		e.once.Do(func() { close(e.started) })
	}
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return e.frame, e.err
}

// reversedFS lists directories in reverse name order.
type reversedFS struct {
	*OSFileSystem
}

func (f reversedFS) ReadDir(path string) ([]os.DirEntry, error) {
	entries, err := f.OSFileSystem.ReadDir(path)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, err
}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(t.TempDir(), ".thumbnail-cache")
	}
	opts.DisableFFmpegDecode = true
	if opts.Extractor == nil {
		opts.Extractor = &countingExtractor{err: errors.New("no ffmpeg in tests")}
	}
	s, err := NewService(opts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return s
}

func cacheFiles(t *testing.T, s *Service) []string {
	t.Helper()
	entries, err := os.ReadDir(s.Cache().Dir())
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read cache dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNewService_RequiresCacheDir(t *testing.T) {
	if _, err := NewService(Options{}); !errors.Is(err, ErrInternal) {
		t.Errorf("NewService() error = %v, want ErrInternal", err)
	}
}

func TestGetThumbnail_Errors(t *testing.T) {
	media := t.TempDir()
	writeFile(t, media, "notes.txt", []byte("hello"))
	writeFile(t, media, "broken.png", []byte("definitely not a png"))

	tests := []struct {
		name      string
		path      string
		wantErr   error
		wantCache bool
	}{
		{"empty path", "", ErrMissingPath, false},
		{"missing file", filepath.Join(media, "nope.jpg"), ErrNotFound, false},
		{"unsupported", filepath.Join(media, "notes.txt"), ErrUnsupportedType, false},
		{"undecodable image", filepath.Join(media, "broken.png"), ErrGenerationFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, Options{})
			_, err := s.GetThumbnail(context.Background(), tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetThumbnail() error = %v, want %v", err, tt.wantErr)
			}
			if files := cacheFiles(t, s); len(files) != 0 {
				t.Errorf("cache written on error: %v", files)
			}
		})
	}
}

func TestGetThumbnail_StaticImage(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "Holiday.PNG", solidPNG(t, 640, 480, red))

	s := newTestService(t, Options{})
	th, err := s.GetThumbnail(context.Background(), path)
	if err != nil {
		t.Fatalf("GetThumbnail() error = %v", err)
	}

	if th.ContentType != ContentTypeJPEG {
		t.Errorf("ContentType = %q, want image/jpeg", th.ContentType)
	}
	if c := decodeCentre(t, th.Data, Size); !near(c, red) {
		t.Errorf("centre pixel = %v, want ~%v", c, red)
	}

	want := LegacyKey(path) + ".jpg"
	if files := cacheFiles(t, s); len(files) != 1 || files[0] != want {
		t.Errorf("cache files = %v, want [%s]", files, want)
	}
}

func TestGetThumbnail_StillWebPIsResized(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "still.webp", stillWebPBytes(t))

	s := newTestService(t, Options{})
	th, err := s.GetThumbnail(context.Background(), path)
	if err != nil {
		t.Fatalf("GetThumbnail() error = %v", err)
	}
	if th.ContentType != ContentTypeJPEG {
		t.Errorf("ContentType = %q, want image/jpeg", th.ContentType)
	}
	decodeCentre(t, th.Data, Size)
}

func TestGetThumbnail_CachedResultIsStable(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "photo.png", solidPNG(t, 50, 50, red))

	s := newTestService(t, Options{})
	first, err := s.GetThumbnail(context.Background(), path)
	if err != nil {
		t.Fatalf("first GetThumbnail() error = %v", err)
	}

	// Content changes are not detected: the key depends only on the path.
	writeFile(t, media, "photo.png", solidPNG(t, 50, 50, blue))

	second, err := s.GetThumbnail(context.Background(), path)
	if err != nil {
		t.Fatalf("second GetThumbnail() error = %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("cached thumbnail changed after the source was modified")
	}

	// A fresh service over the same directory serves the disk entry.
	fresh := newTestService(t, Options{CacheDir: s.Cache().Dir()})
	third, err := fresh.GetThumbnail(context.Background(), path)
	if err != nil {
		t.Fatalf("fresh GetThumbnail() error = %v", err)
	}
	if !bytes.Equal(first.Data, third.Data) {
		t.Error("disk cache entry differs from the original response")
	}
}

func TestGetThumbnail_AnimatedPassThrough(t *testing.T) {
	media := t.TempDir()
	gifData := tinyGIF(t)
	webpData := animatedWebP(3)

	tests := []struct {
		name     string
		file     string
		data     []byte
		wantType string
		wantExt  string
	}{
		{"gif", "loop.gif", gifData, ContentTypeGIF, ".gif"},
		{"upper-case gif", "LOOP2.GIF", gifData, ContentTypeGIF, ".gif"},
		{"animated webp", "dance.webp", webpData, ContentTypeWebP, ".webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, media, tt.file, tt.data)
			s := newTestService(t, Options{})

			th, err := s.GetThumbnail(context.Background(), path)
			if err != nil {
				t.Fatalf("GetThumbnail() error = %v", err)
			}
			if !bytes.Equal(th.Data, tt.data) {
				t.Error("animated content was not passed through verbatim")
			}
			if th.ContentType != tt.wantType {
				t.Errorf("ContentType = %q, want %q", th.ContentType, tt.wantType)
			}

			want := LegacyKey(path) + tt.wantExt
			if files := cacheFiles(t, s); len(files) != 1 || files[0] != want {
				t.Errorf("cache files = %v, want [%s]", files, want)
			}

			// Served from cache with the same content type.
			again, err := newTestService(t, Options{CacheDir: s.Cache().Dir()}).GetThumbnail(context.Background(), path)
			if err != nil || again.ContentType != tt.wantType {
				t.Errorf("cache hit = (%v, %v), want content type %q", again, err, tt.wantType)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	media := t.TempDir()
	dir := filepath.Join(media, "album")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string][]byte{
		"a.gif":        tinyGIF(t),
		"b.webp":       animatedWebP(2),
		"c.webp":       stillWebPBytes(t),
		"d.jpg":        nil,
		"e.JPEG":       nil,
		"f.avif":       nil,
		"g.mp4":        nil,
		"h.MKV":        nil,
		"i.txt":        nil,
		"j.webp":       []byte("garbage"),
		"k.ogv":        nil,
		"no-extension": nil,
	}
	for name, data := range files {
		writeFile(t, media, name, data)
	}

	s := newTestService(t, Options{})
	tests := []struct {
		name string
		want Kind
	}{
		{"a.gif", KindAnimatedImage},
		{"b.webp", KindAnimatedImage},
		{"c.webp", KindStaticImage},
		{"d.jpg", KindStaticImage},
		{"e.JPEG", KindStaticImage},
		{"f.avif", KindStaticImage},
		{"g.mp4", KindVideo},
		{"h.MKV", KindVideo},
		{"k.ogv", KindVideo},
		{"i.txt", KindUnsupported},
		{"j.webp", KindStaticImage},
		{"no-extension", KindUnsupported},
		{"album", KindDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(media, tt.name)
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if got := s.Classify(path, info); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestClassify_FrameCountFailureIsStatic(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "anim.webp", animatedWebP(4))

	s := newTestService(t, Options{FrameCounter: func([]byte) (int, error) {
		return 0, errors.New("decoder exploded")
	}})
	info, _ := os.Stat(path)
	if got := s.Classify(path, info); got != KindStaticImage {
		t.Errorf("Classify() = %s, want static-image", got)
	}
}

func TestGetThumbnail_Video(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "clip.mp4", []byte("not really a video"))

	ext := &countingExtractor{frame: solidPNG(t, 320, 180, green)}
	s := newTestService(t, Options{Extractor: ext})

	th, err := s.GetThumbnail(context.Background(), path)
	if err != nil {
		t.Fatalf("GetThumbnail() error = %v", err)
	}
	if th.ContentType != ContentTypeJPEG {
		t.Errorf("ContentType = %q, want image/jpeg", th.ContentType)
	}
	if c := decodeCentre(t, th.Data, Size); !near(c, green) {
		t.Errorf("centre pixel = %v, want ~%v", c, green)
	}
	if ext.lastOffset != time.Second {
		t.Errorf("frame offset = %v, want 1s", ext.lastOffset)
	}

	if _, err := s.GetThumbnail(context.Background(), path); err != nil {
		t.Fatalf("second GetThumbnail() error = %v", err)
	}
	if n := ext.calls.Load(); n != 1 {
		t.Errorf("extractor calls = %d, want 1", n)
	}
}

func TestGetThumbnail_VideoFallbacks(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "broken.webm", []byte("junk"))
	placeholder := writeFile(t, media, "public/video-placeholder.png", solidPNG(t, 64, 64, red))
	badPlaceholder := writeFile(t, media, "public/bad.png", []byte("junk"))

	tests := []struct {
		name        string
		placeholder string
		want        color.NRGBA
	}{
		{"placeholder file", placeholder, red},
		{"missing placeholder", filepath.Join(media, "public/none.png"), videoPlaceholderColor},
		{"undecodable placeholder", badPlaceholder, videoPlaceholderColor},
		{"no placeholder configured", "", videoPlaceholderColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &countingExtractor{err: errors.New("exit status 1")}
			s := newTestService(t, Options{Extractor: ext, VideoPlaceholder: tt.placeholder})

			th, err := s.GetThumbnail(context.Background(), path)
			if err != nil {
				t.Fatalf("GetThumbnail() error = %v", err)
			}
			if c := decodeCentre(t, th.Data, Size); !near(c, tt.want) {
				t.Errorf("centre pixel = %v, want ~%v", c, tt.want)
			}

			// The fallback is cached, so extraction is not retried.
			if _, err := s.GetThumbnail(context.Background(), path); err != nil {
				t.Fatal(err)
			}
			if n := ext.calls.Load(); n != 1 {
				t.Errorf("extractor calls = %d, want 1", n)
			}
		})
	}
}

func TestGetThumbnail_UndecodableFrameFallsBack(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "clip.ogv", []byte("x"))

	s := newTestService(t, Options{Extractor: &countingExtractor{frame: []byte("not an image")}})
	th, err := s.GetThumbnail(context.Background(), path)
	if err != nil {
		t.Fatalf("GetThumbnail() error = %v", err)
	}
	if c := decodeCentre(t, th.Data, Size); !near(c, videoPlaceholderColor) {
		t.Errorf("centre pixel = %v, want synthesized placeholder", c)
	}
}

func TestGetThumbnail_FrameTimeout(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "slow.mkv", []byte("x"))

	ext := &countingExtractor{gate: make(chan struct{})}
	s := newTestService(t, Options{Extractor: ext, FrameTimeout: 20 * time.Millisecond})

	th, err := s.GetThumbnail(context.Background(), path)
	if err != nil {
		t.Fatalf("GetThumbnail() error = %v", err)
	}
	if !ext.lastDeadline {
		t.Error("extractor context had no deadline")
	}
	if c := decodeCentre(t, th.Data, Size); !near(c, videoPlaceholderColor) {
		t.Errorf("centre pixel = %v, want placeholder after timeout", c)
	}
}

func TestGetThumbnail_DirectoryCover(t *testing.T) {
	t.Run("first image in listing order", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "notes.txt", []byte("x"))
		writeFile(t, dir, "b.png", solidPNG(t, 40, 40, blue))
		writeFile(t, dir, "a.png", solidPNG(t, 40, 40, red))

		th, err := newTestService(t, Options{}).GetThumbnail(context.Background(), dir)
		if err != nil {
			t.Fatalf("GetThumbnail() error = %v", err)
		}
		if c := decodeCentre(t, th.Data, Size); !near(c, red) {
			t.Errorf("centre pixel = %v, want a.png (red)", c)
		}
	})

	t.Run("listing order comes from the filesystem", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "b.png", solidPNG(t, 40, 40, blue))
		writeFile(t, dir, "a.png", solidPNG(t, 40, 40, red))

		s := newTestService(t, Options{FS: reversedFS{NewOSFileSystem()}})
		th, err := s.GetThumbnail(context.Background(), dir)
		if err != nil {
			t.Fatalf("GetThumbnail() error = %v", err)
		}
		if c := decodeCentre(t, th.Data, Size); !near(c, blue) {
			t.Errorf("centre pixel = %v, want b.png (blue)", c)
		}
	})

	t.Run("subdirectories are not covers", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, "a.jpg"), 0o755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, dir, "b.png", solidPNG(t, 40, 40, blue))

		th, err := newTestService(t, Options{}).GetThumbnail(context.Background(), dir)
		if err != nil {
			t.Fatalf("GetThumbnail() error = %v", err)
		}
		if c := decodeCentre(t, th.Data, Size); !near(c, blue) {
			t.Errorf("centre pixel = %v, want b.png (blue)", c)
		}
	})

	t.Run("animated cover passes through", func(t *testing.T) {
		dir := t.TempDir()
		gifData := tinyGIF(t)
		writeFile(t, dir, "a.gif", gifData)
		writeFile(t, dir, "b.png", solidPNG(t, 40, 40, blue))

		s := newTestService(t, Options{})
		th, err := s.GetThumbnail(context.Background(), dir)
		if err != nil {
			t.Fatalf("GetThumbnail() error = %v", err)
		}
		if th.ContentType != ContentTypeGIF || !bytes.Equal(th.Data, gifData) {
			t.Errorf("got %s (%d bytes), want the original GIF", th.ContentType, len(th.Data))
		}

		want := LegacyKey(dir) + ".gif"
		if files := cacheFiles(t, s); len(files) != 1 || files[0] != want {
			t.Errorf("cache files = %v, want [%s]", files, want)
		}
	})

	t.Run("animated webp cover passes through", func(t *testing.T) {
		dir := t.TempDir()
		webpData := animatedWebP(2)
		writeFile(t, dir, "cover.webp", webpData)

		th, err := newTestService(t, Options{}).GetThumbnail(context.Background(), dir)
		if err != nil {
			t.Fatalf("GetThumbnail() error = %v", err)
		}
		if th.ContentType != ContentTypeWebP || !bytes.Equal(th.Data, webpData) {
			t.Errorf("got %s, want the original animated WebP", th.ContentType)
		}
	})

	t.Run("undecodable cover uses the placeholder", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.jpg", []byte("corrupt"))
		writeFile(t, dir, "b.png", solidPNG(t, 40, 40, blue))

		th, err := newTestService(t, Options{}).GetThumbnail(context.Background(), dir)
		if err != nil {
			t.Fatalf("GetThumbnail() error = %v", err)
		}
		if c := decodeCentre(t, th.Data, Size); !near(c, folderPlaceholderColor) {
			t.Errorf("centre pixel = %v, want folder placeholder", c)
		}
	})

	t.Run("empty directory with placeholder file", func(t *testing.T) {
		dir := t.TempDir()
		placeholder := writeFile(t, t.TempDir(), "folder-placeholder.png", solidPNG(t, 30, 30, green))

		th, err := newTestService(t, Options{FolderPlaceholder: placeholder}).GetThumbnail(context.Background(), dir)
		if err != nil {
			t.Fatalf("GetThumbnail() error = %v", err)
		}
		if c := decodeCentre(t, th.Data, Size); !near(c, green) {
			t.Errorf("centre pixel = %v, want placeholder (green)", c)
		}
	})

	t.Run("empty directory synthesizes", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestService(t, Options{FolderPlaceholder: filepath.Join(dir, "missing.png")})

		th, err := s.GetThumbnail(context.Background(), dir)
		if err != nil {
			t.Fatalf("GetThumbnail() error = %v", err)
		}
		if c := decodeCentre(t, th.Data, Size); !near(c, folderPlaceholderColor) {
			t.Errorf("centre pixel = %v, want %v", c, folderPlaceholderColor)
		}
		if files := cacheFiles(t, s); len(files) != 1 {
			t.Errorf("placeholder not cached: %v", files)
		}
	})
}

func TestGetThumbnail_ConcurrentRequestsGenerateOnce(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "party.mp4", []byte("x"))

	ext := &countingExtractor{
		frame:   solidPNG(t, 16, 16, green),
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	s := newTestService(t, Options{Extractor: ext})
	coalescedBefore := testutil.ToFloat64(metrics.ThumbnailCoalescedTotal)

	const n = 8
	results := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			th, err := s.GetThumbnail(context.Background(), path)
			errs[i] = err
			if th != nil {
				results[i] = th.Data
			}
		}(i)
	}

	<-ext.started
	time.Sleep(20 * time.Millisecond)
	close(ext.gate)
	wg.Wait()

	if got := ext.calls.Load(); got != 1 {
		t.Errorf("extractor calls = %d, want 1", got)
	}
	// The request that ran the generation is not counted as coalesced.
	if got := testutil.ToFloat64(metrics.ThumbnailCoalescedTotal) - coalescedBefore; got != n-1 {
		t.Errorf("coalesced requests = %v, want %d", got, n-1)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d error = %v", i, errs[i])
		}
		if !bytes.Equal(results[i], results[0]) {
			t.Errorf("request %d got different bytes", i)
		}
	}
}

func TestGetThumbnail_SingleRequestIsNotCoalesced(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "solo.png", solidPNG(t, 20, 20, red))
	s := newTestService(t, Options{})

	before := testutil.ToFloat64(metrics.ThumbnailCoalescedTotal)
	if _, err := s.GetThumbnail(context.Background(), path); err != nil {
		t.Fatalf("GetThumbnail() error = %v", err)
	}
	if got := testutil.ToFloat64(metrics.ThumbnailCoalescedTotal) - before; got != 0 {
		t.Errorf("coalesced requests = %v, want 0", got)
	}
}

func TestGetThumbnail_CallerCancellationDoesNotAbortGeneration(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "long.mp4", []byte("x"))

	ext := &countingExtractor{
		frame:   solidPNG(t, 16, 16, green),
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	s := newTestService(t, Options{Extractor: ext})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.GetThumbnail(ctx, path)
		done <- err
	}()

	<-ext.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("GetThumbnail() error = %v, want context.Canceled", err)
	}

	close(ext.gate)

	stem := LegacyKey(path)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok, _ := s.Cache().Get(stem); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	e, ok, _ := s.Cache().Get(stem)
	if !ok {
		t.Fatal("generation did not complete after the caller went away")
	}
	if c := decodeCentre(t, e.Data, Size); !near(c, green) {
		t.Errorf("cached frame = %v, want extracted frame (green)", c)
	}
}

func TestService_KeyScheme(t *testing.T) {
	media := t.TempDir()
	path := writeFile(t, media, "x.png", solidPNG(t, 8, 8, red))

	s := newTestService(t, Options{Key: Blake2bKey})
	if _, err := s.GetThumbnail(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	want := Blake2bKey(path) + ".jpg"
	if files := cacheFiles(t, s); len(files) != 1 || files[0] != want {
		t.Errorf("cache files = %v, want [%s]", files, want)
	}
	if s.Key(path) != Blake2bKey(path) {
		t.Error("Key() does not use the configured scheme")
	}
}
