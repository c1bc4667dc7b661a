package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"media-gallery/internal/startup"
	"media-gallery/internal/thumbnail"
	"media-gallery/internal/workers"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// maxWarmWorkers caps concurrency during warm regardless of CPU count.
const maxWarmWorkers = 16

// progressInterval throttles the terminal progress line.
const progressInterval = 200 * time.Millisecond

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	config, err := startup.ResolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app := &cli{
		config: config,
		stdout: os.Stdout,
		stderr: os.Stderr,
		tty:    term.IsTerminal(int(os.Stdout.Fd())),
		vips:   vipsHooks{start: thumbnail.InitVips, stop: thumbnail.ShutdownVips},
	}
	os.Exit(app.run(ctx, os.Args[1:]))
}

// cli carries the resolved configuration and output streams for one
// invocation.
type cli struct {
	config *startup.Config
	stdout io.Writer
	stderr io.Writer
	// tty enables the in-place progress line during warm.
	tty  bool
	vips vipsHooks
}

// vipsHooks starts and stops libvips. Either may be nil.
type vipsHooks struct {
	start func() error
	stop  func()
}

// startVips brings libvips up for commands that decode images, matching
// the server. Failure is reported and warm continues on the pure-Go
// decoders. The returned func releases libvips.
func (c *cli) startVips() (stop func()) {
	if !c.config.VipsEnabled || c.vips.start == nil {
		return func() {}
	}
	if err := c.vips.start(); err != nil {
		fmt.Fprintf(c.stderr, "Warning: libvips unavailable, AVIF decoding disabled: %v\n", err)
		return func() {}
	}
	if c.vips.stop == nil {
		return func() {}
	}
	return c.vips.stop
}

// run dispatches a command and returns the process exit code.
func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		printUsage(c.stdout)
		return 1
	}

	var err error
	switch args[0] {
	case "key":
		err = c.key(args[1:])
	case "warm":
		err = c.warm(ctx, args[1:])
	case "stats":
		err = c.stats()
	case "clear":
		err = c.clear()
	case "help", "-h", "--help":
		printUsage(c.stdout)
		return 0
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n", sanitizeCommand(args[0]))
		printUsage(c.stderr)
		return 1
	}

	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Media Gallery Thumbnail Cache")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: thumbcache <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  key <path>...  - Print the cache entry name for each path")
	fmt.Fprintln(w, "  warm <dir>     - Generate thumbnails for every file and folder under dir")
	fmt.Fprintln(w, "  stats          - Show entry count and size of the cache directory")
	fmt.Fprintln(w, "  clear          - Remove all cache entries")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  CACHE_DIR            - Thumbnail cache directory (default: ./.thumbnail-cache)")
	fmt.Fprintln(w, "  THUMBNAIL_KEY_SCHEME - legacy or blake2b (default: legacy)")
	fmt.Fprintf(w, "  %-20s - Worker count for warm (default: 1.5 per CPU, max %d)\n", workers.EnvOverride, maxWarmWorkers)
	fmt.Fprintln(w, "  CONFIG_FILE          - Optional YAML file with the same keys as the server")
}

func (c *cli) keyFunc() (thumbnail.KeyFunc, error) {
	return thumbnail.KeyFuncByName(c.config.KeyScheme)
}

func (c *cli) key(paths []string) error {
	if len(paths) == 0 {
		return errors.New("key requires at least one path")
	}
	key, err := c.keyFunc()
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(c.stdout, "%s\t%s\n", key(p), p)
	}
	return nil
}

func (c *cli) stats() error {
	cache, err := thumbnail.NewCache(c.config.CacheDir, 0)
	if err != nil {
		return err
	}
	count, size, err := cache.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Cache directory: %s\n", c.config.CacheDir)
	fmt.Fprintf(c.stdout, "Entries:         %d\n", count)
	fmt.Fprintf(c.stdout, "Size:            %s\n", formatSize(size))
	return nil
}

func (c *cli) clear() error {
	cache, err := thumbnail.NewCache(c.config.CacheDir, 0)
	if err != nil {
		return err
	}
	removed, err := cache.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Removed %d entries from %s\n", removed, c.config.CacheDir)
	return nil
}

func (c *cli) newService() (*thumbnail.Service, error) {
	key, err := c.keyFunc()
	if err != nil {
		return nil, err
	}
	_, lookErr := exec.LookPath(c.config.FFmpegPath)
	return thumbnail.NewService(thumbnail.Options{
		CacheDir:            c.config.CacheDir,
		Key:                 key,
		FFmpegPath:          c.config.FFmpegPath,
		DisableFFmpegDecode: lookErr != nil,
		FrameOffset:         c.config.FrameOffset,
		FrameTimeout:        c.config.FrameTimeout,
		VideoPlaceholder:    c.config.VideoPlaceholder,
		FolderPlaceholder:   c.config.FolderPlaceholder,
	})
}

// warmResult tallies one warm run.
type warmResult struct {
	total   int
	done    atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

func (c *cli) warm(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("warm requires exactly one directory")
	}
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	defer c.startVips()()

	svc, err := c.newService()
	if err != nil {
		return err
	}

	targets, err := collectTargets(ctx, svc, root)
	if err != nil {
		return err
	}

	res := &warmResult{total: len(targets)}
	n := workers.ForThumbnails(maxWarmWorkers)
	fmt.Fprintf(c.stdout, "Warming %d thumbnails under %s with %d workers\n", res.total, root, n)

	stopProgress := c.startProgress(res)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for _, target := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := svc.GetThumbnail(gctx, target)
			switch {
			case err == nil:
			case errors.Is(err, thumbnail.ErrUnsupportedType):
				res.skipped.Add(1)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				res.failed.Add(1)
				fmt.Fprintf(c.stderr, "\n  %s: %v\n", target, err)
			}
			res.done.Add(1)
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	stopProgress()

	fmt.Fprintf(c.stdout, "Done: %d processed, %d skipped, %d failed in %v\n",
		res.done.Load(), res.skipped.Load(), res.failed.Load(), time.Since(start).Round(time.Millisecond))

	if err != nil {
		return err
	}
	if res.failed.Load() > 0 {
		return fmt.Errorf("%d thumbnails failed", res.failed.Load())
	}
	return nil
}

// collectTargets lists root, its subdirectories and every file the
// thumbnail service can handle. Hidden entries are skipped.
func collectTargets(ctx context.Context, svc *thumbnail.Service, root string) ([]string, error) {
	var targets []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if svc.Classify(path, info) != thumbnail.KindUnsupported {
			targets = append(targets, path)
		}
		return nil
	})
	return targets, err
}

// startProgress redraws a progress line while warm runs. It is a no-op when
// stdout is not a terminal.
func (c *cli) startProgress(res *warmResult) (stop func()) {
	if !c.tty || res.total == 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.drawProgress(res)
			case <-done:
				c.drawProgress(res)
				fmt.Fprintln(c.stdout)
				return
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (c *cli) drawProgress(res *warmResult) {
	done := res.done.Load()
	pct := float64(done) / float64(res.total) * 100
	fmt.Fprintf(c.stdout, "\r  %d/%d (%.0f%%), %d failed", done, res.total, pct, res.failed.Load())
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
