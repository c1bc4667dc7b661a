package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"media-gallery/internal/logging"
)

// FrameExtractor grabs a single still frame from a video.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error)
}

// FFmpegExtractor runs the ffmpeg binary to write the frame at offset into
// <Dir>/<stem>_frame.jpg, reads it back and removes the file.
type FFmpegExtractor struct {
	// Binary is the ffmpeg executable. Defaults to "ffmpeg" on PATH.
	Binary string
	// Dir receives the intermediate frame file.
	Dir string
	// Key names the intermediate file. Defaults to LegacyKey.
	Key KeyFunc
}

// ExtractFrame implements FrameExtractor. A non-zero exit status, a missing
// output file or an empty frame are all reported as errors.
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error) {
	binary := e.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	key := e.Key
	if key == nil {
		key = LegacyKey
	}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating frame directory: %w", err)
	}
	out := filepath.Join(e.Dir, key(videoPath)+"_frame.jpg")
	defer func() {
		if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("failed to remove intermediate frame %s: %v", out, err)
		}
	}()

	cmd := exec.CommandContext(ctx, binary,
		"-y",
		"-ss", ffmpegTimestamp(offset),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("Extracting video frame: %s at %s", videoPath, ffmpegTimestamp(offset))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, lastLine(stderr.String()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading extracted frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("ffmpeg produced an empty frame for %s", videoPath)
	}
	return data, nil
}

// ffmpegTimestamp formats d as HH:MM:SS with milliseconds only when needed.
func ffmpegTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	ms := (d - s*time.Second) / time.Millisecond

	if ms == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
