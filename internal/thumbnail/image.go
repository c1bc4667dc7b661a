package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os/exec"
	"path/filepath"
	"strings"

	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// Size is the edge length of generated thumbnails.
	Size = 300

	jpegQuality = 85
)

// decoder turns encoded bytes into an image, trying progressively heavier
// decoders until one succeeds.
type decoder struct {
	ffmpeg string // empty disables the ffmpeg fallback
}

func (d decoder) decode(ctx context.Context, path string, data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging decode failed for %s: %v, trying fallback decoders", path, err)

	if IsVipsAvailable() {
		img, vipsErr := decodeWithVips(data)
		if vipsErr == nil {
			metrics.ThumbnailDecodeFallbacks.WithLabelValues("vips").Inc()
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v", path, vipsErr)
	}

	if d.ffmpeg != "" && path != "" {
		img, ffErr := d.decodeWithFFmpeg(ctx, path)
		if ffErr == nil {
			metrics.ThumbnailDecodeFallbacks.WithLabelValues("ffmpeg").Inc()
			return img, nil
		}
		logging.Debug("ffmpeg decode failed for %s: %v", path, ffErr)
	}

	return nil, fmt.Errorf("all image decode methods failed for %s: %w", filepath.Base(path), err)
}

// decodeWithFFmpeg asks ffmpeg to transcode the first frame of path to PNG on
// stdout.
func (d decoder) decodeWithFFmpeg(ctx context.Context, path string) (image.Image, error) {
	if _, err := exec.LookPath(d.ffmpeg); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.ffmpeg,
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, lastLine(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// coverJPEG scales img to fill a size×size square, cropping the overflow
// around the centre, and encodes the result as JPEG.
func coverJPEG(img image.Image, size int) ([]byte, error) {
	thumb := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	return encodeJPEG(thumb)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// solidJPEG renders an opaque size×size square of colour c.
func solidJPEG(c color.NRGBA, size int) ([]byte, error) {
	return encodeJPEG(imaging.New(size, size, c))
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
