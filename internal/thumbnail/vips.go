package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"media-gallery/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips starts libvips with log output routed through the logging
// package. Call it once at startup; without it frame counting and AVIF
// decoding fall back to pure-Go paths.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	level, handler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// vipsLogging maps the application level onto the libvips level and a
// handler that forwards to the matching logging function.
func vipsLogging(appLevel logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	// GLib levels grow numerically as severity drops.
	forward := func(threshold vips.LogLevel) func(string, vips.LogLevel, string) {
		return func(domain string, level vips.LogLevel, msg string) {
			if level > threshold {
				return
			}
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	}

	switch appLevel {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward(vips.LogLevelDebug)
	case logging.LevelWarn:
		return vips.LogLevelError, forward(vips.LogLevelCritical)
	case logging.LevelError:
		return vips.LogLevelCritical, forward(vips.LogLevelCritical)
	default:
		return vips.LogLevelWarning, forward(vips.LogLevelWarning)
	}
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

func loadVips(data []byte) (*vips.ImageRef, error) {
	params := vips.NewImportParams()
	params.FailOnError.Set(false)
	params.AutoRotate.Set(true)
	return vips.LoadImageFromBuffer(data, params)
}

// vipsPageCount reports the number of frames libvips sees in data.
func vipsPageCount(data []byte) (int, error) {
	ref, err := loadVips(data)
	if err != nil {
		return 0, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()
	return ref.Pages(), nil
}

// decodeWithVips decodes formats the Go decoders do not handle (AVIF, HEIF)
// by round-tripping through a high-quality JPEG.
func decodeWithVips(data []byte) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := loadVips(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	ep := vips.NewJpegExportParams()
	ep.Quality = 95
	buf, _, err := ref.ExportJpeg(ep)
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}

// webpFrameCount counts frames with libvips when it is running and with the
// RIFF chunk walker otherwise.
func webpFrameCount(data []byte) (int, error) {
	if IsVipsAvailable() {
		n, err := vipsPageCount(data)
		if err == nil {
			return n, nil
		}
		logging.Debug("vips frame count failed, walking RIFF chunks: %v", err)
	}
	return riffFrameCount(data)
}
