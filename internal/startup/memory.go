package startup

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-gallery/internal/logging"
)

// defaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left to libvips and ffmpeg children.
const defaultMemoryRatio = 0.85

// ConfigureMemoryLimit sets GOMEMLIMIT from MEMORY_LIMIT (bytes, usually
// from the Kubernetes Downward API) scaled by MEMORY_RATIO. An explicit
// GOMEMLIMIT is left alone. It returns the effective limit, 0 when unset.
func ConfigureMemoryLimit() int64 {
	if os.Getenv("GOMEMLIMIT") != "" {
		limit := debug.SetMemoryLimit(-1)
		if limit == math.MaxInt64 {
			return 0
		}
		logging.Info("  GOMEMLIMIT set via environment: %s", formatBytes(limit))
		return limit
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("  MEMORY_LIMIT not set, GOMEMLIMIT not configured")
		return 0
	}

	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("  Invalid MEMORY_LIMIT %q, GOMEMLIMIT not configured", raw)
		return 0
	}

	ratio := defaultMemoryRatio
	if s := os.Getenv("MEMORY_RATIO"); s != "" {
		if r, err := strconv.ParseFloat(s, 64); err == nil && r > 0 && r <= 1 {
			ratio = r
		} else {
			logging.Warn("  Invalid MEMORY_RATIO %q, using %.2f", s, defaultMemoryRatio)
		}
	}

	limit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(limit)
	logging.Info("  GOMEMLIMIT: %s (%.0f%% of %s)", formatBytes(limit), ratio*100, formatBytes(containerLimit))
	return limit
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
