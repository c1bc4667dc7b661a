package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "THUMBNAIL_WORKERS"

// thumbnailMultiplier reflects thumbnail work: a file read, a decode and
// resize, and a cache write. Video frames spend most of their time waiting
// on ffmpeg.
const thumbnailMultiplier = 1.5

// Count returns multiplier workers per available CPU, capped at limit
// (0 means no cap) and never below one. GOMAXPROCS is used rather than
// NumCPU so container CPU limits are respected.
//
// A positive integer in THUMBNAIL_WORKERS replaces the calculation; the
// limit still applies.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForThumbnails returns the worker count for bulk thumbnail generation.
func ForThumbnails(limit int) int {
	return Count(thumbnailMultiplier, limit)
}
