package thumbnail

import "errors"

// Sentinel errors returned by Service.GetThumbnail. Callers match them with
// errors.Is; the wrapped message carries the path and the underlying cause.
var (
	ErrMissingPath      = errors.New("path is required")
	ErrNotFound         = errors.New("path not found")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrGenerationFailed = errors.New("thumbnail generation failed")
	ErrInternal         = errors.New("internal thumbnail error")
)
