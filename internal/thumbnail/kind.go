package thumbnail

import "media-gallery/internal/mediatypes"

// Kind is the generation strategy chosen for a path.
type Kind string

const (
	KindStaticImage   Kind = "static-image"
	KindAnimatedImage Kind = "animated-image"
	KindVideo         Kind = "video"
	KindDirectory     Kind = "directory"
	KindUnsupported   Kind = "unsupported"
)

// staticExtensions are resized to a JPEG. WebP lands here only when it has a
// single frame.
var staticExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".avif": true,
}

// coverExtensions are the files a directory scan accepts as its cover.
var coverExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".avif": true,
}

// Content types of stored entries.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

// passThroughType returns the content type an animated file is served with.
func passThroughType(ext string) string {
	if ext == ".webp" {
		return ContentTypeWebP
	}
	return ContentTypeGIF
}

func isVideoExt(ext string) bool {
	return mediatypes.VideoExtensions[ext]
}
