package thumbnail

import (
	"context"
	"image/color"

	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
)

// Colours of the synthesized placeholders.
var (
	videoPlaceholderColor  = color.NRGBA{R: 50, G: 50, B: 50, A: 255}
	folderPlaceholderColor = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
)

// placeholder renders the configured placeholder file for kind, or a solid
// square of fallback when the file is missing or cannot be decoded.
func (s *Service) placeholder(ctx context.Context, kind Kind, file string, fallback color.NRGBA) (*Thumbnail, error) {
	if file != "" {
		data, err := s.fs.ReadFile(file)
		if err == nil {
			img, derr := s.decoder.decode(ctx, file, data)
			if derr == nil {
				out, eerr := coverJPEG(img, s.size)
				if eerr == nil {
					metrics.ThumbnailPlaceholdersTotal.WithLabelValues(string(kind), "file").Inc()
					return &Thumbnail{Data: out, ContentType: ContentTypeJPEG}, nil
				}
				err = eerr
			} else {
				err = derr
			}
		}
		logging.Debug("placeholder %s unusable, synthesizing: %v", file, err)
	}

	out, err := solidJPEG(fallback, s.size)
	if err != nil {
		return nil, err
	}
	metrics.ThumbnailPlaceholdersTotal.WithLabelValues(string(kind), "synthesized").Inc()
	return &Thumbnail{Data: out, ContentType: ContentTypeJPEG}, nil
}
