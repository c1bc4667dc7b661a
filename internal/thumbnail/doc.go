// Package thumbnail produces square preview images for files and directories
// of the media library and keeps them in a persistent on-disk cache.
//
// # Cache
//
// Entries are named <stem><ext> where the stem comes from a [KeyFunc] applied
// to the request path ([LegacyKey] by default) and ext is .jpg for generated
// images and placeholders, or the original .gif/.webp for animated content
// that is served unchanged. Entries never expire and are never rewritten; a
// changed source keeps its old thumbnail until the cache is cleared.
//
// # Generation
//
// [Service.GetThumbnail] classifies the path on a cache miss:
//
//   - static images (jpg, jpeg, png, single-frame webp, avif) are decoded and
//     cover-fitted to [Size]×[Size] JPEG
//   - gif and multi-frame webp pass through verbatim
//   - videos get a frame at one second from a [FrameExtractor], with a
//     placeholder when that fails
//   - directories use their first image as cover, or a placeholder
//
// Concurrent misses for the same stem share one generation, and generation
// keeps running if the requesting client disconnects.
package thumbnail
