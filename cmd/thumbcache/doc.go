// Command thumbcache inspects and maintains the thumbnail cache used by the
// media-gallery server.
//
// Usage:
//
//	thumbcache <command> [arguments]
//
// Commands:
//
//	key <path>...  Print the cache entry name (stem) for each path using the
//	               configured THUMBNAIL_KEY_SCHEME. Entries are stored as
//	               <stem>.jpg, <stem>.gif or <stem>.webp.
//
//	warm <dir>     Generate thumbnails for dir, every subdirectory and every
//	               supported image and video below it. Work runs on a bounded
//	               worker group sized by THUMBNAIL_WORKERS or the CPU limit.
//	               Existing entries are cache hits and cost one file read.
//
//	stats          Print the entry count and total size of CACHE_DIR.
//
//	clear          Delete every cache entry. Entries are never evicted by the
//	               server, so this is the way to reclaim space or force
//	               regeneration after changing placeholders.
//
// Configuration is read from the same environment variables and CONFIG_FILE
// as the server, without the startup banner or directory checks.
package main
