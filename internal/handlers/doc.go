// Package handlers provides the HTTP request handlers of the media gallery.
//
// It includes handlers for:
//   - Thumbnails and raw media files
//   - Directory listings, folder summaries and folder-name search
//   - Keywords, global tags, gallery tags and favorites
//   - Keyword/tag search
//   - Health checks, version and metrics
//
// Errors are returned as {"error": "<message>"} with a generic message; the
// underlying cause is only logged.
package handlers
