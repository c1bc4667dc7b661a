// Package middleware provides the HTTP middleware chain for media-gallery.
//
// The server wraps its router as
//
//	RequestID -> Logger -> Compression -> router (Metrics via Router.Use)
//
//   - [RequestID] reuses or assigns an X-Request-ID and stores it on the context
//   - [Logger] writes one W3C Extended Log Format line per request, including the request ID
//   - [Compression] gzips text and JSON responses above a size threshold; thumbnails,
//     media files and Range requests pass through untouched
//   - [Metrics] records request counts and latencies labelled by mux route template
package middleware
