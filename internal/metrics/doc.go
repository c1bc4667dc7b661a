// Package metrics provides Prometheus instrumentation for the media-gallery application.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "media_gallery_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Thumbnail Metrics
//
//   - ThumbnailRequestsTotal: Counter by kind and status (hit/generated/error)
//   - ThumbnailGenerationDuration: Histogram of miss-path generation time by kind
//   - ThumbnailCacheHits: Counter by layer (memory/disk)
//   - ThumbnailCacheMisses: Counter of cache misses
//   - ThumbnailCoalescedTotal: Requests that joined an in-flight generation
//   - ThumbnailFrameExtractions: Counter of ffmpeg frame grabs by status
//   - ThumbnailPlaceholdersTotal: Counter by kind (video/directory) and source (file/synthesized)
//   - ThumbnailDecodeFallbacks: Counter of images decoded by vips or ffmpeg
//   - ThumbnailCacheSize, ThumbnailCacheCount: Gauges refreshed by the [Collector]
//   - ThumbnailMemoryEntries: Gauge of entries in the in-memory LRU
//
// ## Library Metrics
//
//   - LibraryKeywordsTotal, LibraryTagsTotal, LibraryFavoritesTotal: Gauges
//   - StoreOperationsTotal: Counter by backend, operation and status
//   - StoreOperationDuration: Histogram by backend and operation
//
// ## Filesystem Metrics
//
// Recorded through [NewFilesystemObserver], which implements
// filesystem.Observer:
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemStaleErrors, FilesystemRetryDuration
//
// # Collector
//
// [Collector] periodically pulls a [Stats] snapshot from a [StatsProvider]
// and updates the gauges above:
//
//	collector := metrics.NewCollector(metrics.StatsFunc(snapshot), time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Thumbnail cache hit rate:
//
//	sum(rate(media_gallery_thumbnail_cache_hits_total[5m])) /
//	(sum(rate(media_gallery_thumbnail_cache_hits_total[5m])) + rate(media_gallery_thumbnail_cache_misses_total[5m]))
//
// P95 generation time for videos:
//
//	histogram_quantile(0.95, sum(rate(media_gallery_thumbnail_generation_duration_seconds_bucket{kind="video"}[5m])) by (le))
package metrics
