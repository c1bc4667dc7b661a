package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(storeBackend string) {
	kinds := []string{"static-image", "animated-image", "video", "directory", "unsupported"}

	for _, kind := range kinds {
		for _, status := range []string{"hit", "generated", "error"} {
			ThumbnailRequestsTotal.WithLabelValues(kind, status)
		}
		ThumbnailGenerationDuration.WithLabelValues(kind)
	}

	for _, layer := range []string{"memory", "disk"} {
		ThumbnailCacheHits.WithLabelValues(layer)
	}

	for _, status := range []string{"success", "error"} {
		ThumbnailFrameExtractions.WithLabelValues(status)
	}

	for _, kind := range []string{"video", "directory"} {
		for _, source := range []string{"file", "synthesized"} {
			ThumbnailPlaceholdersTotal.WithLabelValues(kind, source)
		}
	}

	for _, decoder := range []string{"vips", "ffmpeg"} {
		ThumbnailDecodeFallbacks.WithLabelValues(decoder)
	}

	// --- Filesystem metrics (per volume × operation) ---
	volumes := []string{"library", "cache", "data", "unknown"}
	ops := []string{"stat", "open", "readdir", "read", "write"}

	for _, vol := range volumes {
		for _, op := range ops {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	if storeBackend == "" {
		return
	}
	for _, op := range []string{"get", "set", "delete", "keys"} {
		StoreOperationsTotal.WithLabelValues(storeBackend, op, "success")
		StoreOperationsTotal.WithLabelValues(storeBackend, op, "error")
		StoreOperationDuration.WithLabelValues(storeBackend, op)
	}
}
