// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads environment variables, falling back to an optional
// YAML file named by CONFIG_FILE (see [FileConfig]) and then to defaults:
//
//   - PORT (8080), METRICS_PORT (9090), METRICS_ENABLED (true)
//   - CACHE_DIR (./.thumbnail-cache): thumbnail cache, created on demand
//   - DATA_DIR (./data): SQLite library store
//   - STATIC_DIR (./static): UI bundle served at /
//   - STORE_BACKEND (sqlite): sqlite, memory or redis
//   - REDIS_ADDR, REDIS_PREFIX (media-gallery)
//   - VIDEO_PLACEHOLDER, FOLDER_PLACEHOLDER: fallback thumbnail images
//   - FFMPEG_PATH (ffmpeg), FRAME_OFFSET (1s), FRAME_TIMEOUT (0 = none)
//   - THUMBNAIL_KEY_SCHEME (legacy): legacy or blake2b
//   - THUMBNAIL_MEMORY_ENTRIES (256): in-memory LRU size, 0 disables it
//   - VIPS_ENABLED (true)
//   - LOG_LEVEL, LOG_STATIC_FILES (false), LOG_HEALTH_CHECKS (true)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: Go heap limit
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
//
// # Lifecycle Logging
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.LogStoreInit(config.StoreBackend, time.Since(t0))
//	startup.LogThumbnailInit(config, thumbnail.IsVipsAvailable())
//	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)
//	startup.LogServerStarted(startup.ServerConfig{...})
package startup
