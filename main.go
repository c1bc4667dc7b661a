package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-gallery/internal/filesystem"
	"media-gallery/internal/gallery"
	"media-gallery/internal/handlers"
	"media-gallery/internal/library"
	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
	"media-gallery/internal/middleware"
	"media-gallery/internal/startup"
	"media-gallery/internal/store"
	"media-gallery/internal/thumbnail"

	"github.com/gorilla/mux"
)

// collectInterval is how often cache and library gauges are refreshed.
const collectInterval = time.Minute

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"cache": config.CacheDir,
		"data":  config.DataDir,
	}))

	if config.VipsEnabled {
		if err := thumbnail.InitVips(); err != nil {
			logging.Warn("libvips unavailable, AVIF and animated WebP detection degraded: %v", err)
		}
	}

	// Initialize key-value store
	storeStart := time.Now()
	kv, err := store.Open(context.Background(), store.Config{
		Backend:     config.StoreBackend,
		DataDir:     config.DataDir,
		RedisAddr:   config.RedisAddr,
		RedisPrefix: config.RedisPrefix,
	})
	if err != nil {
		startup.LogFatal("Failed to open %s store: %v", config.StoreBackend, err)
	}
	startup.LogStoreInit(config.StoreBackend, time.Since(storeStart))

	// Initialize thumbnail service
	keyFunc, err := thumbnail.KeyFuncByName(config.KeyScheme)
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	thumbs, err := thumbnail.NewService(thumbnail.Options{
		CacheDir:            config.CacheDir,
		MemoryEntries:       config.MemoryEntries,
		Key:                 keyFunc,
		FFmpegPath:          config.FFmpegPath,
		DisableFFmpegDecode: !config.FFmpegAvailable,
		FrameOffset:         config.FrameOffset,
		FrameTimeout:        config.FrameTimeout,
		VideoPlaceholder:    config.VideoPlaceholder,
		FolderPlaceholder:   config.FolderPlaceholder,
	})
	if err != nil {
		startup.LogFatal("Failed to initialize thumbnail service: %v", err)
	}
	startup.LogThumbnailInit(config, thumbnail.IsVipsAvailable())

	browser := gallery.New()
	lib := library.New(kv, browser)

	// Metrics
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics(config.StoreBackend)
	collector := metrics.NewCollector(statsProvider(thumbs.Cache(), lib), collectInterval)
	collector.Start()

	// Initialize handlers
	h := handlers.New(thumbs, browser, lib, config)

	// Setup router
	router := setupRouter(h, config.StaticDir)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	compressed := middleware.Compression(compressionConfig)(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.RequestID(middleware.Logger(loggingConfig)(compressed))

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // media responses may stream for a long time
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           h.MetricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, collector, kv)
		close(done)
	}()

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// statsProvider snapshots the thumbnail cache and the library for the
// periodic metrics collector.
func statsProvider(cache *thumbnail.Cache, lib *library.Library) metrics.StatsProvider {
	return metrics.StatsFunc(func() metrics.Stats {
		var stats metrics.Stats

		count, size, err := cache.Stats()
		if err != nil {
			logging.Warn("Failed to read thumbnail cache stats: %v", err)
		}
		stats.CacheEntries = count
		stats.CacheBytes = size
		stats.MemoryEntries = cache.MemoryLen()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		keywords, tags, favorites, err := lib.Counts(ctx)
		if err != nil {
			logging.Warn("Failed to read library counts: %v", err)
		}
		stats.Keywords = keywords
		stats.Tags = tags
		stats.Favorites = favorites

		return stats
	})
}

func setupRouter(h *handlers.Handlers, staticDir string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Thumbnails and media
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/media", h.GetMedia).Methods("GET", "HEAD")

	// Browsing
	api.HandleFunc("/gallery", h.GetGallery).Methods("GET")
	api.HandleFunc("/folder-info", h.GetFolderInfo).Methods("GET")
	api.HandleFunc("/search-subfolder", h.SearchSubfolder).Methods("GET")
	api.HandleFunc("/search", h.Search).Methods("GET")

	// Keywords
	api.HandleFunc("/keywords", h.GetKeywords).Methods("GET")
	api.HandleFunc("/keywords", h.AddKeyword).Methods("POST")
	api.HandleFunc("/keywords/{name}", h.GetKeyword).Methods("GET")
	api.HandleFunc("/keywords/{name}", h.RemoveKeyword).Methods("DELETE")
	api.HandleFunc("/keywords/{name}/paths", h.AddKeywordPath).Methods("POST")
	api.HandleFunc("/keywords/{name}/paths", h.RemoveKeywordPath).Methods("DELETE")

	// Tags
	api.HandleFunc("/tags", h.GetAllTags).Methods("GET")
	api.HandleFunc("/tags", h.AddTag).Methods("POST")
	api.HandleFunc("/tags/{tag}", h.DeleteTag).Methods("DELETE")
	api.HandleFunc("/tags/{tag}/galleries", h.GetGalleriesByTag).Methods("GET")
	api.HandleFunc("/gallery-tags", h.GetGalleryTags).Methods("GET")
	api.HandleFunc("/gallery-tags", h.AddGalleryTag).Methods("POST")
	api.HandleFunc("/gallery-tags", h.RemoveGalleryTag).Methods("DELETE")

	// Favorites
	api.HandleFunc("/favorites", h.GetFavorites).Methods("GET")
	api.HandleFunc("/favorites/toggle", h.ToggleFavorite).Methods("POST")
	api.HandleFunc("/favorites/check", h.CheckFavorite).Methods("GET")

	// Static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, kv store.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Closing store")
	if err := kv.Close(); err != nil {
		logging.Warn("Store close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Store closed")
	}

	thumbnail.ShutdownVips()

	startup.LogShutdownComplete()
}
