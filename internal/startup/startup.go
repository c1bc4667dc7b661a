package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-gallery/internal/logging"
	"media-gallery/internal/store"
	"media-gallery/internal/thumbnail"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port           string
	MetricsPort    string
	MetricsEnabled bool

	CacheDir  string
	DataDir   string
	StaticDir string

	StoreBackend string
	RedisAddr    string
	RedisPrefix  string

	VideoPlaceholder  string
	FolderPlaceholder string
	FFmpegPath        string
	FrameOffset       time.Duration
	FrameTimeout      time.Duration
	KeyScheme         string
	MemoryEntries     int
	VipsEnabled       bool

	LogStaticFiles  bool
	LogHealthChecks bool

	// ConfigFile is the YAML overlay that was read, if any.
	ConfigFile string

	// FFmpegAvailable is set when the ffmpeg probe succeeded.
	FFmpegAvailable bool
}

// settings resolves a key from the environment, then the config file, then
// the default.
type settings struct {
	file map[string]string
}

func (s settings) str(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[key]; ok {
		return v
	}
	return defaultValue
}

func (s settings) boolean(key string, defaultValue bool) bool {
	raw := s.str(key, "")
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, raw, defaultValue)
		return defaultValue
	}
	return parsed
}

func (s settings) duration(key string, defaultValue time.Duration) time.Duration {
	raw := s.str(key, "")
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed < 0 {
		logging.Warn("  Invalid %s %q, using default: %v", key, raw, defaultValue)
		return defaultValue
	}
	return parsed
}

func (s settings) integer(key string, defaultValue int) int {
	raw := s.str(key, "")
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		logging.Warn("  Invalid %s %q, using default: %d", key, raw, defaultValue)
		return defaultValue
	}
	return parsed
}

// LoadConfig loads and validates configuration from environment variables
// and the optional YAML file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	config, err := ResolveConfig()
	if err != nil {
		return nil, err
	}

	logConfig(config)

	if err := config.validate(); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	for _, d := range []struct {
		name string
		dst  *string
	}{
		{"cache", &config.CacheDir},
		{"data", &config.DataDir},
		{"static", &config.StaticDir},
	} {
		abs, err := filepath.Abs(*d.dst)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory path: %w", d.name, err)
		}
		*d.dst = abs
		logging.Info("  %-6s directory (absolute): %s", d.name, abs)
	}

	// A read-only cache still serves existing entries; misses fail with a
	// 500 until the directory becomes writable.
	if err := ensureDirectory(config.CacheDir, "cache"); err != nil {
		logging.Warn("  Cache directory issue: %v", err)
	} else if err := testWriteAccess(config.CacheDir); err != nil {
		logging.Warn("  Cache directory is not writable, new thumbnails will fail: %v", err)
	} else {
		logging.Info("  [OK] Cache directory is writable")
	}

	if config.StoreBackend == store.BackendSQLite {
		if err := ensureDirectory(config.DataDir, "data"); err != nil {
			return nil, fmt.Errorf("data directory error: %w", err)
		}
		if err := testWriteAccess(config.DataDir); err != nil {
			return nil, fmt.Errorf("data directory is not writable (required for the sqlite store): %w", err)
		}
		logging.Info("  [OK] Data directory is writable")
	}

	if info, err := os.Stat(config.StaticDir); err != nil || !info.IsDir() {
		logging.Warn("  Static directory %s not found, the UI will not be served", config.StaticDir)
	}

	for _, p := range []struct{ name, path string }{
		{"Video placeholder", config.VideoPlaceholder},
		{"Folder placeholder", config.FolderPlaceholder},
	} {
		if _, err := os.Stat(p.path); err != nil {
			logging.Info("  %s %s not found, a solid colour will be used", p.name, p.path)
		}
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTERNAL TOOLS")
	logging.Info("------------------------------------------------------------")
	ConfigureMemoryLimit()
	if err := checkFFmpeg(config.FFmpegPath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Video thumbnails will fall back to the placeholder")
	} else {
		config.FFmpegAvailable = true
		logging.Info("  [OK] FFmpeg is available")
	}

	return config, nil
}

// ResolveConfig reads the environment and CONFIG_FILE into a Config without
// logging, probing ffmpeg or touching directories. A log_level from the file
// is applied when the environment sets none.
func ResolveConfig() (*Config, error) {
	configFile := os.Getenv("CONFIG_FILE")
	fc, err := LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	s := settings{file: fc.values()}

	// The environment already set the level; only a file value is new here.
	if os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "" && fc.LogLevel != "" {
		if level, ok := logging.ParseLevel(fc.LogLevel); ok {
			logging.SetLevel(level)
		} else {
			logging.Warn("Invalid log_level %q in %s", fc.LogLevel, configFile)
		}
	}

	config := &Config{
		Port:              s.str("PORT", "8080"),
		MetricsPort:       s.str("METRICS_PORT", "9090"),
		MetricsEnabled:    s.boolean("METRICS_ENABLED", true),
		CacheDir:          s.str("CACHE_DIR", "./.thumbnail-cache"),
		DataDir:           s.str("DATA_DIR", "./data"),
		StaticDir:         s.str("STATIC_DIR", "./static"),
		StoreBackend:      strings.ToLower(s.str("STORE_BACKEND", store.BackendSQLite)),
		RedisAddr:         s.str("REDIS_ADDR", ""),
		RedisPrefix:       s.str("REDIS_PREFIX", "media-gallery"),
		VideoPlaceholder:  s.str("VIDEO_PLACEHOLDER", "./public/video-placeholder.png"),
		FolderPlaceholder: s.str("FOLDER_PLACEHOLDER", "./public/folder-placeholder.png"),
		FFmpegPath:        s.str("FFMPEG_PATH", "ffmpeg"),
		FrameOffset:       s.duration("FRAME_OFFSET", time.Second),
		FrameTimeout:      s.duration("FRAME_TIMEOUT", 0),
		KeyScheme:         strings.ToLower(s.str("THUMBNAIL_KEY_SCHEME", thumbnail.KeySchemeLegacy)),
		MemoryEntries:     s.integer("THUMBNAIL_MEMORY_ENTRIES", 256),
		VipsEnabled:       s.boolean("VIPS_ENABLED", true),
		LogStaticFiles:    s.boolean("LOG_STATIC_FILES", false),
		LogHealthChecks:   s.boolean("LOG_HEALTH_CHECKS", true),
		ConfigFile:        configFile,
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case store.BackendSQLite, store.BackendMemory:
	case store.BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want sqlite, memory or redis)", c.StoreBackend)
	}

	if _, err := thumbnail.KeyFuncByName(c.KeyScheme); err != nil {
		return fmt.Errorf("THUMBNAIL_KEY_SCHEME: %w", err)
	}
	return nil
}

func logConfig(c *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if c.ConfigFile != "" {
		logging.Info("  CONFIG_FILE:               %s", c.ConfigFile)
	}
	logging.Info("  PORT:                      %s", c.Port)
	logging.Info("  METRICS_PORT:              %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:           %v", c.MetricsEnabled)
	logging.Info("  CACHE_DIR:                 %s", c.CacheDir)
	logging.Info("  DATA_DIR:                  %s", c.DataDir)
	logging.Info("  STATIC_DIR:                %s", c.StaticDir)
	logging.Info("  STORE_BACKEND:             %s", c.StoreBackend)
	if c.StoreBackend == store.BackendRedis {
		logging.Info("  REDIS_ADDR:                %s", c.RedisAddr)
		logging.Info("  REDIS_PREFIX:              %s", c.RedisPrefix)
	}
	logging.Info("  VIDEO_PLACEHOLDER:         %s", c.VideoPlaceholder)
	logging.Info("  FOLDER_PLACEHOLDER:        %s", c.FolderPlaceholder)
	logging.Info("  FFMPEG_PATH:               %s", c.FFmpegPath)
	logging.Info("  FRAME_OFFSET:              %v", c.FrameOffset)
	logging.Info("  FRAME_TIMEOUT:             %v", c.FrameTimeout)
	logging.Info("  THUMBNAIL_KEY_SCHEME:      %s", c.KeyScheme)
	logging.Info("  THUMBNAIL_MEMORY_ENTRIES:  %d", c.MemoryEntries)
	logging.Info("  VIPS_ENABLED:              %v", c.VipsEnabled)
	logging.Info("  LOG_STATIC_FILES:          %v", c.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:         %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:                 %s", logging.GetLevel())
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogStoreInit logs library store initialization
func LogStoreInit(backend string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LIBRARY STORE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] %s store ready in %v", backend, duration)
}

// LogThumbnailInit logs the thumbnail service configuration
func LogThumbnailInit(config *Config, vipsAvailable bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL SERVICE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Cache:        %s", config.CacheDir)
	logging.Info("  Key scheme:   %s", config.KeyScheme)
	logging.Info("  Memory cache: %d entries", config.MemoryEntries)
	logging.Info("  libvips:      %s", enabledString(vipsAvailable))
	logging.Info("  ffmpeg:       %s", enabledString(config.FFmpegAvailable))
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		// Sort group keys
		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		// Print routes by group
		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Get first segment
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
  __  __          _ _          ____       _ _
 |  \/  | ___  __| (_) __ _   / ___| __ _| | | ___ _ __ _   _
 | |\/| |/ _ \/ _' | |/ _' | | |  _ / _' | | |/ _ \ '__| | | |
 | |  | |  __/ (_| | | (_| | | |_| | (_| | | |  __/ |  | |_| |
 |_|  |_|\___|\__,_|_|\__,_|  \____|\__,_|_|_|\___|_|   \__, |
                                                        |___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg(binary string) error {
	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", binary)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	}

	return nil
}
