package startup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the environment variables in a YAML document. Every
// field is optional; an environment variable always wins over the file.
//
//	port: 8080
//	cache_dir: /var/cache/media-gallery
//	store_backend: redis
//	redis_addr: redis:6379
type FileConfig struct {
	Port              string `yaml:"port" env:"PORT"`
	MetricsPort       string `yaml:"metrics_port" env:"METRICS_PORT"`
	MetricsEnabled    string `yaml:"metrics_enabled" env:"METRICS_ENABLED"`
	CacheDir          string `yaml:"cache_dir" env:"CACHE_DIR"`
	DataDir           string `yaml:"data_dir" env:"DATA_DIR"`
	StaticDir         string `yaml:"static_dir" env:"STATIC_DIR"`
	StoreBackend      string `yaml:"store_backend" env:"STORE_BACKEND"`
	RedisAddr         string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPrefix       string `yaml:"redis_prefix" env:"REDIS_PREFIX"`
	VideoPlaceholder  string `yaml:"video_placeholder" env:"VIDEO_PLACEHOLDER"`
	FolderPlaceholder string `yaml:"folder_placeholder" env:"FOLDER_PLACEHOLDER"`
	FFmpegPath        string `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`
	FrameOffset       string `yaml:"frame_offset" env:"FRAME_OFFSET"`
	FrameTimeout      string `yaml:"frame_timeout" env:"FRAME_TIMEOUT"`
	KeyScheme         string `yaml:"thumbnail_key_scheme" env:"THUMBNAIL_KEY_SCHEME"`
	MemoryEntries     string `yaml:"thumbnail_memory_entries" env:"THUMBNAIL_MEMORY_ENTRIES"`
	VipsEnabled       string `yaml:"vips_enabled" env:"VIPS_ENABLED"`
	LogStaticFiles    string `yaml:"log_static_files" env:"LOG_STATIC_FILES"`
	LogHealthChecks   string `yaml:"log_health_checks" env:"LOG_HEALTH_CHECKS"`
	LogLevel          string `yaml:"log_level" env:"LOG_LEVEL"`
}

// LoadFile reads a YAML configuration file. An empty path or a missing file
// yields an empty FileConfig.
func LoadFile(path string) (FileConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return FileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return FileConfig{}, nil
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// values returns the non-empty fields keyed by environment variable name.
func (fc FileConfig) values() map[string]string {
	out := make(map[string]string)
	v := reflect.ValueOf(fc)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if s := v.Field(i).String(); s != "" {
			out[t.Field(i).Tag.Get("env")] = s
		}
	}
	return out
}
