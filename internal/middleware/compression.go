package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, that is compressed
	MinSize int
	// Level is the gzip level (gzip.BestSpeed to gzip.BestCompression)
	Level int
	// CompressibleTypes lists media types eligible for compression
	CompressibleTypes []string
	// SkipPaths are path prefixes that are never compressed
	SkipPaths []string
}

// DefaultCompressionConfig compresses JSON, the UI bundle and SVG
// placeholders. Thumbnails and media files are already compressed formats
// and are skipped by path without buffering.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"application/javascript",
			"application/manifest+json",
			"image/svg+xml",
			"text/css",
			"text/html",
			"text/javascript",
			"text/plain",
		},
		SkipPaths: []string{"/api/media", "/api/thumbnail"},
	}
}

// gzipPools holds one writer pool per compression level.
var gzipPools sync.Map // map[int]*sync.Pool

func gzipPool(level int) *sync.Pool {
	if p, ok := gzipPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p, _ := gzipPools.LoadOrStore(level, &sync.Pool{
		New: func() interface{} {
			w, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				w = gzip.NewWriter(io.Discard)
			}
			return w
		},
	})
	return p.(*sync.Pool)
}

// compressWriter holds back the first MinSize bytes of a response so that
// small bodies go out uncompressed. The decision is made once, on the first
// write past MinSize, on a declared Content-Length, or on Close.
type compressWriter struct {
	http.ResponseWriter
	config CompressionConfig
	pool   *sync.Pool

	status  int
	pending []byte
	decided bool
	gz      *gzip.Writer
}

func (cw *compressWriter) WriteHeader(status int) {
	if cw.decided || cw.status != 0 {
		return
	}
	cw.status = status

	// A declared length lets the decision happen before any body arrives.
	if n, err := strconv.Atoi(cw.Header().Get("Content-Length")); err == nil {
		cw.decide(n)
	}
}

func (cw *compressWriter) Write(p []byte) (int, error) {
	if !cw.decided {
		if cw.status == 0 {
			cw.WriteHeader(http.StatusOK)
		}
	}
	if cw.decided {
		if cw.gz != nil {
			return cw.gz.Write(p)
		}
		return cw.ResponseWriter.Write(p)
	}

	cw.pending = append(cw.pending, p...)
	if len(cw.pending) > cw.config.MinSize {
		if err := cw.flushPending(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// decide picks the encoding for a body of size bytes and writes the header.
func (cw *compressWriter) decide(size int) {
	cw.decided = true
	if cw.status == 0 {
		cw.status = http.StatusOK
	}

	h := cw.Header()
	if size >= cw.config.MinSize &&
		h.Get("Content-Encoding") == "" &&
		cw.status != http.StatusNoContent && cw.status != http.StatusNotModified &&
		cw.compressible(h.Get("Content-Type")) {
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")

		cw.gz = cw.pool.Get().(*gzip.Writer)
		cw.gz.Reset(cw.ResponseWriter)
	}
	cw.ResponseWriter.WriteHeader(cw.status)
}

func (cw *compressWriter) flushPending() error {
	if !cw.decided {
		cw.decide(len(cw.pending))
	}
	if len(cw.pending) == 0 {
		return nil
	}
	var err error
	if cw.gz != nil {
		_, err = cw.gz.Write(cw.pending)
	} else {
		_, err = cw.ResponseWriter.Write(cw.pending)
	}
	cw.pending = nil
	return err
}

func (cw *compressWriter) compressible(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mediaType == "" {
		return false
	}
	for _, t := range cw.config.CompressibleTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

// Flush implements http.Flusher. Pending bytes are committed first, so a
// flushed response is never compressed unless it already exceeded MinSize.
func (cw *compressWriter) Flush() {
	_ = cw.flushPending()
	if cw.gz != nil {
		_ = cw.gz.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// Close commits any pending bytes and returns the gzip writer to its pool.
func (cw *compressWriter) Close() error {
	err := cw.flushPending()
	if cw.gz != nil {
		if cerr := cw.gz.Close(); err == nil {
			err = cerr
		}
		cw.pool.Put(cw.gz)
		cw.gz = nil
	}
	return err
}

// Compression returns a middleware that gzips eligible responses for clients
// that accept it. Range requests and upgrades pass through untouched.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	pool := gzipPool(config.Level)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r) || r.Header.Get("Range") != "" || r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}
			for _, prefix := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			cw := &compressWriter{ResponseWriter: w, config: config, pool: pool}
			defer cw.Close()

			next.ServeHTTP(cw, r)
		})
	}
}

// acceptsGzip reports whether Accept-Encoding lists gzip with a non-zero
// quality.
func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		params = strings.ReplaceAll(params, " ", "")
		return params != "q=0" && params != "q=0.0" && params != "q=0.00" && params != "q=0.000"
	}
	return false
}
