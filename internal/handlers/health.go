package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"media-gallery/internal/logging"
	"media-gallery/internal/startup"
	"media-gallery/internal/thumbnail"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// storeCheckTimeout bounds the store round trip made by health probes.
const storeCheckTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	Store     string `json:"store"`
	StoreOK   bool   `json:"storeOk"`
	StoreErr  string `json:"storeError,omitempty"`
	Vips      bool   `json:"vips"`
	Keywords  int    `json:"keywords"`
	Tags      int    `json:"tags"`
	Favorites int    `json:"favorites"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// checkStore makes one round trip to the library store.
func (h *Handlers) checkStore(ctx context.Context) (keywords, tags, favorites int, err error) {
	ctx, cancel := context.WithTimeout(ctx, storeCheckTimeout)
	defer cancel()
	return h.library.Counts(ctx)
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Store:        h.storeBackend,
		Vips:         thumbnail.IsVipsAvailable(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	k, t, f, err := h.checkStore(r.Context())
	if err != nil {
		logging.Warn("Health: store check failed: %v", err)
		response.Status = statusDegraded
		response.StoreErr = "store unavailable"
	} else {
		response.StoreOK = true
		response.Keywords, response.Tags, response.Favorites = k, t, f
	}

	// Thumbnails and browsing still work without the store, so the process
	// stays in rotation while degraded.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the library store answers
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, _, _, err := h.checkStore(r.Context()); err != nil {
		logging.Warn("Readiness: store check failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}
