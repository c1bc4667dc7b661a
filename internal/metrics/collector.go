package metrics

import (
	"time"

	"media-gallery/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// StatsFunc adapts a plain function to StatsProvider.
type StatsFunc func() Stats

// GetStats calls f.
func (f StatsFunc) GetStats() Stats { return f() }

// Stats holds the current statistics
type Stats struct {
	CacheEntries  int
	CacheBytes    int64
	MemoryEntries int
	Keywords      int
	Tags          int
	Favorites     int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	ThumbnailCacheCount.Set(float64(stats.CacheEntries))
	ThumbnailCacheSize.Set(float64(stats.CacheBytes))
	ThumbnailMemoryEntries.Set(float64(stats.MemoryEntries))
	LibraryKeywordsTotal.Set(float64(stats.Keywords))
	LibraryTagsTotal.Set(float64(stats.Tags))
	LibraryFavoritesTotal.Set(float64(stats.Favorites))

	logging.Debug("Metrics collected: cache=%d entries (%d bytes), keywords=%d, tags=%d, favorites=%d",
		stats.CacheEntries, stats.CacheBytes, stats.Keywords, stats.Tags, stats.Favorites)
}
