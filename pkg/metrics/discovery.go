package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DiscoveryMetrics records nearby-café ranking behaviour.
type DiscoveryMetrics struct {
	duration prometheus.Histogram
	cache    *prometheus.CounterVec
	excluded prometheus.Counter
}

// NewDiscoveryMetrics registers the discovery metrics on the provided registerer.
func NewDiscoveryMetrics(reg prometheus.Registerer) *DiscoveryMetrics {
	if reg == nil {
		return &DiscoveryMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "discovery_rank_duration_seconds",
		Help:    "Time spent loading and ranking cafés.",
		Buckets: prometheus.DefBuckets,
	})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_cache_lookups_total",
		Help: "Café list cache lookups by result.",
	}, []string{"result"})
	excluded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discovery_excluded_cafes_total",
		Help: "Cafés dropped from ranking because of malformed records.",
	})
	reg.MustRegister(duration, cache, excluded)
	return &DiscoveryMetrics{
		duration: duration,
		cache:    cache,
		excluded: excluded,
	}
}

// ObserveDuration records one ranking request.
func (d *DiscoveryMetrics) ObserveDuration(duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.Observe(duration.Seconds())
}

// CacheHit counts a cache hit.
func (d *DiscoveryMetrics) CacheHit() {
	d.cacheResult("hit")
}

// CacheMiss counts a cache miss.
func (d *DiscoveryMetrics) CacheMiss() {
	d.cacheResult("miss")
}

// AddExcluded counts cafés skipped for bad data.
func (d *DiscoveryMetrics) AddExcluded(n int) {
	if d == nil || d.excluded == nil || n <= 0 {
		return
	}
	d.excluded.Add(float64(n))
}

func (d *DiscoveryMetrics) cacheResult(result string) {
	if d == nil || d.cache == nil {
		return
	}
	d.cache.WithLabelValues(result).Inc()
}
