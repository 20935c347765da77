// Package metrics collects Prometheus metrics for API calls and the query cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by the HTTP client and the cache.
type Recorder interface {
	RecordRequest(method string, statusCode int, d time.Duration)
	RecordTransportError(method string)
	RecordCacheHit(resource string)
	RecordCacheMiss(resource string)
	RecordSharedFetch(resource string)
	RecordInvalidation(resource string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	transportErrs *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	sharedFetches *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it in reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_api_requests_total",
			Help: "API responses by method and status code.",
		}, []string{"method", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studio_api_request_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		transportErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_api_transport_errors_total",
			Help: "API requests that got no response.",
		}, []string{"method"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_cache_hits_total",
			Help: "Reads served from a fresh cache entry.",
		}, []string{"resource"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_cache_misses_total",
			Help: "Reads that started a fetch.",
		}, []string{"resource"}),
		sharedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_cache_shared_fetches_total",
			Help: "Reads that joined an in-flight fetch for the same key.",
		}, []string{"resource"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_cache_invalidations_total",
			Help: "Cache entries marked stale.",
		}, []string{"resource"}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.transportErrs,
		c.cacheHits,
		c.cacheMisses,
		c.sharedFetches,
		c.invalidations,
	)
	return c
}

// RecordRequest records a completed HTTP exchange.
func (c *Collector) RecordRequest(method string, statusCode int, d time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.latency.WithLabelValues(method).Observe(d.Seconds())
}

// RecordTransportError records a request that received no response.
func (c *Collector) RecordTransportError(method string) {
	c.transportErrs.WithLabelValues(method).Inc()
}

// RecordCacheHit records a read served from cache.
func (c *Collector) RecordCacheHit(resource string) { c.cacheHits.WithLabelValues(resource).Inc() }

// RecordCacheMiss records a read that started a fetch.
func (c *Collector) RecordCacheMiss(resource string) { c.cacheMisses.WithLabelValues(resource).Inc() }

// RecordSharedFetch records a read that joined an in-flight fetch.
func (c *Collector) RecordSharedFetch(resource string) {
	c.sharedFetches.WithLabelValues(resource).Inc()
}

// RecordInvalidation records an entry marked stale.
func (c *Collector) RecordInvalidation(resource string) {
	c.invalidations.WithLabelValues(resource).Inc()
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) RecordRequest(string, int, time.Duration) {}
func (Nop) RecordTransportError(string)              {}
func (Nop) RecordCacheHit(string)                    {}
func (Nop) RecordCacheMiss(string)                   {}
func (Nop) RecordSharedFetch(string)                 {}
func (Nop) RecordInvalidation(string)                {}

// Handler serves the registry for scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
