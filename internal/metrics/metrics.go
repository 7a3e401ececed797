// Package metrics collects Prometheus metrics for HTTP traffic and the
// batch loaders, and serves them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records the service's metrics.
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	batchSize     *prometheus.HistogramVec
	batchDuration *prometheus.HistogramVec
	batchErrors   *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_loader_batch_size",
			Help:    "Keys per dispatched loader batch.",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}, []string{"loader"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_loader_batch_duration_seconds",
			Help:    "Loader batch function latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"loader"}),
		batchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_loader_batch_errors_total",
			Help: "Loader batches that failed as a whole.",
		}, []string{"loader"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.batchSize,
		c.batchDuration,
		c.batchErrors,
		c.rateLimited,
	)

	return c
}

// RecordRequest records one completed HTTP request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveBatch has the dataloader.Observer signature.
func (c *Collector) ObserveBatch(name string, size int, took time.Duration, err error) {
	c.batchSize.WithLabelValues(name).Observe(float64(size))
	c.batchDuration.WithLabelValues(name).Observe(took.Seconds())
	if err != nil {
		c.batchErrors.WithLabelValues(name).Inc()
	}
}

func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
