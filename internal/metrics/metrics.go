package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and
// the feed aggregation pipeline.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	fetchDuration *prometheus.HistogramVec
	fetchFailures *prometheus.CounterVec
	itemsFetched  *prometheus.CounterVec
	buildDuration prometheus.Histogram
	feedSize      prometheus.Gauge
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pulse",
		Subsystem: "pipeline",
		Name:      "adapter_fetch_duration_seconds",
		Help:      "Latency distribution for source adapter fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"adapter"})

	fetchFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "pipeline",
		Name:      "adapter_fetch_failures_total",
		Help:      "Total number of adapter fetches that failed or timed out.",
	}, []string{"adapter"})

	itemsFetched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "pipeline",
		Name:      "items_fetched_total",
		Help:      "Total number of activity items returned by adapters.",
	}, []string{"adapter"})

	buildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pulse",
		Subsystem: "pipeline",
		Name:      "build_duration_seconds",
		Help:      "Latency distribution for full feed rebuilds.",
		Buckets:   prometheus.DefBuckets,
	})

	feedSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pulse",
		Subsystem: "pipeline",
		Name:      "feed_size",
		Help:      "Number of top-level items in the most recent feed build.",
	})

	collectors := []prometheus.Collector{
		requestDuration, requestTotal,
		fetchDuration, fetchFailures, itemsFetched,
		buildDuration, feedSize,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		fetchDuration:   fetchDuration,
		fetchFailures:   fetchFailures,
		itemsFetched:    itemsFetched,
		buildDuration:   buildDuration,
		feedSize:        feedSize,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveFetch records the outcome of a single adapter fetch. A nil
// Collector is a no-op so library callers can run unmetered.
func (c *Collector) ObserveFetch(adapter string, duration time.Duration, items int, failed bool) {
	if c == nil {
		return
	}
	c.fetchDuration.WithLabelValues(adapter).Observe(duration.Seconds())
	c.itemsFetched.WithLabelValues(adapter).Add(float64(items))
	if failed {
		c.fetchFailures.WithLabelValues(adapter).Inc()
	}
}

// ObserveBuild records a completed feed rebuild.
func (c *Collector) ObserveBuild(duration time.Duration, size int) {
	if c == nil {
		return
	}
	c.buildDuration.Observe(duration.Seconds())
	c.feedSize.Set(float64(size))
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
