package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	agroProductsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agronova_products_total",
		Help: "Total number of catalogued products by status.",
	}, []string{"status"})

	agroRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agronova_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	agroRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agronova_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	agroBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agronova_blocks_appended_total",
		Help: "Total provenance blocks appended.",
	})

	agroVerifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agronova_chain_verify_failures_total",
		Help: "Total chain verification failures observed.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		agroRequestsTotal.WithLabelValues(method, path, status).Inc()
		agroRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordBlockAppend records a committed ledger block.
func RecordBlockAppend() {
	agroBlocksTotal.Inc()
}

// RecordVerifyFailure records a failed chain verification.
func RecordVerifyFailure() {
	agroVerifyFailuresTotal.Inc()
}

// SetProductsGauge sets the product count gauge for a given status.
func SetProductsGauge(status string, count float64) {
	agroProductsTotal.WithLabelValues(status).Set(count)
}
