package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds custom Prometheus metrics.
type MetricsManager struct {
	Registry *prometheus.Registry

	ListingsCreatedTotal    prometheus.Counter
	ListingTransitionsTotal *prometheus.CounterVec // by target status
	ListingsDeletedTotal    prometheus.Counter
	ImageUploadsTotal       *prometheus.CounterVec // by result
	ImageDeleteFailures     prometheus.Counter
	CacheLookupsTotal       *prometheus.CounterVec // by cache and result

	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec
}

func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		ListingTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listing_transitions_total",
			Help:      "Total number of listing status transitions by target status.",
		}, []string{"status"}),
		ListingsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listings_deleted_total",
			Help:      "Total number of listings deleted.",
		}),
		ImageUploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "image_uploads_total",
			Help:      "Total number of image uploads by result.",
		}, []string{"result"}),
		ImageDeleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "image_delete_failures_total",
			Help:      "Image deletions that failed and were skipped.",
		}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "http_request_latency_seconds",
			Help:      "Latency of HTTP requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by route and error code.",
		}, []string{"route", "error_type"}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingTransitionsTotal,
		m.ListingsDeletedTotal,
		m.ImageUploadsTotal,
		m.ImageDeleteFailures,
		m.CacheLookupsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestLatency,
		m.APIErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsManager) ListingCreated() { m.ListingsCreatedTotal.Inc() }

func (m *MetricsManager) ListingTransitioned(status string) {
	m.ListingTransitionsTotal.WithLabelValues(status).Inc()
}

func (m *MetricsManager) ListingDeleted() { m.ListingsDeletedTotal.Inc() }

func (m *MetricsManager) ImageUploaded(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.ImageUploadsTotal.WithLabelValues(result).Inc()
}

func (m *MetricsManager) ImageDeleteFailed() { m.ImageDeleteFailures.Inc() }

func (m *MetricsManager) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// ObserveHTTP records one finished request.
func (m *MetricsManager) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPRequestLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *MetricsManager) APIError(route, errorType string) {
	m.APIErrorsTotal.WithLabelValues(route, errorType).Inc()
}

// StartMetricsServer serves /metrics for registry on port. It blocks until
// the server stops; an empty port disables it.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
