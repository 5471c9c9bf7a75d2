package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheLookups      *prometheus.CounterVec
	couponRedemptions *prometheus.CounterVec
	payments          *prometheus.CounterVec
	emails            *prometheus.CounterVec
	certificates      prometheus.Counter
	testLocks         prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	couponRedemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_redemptions_total",
		Help: "Coupon redemption attempts by outcome",
	}, []string{"outcome"})

	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Checkout events by stage and outcome",
	}, []string{"stage", "outcome"})

	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_total",
		Help: "Email deliveries by kind and status",
	}, []string{"kind", "status"})

	certificates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certificates_issued_total",
		Help: "Certificates rendered and stored",
	})

	testLocks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_locks_total",
		Help: "Attempts locked after leaving the test tab",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		couponRedemptions, payments, emails, certificates, testLocks, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheLookups:      cacheLookups,
		couponRedemptions: couponRedemptions,
		payments:          payments,
		emails:            emails,
		certificates:      certificates,
		testLocks:         testLocks,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordCouponRedemption counts a redemption outcome ("applied" or a rejection reason).
func (m *MetricsService) RecordCouponRedemption(outcome string) {
	if m == nil {
		return
	}
	m.couponRedemptions.WithLabelValues(outcome).Inc()
}

// RecordPayment counts a checkout stage ("checkout", "verify", "sweep") and outcome.
func (m *MetricsService) RecordPayment(stage, outcome string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(stage, outcome).Inc()
}

// RecordEmail counts a delivery attempt. status is sent, failed or dropped.
func (m *MetricsService) RecordEmail(kind, status string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(kind, status).Inc()
}

// RecordCertificateIssued counts a stored certificate.
func (m *MetricsService) RecordCertificateIssued() {
	if m == nil {
		return
	}
	m.certificates.Inc()
}

// RecordTestLock counts an attempt locked by the visibility monitor.
func (m *MetricsService) RecordTestLock() {
	if m == nil {
		return
	}
	m.testLocks.Inc()
}
