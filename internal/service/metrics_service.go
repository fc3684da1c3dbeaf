package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the lifecycle
// engine and the HTTP surface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	termsClosed    prometheus.Counter
	renewalsSent   prometheus.Counter
	smsFailures    prometheus.Counter
	sessionsPruned prometheus.Counter
}

// NewMetricsService registers the core Prometheus collectors.
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

	termsClosed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "terms_closed_total",
		Help: "Terms auto-closed by attendance reaching the sessions limit",
	})

	renewalsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "renewal_notices_sent_total",
		Help: "Renewal SMS notices recorded in the ledger",
	})

	smsFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sms_failures_total",
		Help: "Outbound SMS deliveries that failed",
	})

	sessionsPruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_cascade_deleted_total",
		Help: "Future sessions removed by term closure cascades",
	})

	registry.MustRegister(requestDuration, requestTotal, termsClosed, renewalsSent, smsFailures, sessionsPruned)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		termsClosed:     termsClosed,
		renewalsSent:    renewalsSent,
		smsFailures:     smsFailures,
		sessionsPruned:  sessionsPruned,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one HTTP request observation.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// TermClosed counts one automatic term closure.
func (s *MetricsService) TermClosed() {
	s.termsClosed.Inc()
}

// RenewalNoticeSent counts one ledgered renewal notice.
func (s *MetricsService) RenewalNoticeSent() {
	s.renewalsSent.Inc()
}

// SMSFailure counts one failed delivery.
func (s *MetricsService) SMSFailure() {
	s.smsFailures.Inc()
}

// SessionsCascadeDeleted counts sessions removed by a closure cascade.
func (s *MetricsService) SessionsCascadeDeleted(n int) {
	s.sessionsPruned.Add(float64(n))
}
