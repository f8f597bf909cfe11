package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpLabels = []string{"method", "route", "status"}

// Metrics records per-route HTTP request counts, latency and response size.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	responseSize     *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	gatherer         prometheus.Gatherer
}

// NewMetrics registers the HTTP collectors on reg, or on the default registry
// when reg is nil. Handler serves whatever reg gathers.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "cartsync"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	f := promauto.With(reg)

	return &Metrics{
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, httpLabels),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2.5, 10),
		}, httpLabels),
		responseSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_response_size_bytes",
			Help:    "HTTP response body size.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 5),
		}, httpLabels),
		requestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_requests_in_flight",
			Help: "HTTP requests being served.",
		}),
		gatherer: gatherer,
	}
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"route":  routeLabel(r),
			"status": strconv.Itoa(rec.status),
		}
		m.requestsTotal.With(labels).Inc()
		m.requestDuration.With(labels).Observe(time.Since(start).Seconds())
		m.responseSize.With(labels).Observe(float64(rec.written))
	})
}

// Handler serves the registry the metrics were registered on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// routeLabel is the matched ServeMux pattern without its method, so path
// values never become label values.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}
