package kit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelMethod = "method"
	labelRoute  = "route"
	labelStatus = "status"
)

// Metrics instruments HTTP traffic under the service's own metric namespace,
// e.g. storefront_http_requests_total.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Latency   *prometheus.HistogramVec
	Responses *prometheus.HistogramVec
	InFlight  prometheus.Gauge

	route func(*http.Request) string
}

// NewMetrics registers the HTTP collectors on reg. route names the request
// for the route label and must keep its cardinality bounded.
func NewMetrics(reg prometheus.Registerer, service string, route func(*http.Request) string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{labelMethod, labelRoute, labelStatus}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP latency; action routes include the store write.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{labelMethod, labelRoute}),
		Responses: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Rendered page and JSON surface sizes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 7),
		}, []string{labelRoute}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: service,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		route: route,
	}
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.InFlight.Inc()
		defer m.InFlight.Dec()

		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := m.route(r)
		m.Latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.Responses.WithLabelValues(route).Observe(float64(ww.BytesWritten()))
	})
}
