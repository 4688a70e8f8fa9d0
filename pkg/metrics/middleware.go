package metrics

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// EnvLatencyBuckets overrides the latency buckets, formatted like "100,200,300,400".
	EnvLatencyBuckets     = "PORTAL_HTTP_LATENCY_BUCKETS"
	RequestsCollectorName = "http_requests_total"
	LatencyCollectorName  = "http_request_duration_milliseconds"
)

var defaultBuckets = []float64{50, 100, 300, 500, 1000, 5000}

// Middleware counts requests and records their latency per status code, method and route
// pattern. Routes are reported by pattern so path parameters do not explode cardinality.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func latencyBuckets() []float64 {
	conf, ok := os.LookupEnv(EnvLatencyBuckets)
	if !ok {
		return defaultBuckets
	}

	var buckets []float64
	for _, v := range strings.Split(conf, ",") {
		f64v, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return defaultBuckets
		}
		buckets = append(buckets, f64v)
	}
	return buckets
}

func NewMiddleware(name string) *Middleware {
	return &Middleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem:   assessmentPortal,
			Name:        RequestsCollectorName,
			Help:        "Number of HTTP requests partitioned by status code, method and route.",
			ConstLabels: prometheus.Labels{"service": name},
		}, []string{"code", "method", "path"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem:   assessmentPortal,
			Name:        LatencyCollectorName,
			Help:        "Time spent on the request partitioned by status code, method and route.",
			ConstLabels: prometheus.Labels{"service": name},
			Buckets:     latencyBuckets(),
		}, []string{"code", "method", "path"}),
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		code := strconv.Itoa(ww.Status())
		pattern := rctx.RoutePattern()
		m.requests.WithLabelValues(code, r.Method, pattern).Inc()
		m.latency.WithLabelValues(code, r.Method, pattern).Observe(float64(time.Since(start).Milliseconds()))
	})
}

// Register adds the collectors to reg. Registering the same middleware name twice fails.
func (m *Middleware) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.requests); err != nil {
		return err
	}
	return reg.Register(m.latency)
}
