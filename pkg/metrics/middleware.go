package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	httpRequestsTotal          = "http_requests_total"
	httpRequestDurationSeconds = "http_request_duration_seconds"
)

var httpLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Middleware counts requests and observes their latency, partitioned by status code, method
// and chi route pattern.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMiddleware(server string) *Middleware {
	labels := []string{"code", "method", "route"}
	return &Middleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem:   terramatchWorkflow,
			Name:        httpRequestsTotal,
			Help:        "number of HTTP requests served",
			ConstLabels: prometheus.Labels{"server": server},
		}, labels),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem:   terramatchWorkflow,
			Name:        httpRequestDurationSeconds,
			Help:        "time spent serving HTTP requests",
			ConstLabels: prometheus.Labels{"server": server},
			Buckets:     httpLatencyBuckets,
		}, labels),
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := strconv.Itoa(ww.Status())
		m.requests.WithLabelValues(code, r.Method, route).Inc()
		m.latency.WithLabelValues(code, r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// MustRegisterDefault registers the collectors on the default registry, reusing the
// existing ones when another router already registered them.
func (m *Middleware) MustRegisterDefault() {
	m.requests = registerOrReuse(m.requests)
	m.latency = registerOrReuse(m.latency)
}

func registerOrReuse[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
