package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts game actions and store contention. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	reg       *prometheus.Registry
	actions   *prometheus.CounterVec
	retries   *prometheus.CounterVec
	requests  *prometheus.CounterVec
	latencyMs *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		reg: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storychain_actions_total",
			Help: "Game actions by action and result code.",
		}, []string{"action", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storychain_store_retries_total",
			Help: "Store transactions retried after losing a concurrent update.",
		}, []string{"backend"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storychain_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latencyMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storychain_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route"}),
	}
	reg.MustRegister(r.actions, r.retries, r.requests, r.latencyMs)
	return r
}

// RecordAction counts one service call; result is "ok" or an error code.
func (r *Recorder) RecordAction(action, result string) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(action, result).Inc()
}

func (r *Recorder) RecordStoreRetry(backend string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(backend).Inc()
}

func (r *Recorder) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.latencyMs.WithLabelValues(route).Observe(float64(d.Microseconds()) / 1000)
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
