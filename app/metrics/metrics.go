package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likeboard_http_requests_total",
			Help: "Total number of HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "likeboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Like ledger metrics
	LikeTogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likeboard_like_toggles_total",
			Help: "Total number of like toggles by result",
		},
		[]string{"result"},
	)

	LikeToggleRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "likeboard_like_toggle_retries_total",
			Help: "Total number of like toggle transactions retried after a conflict",
		},
	)

	// Auth metrics
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likeboard_auth_failures_total",
			Help: "Total number of rejected requests at the auth gate by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(LikeTogglesTotal)
	prometheus.MustRegister(LikeToggleRetries)
	prometheus.MustRegister(AuthFailuresTotal)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer helps measure operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDurationVec records the elapsed time to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram *prometheus.HistogramVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
