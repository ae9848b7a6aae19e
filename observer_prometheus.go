package perchline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports client metrics to a Prometheus registry:
// request counts by method/endpoint/outcome, request duration, retry
// counts, and the circuit breaker state.
//
// Example:
//
//	obs := perchline.NewPrometheusObserver(prometheus.DefaultRegisterer)
//	config := perchline.DefaultConfig().WithObserver(obs)
type PrometheusObserver struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	retries      *prometheus.CounterVec
	circuitState prometheus.Gauge
}

// NewPrometheusObserver creates the observer and registers its collectors
// with reg. Registration panics on collision, so create at most one
// observer per registry.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "perchline",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method, endpoint and outcome.",
		}, []string{"method", "endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "perchline",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Total request duration across all attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "perchline",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Retry attempts by method and endpoint.",
		}, []string{"method", "endpoint"}),
		circuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "perchline",
			Subsystem: "client",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}),
	}
	reg.MustRegister(o.requests, o.duration, o.retries, o.circuitState)
	return o
}

// OnRequestStart is a no-op; counting happens on completion so the outcome
// label is known.
func (o *PrometheusObserver) OnRequestStart(method, endpoint string) {}

// OnRequestEnd records the request outcome and duration.
func (o *PrometheusObserver) OnRequestEnd(method, endpoint string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	o.requests.WithLabelValues(method, endpoint, outcome).Inc()
	o.duration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// OnRetryAttempt counts the retry.
func (o *PrometheusObserver) OnRetryAttempt(method, endpoint string, attempt int, delay time.Duration, err error) {
	o.retries.WithLabelValues(method, endpoint).Inc()
}

// OnCircuitBreakerStateChange exports the new state.
func (o *PrometheusObserver) OnCircuitBreakerStateChange(oldState, newState CircuitState) {
	o.circuitState.Set(float64(newState))
}
