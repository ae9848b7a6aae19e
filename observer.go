package perchline

import (
	"sync"
	"time"
)

// Observer provides hooks for monitoring client operations. Implement this
// interface to track performance metrics, debug retry behavior, or feed an
// observability stack. Observer methods are called synchronously on the
// request path and should be fast and non-blocking.
//
// Example:
//
//	type logObserver struct{ log *logrus.Logger }
//
//	func (o *logObserver) OnRequestStart(method, endpoint string) {
//	    o.log.WithFields(logrus.Fields{"method": method, "endpoint": endpoint}).Debug("request start")
//	}
type Observer interface {
	// OnRequestStart is called once per logical request, before the first
	// attempt.
	OnRequestStart(method, endpoint string)

	// OnRequestEnd is called once per logical request with the total
	// duration across all attempts and the final error, if any.
	OnRequestEnd(method, endpoint string, duration time.Duration, err error)

	// OnRetryAttempt is called before each retry sleep with the retry
	// number (1, 2, ...), the chosen backoff delay, and the outcome that
	// triggered the retry.
	OnRetryAttempt(method, endpoint string, attempt int, delay time.Duration, err error)

	// OnCircuitBreakerStateChange is called when the circuit breaker
	// transitions between states.
	OnCircuitBreakerStateChange(oldState, newState CircuitState)
}

// NoopObserver is the default Observer; it does nothing and has zero
// overhead.
type NoopObserver struct{}

// OnRequestStart does nothing.
func (NoopObserver) OnRequestStart(method, endpoint string) {}

// OnRequestEnd does nothing.
func (NoopObserver) OnRequestEnd(method, endpoint string, duration time.Duration, err error) {}

// OnRetryAttempt does nothing.
func (NoopObserver) OnRetryAttempt(method, endpoint string, attempt int, delay time.Duration, err error) {
}

// OnCircuitBreakerStateChange does nothing.
func (NoopObserver) OnCircuitBreakerStateChange(oldState, newState CircuitState) {}

// MetricsCollector is a simple in-memory Observer for debugging and tests.
// For production use, see PrometheusObserver.
//
// Example:
//
//	metrics := perchline.NewMetricsCollector()
//	config := perchline.DefaultConfig().WithObserver(metrics)
//	// ... use client ...
//	snapshot := metrics.Snapshot()
//	fmt.Printf("requests=%d retries=%d\n", snapshot.Requests, snapshot.Retries)
type MetricsCollector struct {
	mu            sync.Mutex
	requests      int64
	failures      int64
	retries       int64
	totalDuration time.Duration
	circuitOpens  int64
}

// MetricsSnapshot is a point-in-time copy of collected metrics.
type MetricsSnapshot struct {
	Requests      int64
	Failures      int64
	Retries       int64
	TotalDuration time.Duration
	CircuitOpens  int64
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// OnRequestStart counts the request.
func (m *MetricsCollector) OnRequestStart(method, endpoint string) {
	m.mu.Lock()
	m.requests++
	m.mu.Unlock()
}

// OnRequestEnd records duration and failure.
func (m *MetricsCollector) OnRequestEnd(method, endpoint string, duration time.Duration, err error) {
	m.mu.Lock()
	m.totalDuration += duration
	if err != nil {
		m.failures++
	}
	m.mu.Unlock()
}

// OnRetryAttempt counts the retry.
func (m *MetricsCollector) OnRetryAttempt(method, endpoint string, attempt int, delay time.Duration, err error) {
	m.mu.Lock()
	m.retries++
	m.mu.Unlock()
}

// OnCircuitBreakerStateChange counts transitions into the open state.
func (m *MetricsCollector) OnCircuitBreakerStateChange(oldState, newState CircuitState) {
	if newState != CircuitOpen {
		return
	}
	m.mu.Lock()
	m.circuitOpens++
	m.mu.Unlock()
}

// Snapshot returns a copy of the collected metrics.
func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Requests:      m.requests,
		Failures:      m.failures,
		Retries:       m.retries,
		TotalDuration: m.totalDuration,
		CircuitOpens:  m.circuitOpens,
	}
}
