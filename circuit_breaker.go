package perchline

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker.
//
// State transitions:
//   - Closed -> Open: when the failure threshold is reached
//   - Open -> Half-Open: after the timeout expires
//   - Half-Open -> Closed: when the success threshold is reached
//   - Half-Open -> Open: on any trip-worthy failure
type CircuitState int

const (
	// CircuitClosed is the normal operating state.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests immediately with ErrCircuitOpen.
	CircuitOpen
	// CircuitHalfOpen lets requests through to probe for recovery.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes the optional circuit breaker. When set on the
// Config, the breaker wraps the whole retry loop: an open circuit rejects
// the logical request before any attempt is made.
//
// Example:
//
//	config := perchline.DefaultConfig().WithCircuitBreaker(perchline.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    SuccessThreshold: 2,
//	    Timeout:          30 * time.Second,
//	})
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive trip-worthy failures
	// that opens the circuit. Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes in half-open
	// state that closes the circuit. Default: 2
	SuccessThreshold int

	// Timeout is how long the circuit stays open before probing.
	// Default: 30s
	Timeout time.Duration
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// CircuitBreaker prevents hammering an unhealthy service by rejecting
// requests outright once failures accumulate.
type CircuitBreaker interface {
	// Execute runs fn if the circuit allows it, returning ErrCircuitOpen
	// otherwise. fn's error updates the circuit state.
	Execute(fn func() error) error

	// State returns the current circuit state.
	State() CircuitState

	// Reset manually closes the circuit.
	Reset()
}

// isTripEvent reports whether a failure should count against the circuit.
// Network failures and remote 5xx responses indicate an unhealthy service;
// Internal errors and remote 4xx responses are the caller's problem and
// never trip the circuit.
func isTripEvent(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Source {
	case SourceNetwork:
		return true
	case SourceRemote:
		return apiErr.Status >= 500
	default:
		return false
	}
}

type thresholdBreaker struct {
	config CircuitBreakerConfig

	mu           sync.Mutex
	state        CircuitState
	failures     int
	successes    int
	openedAt     time.Time
	onTransition func(oldState, newState CircuitState)
}

// NewCircuitBreaker creates a threshold circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) CircuitBreaker {
	return &thresholdBreaker{config: config.withDefaults()}
}

func (b *thresholdBreaker) Execute(fn func() error) error {
	if !b.allow() {
		return &Error{
			Source:  SourceNetwork,
			Code:    "circuit_open",
			Message: "circuit breaker is open",
			wrapped: ErrCircuitOpen,
		}
	}

	err := fn()
	b.record(err)
	return err
}

func (b *thresholdBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if time.Since(b.openedAt) >= b.config.Timeout {
			b.transition(CircuitHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (b *thresholdBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil && isTripEvent(err) {
		b.successes = 0
		b.failures++
		if b.state == CircuitHalfOpen || b.failures >= b.config.FailureThreshold {
			b.openedAt = time.Now()
			b.transition(CircuitOpen)
		}
		return
	}

	// Successes and non-trip failures both count as service health.
	b.failures = 0
	if b.state == CircuitHalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transition(CircuitClosed)
		}
	}
}

func (b *thresholdBreaker) transition(to CircuitState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to != CircuitHalfOpen {
		b.failures = 0
	}
	b.successes = 0
	if b.onTransition != nil {
		b.onTransition(from, to)
	}
}

func (b *thresholdBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *thresholdBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(CircuitClosed)
}

// noopCircuitBreaker passes everything through; used when no breaker is
// configured.
type noopCircuitBreaker struct{}

func (noopCircuitBreaker) Execute(fn func() error) error { return fn() }
func (noopCircuitBreaker) State() CircuitState           { return CircuitClosed }
func (noopCircuitBreaker) Reset()                        {}

// newObservedCircuitBreaker wires breaker transitions into the observer.
func newObservedCircuitBreaker(config CircuitBreakerConfig, observer Observer) CircuitBreaker {
	b := &thresholdBreaker{config: config.withDefaults()}
	if observer != nil {
		b.onTransition = observer.OnCircuitBreakerStateChange
	}
	return b
}
