package perchline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripErr() error {
	return &Error{Source: SourceNetwork, Code: CodeNetworkError, Message: "boom"}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		assert.Equal(t, CircuitClosed, cb.State())
		_ = cb.Execute(func() error { return tripErr() })
	}
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(func() error {
		t.Fatal("fn must not run while the circuit is open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, SourceNetwork, apiErr.Source)
}

func TestCircuitBreaker_NonTripFailuresDoNotOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute})

	// Remote 4xx and internal errors are the caller's problem, not a sign
	// of an unhealthy service.
	for i := 0; i < 10; i++ {
		_ = cb.Execute(func() error { return &Error{Source: SourceRemote, Status: 404, Code: CodeNotFound} })
		_ = cb.Execute(func() error { return newInternalError(CodeDecodeFailed, "bad json", nil) })
		_ = cb.Execute(func() error { return errors.New("plain error") })
	}
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_RemoteServerErrorsTrip(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute})

	_ = cb.Execute(func() error { return &Error{Source: SourceRemote, Status: 503, Code: CodeServerError} })
	_ = cb.Execute(func() error { return &Error{Source: SourceRemote, Status: 500, Code: CodeServerError} })
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_RecoveryCycle(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Millisecond})

	_ = cb.Execute(func() error { return tripErr() })
	require.Equal(t, CircuitOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	// First probe half-opens the circuit.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CircuitHalfOpen, cb.State())

	// Second success closes it.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Millisecond})

	_ = cb.Execute(func() error { return tripErr() })
	time.Sleep(15 * time.Millisecond)

	_ = cb.Execute(func() error { return tripErr() })
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Hour})

	_ = cb.Execute(func() error { return tripErr() })
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestCircuitBreaker_ObserverNotified(t *testing.T) {
	metrics := NewMetricsCollector()
	cb := newObservedCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Hour}, metrics)

	_ = cb.Execute(func() error { return tripErr() })
	assert.Equal(t, int64(1), metrics.Snapshot().CircuitOpens)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
}
