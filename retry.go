package perchline

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"os"
	"syscall"
	"time"
)

// RetryConfig tunes the retry-with-backoff loop. A per-request override can
// be supplied through RequestOptions; otherwise the client-wide value
// applies, falling back to DefaultRetryConfig for any zero field.
//
// Example:
//
//	config := perchline.DefaultConfig().WithRetry(perchline.RetryConfig{
//	    MaxAttempts: 5,
//	    BaseBackoff: 250 * time.Millisecond,
//	    MaxBackoff:  4 * time.Second,
//	})
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// BaseBackoff is the backoff floor and the first retry's delay.
	// Default: 500ms
	BaseBackoff time.Duration

	// MaxBackoff caps the delay between attempts.
	// Default: 2s
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the default retry tuning: 3 total attempts,
// 500ms base backoff, 2s backoff cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
	}
}

func (rc RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if rc.MaxAttempts <= 0 {
		rc.MaxAttempts = def.MaxAttempts
	}
	if rc.BaseBackoff <= 0 {
		rc.BaseBackoff = def.BaseBackoff
	}
	if rc.MaxBackoff <= 0 {
		rc.MaxBackoff = def.MaxBackoff
	}
	return rc
}

// outcomeKind is the closed set of raw attempt outcomes the retry policy
// dispatches on.
type outcomeKind int

const (
	outcomeStatus outcomeKind = iota
	outcomeConnRefused
	outcomeTimeout
	outcomeUnavailable
	outcomeThrottled
	outcomeOther
)

// rawOutcome is the result of a single attempt: either an HTTP response
// (any status) or a classified transport failure. Values exist only within
// the retry loop and are never persisted beyond it.
type rawOutcome struct {
	kind   outcomeKind
	status int
	resp   *RawResponse
	err    error
}

func classifyOutcome(resp *RawResponse, err error) rawOutcome {
	if err == nil {
		return rawOutcome{kind: outcomeStatus, status: resp.Status, resp: resp}
	}
	return rawOutcome{kind: classifyTransportError(err), err: err}
}

func classifyTransportError(err error) outcomeKind {
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return outcomeUnavailable
	case errors.Is(err, ErrTooManyRequests):
		return outcomeThrottled
	case errors.Is(err, syscall.ECONNREFUSED):
		return outcomeConnRefused
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		return outcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return outcomeTimeout
	}
	return outcomeOther
}

// shouldRetry decides whether another attempt is warranted. attempts counts
// attempts already made, so for any attempts >= MaxAttempts the answer is
// false regardless of outcome shape.
func (rc RetryConfig) shouldRetry(o rawOutcome, attempts int) bool {
	if attempts >= rc.MaxAttempts {
		return false
	}
	switch o.kind {
	case outcomeStatus:
		// 409: conflicting concurrent write. 429: rate limited.
		// 503: service unavailable. All likely transient.
		return o.status == 409 || o.status == 429 || o.status == 503
	case outcomeConnRefused, outcomeTimeout, outcomeUnavailable, outcomeThrottled:
		return true
	default:
		// Unclassified transport errors fail fast.
		return false
	}
}

// backoff computes the delay before attempt n+2, where n retries have
// already been scheduled (n starts at 0 for the first retry). The raw delay
// doubles each retry up to MaxBackoff; jitter scales it into
// [raw/2, raw) and the result is floored at BaseBackoff so delays stay
// within [BaseBackoff, MaxBackoff]. Randomization avoids synchronized
// retry storms across clients.
func (rc RetryConfig) backoff(n int) time.Duration {
	raw := float64(rc.BaseBackoff)
	for i := 0; i < n; i++ {
		raw *= 2
		if raw >= float64(rc.MaxBackoff) {
			raw = float64(rc.MaxBackoff)
			break
		}
	}
	jittered := raw * (0.5 + 0.5*rand.Float64())
	if jittered < float64(rc.BaseBackoff) {
		jittered = float64(rc.BaseBackoff)
	}
	return time.Duration(jittered) / time.Millisecond * time.Millisecond
}

// sleepBackoff waits out the backoff delay, honoring context cancellation.
func sleepBackoff(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
