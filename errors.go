package perchline

import (
	"errors"
	"fmt"
)

// Common errors returned by the client. These can be used with errors.Is()
// to check for specific conditions.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCircuitOpen is returned when the circuit breaker is open and
	// requests are being rejected without touching the network.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrServiceUnavailable reports a transport-level "service unavailable"
	// condition, such as connection pool exhaustion. Transports wrap this
	// sentinel so the retry policy can recognize the condition.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTooManyRequests reports a transport-level throttling condition.
	ErrTooManyRequests = errors.New("too many requests")
)

// ErrorSource categorizes where a failure originated.
//
// Example:
//
//	var apiErr *perchline.Error
//	if errors.As(err, &apiErr) {
//	    switch apiErr.Source {
//	    case perchline.SourceInternal:
//	        // Local encode/decode failure, not retried
//	    case perchline.SourceNetwork:
//	        // Transport failure after retries were exhausted
//	    case perchline.SourceRemote:
//	        // The API returned a non-2xx response
//	    }
//	}
type ErrorSource int

const (
	// SourceInternal is a local failure such as a request body that cannot
	// be serialized or a response body that is not valid JSON.
	SourceInternal ErrorSource = iota
	// SourceNetwork is a transport-level failure (connection refused,
	// timeout, DNS, etc.).
	SourceNetwork
	// SourceRemote is a non-2xx response from the API.
	SourceRemote
)

// String returns the string representation of the error source.
func (s ErrorSource) String() string {
	switch s {
	case SourceInternal:
		return "internal"
	case SourceNetwork:
		return "network"
	case SourceRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Symbolic error codes. Remote errors carry either a code from this table
// (derived from the HTTP status) or the code string supplied verbatim by
// the API's error body.
const (
	CodeBadRequest      = "bad_request"
	CodeUnauthorized    = "unauthorized"
	CodeRequestFailed   = "request_failed"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeTooManyRequests = "too_many_requests"
	CodeServerError     = "server_error"
	CodeUnknown         = "unknown_error"

	CodeEncodeFailed = "encode_failed"
	CodeDecodeFailed = "decode_failed"
	CodeNetworkError = "network_error"
)

// Error is the terminal error value returned to callers on any failure
// path. It is constructed once, when the retry loop or decoder gives up,
// and carries enough information to log, alert, or branch on.
//
// Example:
//
//	var apiErr *perchline.Error
//	if errors.As(err, &apiErr) {
//	    log.Printf("code=%s request_id=%s: %s",
//	        apiErr.Code, apiErr.RequestID, apiErr.Message)
//	}
type Error struct {
	// Source categorizes the failure origin.
	Source ErrorSource
	// Code is the symbolic error code.
	Code string
	// Message is a human-readable description.
	Message string
	// RequestID is the server-assigned tracing identifier, when present.
	RequestID string
	// Status is the HTTP status code for remote errors, zero otherwise.
	Status int
	// Extra holds additional structured fields from the API error body.
	Extra map[string]any

	wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("perchline: %s error (%s): %s (request_id: %s)", e.Source, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("perchline: %s error (%s): %s", e.Source, e.Code, e.Message)
}

// Unwrap returns the wrapped error, if any.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is implements errors.Is for sentinel matching.
func (e *Error) Is(target error) bool {
	switch {
	case target == ErrServiceUnavailable:
		return e.Source == SourceRemote && e.Status == 503
	case target == ErrTooManyRequests:
		return e.Source == SourceRemote && e.Status == 429
	}
	return false
}

// IsRetryable reports whether the failure was of a kind the retry policy
// considers transient. By the time the caller sees the error, retries have
// already been exhausted; this is informational for caller-level handling.
func (e *Error) IsRetryable() bool {
	switch e.Source {
	case SourceNetwork:
		return true
	case SourceRemote:
		return e.Status == 409 || e.Status == 429 || e.Status == 503
	default:
		return false
	}
}

func newInternalError(code, message string, wrapped error) *Error {
	return &Error{
		Source:  SourceInternal,
		Code:    code,
		Message: message,
		wrapped: wrapped,
	}
}

func newNetworkError(wrapped error) *Error {
	return &Error{
		Source:  SourceNetwork,
		Code:    CodeNetworkError,
		Message: wrapped.Error(),
		wrapped: wrapped,
	}
}

// classifyStatus maps an HTTP status with no structured error body to a
// (code, message) pair.
func classifyStatus(status int) (code, message string) {
	switch status {
	case 400:
		return CodeBadRequest, "The request was malformed or missing required parameters."
	case 401:
		return CodeUnauthorized, "The API key is missing, invalid, or has been revoked."
	case 402:
		return CodeRequestFailed, "The request was valid but could not be completed."
	case 404:
		return CodeNotFound, "The requested resource does not exist."
	case 409:
		return CodeConflict, "The request conflicted with another concurrent request."
	case 429:
		return CodeTooManyRequests, "Too many requests hit the API too quickly."
	case 500, 502, 503, 504:
		return CodeServerError, "The server encountered an error while processing the request."
	default:
		return CodeUnknown, "The server returned an unexpected response."
	}
}

// IsNotFound checks if the error represents a "not found" condition.
//
// Example:
//
//	_, err := client.Do(ctx, req)
//	if perchline.IsNotFound(err) {
//	    // Resource does not exist
//	}
func IsNotFound(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Source == SourceRemote && (apiErr.Status == 404 || apiErr.Code == CodeNotFound)
	}
	return false
}

// IsRateLimited checks if the error represents a rate-limiting condition.
func IsRateLimited(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Source == SourceRemote && (apiErr.Status == 429 || apiErr.Code == CodeTooManyRequests)
	}
	return false
}

// IsRetryable checks if an error was of a transient kind. See
// (*Error).IsRetryable.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return false
}
