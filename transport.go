package perchline

import (
	"context"
	"net/http"
	"time"
)

// RawRequest is the fully composed request handed to a Transport: final
// headers, final body bytes, absolute URL. One RawRequest is built per
// logical request and reused verbatim across retry attempts, which is what
// keeps the idempotency key stable across retries.
type RawRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// RawResponse is the raw outcome of a single successful socket exchange.
// The body is read in full before the response is returned; it may still be
// compressed per its Content-Encoding header.
type RawResponse struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Transport performs the actual socket I/O for one attempt. Implementations
// must be safe for concurrent use; the connection pool they manage is the
// only shared mutable state in the pipeline.
//
// Two implementations ship with the client:
//   - native.go: net/http with a tuned connection pool (the default)
//   - fasthttp.go: valyala/fasthttp for high-throughput callers
//
// RoundTrip returns an error only for transport-level failures; any HTTP
// response, whatever its status, is returned as a RawResponse.
type Transport interface {
	RoundTrip(ctx context.Context, req *RawRequest) (*RawResponse, error)
	Close() error
}

// TransportConfig holds connection-pool settings for the built-in
// transports. Pool admission and backpressure are entirely the transport's
// responsibility; the request pipeline only configures them here.
//
// Example:
//
//	config.Transport = perchline.TransportConfig{
//	    MaxIdleConns:    200,
//	    MaxConnsPerHost: 50,
//	    IdleConnTimeout: 120 * time.Second,
//	}
type TransportConfig struct {
	// MaxIdleConns caps idle connections across all hosts. Zero means no limit.
	// Default: 100
	MaxIdleConns int

	// MaxConnsPerHost caps connections per host, counting dialing, active,
	// and idle states.
	// Default: 10
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection stays open.
	// Default: 90s
	IdleConnTimeout time.Duration

	// DisablePooling turns off keep-alive connection reuse entirely. Each
	// attempt then dials a fresh connection.
	DisablePooling bool
}
