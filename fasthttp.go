package perchline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

// FastHTTPTransport is a Transport backed by valyala/fasthttp. It trades
// net/http's flexibility for lower allocation overhead, which matters for
// callers issuing many small requests.
//
// Example:
//
//	config := perchline.DefaultConfig().
//	    WithAPIKey(key).
//	    WithTransportOverride(perchline.NewFastHTTPTransport(
//	        perchline.TransportConfig{MaxConnsPerHost: 64}, 10*time.Second))
type FastHTTPTransport struct {
	client  *fasthttp.Client
	timeout time.Duration
}

// NewFastHTTPTransport builds a fasthttp-backed Transport with the given
// pool settings and per-request timeout.
func NewFastHTTPTransport(cfg TransportConfig, timeout time.Duration) *FastHTTPTransport {
	maxConns := cfg.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = fasthttp.DefaultMaxConnsPerHost
	}
	if cfg.DisablePooling {
		maxConns = 1
	}
	return &FastHTTPTransport{
		client: &fasthttp.Client{
			Name:                      userAgent,
			MaxConnsPerHost:           maxConns,
			MaxIdleConnDuration:       cfg.IdleConnTimeout,
			NoDefaultUserAgentHeader:  true,
			DisablePathNormalizing:    true,
			ReadTimeout:               timeout,
			WriteTimeout:              timeout,
			MaxIdemponentCallAttempts: 1, // the pipeline owns retries
		},
		timeout: timeout,
	}
}

// RoundTrip performs a single HTTP exchange through fasthttp. Pool
// exhaustion and fasthttp's own timeouts are normalized onto the sentinel
// errors the retry policy classifies.
func (t *FastHTTPTransport) RoundTrip(ctx context.Context, req *RawRequest) (*RawResponse, error) {
	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	freq.Header.SetMethod(req.Method)
	freq.SetRequestURI(req.URL)
	for k, v := range req.Headers {
		freq.Header.Set(k, v)
	}
	if len(req.Body) > 0 {
		freq.SetBody(req.Body)
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := t.client.DoDeadline(freq, fresp, deadline); err != nil {
		switch {
		case errors.Is(err, fasthttp.ErrNoFreeConns):
			return nil, fmt.Errorf("connection pool exhausted: %w", ErrServiceUnavailable)
		case errors.Is(err, fasthttp.ErrTimeout), errors.Is(err, fasthttp.ErrDialTimeout):
			return nil, fmt.Errorf("%v: %w", err, os.ErrDeadlineExceeded)
		}
		return nil, err
	}

	headers := make(http.Header)
	fresp.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	body := fresp.Body()
	out := make([]byte, len(body))
	copy(out, body)

	return &RawResponse{
		Status:  fresp.StatusCode(),
		Headers: headers,
		Body:    out,
	}, nil
}

// Close shuts down idle pooled connections.
func (t *FastHTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
