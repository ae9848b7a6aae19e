package perchline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpTransport is the default Transport, backed by net/http with a tuned
// connection pool.
type httpTransport struct {
	client *http.Client
}

func newHTTPTransport(cfg TransportConfig, timeout time.Duration) *httpTransport {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableKeepAlives:   cfg.DisablePooling,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &httpTransport{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// RoundTrip performs a single HTTP exchange and reads the response body in
// full. The body is returned as-is; content decoding happens downstream.
func (t *httpTransport) RoundTrip(ctx context.Context, req *RawRequest) (*RawResponse, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &RawResponse{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    respBody,
	}, nil
}

// Close releases idle pooled connections.
func (t *httpTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
