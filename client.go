package perchline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client executes requests against the Perchline API. It composes headers,
// encodes bodies, drives the retry loop and decodes responses; the actual
// socket I/O is delegated to a Transport. A Client is safe for concurrent
// use; independent requests may run in parallel, but retries within one
// request are strictly sequential.
//
// Example:
//
//	client, err := perchline.NewClient(
//	    perchline.DefaultConfig().WithAPIKey(key))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	var contacts []Contact
//	err = client.Get(ctx, "/v1/contacts",
//	    map[string]any{"filter": map[string]any{"status": "open"}}, &contacts)
type Client struct {
	config    *Config
	baseURL   string
	transport Transport
	breaker   CircuitBreaker
	observer  Observer
	codec     Codec
	log       logrus.FieldLogger
	tracer    trace.Tracer
}

// NewClient creates a client from the given configuration. The
// configuration is validated eagerly; an invalid one fails here rather
// than on the first request.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	observer := config.Observer
	if observer == nil {
		observer = NoopObserver{}
	}
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	codec := config.Codec
	if codec == nil {
		codec = JSONCodec{}
	}

	transport := config.TransportOverride
	if transport == nil {
		transport = newHTTPTransport(config.Transport, config.Timeout)
	}

	var breaker CircuitBreaker = noopCircuitBreaker{}
	if config.CircuitBreaker != nil {
		breaker = newObservedCircuitBreaker(*config.CircuitBreaker, observer)
	}

	return &Client{
		config:    config,
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		transport: transport,
		breaker:   breaker,
		observer:  observer,
		codec:     codec,
		log:       log,
		tracer:    config.Tracer,
	}, nil
}

// Do executes one logical request to a terminal outcome and returns the
// decoded JSON body. All failure paths converge on a *Error; retries are
// invisible to the caller except as added latency.
//
// The call blocks for the full duration of all attempts including the
// backoff sleeps between them.
func (c *Client) Do(ctx context.Context, req *Request) (json.RawMessage, error) {
	if req == nil || req.Method == "" || req.Endpoint == "" {
		return nil, newInternalError(CodeEncodeFailed, "request method and endpoint are required", nil)
	}

	raw, buildErr := c.buildRawRequest(req)
	if buildErr != nil {
		return nil, buildErr
	}

	retry := c.config.Retry
	if req.opts.Retry != nil {
		retry = *req.opts.Retry
	}
	retry = retry.withDefaults()

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, req.Method+" "+req.Endpoint,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.path", req.Endpoint),
			))
		defer span.End()
	}

	c.observer.OnRequestStart(req.Method, req.Endpoint)
	start := time.Now()

	var body json.RawMessage
	err := c.breaker.Execute(func() error {
		var execErr error
		body, execErr = c.execute(ctx, raw, req.Method, req.Endpoint, retry)
		return execErr
	})

	c.observer.OnRequestEnd(req.Method, req.Endpoint, time.Since(start), err)
	if span != nil {
		c.finishSpan(span, err)
	}
	return body, err
}

// execute drives the retry loop to a terminal outcome and hands it to the
// response decoder. Attempts are strictly sequential; the same RawRequest,
// idempotency key included, is reused verbatim on every attempt.
func (c *Client) execute(ctx context.Context, raw *RawRequest, method, endpoint string, retry RetryConfig) (json.RawMessage, error) {
	var outcome rawOutcome
	for attempt := 1; ; attempt++ {
		resp, err := c.transport.RoundTrip(ctx, raw)
		outcome = classifyOutcome(resp, err)

		if outcome.kind == outcomeOther {
			c.log.WithError(err).WithFields(logrus.Fields{
				"method":   method,
				"endpoint": endpoint,
				"attempt":  attempt,
			}).Warn("unclassified transport error, not retrying")
		}

		if !retry.shouldRetry(outcome, attempt) {
			break
		}

		delay := retry.backoff(attempt - 1)
		c.observer.OnRetryAttempt(method, endpoint, attempt, delay, retryReason(outcome))
		c.log.WithFields(logrus.Fields{
			"method":   method,
			"endpoint": endpoint,
			"attempt":  attempt,
			"delay":    delay,
		}).Debug("retrying request")

		if err := sleepBackoff(ctx, delay); err != nil {
			return nil, newNetworkError(err)
		}
	}

	if outcome.err != nil {
		return nil, newNetworkError(outcome.err)
	}
	if outcome.status >= 200 && outcome.status < 300 {
		body, decErr := decodeSuccess(outcome.resp, c.codec)
		if decErr != nil {
			return nil, decErr
		}
		return body, nil
	}
	return nil, decodeFailure(outcome.resp)
}

// buildRawRequest runs header composition and body encoding once per
// logical request. Read methods get their params appended as a query
// string; write methods get a body in the resolved Content-Type and an
// idempotency key.
func (c *Client) buildRawRequest(req *Request) (*RawRequest, *Error) {
	apiKey := req.opts.APIKey
	if apiKey == "" {
		apiKey = c.config.APIKey
	}
	apiVersion := req.opts.APIVersion
	if apiVersion == "" {
		apiVersion = c.config.APIVersion
	}

	base := make(map[string]string, len(c.config.Headers)+len(req.headers))
	for k, v := range c.config.Headers {
		base[k] = v
	}
	for k, v := range req.headers {
		base[k] = v
	}

	var idempotencyKey string
	if !isReadMethod(req.Method) {
		idempotencyKey = req.opts.IdempotencyKey
		if idempotencyKey == "" {
			idempotencyKey = NewIdempotencyKey()
		}
	}

	headers := composeHeaders(base, req.Method, apiKey, apiVersion, idempotencyKey)

	fullURL := c.baseURL + req.Endpoint
	var body []byte
	if isReadMethod(req.Method) {
		if qs := encodeQuery(req.params); qs != "" {
			fullURL += "?" + qs
		}
	} else {
		encoded, encErr := encodeBody(req.params, headers[headerContentType], c.codec)
		if encErr != nil {
			return nil, encErr
		}
		body = encoded
	}

	return &RawRequest{
		Method:  req.Method,
		URL:     fullURL,
		Headers: headers,
		Body:    body,
	}, nil
}

// retryReason describes the outcome that triggered a retry, for observer
// hooks.
func retryReason(o rawOutcome) error {
	if o.err != nil {
		return o.err
	}
	return &Error{Source: SourceRemote, Status: o.status, Code: CodeUnknown, Message: fmt.Sprintf("HTTP %d", o.status)}
}

func (c *Client) finishSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", apiErr.Status))
	}
	span.SetStatus(codes.Error, err.Error())
}

// Get performs a read request and decodes the response body into result
// when result is non-nil.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]any, result any) error {
	return c.call(ctx, http.MethodGet, endpoint, params, result)
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, endpoint string, params map[string]any) error {
	return c.call(ctx, http.MethodHead, endpoint, params, nil)
}

// Post performs a write request and decodes the response body into result
// when result is non-nil.
func (c *Client) Post(ctx context.Context, endpoint string, params map[string]any, result any) error {
	return c.call(ctx, http.MethodPost, endpoint, params, result)
}

// Put performs a write request.
func (c *Client) Put(ctx context.Context, endpoint string, params map[string]any, result any) error {
	return c.call(ctx, http.MethodPut, endpoint, params, result)
}

// Patch performs a write request.
func (c *Client) Patch(ctx context.Context, endpoint string, params map[string]any, result any) error {
	return c.call(ctx, http.MethodPatch, endpoint, params, result)
}

// Delete performs a write request.
func (c *Client) Delete(ctx context.Context, endpoint string, params map[string]any, result any) error {
	return c.call(ctx, http.MethodDelete, endpoint, params, result)
}

func (c *Client) call(ctx context.Context, method, endpoint string, params map[string]any, result any) error {
	req := NewRequest(method, endpoint)
	if params != nil {
		req.PutParams(params)
	}
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if result != nil && len(body) > 0 {
		if err := c.codec.Unmarshal(body, result); err != nil {
			return newInternalError(CodeDecodeFailed, "failed to decode response into result: "+err.Error(), err)
		}
	}
	return nil
}

// Close releases transport resources. The client must not be used after
// Close.
func (c *Client) Close() error {
	return c.transport.Close()
}
