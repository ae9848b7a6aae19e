package perchline

import (
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the client configuration. All fields except APIKey have
// sensible defaults. Configuration is passed explicitly through the client
// rather than read from any process-global state; build one with
// DefaultConfig and the fluent With* methods.
//
// Example:
//
//	config := perchline.DefaultConfig().
//	    WithAPIKey(os.Getenv("PERCHLINE_API_KEY")).
//	    WithBaseURL("https://api.perchline.com").
//	    WithRetry(perchline.RetryConfig{MaxAttempts: 5}).
//	    WithLogger(logger)
//
//	client, err := perchline.NewClient(config)
type Config struct {
	// BaseURL is the base URL of the Perchline API.
	// Default: "https://api.perchline.com"
	BaseURL string

	// APIKey authenticates every request via a Bearer token. Required.
	APIKey string

	// APIVersion pins the API version header for all requests.
	// Default: DefaultAPIVersion
	APIVersion string

	// Timeout is the per-attempt HTTP timeout, enforced by the transport.
	// The pipeline itself imposes no mid-flight cancellation.
	// Default: 30s
	Timeout time.Duration

	// Retry tunes the retry-with-backoff loop.
	Retry RetryConfig

	// Transport holds connection-pool settings for the built-in transports.
	Transport TransportConfig

	// Headers are custom headers included in every request. Per-request
	// headers take precedence on collision.
	Headers map[string]string

	// Codec encodes request params and validates response bodies.
	// Default: JSONCodec
	Codec Codec

	// Logger receives structured retry and failure logs.
	// Default: logrus.StandardLogger()
	Logger logrus.FieldLogger

	// Observer receives monitoring hooks. Default: NoopObserver.
	Observer Observer

	// Tracer, when set, opens a span per logical request.
	Tracer trace.Tracer

	// CircuitBreaker enables the circuit breaker when non-nil.
	CircuitBreaker *CircuitBreakerConfig

	// TransportOverride replaces the built-in net/http transport, e.g.
	// with NewFastHTTPTransport or a test double.
	TransportOverride Transport
}

// DefaultConfig returns a Config with production defaults: the public API
// base URL, 30s timeout, 3 attempts with 500ms-2s backoff, and a pooled
// net/http transport.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.perchline.com",
		APIVersion: DefaultAPIVersion,
		Timeout:    30 * time.Second,
		Retry:      DefaultRetryConfig(),
		Transport: TransportConfig{
			MaxIdleConns:    100,
			MaxConnsPerHost: 10,
			IdleConnTimeout: 90 * time.Second,
		},
		Headers:  make(map[string]string),
		Codec:    JSONCodec{},
		Logger:   logrus.StandardLogger(),
		Observer: NoopObserver{},
	}
}

// WithBaseURL sets the API base URL.
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// WithAPIKey sets the API key.
func (c *Config) WithAPIKey(key string) *Config {
	c.APIKey = key
	return c
}

// WithAPIVersion pins the API version for all requests.
func (c *Config) WithAPIVersion(version string) *Config {
	c.APIVersion = version
	return c
}

// WithTimeout sets the per-attempt HTTP timeout.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRetry sets the retry tuning.
func (c *Config) WithRetry(rc RetryConfig) *Config {
	c.Retry = rc
	return c
}

// WithHeader adds a header sent with every request.
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// WithCodec swaps the JSON codec.
func (c *Config) WithCodec(codec Codec) *Config {
	c.Codec = codec
	return c
}

// WithLogger sets the structured logger.
func (c *Config) WithLogger(logger logrus.FieldLogger) *Config {
	c.Logger = logger
	return c
}

// WithObserver sets the monitoring observer.
func (c *Config) WithObserver(observer Observer) *Config {
	c.Observer = observer
	return c
}

// WithTracer enables per-request tracing spans.
func (c *Config) WithTracer(tracer trace.Tracer) *Config {
	c.Tracer = tracer
	return c
}

// WithCircuitBreaker enables the circuit breaker.
func (c *Config) WithCircuitBreaker(cbc CircuitBreakerConfig) *Config {
	c.CircuitBreaker = &cbc
	return c
}

// WithTransportOverride replaces the built-in transport.
func (c *Config) WithTransportOverride(t Transport) *Config {
	c.TransportOverride = t
	return c
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base URL must have a scheme and host", ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", ErrInvalidConfig)
	}
	return nil
}
