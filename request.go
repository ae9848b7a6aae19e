package perchline

// Request describes one logical API call. It is built incrementally and
// must not be mutated once handed to the client.
//
// Example:
//
//	req := perchline.NewRequest(http.MethodPost, "/v1/contacts").
//	    PutParam("email", "a@example.com").
//	    PutParam("tags", []any{"vip"})
//	body, err := client.Do(ctx, req)
type Request struct {
	// Method is the HTTP method. GET and HEAD are read methods; their
	// params travel in the query string and they never carry an
	// idempotency key.
	Method string

	// Endpoint is the path appended to the configured base URL,
	// e.g. "/v1/contacts".
	Endpoint string

	headers map[string]string
	params  map[string]any
	opts    RequestOptions
}

// RequestOptions carries per-call overrides for the request pipeline.
type RequestOptions struct {
	// APIKey overrides the client-wide API key for this call.
	APIKey string

	// APIVersion overrides the pinned API version for this call.
	APIVersion string

	// IdempotencyKey pins the idempotency key for a write request. When
	// empty, one is generated. The key, however obtained, is reused
	// verbatim across every retry attempt.
	IdempotencyKey string

	// Retry overrides the client-wide retry tuning for this call.
	Retry *RetryConfig
}

// NewRequest creates a request for the given method and endpoint path.
func NewRequest(method, endpoint string) *Request {
	return &Request{
		Method:   method,
		Endpoint: endpoint,
		headers:  make(map[string]string),
		params:   make(map[string]any),
	}
}

// PutParam sets a single parameter. Successive calls merge into the same
// params map; setting an existing key overwrites it.
func (r *Request) PutParam(key string, value any) *Request {
	r.params[key] = value
	return r
}

// PutParams merges all entries of m into the request's params. Later calls
// win on key collisions.
func (r *Request) PutParams(m map[string]any) *Request {
	for k, v := range m {
		r.params[k] = v
	}
	return r
}

// SetHeader sets a caller header. Non-negotiable pipeline headers (Accept,
// Accept-Encoding, Connection, Authorization, User-Agent and the version
// header) overwrite caller values; Content-Type and Idempotency-Key are
// honored.
func (r *Request) SetHeader(key, value string) *Request {
	r.headers[key] = value
	return r
}

// WithOptions attaches per-call options.
func (r *Request) WithOptions(opts RequestOptions) *Request {
	r.opts = opts
	return r
}

// WithIdempotencyKey pins the idempotency key for this request.
func (r *Request) WithIdempotencyKey(key string) *Request {
	r.opts.IdempotencyKey = key
	return r
}

// WithRetry overrides the retry tuning for this request.
func (r *Request) WithRetry(rc RetryConfig) *Request {
	r.opts.Retry = &rc
	return r
}
