// Package perchline is the official Go client for the Perchline API.
//
// The client turns structured parameters into authenticated, correctly
// encoded HTTPS requests, executes them with bounded retries on transient
// failures, and maps every failure onto a small, stable error taxonomy.
//
// # Quick start
//
//	client, err := perchline.NewClient(
//	    perchline.DefaultConfig().WithAPIKey(os.Getenv("PERCHLINE_API_KEY")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	var contacts []Contact
//	err = client.Get(ctx, "/v1/contacts",
//	    map[string]any{"filter": map[string]any{"status": "open"}}, &contacts)
//
// # Request pipeline
//
// Every request flows through the same pipeline: header composition
// (content negotiation, Bearer auth, API versioning, idempotency keys),
// body encoding (JSON or form-urlencoded with bracketed nested keys), the
// retry loop with exponential backoff and jitter, and response decoding
// (gzip/deflate decompression plus JSON validation).
//
// Write requests automatically carry an Idempotency-Key header so the API
// can deduplicate retried submissions; the key is generated once per
// logical request and reused verbatim across all retry attempts. Read
// requests (GET, HEAD) never carry one.
//
// # Errors
//
// All failures surface as *Error with a Source of SourceInternal,
// SourceNetwork, or SourceRemote, a symbolic Code, and the server's
// request ID when one was assigned:
//
//	var apiErr *perchline.Error
//	if errors.As(err, &apiErr) && apiErr.Code == perchline.CodeNotFound {
//	    // handle missing resource
//	}
//
// # Retries
//
// Transient outcomes (HTTP 409, 429, 503; connection refused; timeouts;
// transport-level unavailability) are retried up to the configured attempt
// budget with exponential backoff and jitter. Everything else fails fast.
// Retries are strictly sequential and invisible to the caller except as
// added latency.
//
// # Observability
//
// Structured logs go through a configurable logrus logger. The Observer
// interface exposes request, retry and circuit breaker hooks, with
// Prometheus and in-memory implementations included, and an OpenTelemetry
// tracer can be attached for per-request spans.
package perchline
