package perchline

import "net/textproto"

// Version is the client library version, reported in the User-Agent header.
const Version = "1.2.0"

// DefaultAPIVersion is the API version pinned when the caller does not
// supply one.
const DefaultAPIVersion = "2024-06"

const (
	headerAccept         = "Accept"
	headerAcceptEncoding = "Accept-Encoding"
	headerConnection     = "Connection"
	headerContentType    = "Content-Type"
	headerAuthorization  = "Authorization"
	headerUserAgent      = "User-Agent"
	headerAPIVersion     = "Perchline-Version"
	headerIdempotencyKey = "Idempotency-Key"
	headerRequestID      = "X-Request-Id"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	userAgent = "perchline-go/" + Version
)

// composeHeaders builds the final header set for a request. Steps are
// ordered: later steps overwrite earlier defaults but never caller-explicit
// values unless stated.
//
//  1. Fixed negotiation headers always overwrite caller values.
//  2. Content-Type defaults to form-urlencoded when absent.
//  3. Authorization always overwrites.
//  4. User-Agent and the API version header always overwrite.
//  5. For write methods only, the idempotency key is inserted if absent, so
//     a caller can pin their own key across manual retries.
//
// idempotencyKey may be empty for read methods; read requests never carry
// an Idempotency-Key header.
func composeHeaders(base map[string]string, method, apiKey, apiVersion, idempotencyKey string) map[string]string {
	h := make(map[string]string, len(base)+7)
	for k, v := range base {
		h[textproto.CanonicalMIMEHeaderKey(k)] = v
	}

	h[headerAccept] = "application/json; charset=utf8"
	h[headerAcceptEncoding] = "gzip"
	h[headerConnection] = "keep-alive"

	if _, ok := h[headerContentType]; !ok {
		h[headerContentType] = contentTypeForm
	}

	h[headerAuthorization] = "Bearer " + apiKey

	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	h[headerUserAgent] = userAgent
	h[headerAPIVersion] = apiVersion

	if !isReadMethod(method) && idempotencyKey != "" {
		if _, ok := h[headerIdempotencyKey]; !ok {
			h[headerIdempotencyKey] = idempotencyKey
		}
	}

	return h
}

// isReadMethod reports whether the method is side-effect-free. Read
// requests carry their parameters in the query string and never carry an
// idempotency key.
func isReadMethod(method string) bool {
	return method == "GET" || method == "HEAD"
}
