package perchline

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"encoding/json"
	"io"
	"strings"
)

// remoteErrorBody is the structured error shape the API returns on
// failures. Only the first element is surfaced.
type remoteErrorBody struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"errors"`
}

// decodeSuccess handles a terminal 2xx outcome: decompress per
// Content-Encoding, then validate the bytes as JSON. Decode failures are
// Internal errors and are never retried.
func decodeSuccess(resp *RawResponse, codec Codec) (json.RawMessage, *Error) {
	body, err := decompressBody(resp.Body, resp.Headers.Get("Content-Encoding"))
	if err != nil {
		return nil, newInternalError(CodeDecodeFailed, "failed to decompress response body: "+err.Error(), err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	var probe any
	if err := codec.Unmarshal(body, &probe); err != nil {
		return nil, newInternalError(CodeDecodeFailed, "response body is not valid JSON: "+err.Error(), err)
	}
	return json.RawMessage(body), nil
}

// decodeFailure handles a terminal 3xx-5xx outcome. It extracts the
// server's tracing identifier, prefers the structured error body when one
// parses, and otherwise falls back to the status-derived classification.
// It always yields an *Error; nothing escapes this boundary.
func decodeFailure(resp *RawResponse) *Error {
	apiErr := &Error{
		Source:    SourceRemote,
		Status:    resp.Status,
		RequestID: resp.Headers.Get(headerRequestID),
		Extra:     map[string]any{},
	}

	body, err := decompressBody(resp.Body, resp.Headers.Get("Content-Encoding"))
	if err != nil {
		body = resp.Body
	}

	var remote remoteErrorBody
	if err := json.Unmarshal(body, &remote); err == nil && len(remote.Errors) > 0 {
		first := remote.Errors[0]
		if first.Code != "" || first.Message != "" {
			apiErr.Code = first.Code
			apiErr.Message = first.Message
			if first.Field != "" {
				apiErr.Extra["field"] = first.Field
			}
			return apiErr
		}
	}

	apiErr.Code, apiErr.Message = classifyStatus(resp.Status)
	return apiErr
}

// decompressBody undoes the response Content-Encoding. Servers answer the
// advertised gzip encoding most of the time, but deflate shows up in both
// its zlib-wrapped and raw forms in the wild, so both are handled.
func decompressBody(body []byte, encoding string) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		if r, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer r.Close()
			return io.ReadAll(r)
		}
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return io.ReadAll(r)
	default:
		// identity, or an encoding we never asked for
		return body, nil
	}
}
