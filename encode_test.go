package perchline

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{
			name:   "empty params",
			params: map[string]any{},
			want:   "",
		},
		{
			name:   "flat params sorted",
			params: map[string]any{"b": 2, "a": 1},
			want:   "a=1&b=2",
		},
		{
			name:   "nested map",
			params: map[string]any{"filter": map[string]any{"status": "open"}},
			want:   "filter[status]=open",
		},
		{
			name:   "list indices",
			params: map[string]any{"ids": []any{3, 14}},
			want:   "ids[0]=3&ids[1]=14",
		},
		{
			name:   "deep nesting",
			params: map[string]any{"a": map[string]any{"b": []any{1}}},
			want:   "a[b][0]=1",
		},
		{
			name:   "value escaping",
			params: map[string]any{"q": "a b&c"},
			want:   "q=a+b%26c",
		},
		{
			name:   "typed slices and maps",
			params: map[string]any{"tags": []string{"x", "y"}, "m": map[string]string{"k": "v"}},
			want:   "m[k]=v&tags[0]=x&tags[1]=y",
		},
		{
			name:   "nil value becomes empty",
			params: map[string]any{"cursor": nil},
			want:   "cursor=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeQuery(tt.params))
		})
	}
}

func TestEncodeQuery_RoundTrip(t *testing.T) {
	params := map[string]any{
		"name":  "Alice Smith",
		"limit": 25,
		"filter": map[string]any{
			"status": "open",
			"tags":   []any{"vip", "new customer"},
		},
		"sort": []any{map[string]any{"field": "created_at", "dir": "desc"}},
	}

	encoded := encodeQuery(params)
	parsed, err := url.ParseQuery(encoded)
	require.NoError(t, err)

	// Every flattened leaf association survives URL encoding and parsing.
	for _, pair := range flattenParams(params) {
		key, err := url.QueryUnescape(pair.key)
		require.NoError(t, err)
		require.Len(t, parsed[key], 1, "key %q", key)
		assert.Equal(t, pair.value, parsed[key][0], "key %q", key)
	}
	assert.Len(t, parsed, len(flattenParams(params)))
}

func TestEncodeBody(t *testing.T) {
	codec := JSONCodec{}

	t.Run("json content type", func(t *testing.T) {
		body, apiErr := encodeBody(map[string]any{"email": "a@example.com"}, contentTypeJSON, codec)
		require.Nil(t, apiErr)
		assert.JSONEq(t, `{"email":"a@example.com"}`, string(body))
	})

	t.Run("json content type with charset", func(t *testing.T) {
		body, apiErr := encodeBody(map[string]any{"a": 1}, "application/json; charset=utf8", codec)
		require.Nil(t, apiErr)
		assert.JSONEq(t, `{"a":1}`, string(body))
	})

	t.Run("form content type", func(t *testing.T) {
		body, apiErr := encodeBody(map[string]any{"a": map[string]any{"b": 1}}, contentTypeForm, codec)
		require.Nil(t, apiErr)
		assert.Equal(t, "a[b]=1", string(body))
	})

	t.Run("unserializable value surfaces an internal error", func(t *testing.T) {
		body, apiErr := encodeBody(map[string]any{"ch": make(chan int)}, contentTypeJSON, codec)
		assert.Nil(t, body)
		require.NotNil(t, apiErr)
		assert.Equal(t, SourceInternal, apiErr.Source)
		assert.Equal(t, CodeEncodeFailed, apiErr.Code)
	})
}
