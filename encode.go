package perchline

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// encodeBody serializes params into the request body according to the
// resolved Content-Type. JSON content types get a JSON object body; anything
// else gets the form-urlencoded flattening used for query strings.
func encodeBody(params map[string]any, contentType string, codec Codec) ([]byte, *Error) {
	if isJSONContentType(contentType) {
		data, err := codec.Marshal(params)
		if err != nil {
			return nil, newInternalError(CodeEncodeFailed, "failed to serialize request parameters: "+err.Error(), err)
		}
		return data, nil
	}
	return []byte(encodeQuery(params)), nil
}

func isJSONContentType(contentType string) bool {
	ct := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct == contentTypeJSON
}

// encodeQuery flattens params into a deterministic URL-encoded string.
// Nested maps and lists become bracketed path keys:
//
//	{"filter": {"status": "open"}}  ->  filter[status]=open
//	{"ids": [3, 14]}                ->  ids[0]=3&ids[1]=14
//
// Map keys are sorted at every level so the output is stable. Returns the
// empty string when params flatten to nothing.
func encodeQuery(params map[string]any) string {
	pairs := flattenParams(params)
	if len(pairs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

type queryPair struct {
	key   string
	value string
}

// flattenParams converts a nested params map into ordered key-value pairs
// with bracketed path keys. Key segments are URL-escaped individually; the
// brackets themselves stay literal.
func flattenParams(params map[string]any) []queryPair {
	var pairs []queryPair
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		flattenValue(escapeKeySegment(k), params[k], &pairs)
	}
	return pairs
}

func flattenValue(prefix string, v any, pairs *[]queryPair) {
	switch tv := v.(type) {
	case nil:
		*pairs = append(*pairs, queryPair{key: prefix, value: ""})
		return
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValue(prefix+"["+escapeKeySegment(k)+"]", tv[k], pairs)
		}
		return
	case []any:
		for i, item := range tv {
			flattenValue(prefix+"["+strconv.Itoa(i)+"]", item, pairs)
		}
		return
	case string:
		*pairs = append(*pairs, queryPair{key: prefix, value: tv})
		return
	}

	// Other map and slice shapes (map[string]string, []int, ...) flatten the
	// same way; everything else stringifies as a leaf.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		elems := make(map[string]reflect.Value, rv.Len())
		for _, mk := range rv.MapKeys() {
			ks := fmt.Sprint(mk.Interface())
			keys = append(keys, ks)
			elems[ks] = rv.MapIndex(mk)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValue(prefix+"["+escapeKeySegment(k)+"]", elems[k].Interface(), pairs)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			flattenValue(prefix+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface(), pairs)
		}
	default:
		*pairs = append(*pairs, queryPair{key: prefix, value: fmt.Sprint(v)})
	}
}

// escapeKeySegment escapes a single path segment of a bracketed key.
// QueryEscape encodes spaces as '+', which is only valid in values, so
// spaces are rewritten to %20.
func escapeKeySegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
