package perchline

import "encoding/json"

// Codec encodes request parameters and decodes response bodies. The default
// implementation uses encoding/json; supply a custom Codec to swap in a
// different JSON library without touching the request pipeline.
//
// Example:
//
//	type fastCodec struct{}
//
//	func (fastCodec) Marshal(v any) ([]byte, error)   { return fastjson.Marshal(v) }
//	func (fastCodec) Unmarshal(b []byte, v any) error { return fastjson.Unmarshal(b, v) }
//
//	config := perchline.DefaultConfig().WithCodec(fastCodec{})
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec backed by encoding/json.
type JSONCodec struct{}

// Marshal encodes v as JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
