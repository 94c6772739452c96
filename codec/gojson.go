package codec

import gojson "github.com/goccy/go-json"

// GoJSON encodes JSON with github.com/goccy/go-json. HTML characters in site names and
// error messages are written as is.
type GoJSON struct{}

func (GoJSON) Name() string        { return "json" }
func (GoJSON) ContentType() string { return "application/json" }

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.MarshalNoEscape(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Append encodes v and appends it to dst. dst is returned unchanged on error.
func (GoJSON) Append(dst []byte, v any) ([]byte, error) {
	b, err := gojson.MarshalNoEscape(v)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}
