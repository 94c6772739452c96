// Package codec encodes the documents crisprs exchanges: per-query off-target results
// written by the jsonl and cbor output formats, and the request and response bodies of
// the HTTP service and its client.
//
// JSON goes through goccy/go-json. CBOR uses core deterministic encoding, so one result
// always encodes to the same bytes and CBOR output can be compared byte for byte.
package codec

import (
	"errors"
	"fmt"
)

// ErrUnknownCodec is returned by ByName for a name no codec answers to.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec converts documents to and from bytes. Implementations are safe for
// concurrent use.
type Codec interface {
	// Name is the output format the codec serves ("json" or "cbor").
	Name() string
	// ContentType is the media type of encoded documents.
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Appender is implemented by codecs that can encode into a caller-owned buffer, which
// lets line-oriented writers reuse one buffer per stream.
type Appender interface {
	Append(dst []byte, v any) ([]byte, error)
}

// Default encodes HTTP bodies.
var Default Codec = GoJSON{}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	for _, c := range []Codec{GoJSON{}, DefaultCBOR} {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}
