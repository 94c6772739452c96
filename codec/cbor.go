package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR is a codec backed by github.com/fxamacker/cbor using core deterministic
// encoding, so equal results always produce equal bytes.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// DefaultCBOR is the shared deterministic CBOR codec.
var DefaultCBOR = MustNewCBOR()

// NewCBOR builds a deterministic CBOR codec.
func NewCBOR() (*CBOR, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encode mode: %w", err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decode mode: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

// MustNewCBOR is NewCBOR that panics on error.
func MustNewCBOR() *CBOR {
	c, err := NewCBOR()
	if err != nil {
		panic(err)
	}
	return c
}

// Marshal encodes the value to CBOR.
func (c *CBOR) Marshal(v any) ([]byte, error) { return c.enc.Marshal(v) }

// Unmarshal decodes the CBOR data into v.
func (c *CBOR) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }

func (c *CBOR) Name() string        { return "cbor" }
func (c *CBOR) ContentType() string { return "application/cbor" }
