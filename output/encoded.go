package output

import (
	"github.com/coronin/Crisprs/codec"
	"github.com/coronin/Crisprs/search"
)

// jsonlWriter writes one JSON object per query, newline terminated.
type jsonlWriter struct {
	base
	codec codec.GoJSON
	buf   []byte
}

func newJSONLWriter(b base) *jsonlWriter { return &jsonlWriter{base: b} }

func (j *jsonlWriter) WriteResult(res search.QueryResult) error {
	if j.skip(res) {
		return nil
	}
	b, err := j.codec.Append(j.buf[:0], NewResult(res))
	if err != nil {
		return err
	}
	b = append(b, '\n')
	j.buf = b
	_, err = j.w.Write(b)
	return err
}

// cborWriter writes one CBOR data item per query.
type cborWriter struct {
	base
	codec codec.Codec
}

func newCBORWriter(b base) *cborWriter { return &cborWriter{base: b, codec: codec.DefaultCBOR} }

func (c *cborWriter) WriteResult(res search.QueryResult) error {
	if c.skip(res) {
		return nil
	}
	b, err := c.codec.Marshal(NewResult(res))
	if err != nil {
		return err
	}
	_, err = c.w.Write(b)
	return err
}
