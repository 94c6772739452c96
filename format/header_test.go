package format

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata() Metadata {
	return Metadata{
		Assembly:     "GRCh38",
		Species:      "Human",
		SpeciesID:    1,
		HasSpeciesID: true,
		SeqLength:    20,
		PAMWidth:     3,
		NumSeqs:      12345,
		FirstID:      1,
		DenseIDs:     true,
	}
}

func TestHeader_RoundTrip(t *testing.T) {
	m := testMetadata()
	buf, err := EncodeHeader(m)
	require.NoError(t, err)
	require.Len(t, buf, HeaderSize)
	assert.Equal(t, "CRX1", string(buf[:4]))

	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestHeader_RecordSize(t *testing.T) {
	buf, err := EncodeHeader(testMetadata())
	require.NoError(t, err)
	assert.Equal(t, uint32(41), binary.LittleEndian.Uint32(buf[96:100]))
}

func TestHeader_MaxWidthText(t *testing.T) {
	m := testMetadata()
	m.Assembly = "A234567890123456789012345678901Z"
	m.Species = "Mus_musculus_castaneus_and_more_and_more"

	buf, err := EncodeHeader(m)
	require.NoError(t, err)
	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, m.Assembly, got.Assembly)
	assert.Equal(t, m.Species[:TextWidth], got.Species)
}

func TestHeader_Errors(t *testing.T) {
	valid, err := EncodeHeader(testMetadata())
	require.NoError(t, err)

	corrupt := func(f func(b []byte)) []byte {
		b := append([]byte(nil), valid...)
		f(b)
		return b
	}

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"short", valid[:HeaderSize-1], ErrShortHeader},
		{"magic", corrupt(func(b []byte) { b[0] = 'X' }), ErrInvalidMagic},
		{"version", corrupt(func(b []byte) { b[4] = 9 }), ErrUnsupportedVersion},
		{"checksum", corrupt(func(b []byte) { b[10] ^= 0xFF }), ErrHeaderChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHeader(tt.buf)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeHeader_InvalidLayout(t *testing.T) {
	m := testMetadata()
	m.SeqLength = 0
	_, err := EncodeHeader(m)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	m = testMetadata()
	m.PAMWidth = MaxPAMWidth + 1
	_, err = EncodeHeader(m)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestPutText_TruncatesOnRuneBoundary(t *testing.T) {
	dst := make([]byte, 4)
	n := PutText(dst, "abcé")
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", Text(dst))

	n = PutText(dst, "ab")
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{'a', 'b', 0, 0}, dst)
}
