package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coronin/Crisprs/sequence"
)

func TestLayout_Size(t *testing.T) {
	l, err := NewLayout(20, 3)
	require.NoError(t, err)
	assert.Equal(t, 41, l.Size())

	l, err = NewLayout(20, 0)
	require.NoError(t, err)
	assert.Equal(t, 38, l.Size())

	l, err = NewLayout(64, 8)
	require.NoError(t, err)
	assert.Equal(t, 30+8+16+8, l.Size())
}

func TestLayout_RoundTrip(t *testing.T) {
	l, err := NewLayout(20, 3)
	require.NoError(t, err)

	records := []Record{
		{ID: 1, Contig: "1", Start: 100, Strand: Forward, PAM: "AGG", Seq: sequence.MustEncode("GCTGTCCTGAAGTGGACATA")},
		{ID: 1 << 40, Contig: "chrUn_KI270742v1", Start: 4294967295, Strand: Reverse, Flags: 0x81, PAM: "TGG", Seq: sequence.MustEncode("NCTGTCCTGAAGTGGACATN")},
		{ID: 7, Contig: "X", Strand: Forward, Seq: sequence.MustEncode("AAAAAAAAAAAAAAAAAAAA")},
	}

	var buf []byte
	for _, r := range records {
		buf, err = l.Append(buf, r)
		require.NoError(t, err)
	}
	require.Len(t, buf, len(records)*l.Size())

	for i, want := range records {
		b := buf[i*l.Size() : (i+1)*l.Size()]
		assert.Equal(t, want, l.Decode(b))
		assert.Equal(t, want.ID, l.ID(b))
		assert.Equal(t, want.Seq, l.Packed(b))
	}
}

func TestLayout_AppendErrors(t *testing.T) {
	l, err := NewLayout(20, 3)
	require.NoError(t, err)
	seq := sequence.MustEncode("GCTGTCCTGAAGTGGACATA")

	_, err = l.Append(nil, Record{Seq: sequence.MustEncode("ACGT")})
	assert.ErrorIs(t, err, sequence.ErrLengthMismatch)

	_, err = l.Append(nil, Record{Contig: "chromosome_name_too_long", Seq: seq})
	assert.ErrorIs(t, err, ErrFieldTooLong)

	_, err = l.Append(nil, Record{PAM: "NAGG", Seq: seq})
	assert.ErrorIs(t, err, ErrFieldTooLong)
}

func TestParseStrand(t *testing.T) {
	for _, s := range []string{"+", "1", "F", "forward"} {
		got, err := ParseStrand(s)
		require.NoError(t, err)
		assert.Equal(t, Forward, got, s)
	}
	for _, s := range []string{"-", "0", "r", "Reverse"} {
		got, err := ParseStrand(s)
		require.NoError(t, err)
		assert.Equal(t, Reverse, got, s)
	}
	_, err := ParseStrand("?")
	assert.Error(t, err)

	assert.Equal(t, "+", Forward.String())
	assert.Equal(t, "-", Reverse.String())
}
