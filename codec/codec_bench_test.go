package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type benchMatch struct {
	TargetID uint64 `json:"target_id" cbor:"target_id"`
	Distance int    `json:"distance" cbor:"distance"`
	Contig   string `json:"chr" cbor:"chr"`
	Start    uint32 `json:"start" cbor:"start"`
	Strand   string `json:"strand" cbor:"strand"`
}

type benchResult struct {
	QueryID uint64       `json:"query_id" cbor:"query_id"`
	Matches []benchMatch `json:"matches" cbor:"matches"`
	Summary []int        `json:"summary" cbor:"summary"`
}

func sampleResult() benchResult {
	r := benchResult{QueryID: 1234, Summary: []int{1, 0, 3, 12, 40}}
	for i := range 56 {
		r.Matches = append(r.Matches, benchMatch{
			TargetID: uint64(1000 + i), Distance: i % 5, Contig: "chr7", Start: uint32(i * 977), Strand: "+",
		})
	}
	return r
}

func mustMarshal(t *testing.T, c Codec, v any) []byte {
	t.Helper()
	b, err := c.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "cbor"} {
		c, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
		assert.NotEmpty(t, c.ContentType())

		want := sampleResult()
		var got benchResult
		require.NoError(t, c.Unmarshal(mustMarshal(t, c, want), &got))
		assert.Equal(t, want, got)
	}
	_, err := ByName("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestCBOR_Deterministic(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	first := mustMarshal(t, DefaultCBOR, m)
	for range 10 {
		assert.Equal(t, first, mustMarshal(t, DefaultCBOR, m))
	}
}

func TestGoJSON_Append(t *testing.T) {
	var c Appender = GoJSON{}
	out, err := c.Append([]byte("x"), map[string]string{"chr": "<1>"})
	require.NoError(t, err)
	assert.Equal(t, `x{"chr":"<1>"}`, string(out))

	out, err = c.Append([]byte("x"), make(chan int))
	assert.Error(t, err)
	assert.Equal(t, "x", string(out))
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func BenchmarkCodec_Marshal_Result(b *testing.B) {
	r := sampleResult()
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, r) })
	b.Run("cbor", func(b *testing.B) { benchmarkCodecMarshal(b, DefaultCBOR, r) })
}
