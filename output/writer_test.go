package output

import (
	"bufio"
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/search"
	"github.com/coronin/Crisprs/sequence"
)

func site(id uint64, contig string, start uint32, strand format.Strand, seq string) format.Record {
	return format.Record{ID: id, Contig: contig, Start: start, Strand: strand, PAM: "AGG", Seq: sequence.MustEncode(seq)}
}

func sampleResults() []search.QueryResult {
	q := site(1, "chr1", 100, format.Forward, "ACGTACGTACGTACGTACGT")
	t := site(2, "chr2", 200, format.Reverse, "ACGTACGTACGTACGTACGC")
	return []search.QueryResult{
		{
			QueryID: 1,
			Query:   q,
			Matches: []search.Match{
				{QueryID: 1, TargetID: 1, Distance: 0, Target: q},
				{QueryID: 1, TargetID: 2, Distance: 1, Reverse: true, Target: t},
			},
			Summary: []int{1, 1},
		},
		{QueryID: 9, Err: errors.New("unknown query id: 9")},
	}
}

func render(t *testing.T, name string, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := New(name, &buf, opts)
	require.NoError(t, err)
	for _, res := range sampleResults() {
		require.NoError(t, w.WriteResult(res))
	}
	require.NoError(t, w.Flush())
	return buf.String()
}

func TestTSV(t *testing.T) {
	var logs bytes.Buffer
	got := render(t, FormatTSV, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	assert.Equal(t, "1\t1\t0\tchr1\t100\t+\tfwd\n1\t2\t1\tchr2\t200\t-\trev\n", got)
	assert.Contains(t, logs.String(), "query_id=9")
}

func TestSummary(t *testing.T) {
	got := render(t, FormatSummary, Options{SpeciesID: 4, HasSpeciesID: true})
	assert.Equal(t, "1\t4\t{1,2}\t{0: 1, 1: 1}\n", got)

	got = render(t, FormatSummary, Options{})
	assert.Equal(t, "1\t\\N\t{1,2}\t{0: 1, 1: 1}\n", got)
}

func TestSummary_TooManyIDs(t *testing.T) {
	res := search.QueryResult{QueryID: 5, Summary: []int{0, MaxSummaryIDs + 1}}
	for i := 0; i <= MaxSummaryIDs; i++ {
		res.Matches = append(res.Matches, search.Match{QueryID: 5, TargetID: uint64(i), Distance: 1})
	}
	var buf bytes.Buffer
	w, err := New(FormatSummary, &buf, Options{SpeciesID: 1, HasSpeciesID: true})
	require.NoError(t, err)
	require.NoError(t, w.WriteResult(res))
	require.NoError(t, w.Flush())
	assert.Equal(t, "5\t1\t\\N\t{0: 0, 1: 2001}\n", buf.String())
}

func TestJSONL(t *testing.T) {
	got := render(t, FormatJSONL, Options{})
	sc := bufio.NewScanner(strings.NewReader(got))
	var lines []Result
	for sc.Scan() {
		var r Result
		require.NoError(t, gojson.Unmarshal(sc.Bytes(), &r))
		lines = append(lines, r)
	}
	require.Len(t, lines, 1)
	r := lines[0]
	assert.Equal(t, uint64(1), r.QueryID)
	require.NotNil(t, r.Query)
	assert.Equal(t, "ACGTACGTACGTACGTACGT", r.Query.Seq)
	require.Len(t, r.Matches, 2)
	assert.Equal(t, "rev", r.Matches[1].Orientation)
	assert.Equal(t, "chr2", r.Matches[1].Target.Contig)
	assert.Equal(t, "-", r.Matches[1].Target.Strand)
	assert.Equal(t, []int{1, 1}, r.Summary)
}

func TestCBOR(t *testing.T) {
	got := render(t, FormatCBOR, Options{})
	dec := cbor.NewDecoder(strings.NewReader(got))
	var r Result
	require.NoError(t, dec.Decode(&r))
	assert.Equal(t, uint64(1), r.QueryID)
	assert.Len(t, r.Matches, 2)
	assert.Equal(t, uint64(2), r.Matches[1].TargetID)
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("xml", &bytes.Buffer{}, Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.True(t, IsValidFormat("cbor"))
	assert.False(t, IsValidFormat("xml"))
}

func TestNewResult_Error(t *testing.T) {
	r := NewResult(search.QueryResult{QueryID: 3, Err: errors.New("boom")})
	assert.Equal(t, "boom", r.Error)
	assert.Nil(t, r.Matches)
}

func TestResult_QueryResult(t *testing.T) {
	want := sampleResults()
	got, err := NewResult(want[0]).QueryResult()
	require.NoError(t, err)
	assert.Equal(t, want[0], got)

	failed, err := NewResult(want[1]).QueryResult()
	require.NoError(t, err)
	assert.EqualError(t, failed.Err, "unknown query id: 9")

	bad := NewResult(want[0])
	bad.Matches[0].Target.Seq = "ACGX"
	_, err = bad.QueryResult()
	assert.ErrorIs(t, err, sequence.ErrInvalidAlphabet)
}
