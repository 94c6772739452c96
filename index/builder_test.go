package index

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/internal/fs"
	"github.com/coronin/Crisprs/sequence"
	"github.com/coronin/Crisprs/testutil"
)

func buildConfig(inputs []string, output string) BuildConfig {
	return BuildConfig{
		Inputs:       inputs,
		Output:       output,
		Assembly:     "GRCh38",
		Species:      "Human",
		SpeciesID:    1,
		HasSpeciesID: true,
	}
}

func TestBuild_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	sites := testutil.NewRNG(42).Sites(500, 20)
	in := testutil.WriteCSV(t, dir, "sites.csv", sites, false)
	out := filepath.Join(dir, "sites.crx")

	stats, err := Build(context.Background(), buildConfig([]string{in}, out))
	require.NoError(t, err)
	assert.Equal(t, uint64(500), stats.Records)
	assert.True(t, stats.Dense)
	require.Len(t, stats.Files, 1)
	assert.Equal(t, uint64(500), stats.Files[0].Records)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, stats.Bytes, info.Size())
	assert.Equal(t, int64(format.HeaderSize+500*41), info.Size())

	idx, err := Open(out)
	require.NoError(t, err)
	defer idx.Close()

	meta := idx.Metadata()
	assert.Equal(t, "GRCh38", meta.Assembly)
	assert.Equal(t, "Human", meta.Species)
	assert.Equal(t, uint16(1), meta.SpeciesID)
	assert.True(t, meta.HasSpeciesID)
	assert.Equal(t, 20, meta.SeqLength)
	assert.Equal(t, uint64(1), meta.FirstID)
	assert.False(t, meta.ExternalIDs)
	require.Equal(t, 500, idx.Len())

	for _, s := range sites {
		rec, err := idx.RecordByID(s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, rec.ID)
		assert.Equal(t, s.Seq, sequence.Decode(rec.Seq))
		assert.Equal(t, s.Contig, rec.Contig)
		assert.Equal(t, s.Start, rec.Start)
		assert.Equal(t, s.Strand, rec.Strand.String())
		assert.Equal(t, s.PAM, rec.PAM)
	}
}

func TestBuild_MultipleInputsAndStdin(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.csv", "1,100,+,ACGTACGTACGTACGTACGT\n")
	out := filepath.Join(dir, "sites.crx")

	cfg := buildConfig([]string{a, "-"}, out)
	cfg.Stdin = strings.NewReader("\n# comment\n2,200,-,acgtacgtacgtacgtacgc,tgg,0x81\n")
	cfg.FirstID = 10
	stats, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, stats.Files, 2)
	assert.Equal(t, "<stdin>", stats.Files[1].Path)

	idx, err := Open(out)
	require.NoError(t, err)
	defer idx.Close()

	recs, err := idx.RecordsInRange(10, 2)
	require.NoError(t, err)
	assert.Equal(t, "1", recs[0].Contig)
	assert.Equal(t, format.Forward, recs[0].Strand)
	assert.Equal(t, "2", recs[1].Contig)
	assert.Equal(t, format.Reverse, recs[1].Strand)
	assert.Equal(t, "ACGTACGTACGTACGTACGC", recs[1].Seq.String())
	assert.Equal(t, "TGG", recs[1].PAM)
	assert.Equal(t, uint8(0x81), recs[1].Flags)
}

func TestBuild_ExternalIDs(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "sites.csv", strings.Join([]string{
		"102,chr1,300,+,TTTTACGTACGTACGTACGT",
		"100,chr1,100,+,ACGTACGTACGTACGTACGT",
		"101,chr1,200,-,GGGGACGTACGTACGTACGT",
	}, "\n"))
	out := filepath.Join(dir, "sites.crx")

	cfg := buildConfig([]string{in}, out)
	cfg.IDPolicy = External
	stats, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, stats.Dense)

	idx, err := Open(out)
	require.NoError(t, err)
	defer idx.Close()

	assert.True(t, idx.Metadata().ExternalIDs)
	assert.Equal(t, uint64(102), idx.ID(0))

	recs, err := idx.RecordsInRange(100, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for k, rec := range recs {
		assert.Equal(t, uint64(100+k), rec.ID)
		assert.Equal(t, uint32(100*(k+1)), rec.Start)
	}

	_, err = idx.RecordsInRange(100, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = idx.RecordsInRange(99, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = idx.RecordByID(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuild_ExternalDense(t *testing.T) {
	dir := t.TempDir()
	sites := testutil.NewRNG(3).Sites(20, 20)
	for i := range sites {
		sites[i].ID += 999
	}
	in := testutil.WriteCSV(t, dir, "sites.csv", sites, true)
	out := filepath.Join(dir, "sites.crx")

	cfg := buildConfig([]string{in}, out)
	cfg.IDPolicy = External
	stats, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, stats.Dense)

	idx, err := Open(out)
	require.NoError(t, err)
	defer idx.Close()
	assert.Equal(t, uint64(1000), idx.Metadata().FirstID)
	assert.IsType(t, denseLookup{}, idx.lookup)
}

func TestBuild_MalformedRecords(t *testing.T) {
	tests := []struct {
		name     string
		policy   IDPolicy
		content  string
		line     int
		sentinel error
	}{
		{"too few fields", Sequential, "chr1,100,+\n", 1, nil},
		{"too many fields", Sequential, "chr1,1,+,ACGTACGTACGTACGTACGT,AGG,0,extra\n", 1, nil},
		{"bad alphabet", Sequential, "chr1,1,+,ACGTACGTACGTACGTACGT\nchr1,2,+,ACGTACGTACGTACGTACGX\n", 2, sequence.ErrInvalidAlphabet},
		{"length mismatch", Sequential, "# header\nchr1,1,+,ACGT\n", 2, sequence.ErrLengthMismatch},
		{"bad strand", Sequential, "chr1,1,?,ACGTACGTACGTACGTACGT\n", 1, nil},
		{"bad start", Sequential, "chr1,-5,+,ACGTACGTACGTACGTACGT\n", 1, nil},
		{"long contig", Sequential, "chrUn_KI270742v1_x,1,+,ACGTACGTACGTACGTACGT\n", 1, format.ErrFieldTooLong},
		{"long pam", Sequential, "chr1,1,+,ACGTACGTACGTACGTACGT,NAGG\n", 1, format.ErrFieldTooLong},
		{"bad id", External, "x,chr1,1,+,ACGTACGTACGTACGTACGT\n", 1, nil},
		{"duplicate id", External, "7,chr1,1,+,ACGTACGTACGTACGTACGT\n7,chr1,2,+,ACGTACGTACGTACGTACGT\n", 2, ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := testutil.WriteFile(t, dir, "sites.csv", tt.content)
			out := filepath.Join(dir, "sites.crx")

			cfg := buildConfig([]string{in}, out)
			cfg.IDPolicy = tt.policy
			_, err := Build(context.Background(), cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRecord)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}

			var mre *MalformedRecordError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, in, mre.File)
			assert.Equal(t, tt.line, mre.Line)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "only the input file may remain")
		})
	}
}

func TestBuild_FailureKeepsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sites.crx")
	require.NoError(t, os.WriteFile(out, []byte("previous"), 0o644))

	bad := testutil.WriteFile(t, dir, "bad.csv", "chr1,1,+,ACGTACGTACGTACGTACGT\nchr1,2\n")
	_, err := Build(context.Background(), buildConfig([]string{bad}, out))
	require.ErrorIs(t, err, ErrMalformedRecord)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))
}

func TestBuild_WriteFault(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteCSV(t, dir, "sites.csv", testutil.NewRNG(1).Sites(100, 20), false)
	out := filepath.Join(dir, "sites.crx")

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("sites.crx", fs.Fault{FailAfterBytes: 1024})
	cfg := buildConfig([]string{in}, out)
	cfg.FS = ffs

	_, err := Build(context.Background(), cfg)
	require.ErrorIs(t, err, fs.ErrInjected)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestBuild_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Build(context.Background(), buildConfig([]string{filepath.Join(dir, "nope.csv")}, filepath.Join(dir, "o.crx")))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Build(context.Background(), buildConfig(nil, filepath.Join(dir, "o.crx")))
	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestBuild_Canceled(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteCSV(t, dir, "sites.csv", testutil.NewRNG(9).Sites(cancelCheckEvery+10, 20), false)
	out := filepath.Join(dir, "sites.crx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, buildConfig([]string{in}, out))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestBuild_CompressedInputs(t *testing.T) {
	dir := t.TempDir()
	plain := testutil.CSV(testutil.NewRNG(5).Sites(200, 20), false)

	compress := map[string]func(*bytes.Buffer) error{
		"sites.csv.gz": func(b *bytes.Buffer) error {
			w := gzip.NewWriter(b)
			if _, err := w.Write([]byte(plain)); err != nil {
				return err
			}
			return w.Close()
		},
		"sites.csv.zst": func(b *bytes.Buffer) error {
			w, err := zstd.NewWriter(b)
			if err != nil {
				return err
			}
			if _, err := w.Write([]byte(plain)); err != nil {
				return err
			}
			return w.Close()
		},
		"sites.csv.lz4": func(b *bytes.Buffer) error {
			w := lz4.NewWriter(b)
			if _, err := w.Write([]byte(plain)); err != nil {
				return err
			}
			return w.Close()
		},
	}

	ref := filepath.Join(dir, "ref.crx")
	_, err := Build(context.Background(), buildConfig([]string{testutil.WriteFile(t, dir, "sites.csv", plain)}, ref))
	require.NoError(t, err)
	want, err := os.ReadFile(ref)
	require.NoError(t, err)

	for name, fn := range compress {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, fn(&buf))
			in := testutil.WriteFile(t, dir, name, buf.String())
			out := filepath.Join(dir, name+".crx")

			_, err := Build(context.Background(), buildConfig([]string{in}, out))
			require.NoError(t, err)
			got, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestBuild_NoPAM(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "sites.csv", "chr1,1,+,ACGTACGTACGTACGTACGT,AGG\n")
	out := filepath.Join(dir, "sites.crx")

	cfg := buildConfig([]string{in}, out)
	cfg.NoPAM = true
	_, err := Build(context.Background(), cfg)
	require.NoError(t, err)

	idx, err := Open(out)
	require.NoError(t, err)
	defer idx.Close()
	assert.Equal(t, 0, idx.Metadata().PAMWidth)
	assert.Equal(t, 38, idx.Layout().Size())
	rec, err := idx.RecordByID(1)
	require.NoError(t, err)
	assert.Empty(t, rec.PAM)
}
