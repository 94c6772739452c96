package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const bases = "ACGT"

// RNG is a seeded, goroutine-safe random source.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
	seed int64
}

// NewRNG returns an RNG with the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed)), seed: seed}
}

// Reset rewinds the RNG to its seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a number in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Sequence returns n random bases from ACGT.
func (r *RNG) Sequence(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = bases[r.rand.Intn(len(bases))]
	}
	return string(b)
}

// Mutate returns s with exactly k positions changed to a different base.
func (r *RNG) Mutate(s string, k int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := []byte(s)
	for _, pos := range r.rand.Perm(len(b))[:k] {
		for {
			c := bases[r.rand.Intn(len(bases))]
			if c != b[pos] {
				b[pos] = c
				break
			}
		}
	}
	return string(b)
}

// Site is one line of a CSV site list.
type Site struct {
	ID     uint64
	Contig string
	Start  uint32
	Strand string
	Seq    string
	PAM    string
}

// Sites returns n random sites of seqLen bases with identifiers 1..n. Every third
// site is a near copy of an earlier one so that searches find off-targets.
func (r *RNG) Sites(n, seqLen int) []Site {
	sites := make([]Site, n)
	for i := range sites {
		seq := r.Sequence(seqLen)
		if i >= 3 && i%3 == 0 {
			seq = r.Mutate(sites[r.Intn(i)].Seq, r.Intn(4))
		}
		strand := "+"
		if r.Intn(2) == 1 {
			strand = "-"
		}
		sites[i] = Site{
			ID:     uint64(i + 1),
			Contig: fmt.Sprintf("chr%d", 1+r.Intn(22)),
			Start:  uint32(r.Intn(250_000_000)),
			Strand: strand,
			Seq:    seq,
			PAM:    r.Sequence(1) + "GG",
		}
	}
	return sites
}

// CSV renders sites as a site list. With external set the identifier column is written.
func CSV(sites []Site, external bool) string {
	var sb strings.Builder
	sb.WriteString("# generated sites\n")
	for _, s := range sites {
		if external {
			fmt.Fprintf(&sb, "%d,", s.ID)
		}
		fmt.Fprintf(&sb, "%s,%d,%s,%s", s.Contig, s.Start, s.Strand, s.Seq)
		if s.PAM != "" {
			fmt.Fprintf(&sb, ",%s", s.PAM)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteCSV writes sites to dir/name and returns the path.
func WriteCSV(tb testing.TB, dir, name string, sites []Site, external bool) string {
	tb.Helper()
	return WriteFile(tb, dir, name, CSV(sites, external))
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Mismatches counts differing positions of two equal-length strings.
func Mismatches(a, b string) int {
	n := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}
