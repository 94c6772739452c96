package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	rng := NewRNG(4711)
	s := rng.Sequence(20)
	assert.Len(t, s, 20)
	assert.Empty(t, strings.Trim(s, "ACGT"))
}

func TestMutate(t *testing.T) {
	rng := NewRNG(4711)
	for k := 0; k <= 5; k++ {
		s := rng.Sequence(20)
		assert.Equal(t, k, Mismatches(s, rng.Mutate(s, k)))
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Sequence(30)
	rng.Reset()
	assert.Equal(t, a, rng.Sequence(30))
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestSites_CSV(t *testing.T) {
	sites := NewRNG(1).Sites(10, 20)
	require.Len(t, sites, 10)
	for i, s := range sites {
		assert.Equal(t, uint64(i+1), s.ID)
		assert.Len(t, s.Seq, 20)
	}

	csv := CSV(sites[:1], true)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.True(t, strings.HasPrefix(lines[1], "1,chr"))
}
