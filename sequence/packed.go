package sequence

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"
)

const (
	// MaxLength is the longest sequence a Packed value can hold.
	MaxLength = 64

	// DefaultLength is the guide length used by CRISPR site indexes.
	DefaultLength = 20

	// BitsPerBase is the width of a base lane in the base plane.
	BitsPerBase = 2

	basesPerWord = 64 / BitsPerBase
	maxWords     = MaxLength / basesPerWord

	lowLanes = 0x5555555555555555
)

const (
	codeA = iota
	codeC
	codeG
	codeT
	codeN
	codeInvalid = 0xFF
)

var (
	alphabet = [4]byte{'A', 'C', 'G', 'T'}

	baseCodes [256]byte
)

func init() {
	for i := range baseCodes {
		baseCodes[i] = codeInvalid
	}
	for code, c := range alphabet {
		baseCodes[c] = byte(code)
		baseCodes[c+('a'-'A')] = byte(code)
	}
	baseCodes['N'] = codeN
	baseCodes['n'] = codeN
}

// Packed is a bit-packed nucleotide sequence of at most MaxLength bases.
//
// Packed is a comparable value type: two Packed values are == iff they encode the same
// sequence.
type Packed struct {
	words [maxWords]uint64
	ambig [maxWords]uint64
	n     uint8
}

// Encode packs s, which must be exactly length bases long.
//
// Lowercase bases are accepted and canonicalised to uppercase.
func Encode(s string, length int) (Packed, error) {
	if length <= 0 || length > MaxLength {
		return Packed{}, fmt.Errorf("%w: %d (max %d)", ErrInvalidLength, length, MaxLength)
	}
	if len(s) != length {
		return Packed{}, fmt.Errorf("%w: expected %d bases, got %d", ErrLengthMismatch, length, len(s))
	}

	p := Packed{n: uint8(length)}
	for i := 0; i < length; i++ {
		code := baseCodes[s[i]]
		w, shift := i/basesPerWord, uint(i%basesPerWord)*BitsPerBase
		switch code {
		case codeInvalid:
			return Packed{}, fmt.Errorf("%w: %q at position %d", ErrInvalidAlphabet, s[i], i)
		case codeN:
			p.ambig[w] |= 1 << shift
		default:
			p.words[w] |= uint64(code) << shift
		}
	}
	return p, nil
}

// MustEncode encodes s using its own length and panics on error.
// Intended for tests and constants.
func MustEncode(s string) Packed {
	p, err := Encode(s, len(s))
	if err != nil {
		panic(err)
	}
	return p
}

// Decode returns the uppercase text form of p. It is the inverse of Encode.
func Decode(p Packed) string {
	var sb strings.Builder
	sb.Grow(int(p.n))
	for i := 0; i < int(p.n); i++ {
		w, shift := i/basesPerWord, uint(i%basesPerWord)*BitsPerBase
		if p.ambig[w]>>shift&1 != 0 {
			sb.WriteByte('N')
			continue
		}
		sb.WriteByte(alphabet[p.words[w]>>shift&3])
	}
	return sb.String()
}

// Distance returns the number of positions at which a and b differ.
//
// a and b are expected to share a length; lanes past the end of the shorter
// sequence are zero and compare as equal.
func Distance(a, b Packed) int {
	x0 := a.words[0] ^ b.words[0]
	x1 := a.words[1] ^ b.words[1]
	d0 := (x0 | x0>>1 | (a.ambig[0] ^ b.ambig[0])) & lowLanes
	d1 := (x1 | x1>>1 | (a.ambig[1] ^ b.ambig[1])) & lowLanes
	return bits.OnesCount64(d0) + bits.OnesCount64(d1)
}

// ReverseComplement returns the reverse complement of p. N stays N.
func ReverseComplement(p Packed) Packed {
	rc := Packed{n: p.n}
	n := int(p.n)
	for i := 0; i < n; i++ {
		w, shift := i/basesPerWord, uint(i%basesPerWord)*BitsPerBase
		j := n - 1 - i
		rw, rshift := j/basesPerWord, uint(j%basesPerWord)*BitsPerBase
		if p.ambig[w]>>shift&1 != 0 {
			rc.ambig[rw] |= 1 << rshift
			continue
		}
		rc.words[rw] |= (3 - p.words[w]>>shift&3) << rshift
	}
	return rc
}

// Len returns the number of bases in p.
func (p Packed) Len() int { return int(p.n) }

// HasAmbiguity reports whether p contains at least one N.
func (p Packed) HasAmbiguity() bool {
	return p.ambig[0]|p.ambig[1] != 0
}

// String implements fmt.Stringer.
func (p Packed) String() string { return Decode(p) }

// BasePlaneSize returns the number of bytes the base plane of an n-base sequence occupies.
func BasePlaneSize(n int) int { return (n*BitsPerBase + 7) / 8 }

// AmbiguityPlaneSize returns the number of bytes the ambiguity plane of an n-base
// sequence occupies (one bit per base).
func AmbiguityPlaneSize(n int) int { return (n + 7) / 8 }

// PlanesSize returns the total serialized size of an n-base sequence.
func PlanesSize(n int) int { return BasePlaneSize(n) + AmbiguityPlaneSize(n) }

// AppendPlanes appends the serialized base plane followed by the ambiguity plane of p.
func AppendPlanes(dst []byte, p Packed) []byte {
	n := int(p.n)
	for j := 0; j < BasePlaneSize(n); j++ {
		dst = append(dst, byte(p.words[j/8]>>(uint(j%8)*8)))
	}
	compact := uint64(compactLanes(p.ambig[0])) | uint64(compactLanes(p.ambig[1]))<<32
	for j := 0; j < AmbiguityPlaneSize(n); j++ {
		dst = append(dst, byte(compact>>(uint(j)*8)))
	}
	return dst
}

// LoadPlanes decodes an n-base sequence from planes previously written by AppendPlanes.
// base must hold BasePlaneSize(n) bytes and ambig AmbiguityPlaneSize(n) bytes.
// Bits past the end of the sequence are ignored.
func LoadPlanes(base, ambig []byte, n int) Packed {
	p := Packed{n: uint8(n)}
	p.words[0] = loadWord(base)
	if len(base) > 8 {
		p.words[1] = loadWord(base[8:])
	}

	var compact uint64
	for j, b := range ambig {
		compact |= uint64(b) << (uint(j) * 8)
	}
	if compact != 0 {
		p.ambig[0] = spreadLanes(uint32(compact))
		p.ambig[1] = spreadLanes(uint32(compact >> 32))
	}

	for w := range p.words {
		m := laneMask(n, w)
		p.words[w] &= m
		p.ambig[w] &= m
	}
	return p
}

func loadWord(b []byte) uint64 {
	if len(b) >= 8 {
		return binary.LittleEndian.Uint64(b)
	}
	var w uint64
	for j, c := range b {
		w |= uint64(c) << (uint(j) * 8)
	}
	return w
}

// laneMask returns the bits of word w that belong to an n-base sequence.
func laneMask(n, w int) uint64 {
	lanes := n - w*basesPerWord
	switch {
	case lanes <= 0:
		return 0
	case lanes >= basesPerWord:
		return ^uint64(0)
	default:
		return 1<<(uint(lanes)*BitsPerBase) - 1
	}
}

// spreadLanes moves bit i of v to bit 2i.
func spreadLanes(v uint32) uint64 {
	x := uint64(v)
	x = (x | x<<16) & 0x0000FFFF0000FFFF
	x = (x | x<<8) & 0x00FF00FF00FF00FF
	x = (x | x<<4) & 0x0F0F0F0F0F0F0F0F
	x = (x | x<<2) & 0x3333333333333333
	x = (x | x<<1) & 0x5555555555555555
	return x
}

// compactLanes is the inverse of spreadLanes.
func compactLanes(x uint64) uint32 {
	x &= 0x5555555555555555
	x = (x | x>>1) & 0x3333333333333333
	x = (x | x>>2) & 0x0F0F0F0F0F0F0F0F
	x = (x | x>>4) & 0x00FF00FF00FF00FF
	x = (x | x>>8) & 0x0000FFFF0000FFFF
	x = (x | x>>16) & 0x00000000FFFFFFFF
	return uint32(x)
}
