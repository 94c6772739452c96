package format

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/coronin/Crisprs/sequence"
)

// ContigWidth is the width of the per-record contig name field.
const ContigWidth = 16

// MaxPAMWidth is the widest PAM field a header can describe.
const MaxPAMWidth = 8

// Strand is the orientation of a site relative to the reference.
type Strand uint8

const (
	// Forward is the reference strand (PAM to the right of the protospacer).
	Forward Strand = iota
	// Reverse is the complementary strand.
	Reverse
)

// String returns "+" or "-".
func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// ParseStrand accepts "+", "-", "1" (PAM right, forward), "0" (reverse), "F", "R",
// "forward" and "reverse" (case insensitive).
func ParseStrand(s string) (Strand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "+", "1", "f", "forward":
		return Forward, nil
	case "-", "0", "r", "reverse":
		return Reverse, nil
	default:
		return 0, fmt.Errorf("invalid strand %q", s)
	}
}

// Record is one candidate site.
type Record struct {
	ID     uint64
	Contig string
	Start  uint32
	Strand Strand
	Flags  uint8
	PAM    string
	Seq    sequence.Packed
}

// Layout describes the fixed-size encoding of a site record for one sequence length
// and PAM width.
type Layout struct {
	seqLength int
	pamWidth  int

	contigOff int
	baseOff   int
	ambigOff  int
	size      int
}

const (
	idOff     = 0
	startOff  = 8
	strandOff = 12
	flagsOff  = 13
	pamOff    = 14
)

// NewLayout returns the record layout for seqLength-base sequences and a pamWidth-byte
// PAM field.
func NewLayout(seqLength, pamWidth int) (Layout, error) {
	if seqLength <= 0 || seqLength > sequence.MaxLength {
		return Layout{}, fmt.Errorf("%w: sequence length %d", ErrInvalidLayout, seqLength)
	}
	if pamWidth < 0 || pamWidth > MaxPAMWidth {
		return Layout{}, fmt.Errorf("%w: pam width %d", ErrInvalidLayout, pamWidth)
	}
	l := Layout{seqLength: seqLength, pamWidth: pamWidth}
	l.contigOff = pamOff + pamWidth
	l.baseOff = l.contigOff + ContigWidth
	l.ambigOff = l.baseOff + sequence.BasePlaneSize(seqLength)
	l.size = l.ambigOff + sequence.AmbiguityPlaneSize(seqLength)
	return l, nil
}

// Size returns the encoded size of one record in bytes.
func (l Layout) Size() int { return l.size }

// SeqLength returns the number of bases per record.
func (l Layout) SeqLength() int { return l.seqLength }

// PAMWidth returns the width of the PAM field.
func (l Layout) PAMWidth() int { return l.pamWidth }

// Append encodes r and appends it to dst.
func (l Layout) Append(dst []byte, r Record) ([]byte, error) {
	if r.Seq.Len() != l.seqLength {
		return dst, fmt.Errorf("%w: expected %d bases, got %d", sequence.ErrLengthMismatch, l.seqLength, r.Seq.Len())
	}
	if len(r.Contig) > ContigWidth {
		return dst, fmt.Errorf("%w: contig %q exceeds %d bytes", ErrFieldTooLong, r.Contig, ContigWidth)
	}
	if len(r.PAM) > l.pamWidth {
		return dst, fmt.Errorf("%w: pam %q exceeds %d bytes", ErrFieldTooLong, r.PAM, l.pamWidth)
	}

	start := len(dst)
	dst = append(dst, make([]byte, l.baseOff)...)
	b := dst[start:]
	binary.LittleEndian.PutUint64(b[idOff:], r.ID)
	binary.LittleEndian.PutUint32(b[startOff:], r.Start)
	b[strandOff] = byte(r.Strand)
	b[flagsOff] = r.Flags
	PutText(b[pamOff:l.contigOff], r.PAM)
	PutText(b[l.contigOff:l.baseOff], r.Contig)
	return sequence.AppendPlanes(dst, r.Seq), nil
}

// Decode decodes the record held in b, which must be at least Size bytes.
func (l Layout) Decode(b []byte) Record {
	return Record{
		ID:     l.ID(b),
		Start:  binary.LittleEndian.Uint32(b[startOff:]),
		Strand: Strand(b[strandOff]),
		Flags:  b[flagsOff],
		PAM:    Text(b[pamOff:l.contigOff]),
		Contig: Text(b[l.contigOff:l.baseOff]),
		Seq:    l.Packed(b),
	}
}

// ID returns the identifier of the record held in b.
func (l Layout) ID(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b[idOff:])
}

// Packed returns the packed sequence of the record held in b without decoding the
// other fields.
func (l Layout) Packed(b []byte) sequence.Packed {
	return sequence.LoadPlanes(b[l.baseOff:l.ambigOff], b[l.ambigOff:l.size], l.seqLength)
}
