package format

import (
	"encoding/binary"
	"fmt"

	"github.com/coronin/Crisprs/internal/hash"
	"github.com/coronin/Crisprs/sequence"
)

const (
	// MagicNumber identifies index files (ASCII "CRX1" on disk).
	MagicNumber uint32 = 0x31585243
	// Version is the current file format version.
	Version uint32 = 1

	// HeaderSize is the fixed size of the metadata header in bytes.
	HeaderSize = 128

	// TextWidth is the width of the assembly and species fields.
	TextWidth = 32

	checksumOffset = HeaderSize - 4
)

// Header flags.
const (
	FlagSpeciesID uint16 = 1 << iota
	FlagDenseIDs
	FlagExternalIDs
)

// Metadata describes an index: one per file, written once at build time.
type Metadata struct {
	Assembly     string
	Species      string
	SpeciesID    uint16
	HasSpeciesID bool

	// SeqLength is the number of bases in every record.
	SeqLength int
	// PAMWidth is the width of the per-record PAM field (0 disables it).
	PAMWidth int

	NumSeqs uint64
	FirstID uint64

	// DenseIDs is set when record i has identifier FirstID+i.
	DenseIDs bool
	// ExternalIDs is set when identifiers were taken from the input instead of assigned.
	ExternalIDs bool
}

// Layout returns the record layout implied by m.
func (m Metadata) Layout() (Layout, error) {
	return NewLayout(m.SeqLength, m.PAMWidth)
}

func (m Metadata) flags() uint16 {
	var f uint16
	if m.HasSpeciesID {
		f |= FlagSpeciesID
	}
	if m.DenseIDs {
		f |= FlagDenseIDs
	}
	if m.ExternalIDs {
		f |= FlagExternalIDs
	}
	return f
}

// EncodeHeader serializes m into a HeaderSize byte slice, including its checksum.
// Assembly and species names longer than TextWidth are truncated.
func EncodeHeader(m Metadata) ([]byte, error) {
	layout, err := m.Layout()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], MagicNumber)
	binary.LittleEndian.PutUint32(buf[4:8], Version)
	PutText(buf[8:40], m.Assembly)
	PutText(buf[40:72], m.Species)
	binary.LittleEndian.PutUint16(buf[72:74], m.SpeciesID)
	binary.LittleEndian.PutUint16(buf[74:76], m.flags())
	binary.LittleEndian.PutUint16(buf[76:78], uint16(m.SeqLength))
	buf[78] = sequence.BitsPerBase
	buf[79] = uint8(m.PAMWidth)
	binary.LittleEndian.PutUint64(buf[80:88], m.NumSeqs)
	binary.LittleEndian.PutUint64(buf[88:96], m.FirstID)
	binary.LittleEndian.PutUint32(buf[96:100], uint32(layout.Size()))
	binary.LittleEndian.PutUint32(buf[checksumOffset:], hash.CRC32C(buf[:checksumOffset]))
	return buf, nil
}

// DecodeHeader parses and validates the header at the start of buf.
func DecodeHeader(buf []byte) (Metadata, error) {
	if len(buf) < HeaderSize {
		return Metadata{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(buf))
	}
	buf = buf[:HeaderSize]

	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != MagicNumber {
		return Metadata{}, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != Version {
		return Metadata{}, fmt.Errorf("%w: got %d", ErrUnsupportedVersion, v)
	}
	want := binary.LittleEndian.Uint32(buf[checksumOffset:])
	if got := hash.CRC32C(buf[:checksumOffset]); got != want {
		return Metadata{}, fmt.Errorf("%w: expected 0x%08x, got 0x%08x", ErrHeaderChecksum, want, got)
	}
	if bpb := buf[78]; bpb != sequence.BitsPerBase {
		return Metadata{}, fmt.Errorf("%w: %d bits per base", ErrInvalidLayout, bpb)
	}

	flags := binary.LittleEndian.Uint16(buf[74:76])
	m := Metadata{
		Assembly:     Text(buf[8:40]),
		Species:      Text(buf[40:72]),
		SpeciesID:    binary.LittleEndian.Uint16(buf[72:74]),
		HasSpeciesID: flags&FlagSpeciesID != 0,
		SeqLength:    int(binary.LittleEndian.Uint16(buf[76:78])),
		PAMWidth:     int(buf[79]),
		NumSeqs:      binary.LittleEndian.Uint64(buf[80:88]),
		FirstID:      binary.LittleEndian.Uint64(buf[88:96]),
		DenseIDs:     flags&FlagDenseIDs != 0,
		ExternalIDs:  flags&FlagExternalIDs != 0,
	}

	layout, err := m.Layout()
	if err != nil {
		return Metadata{}, err
	}
	if rs := binary.LittleEndian.Uint32(buf[96:100]); int(rs) != layout.Size() {
		return Metadata{}, fmt.Errorf("%w: record size %d, layout implies %d", ErrInvalidLayout, rs, layout.Size())
	}
	return m, nil
}
