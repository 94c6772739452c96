package format

import "errors"

var (
	// ErrShortHeader is returned when fewer than HeaderSize bytes are available.
	ErrShortHeader = errors.New("short header")

	// ErrInvalidMagic is returned when the file does not start with the index magic.
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrUnsupportedVersion is returned for an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrHeaderChecksum is returned when the header CRC does not match.
	ErrHeaderChecksum = errors.New("header checksum mismatch")

	// ErrInvalidLayout is returned when header fields describe an impossible record layout.
	ErrInvalidLayout = errors.New("invalid record layout")

	// ErrFieldTooLong is returned when a text value does not fit its fixed-width field.
	ErrFieldTooLong = errors.New("field too long")
)
