package sequence

import "errors"

var (
	// ErrInvalidAlphabet is returned when a character outside A, C, G, T and N is encoded.
	ErrInvalidAlphabet = errors.New("invalid nucleotide")

	// ErrLengthMismatch is returned when a sequence does not have the configured length.
	ErrLengthMismatch = errors.New("sequence length mismatch")

	// ErrInvalidLength is returned when the configured length is outside [1, MaxLength].
	ErrInvalidLength = errors.New("invalid sequence length")
)
