package index

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord matches every MalformedRecordError.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDuplicateID is returned when two input records carry the same identifier.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrCorruptIndex is returned when an index file fails validation.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrNotFound is returned when an identifier is absent from the index.
	ErrNotFound = errors.New("identifier not found")

	// ErrOutOfRange is returned when a range is empty or reaches identifiers the index
	// does not hold.
	ErrOutOfRange = errors.New("range out of bounds")

	// ErrNoInputs is returned by Build without input files.
	ErrNoInputs = errors.New("no input files")

	// ErrClosed is returned by operations on a closed Index.
	ErrClosed = errors.New("index is closed")
)

// MalformedRecordError reports an input line that could not be turned into a record.
type MalformedRecordError struct {
	File string
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s:%d: malformed record: %v", e.File, e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptIndex, fmt.Sprintf(format, args...))
}
