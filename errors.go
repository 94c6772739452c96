package crisprs

import (
	"errors"
	"fmt"

	"github.com/coronin/Crisprs/blobstore"
	"github.com/coronin/Crisprs/index"
	"github.com/coronin/Crisprs/search"
)

var (
	// ErrNotFound is returned when a site id or index location does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by operations on a closed DB.
	ErrClosed = errors.New("db closed")

	// ErrCorruptIndex is returned when an index file fails validation.
	ErrCorruptIndex = index.ErrCorruptIndex

	// ErrOutOfRange is returned for an empty or incomplete id window.
	ErrOutOfRange = index.ErrOutOfRange

	// ErrMalformedRecord is returned by Build for an invalid input line.
	ErrMalformedRecord = index.ErrMalformedRecord
)

// ErrInvalidLocation indicates an index location that cannot be resolved.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidLocation struct {
	Location string
	cause    error
}

func (e *ErrInvalidLocation) Error() string {
	return fmt.Sprintf("invalid index location %q: %v", e.Location, e.cause)
}

func (e *ErrInvalidLocation) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, index.ErrNotFound) || errors.Is(err, search.ErrUnknownQueryID) ||
		errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, index.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
