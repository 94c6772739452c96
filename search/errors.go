package search

import "errors"

var (
	// ErrUnknownQueryID is carried by the result of a query id absent from the index.
	ErrUnknownQueryID = errors.New("unknown query id")

	// ErrNoQueries is returned by callers that require at least one query id.
	ErrNoQueries = errors.New("no query ids")

	// ErrInvalidThreshold is returned by New for a negative threshold.
	ErrInvalidThreshold = errors.New("threshold must not be negative")

	// ErrInvalidWorkers is returned by New for a non-positive worker count.
	ErrInvalidWorkers = errors.New("workers must be positive")
)
