package mmap

import "errors"

// AccessPattern is a hint about how mapped pages will be touched.
type AccessPattern int

const (
	AccessDefault AccessPattern = iota
	// AccessSequential suits a full scan of the records.
	AccessSequential
	// AccessRandom suits point lookups by id.
	AccessRandom
	// AccessWillNeed asks the kernel to read ahead now.
	AccessWillNeed
	AccessDontNeed
)

var (
	ErrClosed        = errors.New("mmap: mapping is closed")
	ErrInvalidSize   = errors.New("mmap: invalid file size")
	ErrOutOfBounds   = errors.New("mmap: out of bounds")
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
