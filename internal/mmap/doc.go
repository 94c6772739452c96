// Package mmap maps index files read-only into memory.
//
//	m, err := mmap.Open("sites.crx")
//	if err != nil { ... }
//	defer m.Close()
//
//	records, _ := m.Region(headerSize, m.Size()-headerSize)
//	_ = records.Advise(mmap.AccessRandom)
//
// Unix systems use mmap(2) and madvise(2). On Windows the file is mapped with
// MapViewOfFile and access hints are ignored.
//
// A Mapping may be read from many goroutines. Close is idempotent; slices obtained from
// Bytes must not be used after it returns.
package mmap
