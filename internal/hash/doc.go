// Package hash provides CRC32-Castagnoli helpers used to protect index headers.
//
// Go's hash/crc32 uses the SSE4.2 / ARM CRC instructions when available, so the
// checksum is effectively free compared to mapping the file.
//
//	sum := hash.CRC32C(header[:124])
package hash
