package format

import (
	"bytes"
	"unicode/utf8"
)

// PutText writes s into the fixed-width field dst, zero padding the remainder.
// Values longer than the field are truncated on a rune boundary; the number of bytes
// stored is returned.
func PutText(dst []byte, s string) int {
	n := len(s)
	if n > len(dst) {
		n = len(dst)
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
	}
	copy(dst, s[:n])
	clear(dst[n:])
	return n
}

// Text reads a fixed-width field written by PutText. Trailing zero bytes are padding.
func Text(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}
