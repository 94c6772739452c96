// Package sequence packs fixed-length nucleotide sequences into machine words and
// computes mismatch distances between them.
//
// # Encoding
//
// Each base occupies a 2-bit lane (A=0, C=1, G=2, T=3) so that the complement of a base
// is 3-x. Up to 32 bases fit in one uint64 word. The ambiguous base N is tracked in a
// parallel ambiguity plane whose set bits sit on the low bit of the corresponding lane;
// the lane itself holds 0 for an N.
//
// # Distance
//
// Distance counts differing base positions with a handful of word operations:
//
//	x := a ^ b                       // lanes that differ have at least one bit set
//	d := (x | x>>1 | (ambA ^ ambB))  // fold each lane onto its low bit, add N/base mismatches
//	n := bits.OnesCount64(d & 0x5555555555555555)
//
// N compared with N is a match, N compared with any other base is a mismatch.
//
// # Usage
//
//	p, err := sequence.Encode("ACGTACGTACGTACGTACGT", 20)
//	if err != nil { ... }
//	q := sequence.MustEncode("ACGTACGTACGTACGTACGC")
//	mm := sequence.Distance(p, q) // 1
package sequence
