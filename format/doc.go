// Package format defines the on-disk layout of a CRISPR site index.
//
// An index file is a fixed-size header immediately followed by NumSeqs fixed-size site
// records. All integers are little-endian.
//
// # Header (128 bytes)
//
//	off  size  field
//	  0     4  magic "CRX1"
//	  4     4  version
//	  8    32  assembly      fixed-width text, zero padded
//	 40    32  species       fixed-width text, zero padded
//	 72     2  species_id
//	 74     2  flags         bit0 species id present, bit1 dense ids, bit2 external ids
//	 76     2  seq_length
//	 78     1  bits_per_base (2)
//	 79     1  pam_width
//	 80     8  num_seqs
//	 88     8  first_id
//	 96     4  record_size
//	100    24  reserved
//	124     4  CRC32C of bytes [0, 124)
//
// # Site record
//
//	off      size            field
//	  0      8               id
//	  8      4               start
//	 12      1               strand (0 forward, 1 reverse)
//	 13      1               flags
//	 14      pam_width       PAM, fixed-width text
//	 14+p    16              contig, fixed-width text
//	 30+p    ceil(2L/8)      base plane (2 bits per base)
//	 ...     ceil(L/8)       ambiguity plane (1 bit per base)
//
// Fixed-width text fields are zero padded and never rely on a terminating zero: a value
// that fills its field exactly has no terminator.
package format
