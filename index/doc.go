// Package index builds and loads CRISPR site indexes.
//
// Build reads comma-separated site lists and writes a single binary index file (see
// package format). Open maps such a file read-only and returns an Index, which gives
// random access by identifier, identifier ranges and full scans.
//
// # Input
//
// One site per line. Blank lines and lines starting with '#' are ignored. With the
// default sequential identifier policy a line is
//
//	chr,start,strand,seq[,pam[,flags]]
//
// and sites are numbered from BuildConfig.FirstID in input order. With the external
// policy the identifier comes first:
//
//	id,chr,start,strand,seq[,pam[,flags]]
//
// Strand is one of + - 1 0 F R. Files ending in .gz, .zst or .lz4 are decompressed; the
// name "-" reads standard input. Multiple inputs are concatenated in order.
//
// # Identifiers
//
// Records are stored in input order. When identifiers are ascending and gap-free the
// index resolves id to position arithmetically; otherwise Open builds a sorted lookup
// table, so ranges work whatever the file order.
package index
