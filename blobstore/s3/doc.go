// Package s3 stores index files in Amazon S3.
//
//	store, err := s3.New(ctx, "genomes", s3.WithPrefix("crispr/"), s3.WithRegion("eu-west-2"))
//	idx, err := index.OpenBlob(ctx, blob)
//
// Reads are ranged GETs; downloads of whole indexes use the transfer manager with
// concurrent parts. Uploads stream through a multipart upload and carry a CRC32C
// checksum.
package s3
