// Package blobstore provides access to published index files.
//
// An index is an immutable blob: it is written once by the builder and then read by
// many search processes. BlobStore abstracts where it lives.
//
//   - LocalStore: a directory on the local filesystem; blobs are memory-mapped
//   - MemoryStore: in-process, for tests and the mem:// scheme
//   - s3.Store: Amazon S3 (aws-sdk-go-v2), multipart uploads via the transfer manager
//   - minio.Store: MinIO and other S3-compatible endpoints
//
// A Blob that also implements Mappable exposes its bytes without copying; the index
// loader uses that path for local files and falls back to ReadAll for remote stores.
package blobstore
