// Package minio stores index files on MinIO or another S3-compatible server using
// minio-go.
package minio
