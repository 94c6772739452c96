package blobstore

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize is the ranged read size used by ReadAll.
	DefaultChunkSize = 8 << 20
	// DefaultConcurrency bounds the number of ranged reads ReadAll keeps in flight.
	DefaultConcurrency = 8
)

// ReadAll returns the whole contents of b. Mappable blobs are returned without copying
// and Downloaders use their own transfer path. Other blobs are fetched as concurrent
// ranged reads of chunkSize bytes.
func ReadAll(ctx context.Context, b Blob, chunkSize int64, concurrency int) ([]byte, error) {
	switch v := b.(type) {
	case Mappable:
		return v.Bytes()
	case Downloader:
		return v.Download(ctx)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	size := b.Size()
	buf := make([]byte, size)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for off := int64(0); off < size; off += chunkSize {
		end := min(off+chunkSize, size)
		g.Go(func() error {
			n, err := b.ReadAt(ctx, buf[off:end], off)
			if err != nil && !(err == io.EOF && int64(n) == end-off) {
				return fmt.Errorf("read [%d, %d): %w", off, end, err)
			}
			if int64(n) != end-off {
				return fmt.Errorf("read [%d, %d): %w", off, end, io.ErrUnexpectedEOF)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buf, nil
}

// Copy streams r into a new blob called name. A failed copy aborts the upload when the
// writer supports it.
func Copy(ctx context.Context, dst BlobStore, name string, r io.Reader) (int64, error) {
	w, err := dst.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, r)
	if err != nil {
		if a, ok := w.(Abortable); ok {
			_ = a.Abort(ctx)
		} else {
			_ = w.Close()
		}
		return n, err
	}
	if err := w.Close(); err != nil {
		return n, err
	}
	return n, nil
}
