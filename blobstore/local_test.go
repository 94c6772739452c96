package blobstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	data := []byte("CRX1 header and site records")

	w, err := store.Create(ctx, "grch38/sites.crx")
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(dir, "grch38", "sites.crx"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, "grch38/sites.crx")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(len(data)), blob.Size())
	buf := make([]byte, 4)
	_, err = blob.ReadAt(ctx, buf, 12)
	require.NoError(t, err)
	assert.Equal(t, "site", string(buf))

	m, ok := blob.(Mappable)
	require.True(t, ok)
	b, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, b)

	require.NoError(t, store.Put(ctx, "grcm39/sites.crx", []byte("mouse")))
	names, err := store.List(ctx, "grc")
	require.NoError(t, err)
	assert.Equal(t, []string{"grch38/sites.crx", "grcm39/sites.crx"}, names)

	require.NoError(t, store.Delete(ctx, "grcm39/sites.crx"))
	require.NoError(t, store.Delete(ctx, "grcm39/sites.crx"))
	_, err = store.Open(ctx, "grcm39/sites.crx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_CopyAbort(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := Copy(ctx, store, "partial.crx", &failingReader{data: []byte("abc"), err: boom})
	assert.ErrorIs(t, err, boom)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	n, err := Copy(ctx, store, "a", bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	blob, err := store.Open(ctx, "a")
	require.NoError(t, err)
	got, err := ReadAll(ctx, blob, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = store.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// rangeOnly hides Mappable so ReadAll takes the ranged path.
type rangeOnly struct{ Blob }

func TestReadAll_Ranged(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i)
	}
	for _, chunk := range []int64{1, 7, 128, 1000, 4096} {
		got, err := ReadAll(context.Background(), rangeOnly{&memoryBlob{data: data}}, chunk, 3)
		require.NoError(t, err)
		assert.Equal(t, data, got, "chunk %d", chunk)
	}
}

func TestReadAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadAll(ctx, rangeOnly{&ctxBlob{size: 100}}, 10, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

type ctxBlob struct{ size int64 }

func (b *ctxBlob) ReadAt(ctx context.Context, p []byte, _ int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(p), nil
}
func (b *ctxBlob) Close() error { return nil }
func (b *ctxBlob) Size() int64  { return b.size }

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}
