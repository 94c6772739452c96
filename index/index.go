package index

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/coronin/Crisprs/blobstore"
	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/internal/mmap"
	"github.com/coronin/Crisprs/sequence"
)

// Index is a loaded, read-only site index. It is safe for concurrent use.
type Index struct {
	meta   format.Metadata
	layout format.Layout
	size   int
	n      int

	records []byte
	lookup  lookup

	source string
	closer io.Closer
	closed atomic.Bool
	// mu is held shared by readers of the records and exclusively by Close.
	mu sync.RWMutex
}

// Open memory-maps the index file at path.
func Open(path string, opts ...Option) (*Index, error) {
	o := applyOptions(opts)

	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	idx, err := load(m.Bytes(), path, m, o)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	pattern := mmap.AccessRandom
	if o.prefetch {
		pattern = mmap.AccessWillNeed
	}
	if region, err := m.Region(format.HeaderSize, len(idx.records)); err == nil {
		if err := region.Advise(pattern); err != nil {
			o.logger.Debug("madvise failed", "path", path, "error", err)
		}
	}
	return idx, nil
}

// OpenBlob loads an index from a blob. Mappable blobs are used in place; other blobs
// are downloaded into memory first. The Index takes ownership of b.
func OpenBlob(ctx context.Context, b blobstore.Blob, opts ...Option) (*Index, error) {
	o := applyOptions(opts)

	data, err := blobstore.ReadAll(ctx, b, 0, 0)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	idx, err := load(data, "blob", b, o)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return idx, nil
}

// FromBytes loads an index held in memory. data must not be modified afterwards.
func FromBytes(data []byte, opts ...Option) (*Index, error) {
	return load(data, "memory", nil, applyOptions(opts))
}

func load(data []byte, source string, closer io.Closer, o openOptions) (*Index, error) {
	if len(data) < format.HeaderSize {
		return nil, corrupt("file is %d bytes, shorter than the %d byte header", len(data), format.HeaderSize)
	}
	meta, err := format.DecodeHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	layout, err := meta.Layout()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}

	body := data[format.HeaderSize:]
	size := layout.Size()
	if len(body)%size != 0 {
		return nil, corrupt("%d record bytes is not a multiple of the %d byte record size", len(body), size)
	}
	n := len(body) / size
	if uint64(n) != meta.NumSeqs {
		return nil, corrupt("header declares %d records, file holds %d", meta.NumSeqs, n)
	}
	if uint64(n) > math.MaxUint32 {
		return nil, corrupt("%d records exceed the supported maximum", n)
	}

	idx := &Index{
		meta:    meta,
		layout:  layout,
		size:    size,
		n:       n,
		records: body,
		source:  source,
		closer:  closer,
	}
	if idx.lookup, err = idx.buildLookup(); err != nil {
		return nil, err
	}

	o.logger.Debug("index loaded",
		"source", source,
		"assembly", meta.Assembly,
		"species", meta.Species,
		"records", n,
		"seq_length", meta.SeqLength,
		"dense", meta.DenseIDs,
	)
	return idx, nil
}

func (x *Index) buildLookup() (lookup, error) {
	if x.meta.DenseIDs {
		if x.meta.FirstID > math.MaxUint64-uint64(x.n) {
			return nil, corrupt("identifier range overflows")
		}
		for i := 0; i < x.n; i++ {
			if id := x.ID(i); id != x.meta.FirstID+uint64(i) {
				return nil, corrupt("record %d has identifier %d, dense layout expects %d", i, id, x.meta.FirstID+uint64(i))
			}
		}
		return denseLookup{first: x.meta.FirstID, n: uint64(x.n)}, nil
	}
	return newSortedLookup(x.n, x.ID)
}

// Close releases the underlying mapping or blob. It waits for readers holding Acquire
// to release. Records and slices obtained from the Index must not be used afterwards.
func (x *Index) Close() error {
	if x.closed.Swap(true) {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closer != nil {
		return x.closer.Close()
	}
	return nil
}

// Acquire pins the records until release is called, failing with ErrClosed once Close
// has started. It never blocks. Position-based accessors (Record, ID, Packed) are only
// valid while a reader holds it; a holder must not call Close.
func (x *Index) Acquire() (release func(), err error) {
	// Only Close takes the write lock, so a failed TryRLock means closing.
	if !x.mu.TryRLock() {
		return nil, ErrClosed
	}
	if x.closed.Load() {
		x.mu.RUnlock()
		return nil, ErrClosed
	}
	return x.mu.RUnlock, nil
}

// Metadata returns the header of the index.
func (x *Index) Metadata() format.Metadata { return x.meta }

// Layout returns the record layout.
func (x *Index) Layout() format.Layout { return x.layout }

// Len returns the number of records.
func (x *Index) Len() int { return x.n }

// Source describes where the index was loaded from.
func (x *Index) Source() string { return x.source }

func (x *Index) raw(i int) []byte {
	off := i * x.size
	return x.records[off : off+x.size]
}

// Record decodes the record at position i (0 <= i < Len).
func (x *Index) Record(i int) format.Record { return x.layout.Decode(x.raw(i)) }

// ID returns the identifier of the record at position i.
func (x *Index) ID(i int) uint64 { return x.layout.ID(x.raw(i)) }

// Packed returns the sequence of the record at position i without decoding the rest.
func (x *Index) Packed(i int) sequence.Packed { return x.layout.Packed(x.raw(i)) }

// Position returns the position of the record with identifier id.
func (x *Index) Position(id uint64) (int, bool) {
	return x.lookup.find(id)
}

// RecordByID returns the record with identifier id.
func (x *Index) RecordByID(id uint64) (format.Record, error) {
	release, err := x.Acquire()
	if err != nil {
		return format.Record{}, err
	}
	defer release()
	i, ok := x.lookup.find(id)
	if !ok {
		return format.Record{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return x.Record(i), nil
}

// RangeIDs returns the identifiers start, start+1, ..., start+count-1, failing with
// ErrOutOfRange if count is zero, the range overflows, or any identifier is absent.
func (x *Index) RangeIDs(start, count uint64) ([]uint64, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: empty range at %d", ErrOutOfRange, start)
	}
	if start > math.MaxUint64-(count-1) {
		return nil, fmt.Errorf("%w: [%d, +%d) overflows", ErrOutOfRange, start, count)
	}
	if count > uint64(x.n) {
		return nil, fmt.Errorf("%w: %d identifiers requested, index holds %d", ErrOutOfRange, count, x.n)
	}
	ids := make([]uint64, count)
	for k := range ids {
		id := start + uint64(k)
		if _, ok := x.lookup.find(id); !ok {
			return nil, fmt.Errorf("%w: identifier %d of [%d, %d] not in index", ErrOutOfRange, id, start, start+count-1)
		}
		ids[k] = id
	}
	return ids, nil
}

// RecordsInRange returns the records with identifiers start..start+count-1 in
// identifier order, whatever their order in the file.
func (x *Index) RecordsInRange(start, count uint64) ([]format.Record, error) {
	release, err := x.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	ids, err := x.RangeIDs(start, count)
	if err != nil {
		return nil, err
	}
	out := make([]format.Record, len(ids))
	for k, id := range ids {
		i, _ := x.lookup.find(id)
		out[k] = x.Record(i)
	}
	return out, nil
}

// All yields every record with its position, in file order. The sequence can be
// ranged over any number of times; it yields nothing once the Index is closed. The loop
// body must not call Close.
func (x *Index) All() iter.Seq2[int, format.Record] {
	return func(yield func(int, format.Record) bool) {
		release, err := x.Acquire()
		if err != nil {
			return
		}
		defer release()
		for i := 0; i < x.n; i++ {
			if !yield(i, x.Record(i)) {
				return
			}
		}
	}
}

// LogValue implements slog.LogValuer.
func (x *Index) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", x.source),
		slog.String("assembly", x.meta.Assembly),
		slog.Int("records", x.n),
	)
}
