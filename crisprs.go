package crisprs

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/coronin/Crisprs/blobstore"
	"github.com/coronin/Crisprs/blobstore/resolver"
	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/index"
	"github.com/coronin/Crisprs/search"
)

// DB is an opened index together with its search engine.
// It is safe for concurrent use.
type DB struct {
	location string
	idx      *index.Index
	engine   *search.Engine
	opts     options
}

// Build compiles CSV site lists into an index file.
func Build(ctx context.Context, cfg index.BuildConfig, optFns ...Option) (index.BuildStats, error) {
	o := applyOptions(optFns)
	if cfg.Logger == nil {
		cfg.Logger = o.logger.Logger
	}
	start := time.Now()
	stats, err := index.Build(ctx, cfg)
	d := time.Since(start)
	o.metricsCollector.RecordBuild(stats.Records, d, err)
	o.logger.LogBuild(ctx, cfg.Output, stats.Records, d, err)
	return stats, translateError(err)
}

// Open loads the index at location. Local paths are memory-mapped; remote locations
// are downloaded into memory.
func Open(ctx context.Context, location string, optFns ...Option) (*DB, error) {
	o := applyOptions(optFns)
	log := o.logger.WithIndex(location)
	start := time.Now()

	idx, size, err := openIndex(ctx, location, o)
	if err == nil {
		var engine *search.Engine
		engine, err = search.New(idx, append([]search.Option{search.WithLogger(o.logger.Logger)}, o.searchOptions...)...)
		if err != nil {
			_ = idx.Close()
		} else {
			d := time.Since(start)
			o.metricsCollector.RecordLoad(size, d, nil)
			log.LogLoad(ctx, location, idx.Len(), d, nil)
			return &DB{location: location, idx: idx, engine: engine, opts: o}, nil
		}
	}
	d := time.Since(start)
	o.metricsCollector.RecordLoad(0, d, err)
	log.LogLoad(ctx, location, 0, d, err)
	return nil, translateError(err)
}

func openIndex(ctx context.Context, location string, o options) (*index.Index, int64, error) {
	idxOpts := []index.Option{index.WithLogger(o.logger.Logger), index.WithPrefetch(o.prefetch)}
	if resolver.IsLocal(location) {
		idx, err := index.Open(resolver.LocalPath(location), idxOpts...)
		if err != nil {
			return nil, 0, err
		}
		return idx, indexSize(idx), nil
	}

	store, name, err := resolver.Resolve(ctx, location, o.resolver)
	if err != nil {
		return nil, 0, &ErrInvalidLocation{Location: location, cause: err}
	}
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	size := blob.Size()
	idx, err := index.OpenBlob(ctx, blob, idxOpts...)
	if err != nil {
		return nil, 0, err
	}
	return idx, size, nil
}

func indexSize(idx *index.Index) int64 {
	return int64(format.HeaderSize) + int64(idx.Len())*int64(idx.Layout().Size())
}

// Location returns the location the DB was opened from.
func (db *DB) Location() string { return db.location }

// Index returns the underlying index.
func (db *DB) Index() *index.Index { return db.idx }

// Engine returns the search engine.
func (db *DB) Engine() *search.Engine { return db.engine }

// Metadata returns the index metadata.
func (db *DB) Metadata() format.Metadata { return db.idx.Metadata() }

// Len returns the number of sites.
func (db *DB) Len() int { return db.idx.Len() }

// Record returns the site with the given id.
func (db *DB) Record(id uint64) (format.Record, error) {
	rec, err := db.idx.RecordByID(id)
	return rec, translateError(err)
}

// Records returns the sites with ids start..start+count-1 in id order.
func (db *DB) Records(start, count uint64) ([]format.Record, error) {
	recs, err := db.idx.RecordsInRange(start, count)
	return recs, translateError(err)
}

// FindOffTargets answers each query id in order. See search.Engine.FindOffTargets.
// Searching a closed DB yields ErrClosed; Close waits for queries in flight.
func (db *DB) FindOffTargets(ctx context.Context, ids []uint64) iter.Seq2[search.QueryResult, error] {
	return db.observe(ctx, db.engine.FindOffTargets(ctx, ids))
}

// FindOffTargetsRange answers the ids start..start+count-1.
func (db *DB) FindOffTargetsRange(ctx context.Context, start, count uint64) iter.Seq2[search.QueryResult, error] {
	return db.observe(ctx, db.engine.FindOffTargetsRange(ctx, start, count))
}

// QuerySequence finds the sites within the threshold of an arbitrary sequence.
func (db *DB) QuerySequence(ctx context.Context, seq string) (search.QueryResult, error) {
	start := time.Now()
	res, err := db.engine.QuerySequence(ctx, seq)
	if err != nil {
		return res, translateError(err)
	}
	db.opts.metricsCollector.RecordSearch(len(res.Matches), time.Since(start), res.Err)
	return res, nil
}

func (db *DB) observe(ctx context.Context, seq iter.Seq2[search.QueryResult, error]) iter.Seq2[search.QueryResult, error] {
	return func(yield func(search.QueryResult, error) bool) {
		start := time.Now()
		for res, err := range seq {
			if err != nil {
				yield(res, translateError(err))
				return
			}
			db.opts.metricsCollector.RecordSearch(res.Total(), time.Since(start), res.Err)
			db.opts.logger.LogSearch(ctx, res.QueryID, res.Total(), res.Err)
			if !yield(res, nil) {
				return
			}
			start = time.Now()
		}
	}
}

// Close releases the index. It is safe to call more than once.
func (db *DB) Close() error {
	return translateError(db.idx.Close())
}

// Publish copies the local index file at path to location, which may be any
// location Open accepts. The file is validated before upload.
func Publish(ctx context.Context, path, location string, optFns ...Option) (int64, error) {
	o := applyOptions(optFns)
	log := o.logger.WithIndex(location)

	idx, err := index.Open(path)
	if err != nil {
		return 0, translateError(err)
	}
	n := idx.Len()
	if err := idx.Close(); err != nil {
		return 0, err
	}

	store, name, err := resolver.Resolve(ctx, location, o.resolver)
	if err != nil {
		return 0, &ErrInvalidLocation{Location: location, cause: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	written, err := blobstore.Copy(ctx, store, name, f)
	if err != nil {
		log.ErrorContext(ctx, "publish failed", "source", path, "error", err)
		return written, fmt.Errorf("publish %s: %w", location, err)
	}
	log.InfoContext(ctx, "index published", "source", path, "records", n, "bytes", written)
	return written, nil
}

// IsNotFound reports whether err means a missing site or index.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
