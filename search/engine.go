package search

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/index"
	"github.com/coronin/Crisprs/internal/pool"
	"github.com/coronin/Crisprs/sequence"
)

// cancelCheckEvery is how many records a shard scans between context checks.
const cancelCheckEvery = 1 << 16

// Match is one off-target of a query.
type Match struct {
	QueryID  uint64
	TargetID uint64
	Distance int
	// Reverse is set when the reverse complement of the query gave the distance.
	Reverse bool
	Target  format.Record
}

// QueryResult holds every match of one query, in index order.
type QueryResult struct {
	QueryID uint64
	Query   format.Record
	Matches []Match
	// Summary[d] counts matches at distance d, for d up to the threshold.
	Summary []int
	// Truncated is set when WithMaxMatches cut Matches short.
	Truncated bool
	// Err is set when the query could not be answered; the batch continues.
	Err error
}

// Total returns the number of matches found, including any dropped by truncation.
func (r QueryResult) Total() int {
	n := 0
	for _, c := range r.Summary {
		n += c
	}
	return n
}

// TargetSet returns the identifiers of the matched sites.
func (r QueryResult) TargetSet() *roaring64.Bitmap {
	bm := roaring64.New()
	for _, m := range r.Matches {
		bm.Add(m.TargetID)
	}
	return bm
}

// Engine answers off-target queries against one index. It is safe for concurrent use.
type Engine struct {
	idx  *index.Index
	opts options
}

// New returns an engine over idx.
func New(idx *index.Index, optFns ...Option) (*Engine, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.threshold < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidThreshold, opts.threshold)
	}
	if opts.workers <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, opts.workers)
	}
	return &Engine{idx: idx, opts: opts}, nil
}

// Threshold returns the configured mismatch threshold.
func (e *Engine) Threshold() int { return e.opts.threshold }

// Index returns the index searched by e.
func (e *Engine) Index() *index.Index { return e.idx }

// FindOffTargets answers each id in order. A query id absent from the index produces a
// result with Err wrapping ErrUnknownQueryID and is left to the caller to report. The
// iterator yields a non-nil error only when ctx is done or the index is closed
// (index.ErrClosed), and stops after it.
func (e *Engine) FindOffTargets(ctx context.Context, ids []uint64) iter.Seq2[QueryResult, error] {
	return func(yield func(QueryResult, error) bool) {
		batch := BatchID(ctx)
		log := e.opts.logger.With("batch", batch)
		log.Debug("off-target batch started", "queries", len(ids), "threshold", e.opts.threshold)
		start := time.Now()

		for n, id := range ids {
			if err := ctx.Err(); err != nil {
				log.Debug("off-target batch cancelled", "answered", n, "error", err)
				yield(QueryResult{}, err)
				return
			}
			res, err := e.Query(ctx, id)
			if err != nil {
				log.Debug("off-target batch stopped", "answered", n, "error", err)
				yield(QueryResult{}, err)
				return
			}
			if !yield(res, nil) {
				return
			}
		}
		log.Debug("off-target batch finished", "queries", len(ids), "duration", time.Since(start))
	}
}

// FindOffTargetsRange answers the ids start..start+count-1 in ascending order. If the
// range is invalid a single result with Err wrapping index.ErrOutOfRange is yielded.
func (e *Engine) FindOffTargetsRange(ctx context.Context, start, count uint64) iter.Seq2[QueryResult, error] {
	ids, err := e.idx.RangeIDs(start, count)
	if err != nil {
		return func(yield func(QueryResult, error) bool) {
			yield(QueryResult{QueryID: start, Err: err}, nil)
		}
	}
	return e.FindOffTargets(ctx, ids)
}

// Query answers a single query id. The returned error is reserved for cancellation
// and index.ErrClosed; an unknown id is reported in QueryResult.Err. Close waits for a
// running Query to finish.
func (e *Engine) Query(ctx context.Context, id uint64) (QueryResult, error) {
	release, err := e.idx.Acquire()
	if err != nil {
		return QueryResult{}, err
	}
	defer release()

	res := QueryResult{QueryID: id}
	pos, ok := e.idx.Position(id)
	if !ok {
		res.Err = fmt.Errorf("%w: %d", ErrUnknownQueryID, id)
		return res, nil
	}
	res.Query = e.idx.Record(pos)

	matches, summary, truncated, err := e.scan(ctx, id, true, res.Query.Seq)
	if err != nil {
		return QueryResult{}, err
	}
	res.Matches, res.Summary, res.Truncated = matches, summary, truncated
	return res, nil
}

// QuerySequence scans the index for sites within the threshold of seq, which need not
// be indexed. Matches carry QueryID 0.
func (e *Engine) QuerySequence(ctx context.Context, seq string) (QueryResult, error) {
	packed, err := sequence.Encode(seq, e.idx.Metadata().SeqLength)
	if err != nil {
		return QueryResult{Err: err}, nil
	}
	release, err := e.idx.Acquire()
	if err != nil {
		return QueryResult{}, err
	}
	defer release()
	res := QueryResult{Query: format.Record{Seq: packed}}
	matches, summary, truncated, err := e.scan(ctx, 0, false, packed)
	if err != nil {
		return QueryResult{}, err
	}
	res.Matches, res.Summary, res.Truncated = matches, summary, truncated
	return res, nil
}

func (e *Engine) shards() [][2]int {
	n := e.idx.Len()
	size := e.opts.shardSize
	if size <= 0 {
		size = max((n+e.opts.workers-1)/e.opts.workers, MinShardSize)
	}
	var out [][2]int
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}

func (e *Engine) scan(ctx context.Context, queryID uint64, indexed bool, q sequence.Packed) ([]Match, []int, bool, error) {
	shards := e.shards()
	parts := make([]*pool.Hits, len(shards))
	defer func() {
		for _, h := range parts {
			pool.PutHits(h)
		}
	}()

	var rc sequence.Packed
	if e.opts.bothStrands {
		rc = sequence.ReverseComplement(q)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)
	for s, bounds := range shards {
		hits := pool.GetHits()
		parts[s] = hits
		g.Go(func() error {
			return e.scanShard(gctx, bounds[0], bounds[1], q, rc, hits)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, false, err
	}

	summary := make([]int, e.opts.threshold+1)
	var matches []Match
	truncated := false
	for _, hits := range parts {
		for _, h := range hits.List {
			targetID := e.idx.ID(h.Pos)
			if e.opts.excludeSelf && indexed && targetID == queryID {
				continue
			}
			summary[h.Distance]++
			if e.opts.maxMatches > 0 && len(matches) >= e.opts.maxMatches {
				truncated = true
				continue
			}
			matches = append(matches, Match{
				QueryID:  queryID,
				TargetID: targetID,
				Distance: h.Distance,
				Reverse:  h.Reverse,
				Target:   e.idx.Record(h.Pos),
			})
		}
	}
	return matches, summary, truncated, nil
}

func (e *Engine) scanShard(ctx context.Context, lo, hi int, q, rc sequence.Packed, hits *pool.Hits) error {
	threshold := e.opts.threshold
	both := e.opts.bothStrands
	for i := lo; i < hi; i++ {
		if (i-lo)%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		target := e.idx.Packed(i)
		d := sequence.Distance(q, target)
		reverse := false
		if both {
			if dr := sequence.Distance(rc, target); dr < d {
				d, reverse = dr, true
			}
		}
		if d <= threshold {
			hits.List = append(hits.List, pool.Hit{Pos: i, Distance: d, Reverse: reverse})
		}
	}
	return nil
}

type batchKey struct{}

// WithBatchID returns a context whose searches are logged under id.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchKey{}, id)
}

// BatchID returns the batch id carried by ctx, or a fresh random one.
func BatchID(ctx context.Context) string {
	if id, ok := ctx.Value(batchKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
