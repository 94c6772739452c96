package search

import (
	"log/slog"
	"runtime"
)

const (
	// DefaultThreshold is the default maximum number of mismatches reported.
	DefaultThreshold = 4
	// MinShardSize is the smallest shard handed to a worker.
	MinShardSize = 1 << 14
)

type options struct {
	threshold   int
	workers     int
	shardSize   int
	bothStrands bool
	excludeSelf bool
	maxMatches  int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithThreshold sets the maximum distance of a reported match (inclusive).
func WithThreshold(n int) Option {
	return func(o *options) { o.threshold = n }
}

// WithWorkers sets the number of shards scanned concurrently. Default GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithShardSize fixes the number of records per shard. By default the index is split
// evenly across workers, with at least MinShardSize records per shard.
func WithShardSize(n int) Option {
	return func(o *options) { o.shardSize = n }
}

// WithBothStrands also compares the reverse complement of the query and reports the
// smaller distance.
func WithBothStrands(enabled bool) Option {
	return func(o *options) { o.bothStrands = enabled }
}

// WithExcludeSelf drops the match of a query with itself.
func WithExcludeSelf(enabled bool) Option {
	return func(o *options) { o.excludeSelf = enabled }
}

// WithMaxMatches stops collecting matches for a query after n (0 means no limit).
// Summary counts still cover every match.
func WithMaxMatches(n int) Option {
	return func(o *options) { o.maxMatches = n }
}

// WithLogger sets the logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultOptions() options {
	return options{
		threshold: DefaultThreshold,
		workers:   runtime.GOMAXPROCS(0),
		logger:    slog.New(slog.DiscardHandler),
	}
}
