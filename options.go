package crisprs

import (
	"log/slog"

	"github.com/coronin/Crisprs/blobstore/resolver"
	"github.com/coronin/Crisprs/search"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	resolver         resolver.Config
	searchOptions    []search.Option
	prefetch         bool
}

// Option configures Build, Open and Publish.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &crisprs.BasicMetricsCollector{}
//	db, _ := crisprs.Open(ctx, "grch38.crx", crisprs.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResolver sets the backend settings used to open remote locations.
func WithResolver(cfg resolver.Config) Option {
	return func(o *options) {
		o.resolver = cfg
	}
}

// WithSearchOptions configures the search engine created by Open.
func WithSearchOptions(opts ...search.Option) Option {
	return func(o *options) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// WithPrefetch asks the OS to read a local index ahead of the first scan.
func WithPrefetch(enabled bool) Option {
	return func(o *options) {
		o.prefetch = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
