package crisprs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector with Prometheus metrics.
type PrometheusCollector struct {
	opLatency     *prometheus.HistogramVec
	builtRecords  prometheus.Counter
	loadedBytes   prometheus.Gauge
	searchMatches prometheus.Histogram
}

// NewPrometheusCollector creates the collector and registers it with reg.
// A nil reg selects prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crisprs_operation_latency_seconds",
			Help:    "Latency of index operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		builtRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crisprs_built_records_total",
			Help: "Site records written by index builds",
		}),
		loadedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crisprs_loaded_index_bytes",
			Help: "Size of the most recently loaded index",
		}),
		searchMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crisprs_query_matches",
			Help:    "Off-targets found per query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{p.opLatency, p.builtRecords, p.loadedBytes, p.searchMatches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBuild implements MetricsCollector.
func (p *PrometheusCollector) RecordBuild(records uint64, d time.Duration, err error) {
	p.opLatency.WithLabelValues("build", status(err)).Observe(d.Seconds())
	if err == nil {
		p.builtRecords.Add(float64(records))
	}
}

// RecordLoad implements MetricsCollector.
func (p *PrometheusCollector) RecordLoad(bytes int64, d time.Duration, err error) {
	p.opLatency.WithLabelValues("load", status(err)).Observe(d.Seconds())
	if err == nil {
		p.loadedBytes.Set(float64(bytes))
	}
}

// RecordSearch implements MetricsCollector.
func (p *PrometheusCollector) RecordSearch(matches int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("search", status(err)).Observe(d.Seconds())
	if err == nil {
		p.searchMatches.Observe(float64(matches))
	}
}
