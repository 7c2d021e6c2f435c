package giscore

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/giscore/spill"
)

// MetricsCollector receives operational metrics from every component an
// Engine hands out. See spill.MetricsCollector.
type MetricsCollector = spill.MetricsCollector

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector = spill.NoopMetricsCollector

// BasicMetricsCollector counts metrics in memory.
type BasicMetricsCollector = spill.BasicMetricsCollector

// PrometheusCollector exports engine metrics as Prometheus counters.
type PrometheusCollector struct {
	SpilledObjects  prometheus.Counter
	SpillFiles      prometheus.Counter
	SpillBytes      prometheus.Counter
	Merges          *prometheus.CounterVec
	MergeTuples     prometheus.Counter
	MergeDuration   prometheus.Histogram
	Buckets         prometheus.Counter
	CleanupFailures prometheus.Counter
}

// NewPrometheusCollector creates and registers all metrics with the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusCollector{
		SpilledObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giscore_spilled_objects_total",
			Help: "Total records encoded to backing files",
		}),
		SpillFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giscore_spill_files_total",
			Help: "Total backing files sealed",
		}),
		SpillBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giscore_spill_bytes_total",
			Help: "Total bytes written to sealed backing files",
		}),
		Merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giscore_merges_total",
			Help: "Total sort-merge passes by result",
		}, []string{"result"}),
		MergeTuples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giscore_merge_tuples_total",
			Help: "Total tuples written by successful sort-merge passes",
		}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "giscore_merge_duration_seconds",
			Help:    "Duration of sort-merge passes",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Buckets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giscore_buckets_total",
			Help: "Total feature categories opened by bucketers",
		}),
		CleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giscore_cleanup_failures_total",
			Help: "Total backing files that could not be deleted",
		}),
	}

	reg.MustRegister(
		p.SpilledObjects,
		p.SpillFiles,
		p.SpillBytes,
		p.Merges,
		p.MergeTuples,
		p.MergeDuration,
		p.Buckets,
		p.CleanupFailures,
	)

	return p
}

// RecordSpilledObject implements MetricsCollector.
func (p *PrometheusCollector) RecordSpilledObject() { p.SpilledObjects.Inc() }

// RecordSpillFile implements MetricsCollector.
func (p *PrometheusCollector) RecordSpillFile(bytes int64) {
	p.SpillFiles.Inc()
	p.SpillBytes.Add(float64(bytes))
}

// RecordMerge implements MetricsCollector.
func (p *PrometheusCollector) RecordMerge(tuples int, duration time.Duration, err error) {
	p.MergeDuration.Observe(duration.Seconds())
	if err != nil {
		p.Merges.WithLabelValues("error").Inc()
		return
	}
	p.Merges.WithLabelValues("ok").Inc()
	p.MergeTuples.Add(float64(tuples))
}

// RecordBucket implements MetricsCollector.
func (p *PrometheusCollector) RecordBucket() { p.Buckets.Inc() }

// RecordCleanupFailure implements MetricsCollector.
func (p *PrometheusCollector) RecordCleanupFailure() { p.CleanupFailures.Inc() }

// observedCollector forwards to the configured collector and mirrors spill
// and merge events to the engine logger.
type observedCollector struct {
	MetricsCollector
	logger *Logger
}

func (o observedCollector) RecordSpillFile(bytes int64) {
	o.logger.LogSpill(context.Background(), bytes)
	o.MetricsCollector.RecordSpillFile(bytes)
}

func (o observedCollector) RecordMerge(tuples int, duration time.Duration, err error) {
	o.logger.LogMerge(context.Background(), tuples, duration, err)
	o.MetricsCollector.RecordMerge(tuples, duration, err)
}
