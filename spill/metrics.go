package spill

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    spilledObjects prometheus.Counter
//	}
//
//	func (p *PrometheusCollector) RecordSpilledObject() {
//	    p.spilledObjects.Inc()
//	}
type MetricsCollector interface {
	// RecordSpilledObject is called for every record encoded to a backing file.
	RecordSpilledObject()

	// RecordSpillFile is called when the write side of a backing file is
	// sealed. bytes is the final file size.
	RecordSpillFile(bytes int64)

	// RecordMerge is called after each sort-merge pass.
	// tuples is the size of the resulting run.
	RecordMerge(tuples int, duration time.Duration, err error)

	// RecordBucket is called when a bucketer opens a new category.
	RecordBucket()

	// RecordCleanupFailure is called when a backing file could not be deleted.
	RecordCleanupFailure()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSpilledObject()                  {}
func (NoopMetricsCollector) RecordSpillFile(int64)                 {}
func (NoopMetricsCollector) RecordMerge(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBucket()                         {}
func (NoopMetricsCollector) RecordCleanupFailure()                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	SpilledObjects  atomic.Int64
	SpillFiles      atomic.Int64
	SpillBytes      atomic.Int64
	MergeCount      atomic.Int64
	MergeErrors     atomic.Int64
	MergeTuples     atomic.Int64
	MergeTotalNanos atomic.Int64
	Buckets         atomic.Int64
	CleanupFailures atomic.Int64
}

// RecordSpilledObject implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpilledObject() {
	b.SpilledObjects.Add(1)
}

// RecordSpillFile implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpillFile(bytes int64) {
	b.SpillFiles.Add(1)
	b.SpillBytes.Add(bytes)
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(tuples int, duration time.Duration, err error) {
	b.MergeCount.Add(1)
	b.MergeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MergeErrors.Add(1)
		return
	}
	b.MergeTuples.Add(int64(tuples))
}

// RecordBucket implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBucket() {
	b.Buckets.Add(1)
}

// RecordCleanupFailure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCleanupFailure() {
	b.CleanupFailures.Add(1)
}

// AverageMergeLatency returns the mean duration of a merge pass.
func (b *BasicMetricsCollector) AverageMergeLatency() time.Duration {
	n := b.MergeCount.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(b.MergeTotalNanos.Load() / n)
}
