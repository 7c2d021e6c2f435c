package giscore

import (
	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/internal/fs"
	"github.com/hupe1980/giscore/sortmerge"
	"github.com/hupe1980/giscore/spill"
)

type options struct {
	dir              string
	bufferCapacity   int
	readerLow        int
	readerHigh       int
	maxInMemory      int
	logger           *Logger
	metricsCollector MetricsCollector
	diskLimitBytes   int64
	ioLimitBytes     int64
	fileSystem       fs.FileSystem
	registry         *codec.Registry
}

func defaultOptions() options {
	return options{
		bufferCapacity: spill.DefaultOptions.BufferCapacity,
		readerLow:      spill.DefaultOptions.ReaderLow,
		readerHigh:     spill.DefaultOptions.ReaderHigh,
		maxInMemory:    sortmerge.DefaultMaxInMemory,
	}
}

// Option configures Open.
type Option func(*options)

// WithDir sets the directory for backing files. Defaults to os.TempDir().
// The directory is created if it does not exist.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithBufferCapacity sets the in-memory slot count of buffers and bucket
// buffers. Default: 2000.
func WithBufferCapacity(n int) Option {
	return func(o *options) {
		o.bufferCapacity = n
	}
}

// WithReaderWatermarks sets the read-ahead watermarks of disk readers.
// Default: 50/100.
func WithReaderWatermarks(low, high int) Option {
	return func(o *options) {
		o.readerLow = low
		o.readerHigh = high
	}
}

// WithMaxInMemory sets how many tuples a sorter holds before merging them
// into its on-disk run. Default: 10000.
func WithMaxInMemory(n int) Option {
	return func(o *options) {
		o.maxInMemory = n
	}
}

// WithLogger sets the logger. If nil is passed, NoopLogger is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector, e.g. a PrometheusCollector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithDiskLimit caps the total size of live backing files. Writes that would
// exceed it fail with ErrDiskQuotaExceeded. 0 means unlimited.
func WithDiskLimit(bytes int64) Option {
	return func(o *options) {
		o.diskLimitBytes = bytes
	}
}

// WithIOLimit throttles spill writes to bytesPerSec. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimitBytes = bytesPerSec
	}
}

// WithFileSystem replaces the local file system, mainly for fault injection.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

// WithRegistry adds record kinds the engine must be able to read back from
// disk, on top of the model and tuple kinds it always registers.
func WithRegistry(r *codec.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}
