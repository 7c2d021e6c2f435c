package spill

import (
	"log/slog"

	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/internal/fs"
	"github.com/hupe1980/giscore/resource"
)

// Options contains configuration for a Session.
type Options struct {
	// Dir is where backing files are created. Defaults to os.TempDir().
	Dir string

	// FileSystem creates, opens and removes backing files. Defaults to fs.Default.
	FileSystem fs.FileSystem

	// Registry resolves type names when spilled records are decoded.
	Registry *codec.Registry

	// Logger receives debug events for file lifecycle and warnings for
	// cleanup failures. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives operational counters. Defaults to NoopMetricsCollector.
	Metrics MetricsCollector

	// Resources enforces the disk quota and write rate. nil means unlimited.
	Resources *resource.Controller

	// BufferCapacity is the in-memory slot count of buffers created by
	// Session.NewObjectBuffer.
	BufferCapacity int

	// ReaderLow and ReaderHigh are the default read-ahead watermarks.
	ReaderLow  int
	ReaderHigh int
}

// DefaultOptions contains the default configuration for a Session.
var DefaultOptions = Options{
	BufferCapacity: 2000,
	ReaderLow:      50,
	ReaderHigh:     100,
}
