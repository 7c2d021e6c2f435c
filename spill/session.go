package spill

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/internal/fs"
	"github.com/hupe1980/giscore/resource"
)

// Session is the context object shared by the components of one conversion
// run. It owns the naming counter for backing files, the registry used to
// decode them, and the logger, metrics and resource limits they report to.
//
// The counters are atomic so a session may back several components, but each
// component created from it remains single-threaded.
type Session struct {
	id      uuid.UUID
	opts    Options
	fs      fs.FileSystem
	logger  *slog.Logger
	metrics MetricsCollector
	rc      *resource.Controller

	fileSeq atomic.Uint64
	seq     atomic.Uint64
	live    atomic.Int64
}

// NewSession creates a new Session.
func NewSession(optFns ...func(o *Options)) (*Session, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.BufferCapacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if opts.ReaderLow < 0 || opts.ReaderHigh <= opts.ReaderLow {
		return nil, ErrInvalidWatermarks
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	if opts.FileSystem == nil {
		opts.FileSystem = fs.Default
	}
	if opts.Registry == nil {
		opts.Registry = codec.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}

	if err := opts.FileSystem.MkdirAll(opts.Dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	id := uuid.New()
	return &Session{
		id:      id,
		opts:    opts,
		fs:      opts.FileSystem,
		logger:  opts.Logger.With("session", id.String()),
		metrics: opts.Metrics,
		rc:      opts.Resources,
	}, nil
}

// ID returns the unique session id embedded in backing file names.
func (s *Session) ID() uuid.UUID { return s.id }

// Dir returns the directory holding backing files.
func (s *Session) Dir() string { return s.opts.Dir }

// Registry returns the registry used to decode backing files.
func (s *Session) Registry() *codec.Registry { return s.opts.Registry }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Metrics returns the session metrics collector.
func (s *Session) Metrics() MetricsCollector { return s.metrics }

// Resources returns the resource controller, which may be nil.
func (s *Session) Resources() *resource.Controller { return s.rc }

// Options returns the effective session options.
func (s *Session) Options() Options { return s.opts }

// LiveFiles returns the number of backing files created and not yet removed.
func (s *Session) LiveFiles() int64 { return s.live.Load() }

// NextSeq returns the next value of the session's general-purpose counter,
// starting at 1. Components use it to name things uniquely per session.
func (s *Session) NextSeq() uint64 { return s.seq.Add(1) }

// NewObjectBuffer creates a buffer with the session's default capacity.
func (s *Session) NewObjectBuffer() *ObjectBuffer {
	b, _ := NewObjectBuffer(s, s.opts.BufferCapacity) // capacity validated in NewSession
	return b
}

// OpenReader opens a buffered reader over a backing file produced by this
// session. Use the session defaults by passing low and high as 0.
func (s *Session) OpenReader(path string, low, high int) (*Reader, error) {
	if low == 0 && high == 0 {
		low, high = s.opts.ReaderLow, s.opts.ReaderHigh
	}
	return newReader(s, path, low, high)
}

// CreateFile creates a new exclusive backing file and a codec session over it.
// The caller owns the file and must Remove it.
func (s *Session) CreateFile(prefix, suffix string) (*File, error) {
	pattern := fmt.Sprintf("%s-%s-%d-*%s", prefix, s.id.String()[:8], s.fileSeq.Add(1), suffix)
	f, err := s.fs.CreateTemp(s.opts.Dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create backing file: %w", err)
	}
	s.live.Add(1)
	s.logger.Debug("backing file created", "path", f.Name())

	qw := resource.NewQuotaWriter(context.Background(), f, s.rc)
	return &File{
		s:    s,
		path: f.Name(),
		w:    f,
		qw:   qw,
		enc:  codec.NewEncoder(qw),
	}, nil
}

// openDecoder opens path for sequential decoding.
func (s *Session) openDecoder(path string) (fs.File, *codec.Decoder, error) {
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open backing file: %w", err)
	}
	if err := fs.AdviseSequential(f); err != nil {
		s.logger.Debug("fadvise failed", "path", path, "error", err)
	}
	return f, codec.NewDecoder(f, s.opts.Registry), nil
}

// remove deletes a backing file. Failures are logged and counted, never returned.
func (s *Session) remove(path string) {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove backing file", "path", path, "error", err)
		s.metrics.RecordCleanupFailure()
		return
	}
	s.live.Add(-1)
	s.logger.Debug("backing file removed", "path", path)
}
