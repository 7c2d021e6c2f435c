package giscore

import (
	"fmt"
	"sync"

	"github.com/hupe1980/giscore/bucket"
	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/model"
	"github.com/hupe1980/giscore/resource"
	"github.com/hupe1980/giscore/sortmerge"
	"github.com/hupe1980/giscore/spill"
)

// Engine owns one spill session and hands out the components built on it.
//
// Every buffer, reader, sorter and bucketer an Engine creates is tracked and
// torn down by Close, so a conversion run that fails half way still leaves
// no backing files behind. The components themselves are single-threaded;
// the Engine may be shared.
type Engine struct {
	mu      sync.Mutex
	s       *spill.Session
	rc      *resource.Controller
	logger  *Logger
	opts    options
	closers []closer
	closed  bool
}

type closer struct {
	name  string
	close func() error
}

// Open creates an Engine.
//
// The session registry always holds the model record kinds and the sorter's
// tuple kind. Registering one of those names again through WithRegistry is
// an error.
func Open(optFns ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = NewLogger(nil)
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.maxInMemory < 1 {
		return nil, sortmerge.ErrInvalidMaxInMemory
	}

	builtin := codec.Merge(model.Registry(), sortmerge.Registry())
	if o.registry != nil {
		for _, name := range o.registry.Names() {
			if _, dup := builtin.Lookup(name); dup {
				return nil, fmt.Errorf("giscore: type %q is already registered", name)
			}
		}
	}
	reg := codec.Merge(builtin, o.registry)

	var rc *resource.Controller
	if o.diskLimitBytes > 0 || o.ioLimitBytes > 0 {
		rc = resource.NewController(resource.Config{
			DiskLimitBytes:     o.diskLimitBytes,
			IOLimitBytesPerSec: o.ioLimitBytes,
		})
	}

	s, err := spill.NewSession(func(so *spill.Options) {
		so.Dir = o.dir
		so.FileSystem = o.fileSystem
		so.Registry = reg
		so.Logger = o.logger.Logger
		so.Metrics = observedCollector{MetricsCollector: o.metricsCollector, logger: o.logger}
		so.Resources = rc
		so.BufferCapacity = o.bufferCapacity
		so.ReaderLow = o.readerLow
		so.ReaderHigh = o.readerHigh
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		s:      s,
		rc:     rc,
		logger: o.logger.WithSession(s.ID().String()),
		opts:   o,
	}
	e.logger.Debug("engine opened",
		"dir", s.Dir(),
		"buffer_capacity", o.bufferCapacity,
		"max_in_memory", o.maxInMemory,
	)
	return e, nil
}

// Session returns the underlying spill session.
func (e *Engine) Session() *spill.Session { return e.s }

// Logger returns the engine logger.
func (e *Engine) Logger() *Logger { return e.logger }

// Registry returns the registry used to decode backing files.
func (e *Engine) Registry() *codec.Registry { return e.s.Registry() }

// DiskUsage returns the bytes held by live backing files. It is 0 unless a
// disk or IO limit is configured.
func (e *Engine) DiskUsage() int64 { return e.rc.DiskUsage() }

func (e *Engine) track(name string, fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	e.closers = append(e.closers, closer{name: name, close: fn})
	return nil
}

func (e *Engine) usable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	return nil
}

// NewObjectBuffer creates a spill-to-disk buffer with the configured capacity.
func (e *Engine) NewObjectBuffer() (*spill.ObjectBuffer, error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	b := e.s.NewObjectBuffer()
	if err := e.track("buffer", b.Close); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// OpenReader opens a buffered reader over a sealed backing file using the
// configured watermarks.
func (e *Engine) OpenReader(path string) (*spill.Reader, error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	r, err := e.s.OpenReader(path, 0, 0)
	if err != nil {
		return nil, err
	}
	if err := e.track("reader", r.Close); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// NewSorter creates an external sorter with the configured in-memory limit.
func (e *Engine) NewSorter() (*sortmerge.Sorter, error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	st, err := sortmerge.New(e.s, e.opts.maxInMemory)
	if err != nil {
		return nil, err
	}
	if err := e.track("sorter", st.Dispose); err != nil {
		_ = st.Dispose()
		return nil, err
	}
	return st, nil
}

// NewBucketer creates a feature bucketer.
func (e *Engine) NewBucketer() (*bucket.Bucketer, error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	b := bucket.New(e.s)
	if err := e.track("bucketer", b.Cleanup); err != nil {
		_ = b.Cleanup()
		return nil, err
	}
	return b, nil
}
