package spill

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/internal/fs"
	"github.com/hupe1980/giscore/resource"
)

// File is an exclusively owned backing file with an open write session.
// Records written to it can be read back with Session.OpenReader once the
// file is sealed.
type File struct {
	s       *Session
	path    string
	w       fs.File // nil once sealed
	qw      *resource.QuotaWriter
	enc     *codec.Encoder
	objects int
	removed bool
}

// Path returns the file name.
func (f *File) Path() string { return f.path }

// Count returns the number of records written.
func (f *File) Count() int { return f.objects }

// Write encodes obj at the end of the file.
func (f *File) Write(obj codec.Serializable) error {
	if f.w == nil {
		return ErrOutputClosed
	}
	if err := f.enc.WriteObject(obj); err != nil {
		return fmt.Errorf("failed to spill %s to %s: %w", obj.TypeName(), f.path, err)
	}
	f.objects++
	f.s.metrics.RecordSpilledObject()
	return nil
}

// Flush pushes buffered records to the file without sealing it.
func (f *File) Flush() error {
	if f.w == nil {
		return nil
	}
	if err := f.enc.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", f.path, err)
	}
	return nil
}

// Seal flushes and closes the write side. The file keeps its data.
func (f *File) Seal() error {
	if f.w == nil {
		return nil
	}
	w := f.w
	f.w = nil

	err := f.enc.Close()
	if cerr := w.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to seal %s: %w", f.path, err)
	}

	size := f.qw.Charged()
	f.s.metrics.RecordSpillFile(size)
	f.s.logger.Debug("backing file sealed",
		"path", f.path,
		"objects", f.objects,
		"size", humanize.Bytes(uint64(size)), //nolint:gosec // size is never negative
	)
	return nil
}

// Remove seals (best effort) and deletes the file, returning its quota.
// Delete failures are logged, not returned. It is safe to call more than once.
func (f *File) Remove() error {
	if f.removed {
		return nil
	}
	f.removed = true
	err := f.Seal()
	f.s.remove(f.path)
	f.qw.Release()
	return err
}
