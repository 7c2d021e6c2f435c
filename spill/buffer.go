package spill

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/internal/fs"
)

// ObjectBuffer holds up to capacity records in memory and transparently
// appends further records to a backing file.
//
// The buffer is write-then-read: one producer writes everything, then one
// consumer reads in write order. Records [0, capacity) come from memory,
// later ones are decoded from the backing file, which is created lazily on
// the first overflow. ObjectBuffer is not safe for concurrent use.
type ObjectBuffer struct {
	s        *Session
	capacity int
	slots    []codec.Serializable

	storeIndex int
	readIndex  int

	spill *File
	rf    fs.File
	dec   *codec.Decoder

	outputClosed bool
	closed       bool
	err          error
}

// NewObjectBuffer creates a buffer holding up to capacity records in memory.
func NewObjectBuffer(s *Session, capacity int) (*ObjectBuffer, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &ObjectBuffer{
		s:        s,
		capacity: capacity,
		slots:    make([]codec.Serializable, 0, min(capacity, 64)),
	}, nil
}

// Write stores obj in memory or, past capacity, in the backing file.
//
// The buffer keeps a reference to in-memory records; callers must not
// mutate a record after writing it.
func (b *ObjectBuffer) Write(obj codec.Serializable) error {
	switch {
	case b.closed:
		return ErrClosed
	case codec.IsNil(obj):
		return ErrNilObject
	case b.err != nil:
		return b.err
	case b.outputClosed:
		return ErrOutputClosed
	}

	if b.storeIndex < b.capacity {
		b.slots = append(b.slots, obj)
	} else {
		if b.spill == nil {
			f, err := b.s.CreateFile("obj", ".buffer")
			if err != nil {
				b.err = err
				return err
			}
			b.spill = f
		}
		if err := b.spill.Write(obj); err != nil {
			b.err = err
			return err
		}
	}
	b.storeIndex++
	return nil
}

// Read returns the next record in write order, or (nil, nil) once every
// written record has been read.
func (b *ObjectBuffer) Read() (codec.Serializable, error) {
	switch {
	case b.closed:
		return nil, ErrClosed
	case b.err != nil:
		return nil, b.err
	case b.readIndex >= b.storeIndex:
		return nil, nil
	}

	if b.readIndex < b.capacity {
		obj := b.slots[b.readIndex]
		b.readIndex++
		return obj, nil
	}

	if b.dec == nil {
		if err := b.openReadSide(); err != nil {
			b.err = err
			return nil, err
		}
	}

	obj, err := b.dec.ReadObject()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("backing file %s ended after %d of %d records: %w",
				b.spill.Path(), b.readIndex, b.storeIndex, io.ErrUnexpectedEOF)
		}
		b.err = err
		return nil, err
	}
	b.readIndex++
	return obj, nil
}

func (b *ObjectBuffer) openReadSide() error {
	if b.spill == nil {
		return fmt.Errorf("read index %d is beyond capacity %d without a backing file", b.readIndex, b.capacity)
	}
	// Records may still sit in the encoder's buffer.
	if err := b.spill.Flush(); err != nil {
		return err
	}
	f, dec, err := b.s.openDecoder(b.spill.Path())
	if err != nil {
		return err
	}
	b.rf, b.dec = f, dec
	return nil
}

// Count returns the number of records written.
func (b *ObjectBuffer) Count() int { return b.storeIndex }

// Capacity returns the in-memory slot count.
func (b *ObjectBuffer) Capacity() int { return b.capacity }

// Spilled reports whether a backing file exists.
func (b *ObjectBuffer) Spilled() bool { return b.spill != nil }

// SpillPath returns the backing file name, or "" if nothing was spilled.
// Call CloseOutput before opening an independent Reader over it.
func (b *ObjectBuffer) SpillPath() string {
	if b.spill == nil {
		return ""
	}
	return b.spill.Path()
}

// ResetReadIndex rewinds consumption to the first record. In-memory records
// are served again directly; the read side of the backing file is released
// so spilled records are decoded again from the start of the file.
func (b *ObjectBuffer) ResetReadIndex() {
	b.readIndex = 0
	_ = b.closeReadSide()
}

// CloseOutput flushes and releases the write side without discarding data.
// Further writes return ErrOutputClosed.
func (b *ObjectBuffer) CloseOutput() error {
	if b.closed {
		return ErrClosed
	}
	b.outputClosed = true
	if b.spill == nil {
		return nil
	}
	if err := b.spill.Seal(); err != nil {
		if b.err == nil {
			b.err = err
		}
		return err
	}
	return nil
}

// Close releases both sessions and deletes the backing file. The buffer is
// unusable afterwards. Close is idempotent; delete failures are logged only.
func (b *ObjectBuffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.outputClosed = true

	err := b.closeReadSide()
	if b.spill != nil {
		rerr := b.spill.Remove()
		switch {
		case rerr == nil:
		case b.err != nil:
			// The failure was already reported by Write or Read.
			b.s.logger.Debug("discarding backing file after failure", "path", b.spill.Path(), "error", rerr)
		case err == nil:
			err = rerr
		}
	}
	b.slots = nil
	b.storeIndex, b.readIndex = 0, 0
	return err
}

func (b *ObjectBuffer) closeReadSide() error {
	if b.rf == nil {
		return nil
	}
	err := b.rf.Close()
	b.rf, b.dec = nil, nil
	if err != nil {
		b.s.logger.Debug("failed to close backing file reader", "path", b.SpillPath(), "error", err)
	}
	return err
}
