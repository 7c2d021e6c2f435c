package spill

import (
	"errors"
	"io"

	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/internal/fs"
)

// Reader reads records from a sealed backing file through a read-ahead queue.
//
// Whenever the queue holds low records or fewer, it is refilled from the
// file until it holds high records or the file ends. Refills are synchronous.
type Reader struct {
	s     *Session
	path  string
	low   int
	high  int
	f     fs.File
	dec   *codec.Decoder
	queue []codec.Serializable
	head  int
	eof   bool
	err   error
}

func newReader(s *Session, path string, low, high int) (*Reader, error) {
	if low < 0 || high <= low {
		return nil, ErrInvalidWatermarks
	}
	f, dec, err := s.openDecoder(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		s:     s,
		path:  path,
		low:   low,
		high:  high,
		f:     f,
		dec:   dec,
		queue: make([]codec.Serializable, 0, high),
	}, nil
}

// Len returns the number of records currently queued.
func (r *Reader) Len() int { return len(r.queue) - r.head }

// Peek returns the next record without consuming it, or (nil, nil) at end of file.
func (r *Reader) Peek() (codec.Serializable, error) {
	if err := r.fill(); err != nil {
		return nil, err
	}
	if r.Len() == 0 {
		return nil, nil
	}
	return r.queue[r.head], nil
}

// Read consumes and returns the next record, or (nil, nil) at end of file.
func (r *Reader) Read() (codec.Serializable, error) {
	obj, err := r.Peek()
	if obj == nil || err != nil {
		return nil, err
	}
	r.queue[r.head] = nil
	r.head++
	return obj, nil
}

func (r *Reader) fill() error {
	if r.err != nil {
		return r.err
	}
	if r.f == nil {
		return ErrClosed
	}
	if r.eof || r.Len() > r.low {
		return nil
	}

	// Compact the consumed prefix before appending.
	if r.head > 0 {
		n := copy(r.queue, r.queue[r.head:])
		clear(r.queue[n:])
		r.queue = r.queue[:n]
		r.head = 0
	}

	for len(r.queue) < r.high {
		obj, err := r.dec.ReadObject()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.eof = true
				return nil
			}
			r.err = err
			return err
		}
		// Null object markers carry no record.
		if obj == nil {
			continue
		}
		r.queue = append(r.queue, obj)
	}
	return nil
}

// Close closes the file and clears the queue. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f, r.dec = nil, nil
	clear(r.queue)
	r.queue, r.head = nil, 0
	return err
}
