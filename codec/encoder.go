package codec

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/hupe1980/giscore/internal/conv"
)

// Encoder is the write side of an object stream.
//
// Encoder is not safe for concurrent use. Any write failure is sticky: the
// encoder returns the same error from every later call.
type Encoder struct {
	w       *bufio.Writer
	scratch [8]byte
	classes map[string]int32
	nextID  int32
	err     error
	closed  bool
}

// NewEncoder returns an Encoder writing to w. Output is buffered; call Flush
// or Close before reading the bytes back.
func NewEncoder(w io.Writer) *Encoder {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Encoder{
		w:       bw,
		classes: make(map[string]int32),
		nextID:  1,
	}
}

// WriteObject writes one object record. A nil obj or nil pointer is written as the null
// object (class ref 0) and reads back as nil.
func (e *Encoder) WriteObject(obj Serializable) error {
	if err := e.check(); err != nil {
		return err
	}
	if IsNil(obj) {
		e.putBool(true)
		e.putInt32(0)
		return e.err
	}

	name := obj.TypeName()
	if id, ok := e.classes[name]; ok {
		e.putBool(true)
		e.putInt32(id)
	} else {
		id := e.nextID
		e.putBool(false)
		e.putString(name)
		e.putInt32(id)
		e.classes[name] = id
		e.nextID++
	}
	if e.err != nil {
		return e.err
	}

	if err := obj.WriteFields(e); err != nil {
		return e.fail("object "+name, err)
	}
	return e.err
}

// WriteObjectCollection writes a count followed by that many objects.
// Both nil and empty slices are written as count 0, which reads back as nil.
func (e *Encoder) WriteObjectCollection(objs []Serializable) error {
	return WriteCollection(e, objs)
}

// WriteCollection is the typed form of WriteObjectCollection.
func WriteCollection[T Serializable](e *Encoder, objs []T) error {
	if err := e.WriteLen(len(objs)); err != nil {
		return err
	}
	for _, o := range objs {
		if err := e.WriteObject(o); err != nil {
			return err
		}
	}
	return nil
}

// WriteScalar writes a tagged scalar.
//
// Supported values are nil, Null, bool, int16, int32, int64, int (written as
// a long), float32, float64, string and time.Time. Any other type returns
// ErrUnsupportedScalar and writes nothing.
func (e *Encoder) WriteScalar(v any) error {
	if err := e.check(); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		e.putInt16(tagNull)
	case NullValue:
		e.putInt16(tagObjectNull)
	case bool:
		e.putInt16(tagBool)
		e.putBool(x)
	case int16:
		e.putInt16(tagShort)
		e.putInt16(x)
	case int32:
		e.putInt16(tagInt)
		e.putInt32(x)
	case int64:
		e.putInt16(tagLong)
		e.putInt64(x)
	case int:
		e.putInt16(tagLong)
		e.putInt64(int64(x))
	case float32:
		e.putInt16(tagFloat)
		e.putInt32(int32(math.Float32bits(x))) //nolint:gosec // bit pattern
	case float64:
		e.putInt16(tagDouble)
		e.putInt64(int64(math.Float64bits(x))) //nolint:gosec // bit pattern
	case string:
		e.putInt16(tagString)
		e.putString(x)
	case time.Time:
		e.putInt16(tagDate)
		e.putInt64(x.UnixMilli())
	default:
		return ErrUnsupportedScalar
	}
	return e.err
}

// WriteBool writes a single byte, 1 for true.
func (e *Encoder) WriteBool(v bool) error {
	if err := e.check(); err != nil {
		return err
	}
	e.putBool(v)
	return e.err
}

// WriteShort writes a big-endian int16.
func (e *Encoder) WriteShort(v int16) error {
	if err := e.check(); err != nil {
		return err
	}
	e.putInt16(v)
	return e.err
}

// WriteInt writes a big-endian int32.
func (e *Encoder) WriteInt(v int32) error {
	if err := e.check(); err != nil {
		return err
	}
	e.putInt32(v)
	return e.err
}

// WriteLen writes a length or count prefix as an int32. Lengths that do not
// fit fail the session.
func (e *Encoder) WriteLen(n int) error {
	if err := e.check(); err != nil {
		return err
	}
	v, err := conv.LenToInt32(n)
	if err != nil {
		return e.fail("length", err)
	}
	e.putInt32(v)
	return e.err
}

// WriteLong writes a big-endian int64.
func (e *Encoder) WriteLong(v int64) error {
	if err := e.check(); err != nil {
		return err
	}
	e.putInt64(v)
	return e.err
}

// WriteFloat writes an IEEE-754 single.
func (e *Encoder) WriteFloat(v float32) error {
	return e.WriteInt(int32(math.Float32bits(v))) //nolint:gosec // bit pattern
}

// WriteDouble writes an IEEE-754 double.
func (e *Encoder) WriteDouble(v float64) error {
	return e.WriteLong(int64(math.Float64bits(v))) //nolint:gosec // bit pattern
}

// WriteString writes a length-prefixed UTF-8 string. The empty string is
// indistinguishable from an absent one on the wire.
func (e *Encoder) WriteString(s string) error {
	if err := e.check(); err != nil {
		return err
	}
	e.putString(s)
	return e.err
}

// WriteDate writes t as signed milliseconds since the Unix epoch.
func (e *Encoder) WriteDate(t time.Time) error {
	return e.WriteLong(t.UnixMilli())
}

// Classes returns the number of distinct types registered in this stream.
func (e *Encoder) Classes() int {
	return len(e.classes)
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.w.Flush(); err != nil {
		return e.fail("flush", err)
	}
	return nil
}

// Close flushes the encoder and marks it closed. The underlying writer is
// not closed; it belongs to the caller.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	err := e.Flush()
	e.closed = true
	return err
}

// Err returns the sticky error, if any.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) check() error {
	if e.closed {
		return ErrClosed
	}
	return e.err
}

func (e *Encoder) fail(op string, err error) error {
	if e.err != nil {
		return e.err
	}
	if _, ok := err.(*EncodeError); ok { //nolint:errorlint // only re-wrap foreign errors
		e.err = err
	} else {
		e.err = &EncodeError{Op: op, cause: err}
	}
	return e.err
}

func (e *Encoder) put(p []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.w.Write(p); err != nil {
		e.fail("write", err)
	}
}

func (e *Encoder) putBool(v bool) {
	if v {
		e.scratch[0] = 1
	} else {
		e.scratch[0] = 0
	}
	e.put(e.scratch[:1])
}

func (e *Encoder) putInt16(v int16) {
	binary.BigEndian.PutUint16(e.scratch[:2], uint16(v)) //nolint:gosec // two's complement
	e.put(e.scratch[:2])
}

func (e *Encoder) putInt32(v int32) {
	binary.BigEndian.PutUint32(e.scratch[:4], uint32(v)) //nolint:gosec // two's complement
	e.put(e.scratch[:4])
}

func (e *Encoder) putInt64(v int64) {
	binary.BigEndian.PutUint64(e.scratch[:8], uint64(v)) //nolint:gosec // two's complement
	e.put(e.scratch[:8])
}

func (e *Encoder) putString(s string) {
	n, err := conv.LenToInt32(len(s))
	if err != nil {
		e.fail("string", err)
		return
	}
	e.putInt32(n)
	if len(s) > 0 && e.err == nil {
		if _, err := e.w.WriteString(s); err != nil {
			e.fail("write", err)
		}
	}
}
