package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// MaxStringLength bounds a single decoded string so a corrupt length prefix
// cannot trigger an unbounded allocation.
const MaxStringLength = 1 << 28

type class struct {
	name string
	new  Factory
}

// Decoder is the read side of an object stream.
//
// Decoder is not safe for concurrent use. A decode failure is sticky.
type Decoder struct {
	r       *bufio.Reader
	reg     *Registry
	scratch [8]byte
	classes map[int32]class
	depth   int
	err     error
}

// NewDecoder returns a Decoder reading from r and resolving type names through reg.
func NewDecoder(r io.Reader, reg *Registry) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{
		r:       br,
		reg:     reg,
		classes: make(map[int32]class),
	}
}

// ReadObject reads the next object record.
//
// It returns (nil, io.EOF) when the stream ends cleanly before an object
// header, and (nil, nil) for an encoded null object. Any other failure is a
// *DecodeError.
func (d *Decoder) ReadObject() (Serializable, error) {
	if d.err != nil {
		return nil, d.err
	}

	isRef, err := d.getBool()
	if err != nil {
		if errors.Is(err, io.EOF) && d.depth == 0 {
			return nil, io.EOF
		}
		return nil, d.fail("object header", unexpected(err))
	}

	var c class
	if isRef {
		id, err := d.getInt32()
		if err != nil {
			return nil, d.fail("class ref", unexpected(err))
		}
		if id == 0 {
			return nil, nil
		}
		var ok bool
		if c, ok = d.classes[id]; !ok {
			return nil, d.fail("class ref", fmt.Errorf("%w: %d", ErrUnknownClassRef, id))
		}
	} else {
		name, err := d.getString()
		if err != nil {
			return nil, d.fail("class name", unexpected(err))
		}
		id, err := d.getInt32()
		if err != nil {
			return nil, d.fail("class id", unexpected(err))
		}
		f, ok := d.reg.Lookup(name)
		if !ok {
			return nil, d.fail("class name", fmt.Errorf("%w: %q", ErrUnknownType, name))
		}
		c = class{name: name, new: f}
		d.classes[id] = c
	}

	obj := c.new()
	d.depth++
	err = obj.ReadFields(d)
	d.depth--
	if err != nil {
		return nil, d.fail("object "+c.name, unexpected(err))
	}
	return obj, nil
}

// ReadObjectCollection reads a count and that many objects. Count 0 yields nil.
func (d *Decoder) ReadObjectCollection() ([]Serializable, error) {
	return ReadCollection[Serializable](d)
}

// ReadCollection is the typed form of ReadObjectCollection. Null elements
// decode as the zero value of T.
func ReadCollection[T Serializable](d *Decoder) ([]T, error) {
	n, err := d.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, d.fail("collection", ErrNegativeLength)
	}
	if n == 0 {
		return nil, nil
	}

	d.depth++
	defer func() { d.depth-- }()

	out := make([]T, 0, min(int(n), 1024))
	for range n {
		obj, err := d.ReadObject()
		if err != nil {
			return nil, err
		}
		if obj == nil {
			var zero T
			out = append(out, zero)
			continue
		}
		v, ok := obj.(T)
		if !ok {
			return nil, d.fail("collection", fmt.Errorf("unexpected element type %s", obj.TypeName()))
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadScalar reads a tagged scalar written by WriteScalar.
//
// Longs decode as int64 (including values written from int), dates as UTC
// time.Time with millisecond precision, and the explicit marker as Null.
func (d *Decoder) ReadScalar() (any, error) {
	tag, err := d.ReadShort()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNull:
		return nil, nil
	case tagObjectNull:
		return Null, nil
	case tagBool:
		return d.ReadBool()
	case tagShort:
		return d.ReadShort()
	case tagInt:
		return d.ReadInt()
	case tagLong:
		return d.ReadLong()
	case tagFloat:
		return d.ReadFloat()
	case tagDouble:
		return d.ReadDouble()
	case tagString:
		return d.ReadString()
	case tagDate:
		return d.ReadDate()
	default:
		return nil, d.fail("scalar", fmt.Errorf("%w: %d", ErrUnknownScalarTag, tag))
	}
}

// ReadBool reads a single byte; any non-zero value is true.
func (d *Decoder) ReadBool() (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	v, err := d.getBool()
	if err != nil {
		return false, d.fail("bool", unexpected(err))
	}
	return v, nil
}

// ReadShort reads a big-endian int16.
func (d *Decoder) ReadShort() (int16, error) {
	if d.err != nil {
		return 0, d.err
	}
	if err := d.get(2); err != nil {
		return 0, d.fail("short", unexpected(err))
	}
	return int16(binary.BigEndian.Uint16(d.scratch[:2])), nil //nolint:gosec // two's complement
}

// ReadInt reads a big-endian int32.
func (d *Decoder) ReadInt() (int32, error) {
	if d.err != nil {
		return 0, d.err
	}
	v, err := d.getInt32()
	if err != nil {
		return 0, d.fail("int", unexpected(err))
	}
	return v, nil
}

// ReadLong reads a big-endian int64.
func (d *Decoder) ReadLong() (int64, error) {
	if d.err != nil {
		return 0, d.err
	}
	if err := d.get(8); err != nil {
		return 0, d.fail("long", unexpected(err))
	}
	return int64(binary.BigEndian.Uint64(d.scratch[:8])), nil //nolint:gosec // two's complement
}

// ReadFloat reads an IEEE-754 single.
func (d *Decoder) ReadFloat() (float32, error) {
	v, err := d.ReadInt()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil //nolint:gosec // bit pattern
}

// ReadDouble reads an IEEE-754 double.
func (d *Decoder) ReadDouble() (float64, error) {
	v, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil //nolint:gosec // bit pattern
}

// ReadString reads a length-prefixed UTF-8 string. Length 0 yields "".
func (d *Decoder) ReadString() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	s, err := d.getString()
	if err != nil {
		return "", d.fail("string", unexpected(err))
	}
	return s, nil
}

// ReadDate reads milliseconds since the Unix epoch.
func (d *Decoder) ReadDate() (time.Time, error) {
	ms, err := d.ReadLong()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// Err returns the sticky error, if any.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(op string, err error) error {
	if d.err != nil {
		return d.err
	}
	var de *DecodeError
	if errors.As(err, &de) {
		d.err = de
	} else {
		d.err = &DecodeError{Op: op, cause: err}
	}
	return d.err
}

func (d *Decoder) get(n int) error {
	_, err := io.ReadFull(d.r, d.scratch[:n])
	return err
}

func (d *Decoder) getBool() (bool, error) {
	if err := d.get(1); err != nil {
		return false, err
	}
	return d.scratch[0] != 0, nil
}

func (d *Decoder) getInt32() (int32, error) {
	if err := d.get(4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(d.scratch[:4])), nil //nolint:gosec // two's complement
}

func (d *Decoder) getString() (string, error) {
	n, err := d.getInt32()
	if err != nil {
		return "", err
	}
	switch {
	case n < 0:
		return "", ErrNegativeLength
	case n == 0:
		return "", nil
	case n > MaxStringLength:
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// unexpected maps a bare io.EOF inside a record to io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF { //nolint:errorlint // io.ReadFull returns the bare sentinel
		return io.ErrUnexpectedEOF
	}
	return err
}
