package sortmerge

import (
	"cmp"
	"fmt"
	"time"

	"github.com/hupe1980/giscore/codec"
)

// TupleTypeName is the stream type name of persisted tuples.
const TupleTypeName = "giscore.sortmerge.Tuple"

// Tuple is a fixed-arity sequence of elements ordered lexicographically.
//
// Elements are nil, codec.Null, bool, int, int16, int32, int64, float32,
// float64, string, time.Time or a codec.Serializable record. Tuples come back
// from disk the way the codec decodes them: int as int64 and time.Time in UTC
// with millisecond precision.
type Tuple []any

// Comparable is implemented by record elements that take part in ordering.
// A Comparable element must also implement codec.Serializable.
type Comparable interface {
	CompareTo(other any) int
}

// Compare orders a and b element by element; the first non-zero result wins.
// nil is less than any non-nil element. Elements of different kinds, and
// records that do not implement Comparable, do not affect the order.
//
// Compare panics with ErrArityMismatch if the tuples differ in length.
func Compare(a, b Tuple) int {
	if len(a) != len(b) {
		panic(fmt.Errorf("%w: %d != %d", ErrArityMismatch, len(a), len(b)))
	}
	for i := range a {
		if c := compareElem(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

type kind uint8

const (
	kindNil kind = iota
	kindInt
	kindFloat
	kindString
	kindBool
	kindTime
	kindComparable
	kindRecord
	kindUnsupported
)

func (k kind) String() string {
	switch k {
	case kindNil:
		return "nil"
	case kindInt:
		return "integer"
	case kindFloat:
		return "float"
	case kindString:
		return "string"
	case kindBool:
		return "bool"
	case kindTime:
		return "time"
	case kindComparable:
		return "comparable record"
	case kindRecord:
		return "record"
	default:
		return "unsupported"
	}
}

func kindOf(v any) kind {
	switch v := v.(type) {
	case nil, codec.NullValue:
		return kindNil
	case int, int16, int32, int64:
		return kindInt
	case float32, float64:
		return kindFloat
	case string:
		return kindString
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	case codec.Serializable:
		if _, ok := v.(Comparable); ok {
			return kindComparable
		}
		return kindRecord
	default:
		return kindUnsupported
	}
}

func compareElem(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	switch {
	case ka == kindNil && kb == kindNil:
		return 0
	case ka == kindNil:
		return -1
	case kb == kindNil:
		return 1
	case ka != kb:
		return 0
	}

	switch ka {
	case kindInt:
		return cmp.Compare(toInt64(a), toInt64(b))
	case kindFloat:
		return cmp.Compare(toFloat64(a), toFloat64(b))
	case kindString:
		return cmp.Compare(a.(string), b.(string)) //nolint:forcetypeassert // kind checked
	case kindBool:
		return cmpBool(a.(bool), b.(bool)) //nolint:forcetypeassert // kind checked
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time)) //nolint:forcetypeassert // kind checked
	case kindComparable:
		return a.(Comparable).CompareTo(b) //nolint:forcetypeassert // kind checked
	}
	return 0
}

func toInt64(v any) int64 {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func toFloat64(v any) float64 {
	switch v := v.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// elemKind is the kind recorded for one tuple position. Records also carry
// their type name.
type elemKind struct {
	kind kind
	name string
}

func elemKindOf(v any) elemKind {
	k := kindOf(v)
	if k == kindComparable || k == kindRecord {
		return elemKind{kind: k, name: v.(codec.Serializable).TypeName()} //nolint:forcetypeassert // kind checked
	}
	return elemKind{kind: k}
}

// tupleRecord persists a Tuple: an int32 arity, then per element a bool
// telling a record from a tagged scalar, then the element.
type tupleRecord struct {
	t Tuple
}

func (*tupleRecord) TypeName() string { return TupleTypeName }

func (r *tupleRecord) WriteFields(enc *codec.Encoder) error {
	if err := enc.WriteLen(len(r.t)); err != nil {
		return err
	}
	for _, v := range r.t {
		if rec, ok := v.(codec.Serializable); ok {
			if err := enc.WriteBool(true); err != nil {
				return err
			}
			if err := enc.WriteObject(rec); err != nil {
				return err
			}
			continue
		}
		if err := enc.WriteBool(false); err != nil {
			return err
		}
		if err := enc.WriteScalar(v); err != nil {
			return err
		}
	}
	return nil
}

func (r *tupleRecord) ReadFields(dec *codec.Decoder) error {
	n, err := dec.ReadInt()
	if err != nil {
		return err
	}
	if n < 0 {
		return codec.ErrNegativeLength
	}
	r.t = make(Tuple, n)
	for i := range r.t {
		isRecord, err := dec.ReadBool()
		if err != nil {
			return err
		}
		if isRecord {
			obj, err := dec.ReadObject()
			if err != nil {
				return err
			}
			if obj != nil {
				r.t[i] = obj
			}
			continue
		}
		if r.t[i], err = dec.ReadScalar(); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the registry entry for persisted tuples. Merge it into the
// session registry together with the registries of any record elements.
func Registry() *codec.Registry {
	return codec.NewRegistry(codec.Entry{
		Name: TupleTypeName,
		New:  func() codec.Serializable { return &tupleRecord{} },
	})
}
