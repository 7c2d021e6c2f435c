package sortmerge

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/giscore/codec"
)

// seqRecord is a record element that does not take part in ordering.
type seqRecord struct {
	N int64
}

func (*seqRecord) TypeName() string { return "sortmerge.seqRecord" }

func (r *seqRecord) WriteFields(enc *codec.Encoder) error { return enc.WriteLong(r.N) }

func (r *seqRecord) ReadFields(dec *codec.Decoder) error {
	var err error
	r.N, err = dec.ReadLong()
	return err
}

// keyRecord is a record element ordered by its key.
type keyRecord struct {
	Key string
}

func (*keyRecord) TypeName() string { return "sortmerge.keyRecord" }

func (r *keyRecord) WriteFields(enc *codec.Encoder) error { return enc.WriteString(r.Key) }

func (r *keyRecord) ReadFields(dec *codec.Decoder) error {
	var err error
	r.Key, err = dec.ReadString()
	return err
}

func (r *keyRecord) CompareTo(other any) int {
	o, ok := other.(*keyRecord)
	if !ok {
		return 0
	}
	return strings.Compare(r.Key, o.Key)
}

func testRegistry() *codec.Registry {
	return codec.Merge(Registry(), codec.NewRegistry(
		codec.Entry{Name: "sortmerge.seqRecord", New: func() codec.Serializable { return &seqRecord{} }},
		codec.Entry{Name: "sortmerge.keyRecord", New: func() codec.Serializable { return &keyRecord{} }},
	))
}

func TestCompare(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000).UTC()

	tests := []struct {
		name string
		a, b Tuple
		want int
	}{
		{"equal", Tuple{int64(1), "a"}, Tuple{int64(1), "a"}, 0},
		{"lead decides", Tuple{int64(1), "z"}, Tuple{int64(2), "a"}, -1},
		{"second decides", Tuple{int64(1), "b"}, Tuple{int64(1), "a"}, 1},
		{"mixed integer widths", Tuple{int16(3)}, Tuple{int64(2)}, 1},
		{"int and int64", Tuple{7}, Tuple{int64(7)}, 0},
		{"floats", Tuple{float32(1.5)}, Tuple{2.5}, -1},
		{"bools", Tuple{false}, Tuple{true}, -1},
		{"times", Tuple{t0}, Tuple{t0.Add(time.Second)}, -1},
		{"nil first", Tuple{nil}, Tuple{int64(0)}, -1},
		{"nil last", Tuple{"a"}, Tuple{nil}, 1},
		{"both nil", Tuple{nil, int64(1)}, Tuple{nil, int64(2)}, -1},
		{"null marker is nil", Tuple{codec.Null}, Tuple{""}, -1},
		{"comparable records", Tuple{&keyRecord{"b"}}, Tuple{&keyRecord{"a"}}, 1},
		{"plain records are skipped", Tuple{&seqRecord{9}, int64(1)}, Tuple{&seqRecord{1}, int64(2)}, -1},
		{"kind mismatch is skipped", Tuple{"x", int64(1)}, Tuple{int64(5), int64(1)}, 0},
		{"empty", Tuple{}, Tuple{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestCompare_ArityMismatchPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrArityMismatch))
	}()
	Compare(Tuple{1}, Tuple{1, 2})
}

func TestTupleRecord_RoundTrip(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_123).UTC()
	in := Tuple{nil, codec.Null, true, int16(2), int32(3), int64(4), 5, float32(6.5), 7.25, "eight", ts, &seqRecord{N: 9}}

	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf)
	require.NoError(t, enc.WriteObject(&tupleRecord{t: in}))
	require.NoError(t, enc.Close())

	dec := codec.NewDecoder(&buf, testRegistry())
	obj, err := dec.ReadObject()
	require.NoError(t, err)

	out := obj.(*tupleRecord).t
	want := Tuple{nil, codec.Null, true, int16(2), int32(3), int64(4), int64(5), float32(6.5), 7.25, "eight", ts, &seqRecord{N: 9}}
	assert.Equal(t, want, out)
	assert.Equal(t, 0, Compare(in, out))
}
