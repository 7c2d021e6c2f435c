package bucket

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/giscore/internal/fs"
	"github.com/hupe1980/giscore/model"
	"github.com/hupe1980/giscore/spill"
	"github.com/hupe1980/giscore/testutil"
)

func newTestBucketer(t *testing.T, optFns ...func(o *spill.Options)) (*Bucketer, *spill.Session) {
	t.Helper()
	dir := t.TempDir()
	fns := append([]func(o *spill.Options){func(o *spill.Options) {
		o.Dir = dir
		o.Registry = model.Registry()
	}}, optFns...)
	s, err := spill.NewSession(fns...)
	require.NoError(t, err)
	b := New(s)
	t.Cleanup(func() { _ = b.Cleanup() })
	return b, s
}

var (
	fName  = model.NewSimpleField("name", model.FieldString)
	fDepth = model.NewSimpleField("depth", model.FieldDouble)
	fColor = model.NewSimpleField("color", model.FieldString)
)

func feature(schema string, g model.Geometry, fields ...*model.SimpleField) *model.Feature {
	f := model.NewFeature(schema, g)
	for _, field := range fields {
		f.Put(field, nil)
	}
	return f
}

func mustAdd(t *testing.T, b *Bucketer, rec model.Record) Key {
	t.Helper()
	key, err := b.Add(rec, "")
	require.NoError(t, err)
	return key
}

func TestAdd_FingerprintEquality(t *testing.T) {
	b, _ := newTestBucketer(t)

	// Same field set in a different order shares a synthesized schema.
	k1 := mustAdd(t, b, feature("", model.NewPoint(1, 1), fName, fDepth))
	k2 := mustAdd(t, b, feature("", model.NewPoint(2, 2), fDepth, fName))
	assert.Equal(t, k1, k2)

	// Explicit, distinct schemas split records even with identical fields.
	require.NoError(t, b.AddSchema(model.NewSchema("urn:a", "a")))
	require.NoError(t, b.AddSchema(model.NewSchema("urn:b", "b")))
	ka := mustAdd(t, b, feature("urn:a", model.NewPoint(1, 1), fName))
	kb := mustAdd(t, b, feature("urn:b", model.NewPoint(1, 1), fName))
	assert.NotEqual(t, ka, kb)
	assert.Equal(t, "urn:a", ka.Schema)

	// Geometry type and record type are part of the key.
	kl := mustAdd(t, b, feature("urn:a", &model.Line{Points: []model.Point{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}}}, fName))
	assert.NotEqual(t, ka, kl)
	kr := mustAdd(t, b, model.NewRow("urn:a"))
	assert.Equal(t, Key{Schema: "urn:a", SchemaSeq: 2, Record: "giscore.model.Row"}, kr)

	assert.Equal(t, []Key{k1, ka, kb, kl, kr}, b.Keys())
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, uint64(6), b.Total())
}

func TestAdd_FieldSetFromRandomOrders(t *testing.T) {
	b, _ := newTestBucketer(t)
	rng := testutil.NewRNG(4711)

	names := []string{"a", "b", "c", "d", "e"}
	fields := make(map[string]*model.SimpleField, len(names))
	for _, n := range names {
		fields[n] = model.NewSimpleField(n, model.FieldString)
	}

	var first Key
	for i := range 50 {
		rec := model.NewRow("")
		for _, n := range rng.Shuffle(names) {
			rec.Put(fields[n], nil)
		}
		key := mustAdd(t, b, rec)
		if i == 0 {
			first = key
		}
		assert.Equal(t, first, key)
	}
	assert.Equal(t, 1, b.Len())

	// A strict subset is a different field set.
	sub := model.NewRow("")
	sub.Put(fields["a"], nil)
	assert.NotEqual(t, first, mustAdd(t, b, sub))
}

func TestAdd_BoundsAccumulation(t *testing.T) {
	b, _ := newTestBucketer(t)

	var key Key
	for _, ll := range [][2]float64{{10, 10}, {20, 20}, {5, 5}} {
		key = mustAdd(t, b, feature("", model.NewPoint(ll[0], ll[1]), fName))
	}
	bounds, err := b.Bounds(key)
	require.NoError(t, err)
	require.NotNil(t, bounds)
	assert.Equal(t, model.Bounds{MinLon: 5, MaxLon: 20, MinLat: 5, MaxLat: 20}, *bounds)

	// The returned box is a copy.
	bounds.MaxLat = 99
	again, err := b.Bounds(key)
	require.NoError(t, err)
	assert.Equal(t, 20.0, again.MaxLat)

	rowKey := mustAdd(t, b, feature("", nil, fName))
	assert.Empty(t, rowKey.Geometry)
	noBounds, err := b.Bounds(rowKey)
	require.NoError(t, err)
	assert.Nil(t, noBounds)

	// An empty geometry sets the key's geometry type but no bounds.
	emptyKey := mustAdd(t, b, feature("", &model.Line{}, fName))
	assert.Equal(t, "giscore.model.Line", emptyKey.Geometry)
	noBounds, err = b.Bounds(emptyKey)
	require.NoError(t, err)
	assert.Nil(t, noBounds)
}

func TestAdd_OIDInjection(t *testing.T) {
	b, _ := newTestBucketer(t)

	key := mustAdd(t, b, feature("", nil, fName))
	schema, err := b.Schema(key)
	require.NoError(t, err)
	oid := schema.OIDField()
	require.NotNil(t, oid)
	assert.Equal(t, model.OIDFieldName, oid.Name)
	assert.Equal(t, 4, oid.Length)
	assert.True(t, oid.Required)
	assert.False(t, oid.Editable)
	assert.Equal(t, []string{"name", model.OIDFieldName}, schema.Keys())

	// A schema with its own OID field keeps it.
	custom := model.NewSchema("urn:custom", "custom")
	own := model.NewSimpleField("FID", model.FieldOID)
	custom.Put(own)
	require.NoError(t, b.AddSchema(custom))
	assert.Same(t, own, custom.OIDField())
	assert.Equal(t, 1, custom.Len())

	plain := model.NewSchema("urn:plain", "plain")
	require.NoError(t, b.AddSchema(plain))
	assert.NotNil(t, plain.OIDField())
}

func TestAdd_UnresolvedSchemaReference(t *testing.T) {
	b, _ := newTestBucketer(t)

	k1 := mustAdd(t, b, feature("urn:missing", nil, fName, fColor))
	k2 := mustAdd(t, b, feature("urn:missing", nil, fDepth))
	assert.Equal(t, k1, k2)
	assert.Equal(t, "urn:missing", k1.Schema)

	schema, err := b.Schema(k1)
	require.NoError(t, err)
	assert.Equal(t, "urn:missing", schema.ID)
	assert.Equal(t, []string{"name", "color", model.OIDFieldName}, schema.Keys())
	assert.Len(t, b.Schemata(), 1)
}

func TestAdd_SchemaIdentity(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, b *Bucketer) (first, second Key)
	}{
		{
			name: "registered schema reusing a synthesized id",
			run: func(t *testing.T, b *Bucketer) (Key, Key) {
				first := mustAdd(t, b, feature("", model.NewPoint(1, 1), fName))
				user := model.NewSchema(first.Schema, "user")
				user.Put(fColor)
				require.NoError(t, b.AddSchema(user))
				second := mustAdd(t, b, feature(first.Schema, model.NewPoint(2, 2), fColor))

				// Records without a reference still find the synthesized schema.
				assert.Equal(t, first, mustAdd(t, b, feature("", model.NewPoint(3, 3), fName)))
				return first, second
			},
		},
		{
			name: "reference to a synthesized id",
			run: func(t *testing.T, b *Bucketer) (Key, Key) {
				first := mustAdd(t, b, feature("", model.NewPoint(1, 1), fName))
				second := mustAdd(t, b, feature(first.Schema, model.NewPoint(2, 2), fColor))
				return first, second
			},
		},
		{
			name: "schema registered after an ad hoc one",
			run: func(t *testing.T, b *Bucketer) (Key, Key) {
				first := mustAdd(t, b, feature("urn:late", model.NewPoint(1, 1), fName))
				late := model.NewSchema("urn:late", "late")
				late.Put(fColor)
				require.NoError(t, b.AddSchema(late))
				second := mustAdd(t, b, feature("urn:late", model.NewPoint(2, 2), fColor))
				return first, second
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBucketer(t)
			first, second := tt.run(t, b)

			assert.Equal(t, first.Schema, second.Schema)
			assert.NotEqual(t, first, second)
			assert.Equal(t, []Key{first, second}, b.Keys())

			s1, err := b.Schema(first)
			require.NoError(t, err)
			s2, err := b.Schema(second)
			require.NoError(t, err)
			assert.NotSame(t, s1, s2)
			assert.Equal(t, []string{"name", model.OIDFieldName}, s1.Keys())
			assert.Equal(t, []string{"color", model.OIDFieldName}, s2.Keys())

			schemata := b.Schemata()
			require.Len(t, schemata, 2)
			assert.Same(t, s1, schemata[0])
			assert.Same(t, s2, schemata[1])

			n, err := b.Count(second)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestSchemata_DiscoveryOrder(t *testing.T) {
	b, _ := newTestBucketer(t)

	explicit := model.NewSchema("urn:x", "x")
	require.NoError(t, b.AddSchema(explicit))
	mustAdd(t, b, feature("", nil, fName))
	mustAdd(t, b, feature("", nil, fDepth))
	mustAdd(t, b, feature("", nil, fName))

	schemata := b.Schemata()
	require.Len(t, schemata, 3)
	assert.Same(t, explicit, schemata[0])
	assert.NotEqual(t, schemata[1].ID, schemata[2].ID)
	assert.Contains(t, schemata[1].Name, "schema_")
}

func TestBuffers_ArrivalOrderAndOrdinals(t *testing.T) {
	b, s := newTestBucketer(t, func(o *spill.Options) { o.BufferCapacity = 2 })

	var keys []Key
	for i := range 12 {
		var f *model.Feature
		if i%3 == 0 {
			f = feature("", model.NewPoint(float64(i), 0), fName)
		} else {
			f = feature("", nil, fName)
		}
		f.ID = string(rune('a' + i))
		keys = append(keys, mustAdd(t, b, f))
	}
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.Add(feature("", nil, fName), "")
	assert.ErrorIs(t, err, spill.ErrOutputClosed)

	pointKey, plainKey := keys[0], keys[1]
	require.Equal(t, []Key{pointKey, plainKey}, b.Keys())

	count, err := b.Count(pointKey)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	ords, err := b.Ordinals(pointKey)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 3, 6, 9}, ords.ToArray())
	ords.Add(100)
	again, err := b.Ordinals(pointKey)
	require.NoError(t, err)
	assert.False(t, again.Contains(100))

	buf, err := b.Buffer(plainKey)
	require.NoError(t, err)
	assert.True(t, buf.Spilled())
	var ids []string
	for {
		rec, err := buf.Read()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		ids = append(ids, rec.(*model.Feature).ID)
	}
	assert.Equal(t, []string{"b", "c", "e", "f", "h", "i", "k", "l"}, ids)
	assert.Positive(t, s.LiveFiles())
}

func TestPathHint_FirstWins(t *testing.T) {
	b, _ := newTestBucketer(t)

	key, err := b.Add(feature("", nil, fName), "")
	require.NoError(t, err)
	_, err = b.Add(feature("", nil, fName), "first.kml")
	require.NoError(t, err)
	_, err = b.Add(feature("", nil, fName), "second.kml")
	require.NoError(t, err)

	hint, err := b.PathHint(key)
	require.NoError(t, err)
	assert.Equal(t, "first.kml", hint)
}

func TestIntersecting(t *testing.T) {
	b, _ := newTestBucketer(t)

	north := mustAdd(t, b, feature("urn:north", model.NewPoint(50, 10), fName))
	mustAdd(t, b, feature("urn:north", model.NewPoint(60, 20), fName))
	south := mustAdd(t, b, feature("urn:south", model.NewPoint(-40, 10), fName))
	mustAdd(t, b, feature("urn:none", nil, fName))

	assert.Equal(t, []Key{north}, b.Intersecting(model.Bounds{MinLon: 0, MaxLon: 30, MinLat: 45, MaxLat: 55}))
	assert.Equal(t, []Key{south}, b.Intersecting(model.Bounds{MinLon: 10, MaxLon: 10, MinLat: -40, MaxLat: -40}))
	// Touching the edge counts.
	assert.Equal(t, []Key{north}, b.Intersecting(model.Bounds{MinLon: 20, MaxLon: 25, MinLat: 60, MaxLat: 70}))
	assert.Equal(t, []Key{north, south}, b.Intersecting(model.Bounds{MinLon: -180, MaxLon: 180, MinLat: -90, MaxLat: 90}))
	assert.Empty(t, b.Intersecting(model.Bounds{MinLon: 100, MaxLon: 110, MinLat: 0, MaxLat: 1}))

	// New bounds are picked up.
	mustAdd(t, b, feature("urn:south", model.NewPoint(-10, 105), fName))
	assert.Equal(t, []Key{south}, b.Intersecting(model.Bounds{MinLon: 100, MaxLon: 110, MinLat: -20, MaxLat: 0}))
}

func TestUsageErrors(t *testing.T) {
	b, _ := newTestBucketer(t)

	_, err := b.Add(nil, "")
	assert.ErrorIs(t, err, ErrNilRecord)
	_, err = b.Add((*model.Feature)(nil), "")
	assert.ErrorIs(t, err, ErrNilRecord)
	assert.Equal(t, 0, b.Len())
	assert.ErrorIs(t, b.AddSchema(nil), ErrNilSchema)

	unknown := Key{Schema: "nope"}
	_, err = b.Buffer(unknown)
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = b.Bounds(unknown)
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = b.Schema(unknown)
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = b.Count(unknown)
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = b.Ordinals(unknown)
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = b.PathHint(unknown)
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestCleanup(t *testing.T) {
	metrics := &spill.BasicMetricsCollector{}
	b, s := newTestBucketer(t, func(o *spill.Options) {
		o.BufferCapacity = 1
		o.Metrics = metrics
	})

	for range 3 {
		mustAdd(t, b, feature("", model.NewPoint(1, 1), fName))
		mustAdd(t, b, feature("", nil, fDepth))
	}
	assert.Equal(t, int64(2), metrics.Buckets.Load())
	assert.Equal(t, int64(2), s.LiveFiles())

	require.NoError(t, b.Close())
	require.NoError(t, b.Cleanup())
	require.NoError(t, b.Cleanup())
	assert.Equal(t, int64(0), s.LiveFiles())
	assert.Empty(t, b.Keys())
	assert.Empty(t, b.Schemata())
	assert.Equal(t, uint64(0), b.Total())

	// Reusable after cleanup.
	key := mustAdd(t, b, feature("", nil, fName))
	count, err := b.Count(key)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClose_AggregatesErrors(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".buffer", fs.Fault{FailAfterBytes: 0, FailAfterReads: -1})
	b, s := newTestBucketer(t, func(o *spill.Options) {
		o.BufferCapacity = 1
		o.FileSystem = ffs
	})

	for range 2 {
		mustAdd(t, b, feature("", nil, fName))
		mustAdd(t, b, feature("", nil, fDepth))
	}

	err := b.Close()
	require.Error(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.ErrorIs(t, err, fs.ErrInjected)

	require.NoError(t, b.Cleanup())
	assert.Equal(t, int64(0), s.LiveFiles())
	assert.Len(t, ffs.Removed(), 2)
}

func BenchmarkAdd(b *testing.B) {
	s, err := spill.NewSession(func(o *spill.Options) {
		o.Dir = b.TempDir()
		o.Registry = model.Registry()
	})
	require.NoError(b, err)

	coords := testutil.NewRNG(4711).Coords(10_000, -80, 80)
	features := make([]*model.Feature, len(coords))
	for i, c := range coords {
		features[i] = feature("", model.NewPoint(c[1], c[0]), fName, fDepth)
	}

	for b.Loop() {
		bk := New(s)
		for _, f := range features {
			_, _ = bk.Add(f, "")
		}
		_ = bk.Close()
		_ = bk.Cleanup()
	}
}
