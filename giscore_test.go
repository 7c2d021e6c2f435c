package giscore_test

import (
	"errors"
	"os"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/giscore"
	"github.com/hupe1980/giscore/internal/fs"
	"github.com/hupe1980/giscore/model"
	"github.com/hupe1980/giscore/sortmerge"
	"github.com/hupe1980/giscore/spill"
)

func openTestEngine(t *testing.T, opts ...giscore.Option) (*giscore.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	opts = append([]giscore.Option{
		giscore.WithDir(dir),
		giscore.WithLogger(giscore.NoopLogger()),
	}, opts...)
	eng, err := giscore.Open(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng, dir
}

func TestOpen_Registry(t *testing.T) {
	eng, _ := openTestEngine(t)

	for _, name := range []string{
		sortmerge.TupleTypeName,
		"giscore.model.Feature",
		"giscore.model.Schema",
		"giscore.model.Point",
	} {
		_, ok := eng.Registry().Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestOpen_DuplicateRegistry(t *testing.T) {
	_, err := giscore.Open(
		giscore.WithDir(t.TempDir()),
		giscore.WithRegistry(model.Registry()),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestOpen_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  giscore.Option
		want error
	}{
		{"capacity", giscore.WithBufferCapacity(0), spill.ErrInvalidCapacity},
		{"watermarks", giscore.WithReaderWatermarks(10, 10), spill.ErrInvalidWatermarks},
		{"max in memory", giscore.WithMaxInMemory(0), sortmerge.ErrInvalidMaxInMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := giscore.Open(giscore.WithDir(t.TempDir()), tt.opt)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEngine_BucketAndSort(t *testing.T) {
	eng, _ := openTestEngine(t,
		giscore.WithBufferCapacity(2),
		giscore.WithMaxInMemory(3),
	)

	b, err := eng.NewBucketer()
	require.NoError(t, err)

	name := model.NewSimpleField("name", model.FieldString)
	for i := range 10 {
		f := model.NewFeature("", model.NewPoint(float64(i), float64(-i)))
		f.Put(name, string(rune('a'+i)))
		_, err := b.Add(f, "")
		require.NoError(t, err)
	}
	require.NoError(t, b.Close())

	keys := b.Keys()
	require.Len(t, keys, 1)

	bounds, err := b.Bounds(keys[0])
	require.NoError(t, err)
	assert.Equal(t, model.Bounds{MinLon: -9, MaxLon: 0, MinLat: 0, MaxLat: 9}, *bounds)

	buf, err := b.Buffer(keys[0])
	require.NoError(t, err)
	assert.True(t, buf.Spilled())

	st, err := eng.NewSorter()
	require.NoError(t, err)
	for {
		rec, err := buf.Read()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		f := rec.(*model.Feature)
		v, _ := f.Value("name")
		// Sort descending by name.
		require.NoError(t, st.Add(sortmerge.Tuple{-int64(v.(string)[0]), v}))
	}
	assert.Equal(t, 10, st.Len())

	it, err := st.Iterator()
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for tup, err := range it.All() {
		require.NoError(t, err)
		got = append(got, tup[1].(string))
	}
	assert.Equal(t, []string{"j", "i", "h", "g", "f", "e", "d", "c", "b", "a"}, got)
}

func TestEngine_CloseRemovesBackingFiles(t *testing.T) {
	eng, dir := openTestEngine(t,
		giscore.WithBufferCapacity(1),
		giscore.WithMaxInMemory(2),
	)

	buf, err := eng.NewObjectBuffer()
	require.NoError(t, err)
	for i := range 3 {
		require.NoError(t, buf.Write(model.NewPoint(float64(i), 0)))
	}
	require.NoError(t, buf.CloseOutput())

	r, err := eng.OpenReader(buf.SpillPath())
	require.NoError(t, err)
	obj, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, model.NewPoint(1, 0), obj)

	st, err := eng.NewSorter()
	require.NoError(t, err)
	for i := range 5 {
		require.NoError(t, st.Add(sortmerge.Tuple{int64(i)}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(2), eng.Session().LiveFiles())

	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), eng.Session().LiveFiles())

	assert.ErrorIs(t, buf.Write(model.NewPoint(0, 0)), spill.ErrClosed)
	assert.ErrorIs(t, st.Add(sortmerge.Tuple{int64(0)}), sortmerge.ErrDisposed)
}

func TestEngine_ClosedEngine(t *testing.T) {
	eng, _ := openTestEngine(t)
	require.NoError(t, eng.Close())

	_, err := eng.NewObjectBuffer()
	assert.ErrorIs(t, err, giscore.ErrEngineClosed)
	_, err = eng.NewSorter()
	assert.ErrorIs(t, err, giscore.ErrEngineClosed)
	_, err = eng.NewBucketer()
	assert.ErrorIs(t, err, giscore.ErrEngineClosed)
	_, err = eng.OpenReader("missing")
	assert.ErrorIs(t, err, giscore.ErrEngineClosed)
}

func TestEngine_CloseAggregatesErrors(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".buffer", fs.Fault{FailAfterBytes: 0, FailAfterReads: -1})
	eng, _ := openTestEngine(t,
		giscore.WithBufferCapacity(1),
		giscore.WithFileSystem(ffs),
	)

	for range 2 {
		buf, err := eng.NewObjectBuffer()
		require.NoError(t, err)
		// The second record sits in the encoder buffer until Close flushes it.
		require.NoError(t, buf.Write(model.NewPoint(0, 0)))
		require.NoError(t, buf.Write(model.NewPoint(1, 1)))
	}

	err := eng.Close()
	require.ErrorIs(t, err, fs.ErrInjected)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.Len(t, ffs.Removed(), 2)
	assert.Equal(t, int64(0), eng.Session().LiveFiles())
}

func TestEngine_DiskLimit(t *testing.T) {
	eng, _ := openTestEngine(t,
		giscore.WithBufferCapacity(1),
		giscore.WithDiskLimit(100),
	)

	buf, err := eng.NewObjectBuffer()
	require.NoError(t, err)

	for i := 0; i < 1000 && err == nil; i++ {
		err = buf.Write(model.NewPoint(float64(i), float64(i)))
	}
	require.ErrorIs(t, err, giscore.ErrDiskQuotaExceeded)

	_ = buf.Close()
	assert.Equal(t, int64(0), eng.DiskUsage())
}
