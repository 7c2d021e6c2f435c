package bucket

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hashicorp/go-multierror"

	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/model"
	"github.com/hupe1980/giscore/spill"
)

// bucket holds every record of one Key in arrival order.
type bucket struct {
	seq      int
	key      Key
	schema   *model.Schema
	buf      *spill.ObjectBuffer
	bounds   *model.Bounds
	ordinals *roaring64.Bitmap
	pathHint string
}

// Bucketer routes a single-pass stream of records into per-category spill
// buffers and keeps a bounding box per category.
//
// A format writer calls Add once per record, then Close, then enumerates
// Keys and drains each Buffer. Bucketer is not safe for concurrent use.
type Bucketer struct {
	s      *spill.Session
	logger *slog.Logger

	schemata    map[string]*model.Schema // resolves schema references
	schemaSeq   map[*model.Schema]uint64
	schemaOrder []*model.Schema
	synth       map[uint64][]synthesized

	buckets map[Key]*bucket
	order   []*bucket
	current *bucket

	ordinal uint64
	index   spatialIndex
	closed  bool
}

// New creates an empty Bucketer whose buffers spill through s.
func New(s *spill.Session) *Bucketer {
	b := &Bucketer{
		s:      s,
		logger: s.Logger().With("component", "bucket", "bucketer", s.NextSeq()),
	}
	b.reset()
	return b
}

func (b *Bucketer) reset() {
	b.schemata = make(map[string]*model.Schema)
	b.schemaSeq = make(map[*model.Schema]uint64)
	b.schemaOrder = nil
	b.synth = make(map[uint64][]synthesized)
	b.buckets = make(map[Key]*bucket)
	b.order = nil
	b.current = nil
	b.ordinal = 0
	b.index = spatialIndex{}
	b.closed = false
}

// Add routes rec to the bucket of its Key and returns the key.
//
// The effective schema is the one rec references by id, or one synthesized
// from rec's field set. A reserved OID field is added to the schema if it
// has none. pathHint names the source of the bucket for output naming; the
// first non-empty hint per bucket is kept.
func (b *Bucketer) Add(rec model.Record, pathHint string) (Key, error) {
	if codec.IsNil(rec) {
		return Key{}, ErrNilRecord
	}
	if b.closed {
		return Key{}, spill.ErrOutputClosed
	}

	schema := b.effectiveSchema(rec)
	if schema.OIDField() == nil {
		schema.Put(model.NewOIDField())
	}

	g := rec.Geom()
	key := Key{Schema: schema.ID, SchemaSeq: b.schemaSeq[schema], Record: rec.TypeName()}
	if g != nil {
		key.Geometry = g.TypeName()
	}

	bk := b.current
	if bk == nil || bk.key != key {
		var err error
		if bk, err = b.bucketFor(key, schema); err != nil {
			return key, err
		}
		b.current = bk
	}

	if err := bk.buf.Write(rec); err != nil {
		return key, fmt.Errorf("bucket %s: %w", key, err)
	}
	bk.ordinals.Add(b.ordinal)
	b.ordinal++

	if bk.pathHint == "" {
		bk.pathHint = pathHint
	}

	if g == nil {
		return key, nil
	}
	// Empty geometries carry a type but no extent.
	if gb, err := g.Bounds(); err == nil {
		if bk.bounds == nil {
			bk.bounds = &gb
		} else {
			bk.bounds.Include(gb)
		}
		b.index.invalidate()
	}
	return key, nil
}

func (b *Bucketer) bucketFor(key Key, schema *model.Schema) (*bucket, error) {
	if bk, ok := b.buckets[key]; ok {
		return bk, nil
	}
	buf, err := spill.NewObjectBuffer(b.s, b.s.Options().BufferCapacity)
	if err != nil {
		return nil, err
	}
	bk := &bucket{
		seq:      len(b.order),
		key:      key,
		schema:   schema,
		buf:      buf,
		ordinals: roaring64.New(),
	}
	b.buckets[key] = bk
	b.order = append(b.order, bk)
	b.s.Metrics().RecordBucket()
	b.logger.Debug("bucket created", "key", key.String(), "schema", schema.Name)
	return bk, nil
}

func (b *Bucketer) effectiveSchema(rec model.Record) *model.Schema {
	if ref := rec.SchemaRef(); ref != "" {
		if s, ok := b.schemata[ref]; ok {
			return s
		}
		// Unresolved reference: an ad hoc schema that later records with the
		// same reference share.
		s := model.NewSchema(ref, ref)
		for _, f := range rec.Fields() {
			s.Put(f)
		}
		b.register(s, true)
		b.logger.Debug("ad hoc schema for unresolved reference", "schema", ref)
		return s
	}

	fields := rec.Fields()
	fs := newFieldSet(fields)
	for _, e := range b.synth[fs.hash] {
		if e.fields.equal(fs) {
			return e.schema
		}
	}

	n := b.s.NextSeq()
	s := model.NewSchema(fmt.Sprintf("s_%d", n), fmt.Sprintf("schema_%d", n))
	for _, f := range fields {
		if f != nil {
			s.Put(f)
		}
	}
	b.synth[fs.hash] = append(b.synth[fs.hash], synthesized{fields: fs, schema: s})
	// Synthesized ids are not resolvable; a record referencing "s_1" gets its
	// own schema.
	b.register(s, false)
	return s
}

// register numbers s on first sight. A resolvable schema also becomes the
// target of references to its id, replacing any earlier schema for new
// records while existing buckets keep theirs.
func (b *Bucketer) register(s *model.Schema, resolvable bool) {
	if _, ok := b.schemaSeq[s]; !ok {
		b.schemaSeq[s] = uint64(len(b.schemaOrder)) + 1
		b.schemaOrder = append(b.schemaOrder, s)
	}
	if resolvable {
		b.schemata[s.ID] = s
	}
}

// AddSchema registers schema so records referencing its id resolve to it.
// A reserved OID field is added if the schema has none. Registering a new
// schema under an id already in use opens new buckets for later records.
func (b *Bucketer) AddSchema(schema *model.Schema) error {
	if schema == nil {
		return ErrNilSchema
	}
	if schema.OIDField() == nil {
		schema.Put(model.NewOIDField())
	}
	b.register(schema, true)
	return nil
}

// Keys returns the bucket keys in discovery order.
func (b *Bucketer) Keys() []Key {
	keys := make([]Key, len(b.order))
	for i, bk := range b.order {
		keys[i] = bk.key
	}
	return keys
}

// Schemata returns every known schema in discovery order.
func (b *Bucketer) Schemata() []*model.Schema { return slices.Clone(b.schemaOrder) }

// Len returns the number of buckets.
func (b *Bucketer) Len() int { return len(b.order) }

// Total returns the number of records added.
func (b *Bucketer) Total() uint64 { return b.ordinal }

func (b *Bucketer) lookup(key Key) (*bucket, error) {
	bk, ok := b.buckets[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return bk, nil
}

// Buffer returns the buffer holding the records of key.
func (b *Bucketer) Buffer(key Key) (*spill.ObjectBuffer, error) {
	bk, err := b.lookup(key)
	if err != nil {
		return nil, err
	}
	return bk.buf, nil
}

// Bounds returns a copy of the bounding box of key, or nil if no record of
// the bucket carried a non-empty geometry.
func (b *Bucketer) Bounds(key Key) (*model.Bounds, error) {
	bk, err := b.lookup(key)
	if err != nil || bk.bounds == nil {
		return nil, err
	}
	out := *bk.bounds
	return &out, nil
}

// Schema returns the schema key was created under.
func (b *Bucketer) Schema(key Key) (*model.Schema, error) {
	bk, err := b.lookup(key)
	if err != nil {
		return nil, err
	}
	return bk.schema, nil
}

// Count returns the number of records in key's bucket.
func (b *Bucketer) Count(key Key) (int, error) {
	bk, err := b.lookup(key)
	if err != nil {
		return 0, err
	}
	return bk.buf.Count(), nil
}

// Ordinals returns a copy of the stream positions (0-based) of key's records.
func (b *Bucketer) Ordinals(key Key) (*roaring64.Bitmap, error) {
	bk, err := b.lookup(key)
	if err != nil {
		return nil, err
	}
	return bk.ordinals.Clone(), nil
}

// PathHint returns the first non-empty path hint given for key.
func (b *Bucketer) PathHint(key Key) (string, error) {
	bk, err := b.lookup(key)
	if err != nil {
		return "", err
	}
	return bk.pathHint, nil
}

// Intersecting returns the keys whose bounds intersect q, in discovery order.
func (b *Bucketer) Intersecting(q model.Bounds) []Key {
	if b.index.dirty || b.index.tree == nil {
		var entries []*indexedBucket
		for _, bk := range b.order {
			if bk.bounds != nil {
				entries = append(entries, &indexedBucket{seq: bk.seq, key: bk.key, bounds: *bk.bounds})
			}
		}
		b.index.rebuild(entries)
	}

	hits := b.index.search(q)
	slices.SortFunc(hits, func(x, y *indexedBucket) int { return x.seq - y.seq })
	keys := make([]Key, len(hits))
	for i, h := range hits {
		keys[i] = h.key
	}
	return keys
}

// Close flushes and releases the write side of every bucket without
// discarding data. Records can then be read from each Buffer. Further Adds
// return spill.ErrOutputClosed. Close is idempotent.
func (b *Bucketer) Close() error {
	var result *multierror.Error
	for _, bk := range b.order {
		if err := bk.buf.CloseOutput(); err != nil {
			result = multierror.Append(result, fmt.Errorf("bucket %s: %w", bk.key, err))
		}
	}
	b.closed = true
	b.current = nil
	return result.ErrorOrNil()
}

// Cleanup closes every buffer, deletes the backing files and resets the
// Bucketer to empty so it can be reused.
func (b *Bucketer) Cleanup() error {
	var result *multierror.Error
	for _, bk := range b.order {
		if err := bk.buf.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("bucket %s: %w", bk.key, err))
		}
	}
	if n := len(b.order); n > 0 {
		b.logger.Debug("bucketer cleaned up", "buckets", n, "records", b.ordinal)
	}
	b.reset()
	return result.ErrorOrNil()
}
