package bucket

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/giscore/model"
)

// Key is the category fingerprint of a record: its effective schema, its
// geometry type name ("" without geometry) and its record type name. Records
// with equal keys share a bucket.
//
// Schema is the schema id. SchemaSeq numbers schema instances per Bucketer
// in discovery order, so a synthesized schema and a registered one with the
// same id, or a schema redefined under an id already in use, never share a
// bucket.
type Key struct {
	Schema    string
	SchemaSeq uint64
	Geometry  string
	Record    string
}

func (k Key) String() string {
	g := k.Geometry
	if g == "" {
		g = "-"
	}
	return fmt.Sprintf("%s#%d/%s/%s", k.Schema, k.SchemaSeq, g, k.Record)
}

// fieldSet is the order-independent identity of a record's field definitions.
type fieldSet struct {
	ids  []string // sorted, unique "name\x00TYPE"
	hash uint64
}

func newFieldSet(fields []*model.SimpleField) fieldSet {
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != nil {
			ids = append(ids, f.Name+"\x00"+f.Type.String())
		}
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	d := xxhash.New()
	for _, id := range ids {
		_, _ = d.WriteString(id)
		_, _ = d.Write([]byte{0xff})
	}
	return fieldSet{ids: ids, hash: d.Sum64()}
}

func (fs fieldSet) equal(other fieldSet) bool {
	return fs.hash == other.hash && slices.Equal(fs.ids, other.ids)
}

// synthesized is a schema created for records without a schema reference.
type synthesized struct {
	fields fieldSet
	schema *model.Schema
}
