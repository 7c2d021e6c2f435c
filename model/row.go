package model

import (
	"fmt"

	"github.com/hupe1980/giscore/codec"
)

// Record is a tabular or geometric record routed by the bucketer.
type Record interface {
	codec.Serializable

	// SchemaRef returns the id of the referenced schema, or "" for none.
	SchemaRef() string

	// Fields returns the field definitions attached to the record.
	Fields() []*SimpleField

	// Geom returns the record's geometry, or nil.
	Geom() Geometry
}

// Row is a record of field values without geometry. Values must be scalars
// the codec can encode.
type Row struct {
	Schema string
	ID     string

	fields []*SimpleField
	values []any
	index  map[string]int
}

// NewRow returns an empty row referencing schema (may be "").
func NewRow(schema string) *Row {
	return &Row{Schema: schema}
}

// Put sets the value of field f, replacing an earlier value for the same name.
func (r *Row) Put(f *SimpleField, v any) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[f.Name]; ok {
		r.fields[i], r.values[i] = f, v
		return
	}
	r.index[f.Name] = len(r.fields)
	r.fields = append(r.fields, f)
	r.values = append(r.values, v)
}

// Value returns the value stored for the named field.
func (r *Row) Value(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Len returns the number of fields with values.
func (r *Row) Len() int { return len(r.fields) }

func (r *Row) SchemaRef() string { return r.Schema }

func (r *Row) Fields() []*SimpleField {
	out := make([]*SimpleField, len(r.fields))
	copy(out, r.fields)
	return out
}

func (*Row) Geom() Geometry { return nil }

func (*Row) TypeName() string { return typeRow }

func (r *Row) WriteFields(enc *codec.Encoder) error {
	if err := enc.WriteString(r.Schema); err != nil {
		return err
	}
	if err := enc.WriteString(r.ID); err != nil {
		return err
	}
	if err := enc.WriteLen(len(r.fields)); err != nil {
		return err
	}
	for i, f := range r.fields {
		if err := enc.WriteObject(f); err != nil {
			return err
		}
		if err := enc.WriteScalar(r.values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Row) ReadFields(dec *codec.Decoder) error {
	var err error
	if r.Schema, err = dec.ReadString(); err != nil {
		return err
	}
	if r.ID, err = dec.ReadString(); err != nil {
		return err
	}
	n, err := dec.ReadInt()
	if err != nil {
		return err
	}
	if n < 0 {
		return codec.ErrNegativeLength
	}
	r.fields, r.values, r.index = nil, nil, nil
	for range n {
		obj, err := dec.ReadObject()
		if err != nil {
			return err
		}
		v, err := dec.ReadScalar()
		if err != nil {
			return err
		}
		f, ok := obj.(*SimpleField)
		if !ok {
			continue
		}
		r.Put(f, v)
	}
	return nil
}

// Feature is a Row with an optional geometry.
type Feature struct {
	Row

	Name        string
	Description string
	Geometry    Geometry
}

// NewFeature returns an empty feature referencing schema (may be "").
func NewFeature(schema string, g Geometry) *Feature {
	return &Feature{Row: Row{Schema: schema}, Geometry: g}
}

func (f *Feature) Geom() Geometry { return f.Geometry }

func (*Feature) TypeName() string { return typeFeature }

func (f *Feature) WriteFields(enc *codec.Encoder) error {
	if err := f.Row.WriteFields(enc); err != nil {
		return err
	}
	if err := enc.WriteString(f.Name); err != nil {
		return err
	}
	if err := enc.WriteString(f.Description); err != nil {
		return err
	}
	return enc.WriteObject(f.Geometry)
}

func (f *Feature) ReadFields(dec *codec.Decoder) error {
	if err := f.Row.ReadFields(dec); err != nil {
		return err
	}
	var err error
	if f.Name, err = dec.ReadString(); err != nil {
		return err
	}
	if f.Description, err = dec.ReadString(); err != nil {
		return err
	}
	obj, err := dec.ReadObject()
	if err != nil {
		return err
	}
	if obj == nil {
		f.Geometry = nil
		return nil
	}
	g, ok := obj.(Geometry)
	if !ok {
		return fmt.Errorf("model: feature geometry is a %s", obj.TypeName())
	}
	f.Geometry = g
	return nil
}
