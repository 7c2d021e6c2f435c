package model

import (
	"slices"

	"github.com/hupe1980/giscore/codec"
)

// Schema is an ordered, name-keyed set of field definitions.
type Schema struct {
	ID     string
	Name   string
	Parent string

	fields []*SimpleField
	index  map[string]int
}

// NewSchema returns an empty schema with the given id.
func NewSchema(id, name string) *Schema {
	return &Schema{ID: id, Name: name}
}

// Put adds f, replacing any field with the same name in place.
func (s *Schema) Put(f *SimpleField) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[f.Name]; ok {
		s.fields[i] = f
		return
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
}

// Field returns the field named name, or nil.
func (s *Schema) Field(name string) *SimpleField {
	if i, ok := s.index[name]; ok {
		return s.fields[i]
	}
	return nil
}

// Fields returns the fields in insertion order.
func (s *Schema) Fields() []*SimpleField { return slices.Clone(s.fields) }

// Keys returns the field names in insertion order.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.fields))
	for i, f := range s.fields {
		keys[i] = f.Name
	}
	return keys
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// OIDField returns the first field of type FieldOID, or nil.
func (s *Schema) OIDField() *SimpleField { return s.fieldOfType(FieldOID) }

// GeometryField returns the first field of type FieldGeometry, or nil.
func (s *Schema) GeometryField() *SimpleField { return s.fieldOfType(FieldGeometry) }

func (s *Schema) fieldOfType(t FieldType) *SimpleField {
	for _, f := range s.fields {
		if f.Type == t {
			return f
		}
	}
	return nil
}

func (*Schema) TypeName() string { return typeSchema }

func (s *Schema) WriteFields(enc *codec.Encoder) error {
	for _, v := range []string{s.ID, s.Name, s.Parent} {
		if err := enc.WriteString(v); err != nil {
			return err
		}
	}
	return codec.WriteCollection(enc, s.fields)
}

func (s *Schema) ReadFields(dec *codec.Decoder) error {
	var err error
	for _, p := range []*string{&s.ID, &s.Name, &s.Parent} {
		if *p, err = dec.ReadString(); err != nil {
			return err
		}
	}
	fields, err := codec.ReadCollection[*SimpleField](dec)
	if err != nil {
		return err
	}
	s.fields, s.index = nil, nil
	for _, f := range fields {
		if f != nil {
			s.Put(f)
		}
	}
	return nil
}
