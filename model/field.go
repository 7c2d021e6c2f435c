package model

import (
	"fmt"
	"strings"

	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/internal/conv"
)

// FieldType is the storage type of a SimpleField.
type FieldType uint8

const (
	FieldString FieldType = iota
	FieldInt
	FieldUInt
	FieldShort
	FieldUShort
	FieldFloat
	FieldDouble
	FieldGeometry
	FieldDate
	FieldOID
	FieldBool
)

var fieldTypeNames = [...]string{
	FieldString:   "STRING",
	FieldInt:      "INT",
	FieldUInt:     "UINT",
	FieldShort:    "SHORT",
	FieldUShort:   "USHORT",
	FieldFloat:    "FLOAT",
	FieldDouble:   "DOUBLE",
	FieldGeometry: "GEOMETRY",
	FieldDate:     "DATE",
	FieldOID:      "OID",
	FieldBool:     "BOOL",
}

var fieldTypeLengths = [...]int{
	FieldString: 255,
	FieldInt:    4,
	FieldUInt:   4,
	FieldShort:  2,
	FieldUShort: 2,
	FieldFloat:  4,
	FieldDouble: 8,
	FieldDate:   4,
	FieldOID:    4,
	FieldBool:   1,
}

func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", t)
}

// DefaultLength returns the length used when a field does not set one.
func (t FieldType) DefaultLength() int {
	if int(t) < len(fieldTypeLengths) {
		return fieldTypeLengths[t]
	}
	return 0
}

// ParseFieldType is the inverse of FieldType.String.
func ParseFieldType(s string) (FieldType, error) {
	for i, name := range fieldTypeNames {
		if name == s {
			return FieldType(i), nil //nolint:gosec // bounded by the table
		}
	}
	return 0, fmt.Errorf("model: unknown field type %q", s)
}

// SimpleField describes one attribute column. Zero Length, Precision and
// Scale mean "not set".
type SimpleField struct {
	Name        string
	Type        FieldType
	DisplayName string
	AliasName   string
	ModelName   string
	Length      int
	Precision   int
	Scale       int
	Required    bool
	Editable    bool
}

// NewSimpleField returns an editable field. The name is trimmed.
func NewSimpleField(name string, typ FieldType) *SimpleField {
	name = strings.TrimSpace(name)
	return &SimpleField{
		Name:        name,
		Type:        typ,
		DisplayName: name,
		Editable:    true,
	}
}

// EffectiveLength returns Length, or the type's default length if unset.
func (f *SimpleField) EffectiveLength() int {
	if f.Length > 0 {
		return f.Length
	}
	return f.Type.DefaultLength()
}

// Nullable reports whether the field may hold no value.
func (f *SimpleField) Nullable() bool { return !f.Required }

func (f *SimpleField) String() string {
	return fmt.Sprintf("%s:%s", f.Name, f.Type)
}

// OIDFieldName is the name of the reserved object-identifier field.
const OIDFieldName = "OID"

// NewOIDField returns the reserved object-identifier field injected into
// schemas that lack one.
func NewOIDField() *SimpleField {
	return &SimpleField{
		Name:        OIDFieldName,
		Type:        FieldOID,
		DisplayName: OIDFieldName,
		AliasName:   OIDFieldName,
		ModelName:   OIDFieldName,
		Length:      4,
		Required:    true,
		Editable:    false,
	}
}

func (*SimpleField) TypeName() string { return typeSimpleField }

func (f *SimpleField) WriteFields(enc *codec.Encoder) error {
	for _, s := range []string{f.AliasName, f.DisplayName, f.ModelName, f.Name, f.Type.String()} {
		if err := enc.WriteString(s); err != nil {
			return err
		}
	}
	for _, n := range []int{f.Length, f.Precision, f.Scale} {
		var v any
		if n != 0 {
			n32, err := conv.IntToInt32(n)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
			v = n32
		}
		if err := enc.WriteScalar(v); err != nil {
			return err
		}
	}
	if err := enc.WriteBool(f.Required); err != nil {
		return err
	}
	return enc.WriteBool(f.Editable)
}

func (f *SimpleField) ReadFields(dec *codec.Decoder) error {
	var (
		typ string
		err error
	)
	for _, p := range []*string{&f.AliasName, &f.DisplayName, &f.ModelName, &f.Name, &typ} {
		if *p, err = dec.ReadString(); err != nil {
			return err
		}
	}
	if f.Type, err = ParseFieldType(typ); err != nil {
		return err
	}
	for _, p := range []*int{&f.Length, &f.Precision, &f.Scale} {
		v, err := dec.ReadScalar()
		if err != nil {
			return err
		}
		if n, ok := v.(int32); ok {
			*p = int(n)
		}
	}
	if f.Required, err = dec.ReadBool(); err != nil {
		return err
	}
	f.Editable, err = dec.ReadBool()
	return err
}
