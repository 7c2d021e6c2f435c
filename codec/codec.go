// Package codec implements the self-describing binary object format used by
// every spill file and sort-merge run.
//
// The format is a single ordered byte stream written by an [Encoder] and read
// back, in the same order, by a [Decoder]. Type metadata is deduplicated per
// stream: the first object of a type carries its fully-qualified name and a
// new class id, later objects of the same type only carry the id. Instances
// are never shared; every object write is a fresh record.
//
// Treat the format as a breaking-change boundary: changing it makes existing
// spill files unreadable.
package codec

import (
	"fmt"
	"reflect"
	"sort"
)

// Serializable is implemented by every record type that can travel through
// an Encoder/Decoder pair.
//
// A record is reconstructed by obtaining a zero value from its Registry
// factory and calling ReadFields, which must consume exactly what
// WriteFields produced.
type Serializable interface {
	// TypeName returns the fully-qualified, stable name written to the stream.
	TypeName() string
	// WriteFields writes the record's private field layout.
	WriteFields(enc *Encoder) error
	// ReadFields restores the record from the stream.
	ReadFields(dec *Decoder) error
}

// IsNil reports whether obj is nil or an interface holding a nil pointer.
func IsNil(obj Serializable) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// Factory returns a new zero value of a registered record type.
type Factory func() Serializable

// Entry binds a type name to its factory.
type Entry struct {
	Name string
	New  Factory
}

// Registry is the closed set of record kinds a Decoder can materialize.
// A Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds a registry from static entries.
// It panics on duplicate or empty names since both are programming errors.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{factories: make(map[string]Factory, len(entries))}
	for _, e := range entries {
		r.add(e)
	}
	return r
}

// Merge returns a new registry holding the entries of all given registries.
func Merge(regs ...*Registry) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for _, reg := range regs {
		if reg == nil {
			continue
		}
		for name, f := range reg.factories {
			r.add(Entry{Name: name, New: f})
		}
	}
	return r
}

func (r *Registry) add(e Entry) {
	if e.Name == "" || e.New == nil {
		panic("codec: registry entry requires a name and a factory")
	}
	if _, dup := r.factories[e.Name]; dup {
		panic(fmt.Sprintf("codec: type %q registered twice", e.Name))
	}
	r.factories[e.Name] = e.New
}

// Lookup returns the factory for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
