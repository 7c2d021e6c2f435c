// Package model defines the records giscore persists and buckets.
//
// # Attribute Types
//
//   - SimpleField: one attribute column (name, type, sizes, flags)
//   - Schema: ordered, name-keyed set of fields with an id
//   - Row: field values referencing a schema by id, or carrying their own fields
//   - Feature: a Row with an optional Geometry
//
// # Geometry Types
//
//   - Point, Line, LinearRing, Polygon, MultiPoint
//   - Bounds: geographic bounding box with Include and Intersects
//
// Every type implements codec.Serializable; [Registry] returns the entries
// needed to decode them.
//
//	f := model.NewFeature("", model.NewPoint(10, 10))
//	f.Put(model.NewSimpleField("name", model.FieldString), "buoy")
package model
