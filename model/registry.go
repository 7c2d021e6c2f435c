package model

import "github.com/hupe1980/giscore/codec"

const (
	typeSimpleField = "giscore.model.SimpleField"
	typeSchema      = "giscore.model.Schema"
	typeRow         = "giscore.model.Row"
	typeFeature     = "giscore.model.Feature"
	typePoint       = "giscore.model.Point"
	typeLine        = "giscore.model.Line"
	typeLinearRing  = "giscore.model.LinearRing"
	typePolygon     = "giscore.model.Polygon"
	typeMultiPoint  = "giscore.model.MultiPoint"
)

// Registry returns the codec registry of every record kind in this package.
func Registry() *codec.Registry {
	return codec.NewRegistry(
		codec.Entry{Name: typeSimpleField, New: func() codec.Serializable { return &SimpleField{} }},
		codec.Entry{Name: typeSchema, New: func() codec.Serializable { return &Schema{} }},
		codec.Entry{Name: typeRow, New: func() codec.Serializable { return &Row{} }},
		codec.Entry{Name: typeFeature, New: func() codec.Serializable { return &Feature{} }},
		codec.Entry{Name: typePoint, New: func() codec.Serializable { return &Point{} }},
		codec.Entry{Name: typeLine, New: func() codec.Serializable { return &Line{} }},
		codec.Entry{Name: typeLinearRing, New: func() codec.Serializable { return &LinearRing{} }},
		codec.Entry{Name: typePolygon, New: func() codec.Serializable { return &Polygon{} }},
		codec.Entry{Name: typeMultiPoint, New: func() codec.Serializable { return &MultiPoint{} }},
	)
}
