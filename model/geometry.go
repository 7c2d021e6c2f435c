package model

import (
	"errors"

	"github.com/hupe1980/giscore/codec"
)

// ErrEmptyGeometry is returned by Bounds for a geometry without positions.
var ErrEmptyGeometry = errors.New("model: empty geometry")

// Geometry is a persistable shape. Its TypeName identifies the geometry
// class in bucket keys.
type Geometry interface {
	codec.Serializable

	// Bounds returns the bounding box of all positions.
	Bounds() (Bounds, error)

	// NumPoints returns the number of positions.
	NumPoints() int
}

// Point is a single position.
type Point struct {
	Lon float64
	Lat float64
}

// NewPoint returns a point at lat/lon.
func NewPoint(lat, lon float64) *Point { return &Point{Lon: lon, Lat: lat} }

func (p *Point) Bounds() (Bounds, error) { return PointBounds(p.Lon, p.Lat), nil }

func (*Point) NumPoints() int { return 1 }

func (*Point) TypeName() string { return typePoint }

func (p *Point) WriteFields(enc *codec.Encoder) error {
	if err := enc.WriteDouble(p.Lon); err != nil {
		return err
	}
	return enc.WriteDouble(p.Lat)
}

func (p *Point) ReadFields(dec *codec.Decoder) error {
	var err error
	if p.Lon, err = dec.ReadDouble(); err != nil {
		return err
	}
	p.Lat, err = dec.ReadDouble()
	return err
}

// positions are the shared payload of the point-sequence geometries.
type positions []Point

func (ps positions) bounds() (Bounds, error) {
	if len(ps) == 0 {
		return Bounds{}, ErrEmptyGeometry
	}
	b := PointBounds(ps[0].Lon, ps[0].Lat)
	for _, p := range ps[1:] {
		b.Include(PointBounds(p.Lon, p.Lat))
	}
	return b, nil
}

func (ps positions) write(enc *codec.Encoder) error {
	if err := enc.WriteLen(len(ps)); err != nil {
		return err
	}
	for i := range ps {
		if err := ps[i].WriteFields(enc); err != nil {
			return err
		}
	}
	return nil
}

func readPositions(dec *codec.Decoder) (positions, error) {
	n, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, codec.ErrNegativeLength
	}
	if n == 0 {
		return nil, nil
	}
	ps := make(positions, n)
	for i := range ps {
		if err := ps[i].ReadFields(dec); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// Line is an open sequence of positions.
type Line struct {
	Points []Point
}

func (l *Line) Bounds() (Bounds, error) { return positions(l.Points).bounds() }

func (l *Line) NumPoints() int { return len(l.Points) }

func (*Line) TypeName() string { return typeLine }

func (l *Line) WriteFields(enc *codec.Encoder) error { return positions(l.Points).write(enc) }

func (l *Line) ReadFields(dec *codec.Decoder) (err error) {
	l.Points, err = readPositions(dec)
	return err
}

// LinearRing is a closed sequence of positions: the last equals the first.
type LinearRing struct {
	Points []Point
}

// Closed reports whether the ring's last position equals its first.
func (r *LinearRing) Closed() bool {
	return len(r.Points) >= 4 && r.Points[0] == r.Points[len(r.Points)-1]
}

func (r *LinearRing) Bounds() (Bounds, error) { return positions(r.Points).bounds() }

func (r *LinearRing) NumPoints() int { return len(r.Points) }

func (*LinearRing) TypeName() string { return typeLinearRing }

func (r *LinearRing) WriteFields(enc *codec.Encoder) error { return positions(r.Points).write(enc) }

func (r *LinearRing) ReadFields(dec *codec.Decoder) (err error) {
	r.Points, err = readPositions(dec)
	return err
}

// Polygon is an outer ring with optional holes. The outer ring bounds it.
type Polygon struct {
	Outer *LinearRing
	Inner []*LinearRing
}

func (p *Polygon) Bounds() (Bounds, error) {
	if p.Outer == nil {
		return Bounds{}, ErrEmptyGeometry
	}
	return p.Outer.Bounds()
}

func (p *Polygon) NumPoints() int {
	n := 0
	if p.Outer != nil {
		n = p.Outer.NumPoints()
	}
	for _, r := range p.Inner {
		n += r.NumPoints()
	}
	return n
}

func (*Polygon) TypeName() string { return typePolygon }

func (p *Polygon) WriteFields(enc *codec.Encoder) error {
	var outer codec.Serializable
	if p.Outer != nil {
		outer = p.Outer
	}
	if err := enc.WriteObject(outer); err != nil {
		return err
	}
	return codec.WriteCollection(enc, p.Inner)
}

func (p *Polygon) ReadFields(dec *codec.Decoder) error {
	obj, err := dec.ReadObject()
	if err != nil {
		return err
	}
	p.Outer, _ = obj.(*LinearRing)
	p.Inner, err = codec.ReadCollection[*LinearRing](dec)
	return err
}

// MultiPoint is an unordered collection of positions.
type MultiPoint struct {
	Points []Point
}

func (m *MultiPoint) Bounds() (Bounds, error) { return positions(m.Points).bounds() }

func (m *MultiPoint) NumPoints() int { return len(m.Points) }

func (*MultiPoint) TypeName() string { return typeMultiPoint }

func (m *MultiPoint) WriteFields(enc *codec.Encoder) error { return positions(m.Points).write(enc) }

func (m *MultiPoint) ReadFields(dec *codec.Decoder) (err error) {
	m.Points, err = readPositions(dec)
	return err
}
