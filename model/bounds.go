package model

import "fmt"

// Bounds is a geographic bounding box in decimal degrees.
type Bounds struct {
	MinLon float64 // Western edge
	MaxLon float64 // Eastern edge
	MinLat float64 // Southern edge
	MaxLat float64 // Northern edge
}

// PointBounds returns the degenerate box covering a single position.
func PointBounds(lon, lat float64) Bounds {
	return Bounds{MinLon: lon, MaxLon: lon, MinLat: lat, MaxLat: lat}
}

// Include grows b to cover other.
func (b *Bounds) Include(other Bounds) {
	b.MinLon = min(b.MinLon, other.MinLon)
	b.MaxLon = max(b.MaxLon, other.MaxLon)
	b.MinLat = min(b.MinLat, other.MinLat)
	b.MaxLat = max(b.MaxLat, other.MaxLat)
}

// Contains returns true if the point (lon, lat) is within the bounds.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon &&
		lat >= b.MinLat && lat <= b.MaxLat
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxLon < b.MinLon ||
		other.MinLon > b.MaxLon ||
		other.MaxLat < b.MinLat ||
		other.MinLat > b.MaxLat)
}

// Width returns the longitude extent.
func (b Bounds) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the latitude extent.
func (b Bounds) Height() float64 { return b.MaxLat - b.MinLat }

func (b Bounds) String() string {
	return fmt.Sprintf("[%g,%g]x[%g,%g]", b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
}
