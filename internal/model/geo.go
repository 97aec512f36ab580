package model

// Coordinate represents a geographic position in WGS84 degrees
type Coordinate struct {
	Lat float64 `json:"lat"` // -90..90
	Lng float64 `json:"lng"` // -180..180
}

// InRange reports whether the coordinate is within WGS84 bounds
func (c Coordinate) InRange() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Polygon is an ordered ring of coordinates describing a parcel boundary.
// The first and last point are implicitly connected; the ring must be simple
// (non-self-intersecting) and enclose a non-zero area. Validation happens once
// at the boundary (geometry.Validate) so downstream code never re-checks shape.
type Polygon struct {
	Points []Coordinate `json:"points"`
}

// Bounds is an axis-aligned bounding box in degrees
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Intersects reports whether two bounding boxes overlap
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinLat <= o.MaxLat && b.MaxLat >= o.MinLat &&
		b.MinLng <= o.MaxLng && b.MaxLng >= o.MinLng
}

// Expand grows the box by the given margin in degrees on every side
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - margin,
		MinLng: b.MinLng - margin,
		MaxLat: b.MaxLat + margin,
		MaxLng: b.MaxLng + margin,
	}
}
