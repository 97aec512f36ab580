// Package geometry implements the pure polygon math the conflict engine is
// built on: validation, area, clipping, and Intersection-over-Union. Every
// function is deterministic and side-effect free so classifications can be
// replayed bit-for-bit during an audit.
package geometry

import (
	"errors"

	"github.com/landsafe/landsafe/internal/model"
)

var (
	// ErrTooFewVertices: a ring needs at least 3 points
	ErrTooFewVertices = errors.New("polygon has fewer than 3 vertices")
	// ErrOutOfRange: a coordinate violates WGS84 lat/lng bounds
	ErrOutOfRange = errors.New("coordinate out of WGS84 range")
	// ErrDegenerateArea: the ring encloses (approximately) zero area
	ErrDegenerateArea = errors.New("polygon encloses zero area")
	// ErrSelfIntersecting: the ring is not simple
	ErrSelfIntersecting = errors.New("polygon ring self-intersects")
	// ErrSpanTooLarge: the parcel exceeds the planar approximation's domain
	ErrSpanTooLarge = errors.New("polygon span exceeds supported parcel size")
)

const (
	earthRadiusMeters = 6371000.0

	// maxParcelSpanMeters bounds where the equirectangular area approximation
	// is trusted. Relative error grows with the square of span/earth-radius;
	// under 2 km it stays below ~0.01%, and 50 km is the hard cutoff.
	maxParcelSpanMeters = 50000.0

	// areaEpsilonSqm: anything smaller is treated as degenerate
	areaEpsilonSqm = 1e-6
)

// Validate checks a polygon once at the boundary. Downstream geometry code
// assumes a valid simple ring and never re-checks shape.
func Validate(p model.Polygon) error {
	if len(p.Points) < 3 {
		return ErrTooFewVertices
	}
	for _, pt := range p.Points {
		if !pt.InRange() {
			return ErrOutOfRange
		}
	}
	if spanMeters(BoundingBox(p)) > maxParcelSpanMeters {
		return ErrSpanTooLarge
	}
	if selfIntersects(p.Points) {
		return ErrSelfIntersecting
	}
	if Area(p) < areaEpsilonSqm {
		return ErrDegenerateArea
	}
	return nil
}

// BoundingBox returns the axis-aligned bounds of the ring
func BoundingBox(p model.Polygon) model.Bounds {
	b := model.Bounds{MinLat: 91, MinLng: 181, MaxLat: -91, MaxLng: -181}
	for _, pt := range p.Points {
		if pt.Lat < b.MinLat {
			b.MinLat = pt.Lat
		}
		if pt.Lat > b.MaxLat {
			b.MaxLat = pt.Lat
		}
		if pt.Lng < b.MinLng {
			b.MinLng = pt.Lng
		}
		if pt.Lng > b.MaxLng {
			b.MaxLng = pt.Lng
		}
	}
	return b
}

// Centroid returns the vertex mean, which is stable enough to anchor the
// local projection and to derive the region bucket
func Centroid(p model.Polygon) model.Coordinate {
	var lat, lng float64
	for _, pt := range p.Points {
		lat += pt.Lat
		lng += pt.Lng
	}
	n := float64(len(p.Points))
	return model.Coordinate{Lat: lat / n, Lng: lng / n}
}

// Contains reports whether the point lies inside the ring (even-odd rule).
// Boundary points are subject to floating-point tie-breaking, which is fine
// for the candidate checks this backs.
func Contains(p model.Polygon, pt model.Coordinate) bool {
	ring := p.Points
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt.Lng, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lng, ring[i].Lat
		xj, yj := ring[j].Lng, ring[j].Lat
		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi+1e-12)+xi) {
			inside = !inside
		}
	}
	return inside
}

// selfIntersects tests every non-adjacent segment pair of the closed ring
func selfIntersects(ring []model.Coordinate) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		a1 := ring[i]
		a2 := ring[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip segments sharing a vertex with segment i
			if j == i || (j+1)%n == i || j == (i+1)%n {
				continue
			}
			b1 := ring[j]
			b2 := ring[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports a proper crossing between two segments
func segmentsCross(p1, p2, p3, p4 model.Coordinate) bool {
	d1 := orient(p3, p4, p1)
	d2 := orient(p3, p4, p2)
	d3 := orient(p1, p2, p3)
	d4 := orient(p1, p2, p4)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// orient returns the signed area of the triangle (a, b, c) in degree space
func orient(a, b, c model.Coordinate) float64 {
	return (b.Lng-a.Lng)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lng-a.Lng)
}
