package geometry

import (
	"math"

	"github.com/landsafe/landsafe/internal/model"
)

// Area returns the enclosed area in square meters.
//
// The ring is projected onto a local plane (equirectangular projection
// centered on the polygon centroid) and measured with the shoelace formula.
// At parcel scale the approximation error is negligible: the relative error
// grows roughly with (span / earth radius)^2, staying under ~0.01% for spans
// below 2 km. Validate rejects polygons above 50 km span, beyond which a
// geodesic computation would be required.
//
// The result is invariant under vertex-order reversal and cyclic rotation of
// the starting vertex.
func Area(p model.Polygon) float64 {
	if len(p.Points) < 3 {
		return 0
	}
	xs, ys := project(p.Points, Centroid(p))
	return math.Abs(shoelace(xs, ys))
}

// project maps lat/lng degrees onto local planar meters around the anchor
func project(ring []model.Coordinate, anchor model.Coordinate) ([]float64, []float64) {
	latScale := earthRadiusMeters * math.Pi / 180
	lngScale := latScale * math.Cos(anchor.Lat*math.Pi/180)
	xs := make([]float64, len(ring))
	ys := make([]float64, len(ring))
	for i, pt := range ring {
		xs[i] = (pt.Lng - anchor.Lng) * lngScale
		ys[i] = (pt.Lat - anchor.Lat) * latScale
	}
	return xs, ys
}

// shoelace returns the signed polygon area of the projected ring
func shoelace(xs, ys []float64) float64 {
	n := len(xs)
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += xs[i]*ys[j] - xs[j]*ys[i]
	}
	return sum / 2
}

// spanMeters returns the larger side of the bounding box in meters
func spanMeters(b model.Bounds) float64 {
	latScale := earthRadiusMeters * math.Pi / 180
	midLat := (b.MinLat + b.MaxLat) / 2
	lngScale := latScale * math.Cos(midLat*math.Pi/180)
	h := (b.MaxLat - b.MinLat) * latScale
	w := (b.MaxLng - b.MinLng) * lngScale
	return math.Max(h, math.Abs(w))
}
