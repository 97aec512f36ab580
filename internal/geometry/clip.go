package geometry

import "github.com/landsafe/landsafe/internal/model"

// Intersect clips the subject ring against the candidate ring
// (Sutherland–Hodgman) and reports whether a non-degenerate overlap exists.
//
// The algorithm is exact when the clip ring is convex; for a concave clip
// ring the result can merge disjoint overlap pockets, which at worst
// overstates the intersection. Overstating keeps the conflict check
// conservative: a borderline overlap classifies as more severe, never less.
func Intersect(a, b model.Polygon) (model.Polygon, bool) {
	if !BoundingBox(a).Intersects(BoundingBox(b)) {
		return model.Polygon{}, false
	}

	out := counterClockwise(a.Points)
	clip := counterClockwise(b.Points)
	for i := 0; i < len(clip) && len(out) > 0; i++ {
		out = clipEdge(out, clip[i], clip[(i+1)%len(clip)])
	}
	if len(out) < 3 {
		return model.Polygon{}, false
	}

	poly := model.Polygon{Points: out}
	if Area(poly) < areaEpsilonSqm {
		return model.Polygon{}, false
	}
	return poly, true
}

// clipEdge keeps the part of the ring on the inner (left) side of the
// directed edge e1→e2 of a counter-clockwise clip ring
func clipEdge(ring []model.Coordinate, e1, e2 model.Coordinate) []model.Coordinate {
	out := make([]model.Coordinate, 0, len(ring)+1)
	n := len(ring)
	for i := 0; i < n; i++ {
		cur := ring[i]
		prev := ring[(i+n-1)%n]
		curInside := orient(e1, e2, cur) >= 0
		prevInside := orient(e1, e2, prev) >= 0
		switch {
		case curInside && prevInside:
			out = append(out, cur)
		case curInside && !prevInside:
			out = append(out, lineCross(prev, cur, e1, e2), cur)
		case !curInside && prevInside:
			out = append(out, lineCross(prev, cur, e1, e2))
		}
	}
	return out
}

// lineCross returns the intersection of the infinite lines p1→p2 and p3→p4.
// Callers only invoke it when the segment straddles the clip edge, so the
// denominator cannot be zero in practice.
func lineCross(p1, p2, p3, p4 model.Coordinate) model.Coordinate {
	x1, y1 := p1.Lng, p1.Lat
	x2, y2 := p2.Lng, p2.Lat
	x3, y3 := p3.Lng, p3.Lat
	x4, y4 := p4.Lng, p4.Lat

	den := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if den == 0 {
		return p2
	}
	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / den
	return model.Coordinate{
		Lat: y1 + t*(y2-y1),
		Lng: x1 + t*(x2-x1),
	}
}

// counterClockwise returns the ring in CCW order, reversing if needed
func counterClockwise(ring []model.Coordinate) []model.Coordinate {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].Lng*ring[j].Lat - ring[j].Lng*ring[i].Lat
	}
	if sum >= 0 {
		return ring
	}
	rev := make([]model.Coordinate, n)
	for i, pt := range ring {
		rev[n-1-i] = pt
	}
	return rev
}
