package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/landsafe/landsafe/internal/model"
)

// square builds an axis-aligned ring with the given side length in degrees,
// anchored at its south-west corner
func square(lat, lng, side float64) model.Polygon {
	return model.Polygon{Points: []model.Coordinate{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + side},
		{Lat: lat + side, Lng: lng + side},
		{Lat: lat + side, Lng: lng},
	}}
}

func TestValidate_TooFewVertices(t *testing.T) {
	p := model.Polygon{Points: []model.Coordinate{{Lat: 0, Lng: 0}, {Lat: 0.001, Lng: 0.001}}}
	if err := Validate(p); !errors.Is(err, ErrTooFewVertices) {
		t.Errorf("Expected ErrTooFewVertices, got %v", err)
	}
}

func TestValidate_OutOfRange(t *testing.T) {
	p := square(0, 0, 0.001)
	p.Points[2].Lat = 95
	if err := Validate(p); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
}

func TestValidate_DegenerateArea(t *testing.T) {
	p := model.Polygon{Points: []model.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 0.0005, Lng: 0.0005},
		{Lat: 0.001, Lng: 0.001},
	}}
	if err := Validate(p); !errors.Is(err, ErrDegenerateArea) {
		t.Errorf("Expected ErrDegenerateArea for collinear ring, got %v", err)
	}
}

func TestValidate_SelfIntersecting(t *testing.T) {
	bowtie := model.Polygon{Points: []model.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 0.001, Lng: 0.001},
		{Lat: 0.001, Lng: 0},
		{Lat: 0, Lng: 0.001},
	}}
	if err := Validate(bowtie); !errors.Is(err, ErrSelfIntersecting) {
		t.Errorf("Expected ErrSelfIntersecting for bowtie ring, got %v", err)
	}
}

func TestValidate_SpanTooLarge(t *testing.T) {
	// A full degree is ~111 km, far beyond parcel scale
	if err := Validate(square(10, 10, 1.0)); !errors.Is(err, ErrSpanTooLarge) {
		t.Errorf("Expected ErrSpanTooLarge, got %v", err)
	}
}

func TestValidate_GoodParcel(t *testing.T) {
	if err := Validate(square(6.45, 3.39, 0.001)); err != nil {
		t.Errorf("Expected valid parcel, got %v", err)
	}
}

func TestArea_KnownSquare(t *testing.T) {
	// 0.001 degree sides at the equator: one degree of latitude is
	// ~111.19 km with R=6371 km, so the square is ~111.19 m per side
	p := square(0, 0, 0.001)
	got := Area(p)
	side := earthRadiusMeters * math.Pi / 180 * 0.001
	want := side * side
	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("Expected area ~%.1f m2, got %.1f m2", want, got)
	}
}

func TestArea_OrderInvariance(t *testing.T) {
	p := square(45, 7, 0.002)
	base := Area(p)

	// Reversed winding
	rev := model.Polygon{Points: make([]model.Coordinate, len(p.Points))}
	for i, pt := range p.Points {
		rev.Points[len(p.Points)-1-i] = pt
	}
	if got := Area(rev); math.Abs(got-base) > 1e-6 {
		t.Errorf("Area changed under reversal: %f vs %f", got, base)
	}

	// Every cyclic rotation of the starting vertex
	for shift := 1; shift < len(p.Points); shift++ {
		rot := model.Polygon{Points: append(append([]model.Coordinate{}, p.Points[shift:]...), p.Points[:shift]...)}
		if got := Area(rot); math.Abs(got-base) > 1e-6 {
			t.Errorf("Area changed under rotation %d: %f vs %f", shift, got, base)
		}
	}
}

func TestIoU_SelfOverlap(t *testing.T) {
	p := square(6.5, 3.3, 0.001)
	res := IoU(p, p, DefaultPolicy())
	if math.Abs(res.IoUScore-1.0) > 1e-9 {
		t.Errorf("Expected IoU 1.0 for self-overlap, got %f", res.IoUScore)
	}
	if res.Severity != model.SeverityCritical {
		t.Errorf("Expected CRITICAL severity for self-overlap, got %s", res.Severity)
	}
}

func TestIoU_Disjoint(t *testing.T) {
	a := square(6.5, 3.3, 0.001)
	b := square(6.6, 3.4, 0.001)

	if _, ok := Intersect(a, b); ok {
		t.Error("Expected no intersection polygon for disjoint parcels")
	}
	res := IoU(a, b, DefaultPolicy())
	if res.IoUScore != 0 {
		t.Errorf("Expected IoU 0.0 for disjoint parcels, got %f", res.IoUScore)
	}
	if res.Severity != model.SeverityNone {
		t.Errorf("Expected NONE severity, got %s", res.Severity)
	}
	if res.AlertType != "" {
		t.Errorf("Expected no alert type, got %s", res.AlertType)
	}
}

func TestIoU_HalfOffsetSquares(t *testing.T) {
	// Two equal squares offset by half a side: intersection is 0.5 units,
	// union is 1.5 units, IoU = 1/3
	side := 0.001
	a := square(0, 0, side)
	b := square(0, side/2, side)

	res := IoU(a, b, DefaultPolicy())
	if math.Abs(res.IoUScore-1.0/3.0) > 0.01 {
		t.Errorf("Expected IoU ~0.333, got %f", res.IoUScore)
	}
	if res.Severity != model.SeverityCritical {
		t.Errorf("Expected CRITICAL severity at IoU 0.333, got %s", res.Severity)
	}
	if math.Abs(res.IntersectionSqm/res.SubjectAreaSqm-0.5) > 0.01 {
		t.Errorf("Expected half the subject overlapped, got %f", res.IntersectionSqm/res.SubjectAreaSqm)
	}
}

func TestIoU_AlertEscalation(t *testing.T) {
	a := square(0, 0, 0.001)
	b := square(0, 0.0002, 0.001)

	pol := DefaultPolicy()
	pol.SameGrantor = false
	pol.WithinWindow = true
	if res := IoU(a, b, pol); res.AlertType != model.AlertDoubleSaleSuspected {
		t.Errorf("Expected DOUBLE_SALE_SUSPECTED for cross-grantor critical overlap in window, got %s", res.AlertType)
	}

	pol.SameGrantor = true
	if res := IoU(a, b, pol); res.AlertType != model.AlertOverlapWarning {
		t.Errorf("Expected OVERLAP_WARNING for same-grantor overlap, got %s", res.AlertType)
	}

	pol.SameGrantor = false
	pol.WithinWindow = false
	if res := IoU(a, b, pol); res.AlertType != model.AlertOverlapWarning {
		t.Errorf("Expected OVERLAP_WARNING outside the policy window, got %s", res.AlertType)
	}
}

func TestContains(t *testing.T) {
	p := square(0, 0, 0.001)
	if !Contains(p, model.Coordinate{Lat: 0.0005, Lng: 0.0005}) {
		t.Error("Expected centroid to be inside")
	}
	if Contains(p, model.Coordinate{Lat: 0.002, Lng: 0.002}) {
		t.Error("Expected outside point to be outside")
	}
}

func TestCentroid(t *testing.T) {
	p := square(0, 0, 0.001)
	c := Centroid(p)
	if math.Abs(c.Lat-0.0005) > 1e-9 || math.Abs(c.Lng-0.0005) > 1e-9 {
		t.Errorf("Expected centroid (0.0005, 0.0005), got (%f, %f)", c.Lat, c.Lng)
	}
}
