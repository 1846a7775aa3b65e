package geometry

import (
	"errors"
	"math"
	"testing"
)

func TestNewPolygonDegenerate(t *testing.T) {
	tests := []struct {
		name     string
		vertices []Vec2
	}{
		{"empty", nil},
		{"two points", []Vec2{{0, 0}, {1, 0}}},
		{"collinear", []Vec2{{0, 0}, {1, 0}, {2, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPolygon(tt.vertices); !errors.Is(err, ErrDegeneratePolygon) {
				t.Errorf("expected ErrDegeneratePolygon, got %v", err)
			}
		})
	}
}

func TestPolygonAreaAndCentring(t *testing.T) {
	// 2x4 rectangle deliberately offset from the origin.
	p, err := NewPolygon([]Vec2{{10, 10}, {12, 10}, {12, 14}, {10, 14}})
	if err != nil {
		t.Fatalf("NewPolygon: %v", err)
	}

	if math.Abs(p.Area()-8) > 1e-12 {
		t.Errorf("expected area 8, got %f", p.Area())
	}

	// After centring the vertex centroid must sit on the origin.
	var c Vec2
	for _, v := range p.Vertices() {
		c = c.Add(v)
	}
	if c.Mult(1/float64(p.Size())).Norm() > 1e-12 {
		t.Errorf("vertices not centred: mean %v", c)
	}
}

func TestPolygonInertiaBox(t *testing.T) {
	// Unit-mass rectangle: I = (w^2 + h^2) / 12.
	w, h := 3.0, 2.0
	p := Box(w, h)
	expected := (w*w + h*h) / 12

	if math.Abs(p.Inertia()-expected) > 1e-9 {
		t.Errorf("expected inertia %f, got %f", expected, p.Inertia())
	}
}

func TestPolygonWindingInvariance(t *testing.T) {
	ccw := MustPolygon([]Vec2{{0, 0}, {2, 0}, {2, 2}, {0, 2}})
	cw := MustPolygon([]Vec2{{0, 2}, {2, 2}, {2, 0}, {0, 0}})

	if math.Abs(ccw.Area()-cw.Area()) > 1e-12 {
		t.Errorf("area depends on winding: %f vs %f", ccw.Area(), cw.Area())
	}
	if math.Abs(ccw.Inertia()-cw.Inertia()) > 1e-12 {
		t.Errorf("inertia depends on winding: %f vs %f", ccw.Inertia(), cw.Inertia())
	}
}

func TestPolygonTransform(t *testing.T) {
	p := Box(2, 2)
	world := p.Transformed(Vec2{5, 5}, math.Pi/2)

	bb := Bound(world)
	if math.Abs(bb.Min.X-4) > 1e-9 || math.Abs(bb.Max.Y-6) > 1e-9 {
		t.Errorf("unexpected bounds after transform: %+v", bb)
	}
}

func TestAABBOverlaps(t *testing.T) {
	a := AABB{Min: Vec2{0, 0}, Max: Vec2{2, 2}}
	b := AABB{Min: Vec2{1, 1}, Max: Vec2{3, 3}}
	c := AABB{Min: Vec2{5, 5}, Max: Vec2{6, 6}}

	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Error("expected a and b to overlap")
	}
	if a.Overlaps(c) {
		t.Error("expected a and c to be disjoint")
	}
}
