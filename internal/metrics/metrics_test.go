package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/rigid2d/internal/geometry"
	"github.com/san-kum/rigid2d/internal/rigid"
)

func makeBody(t *testing.T, spec rigid.BodySpec) *rigid.Body {
	t.Helper()
	if spec.Vertices == nil {
		spec.Vertices = []geometry.Vec2{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}
	}
	b, err := rigid.NewBody(spec)
	if err != nil {
		t.Fatalf("NewBody: %v", err)
	}
	return b
}

func TestLinearMomentum(t *testing.T) {
	bodies := []*rigid.Body{
		makeBody(t, rigid.BodySpec{Mass: 2, Vel: geometry.Vec2{X: 1, Y: 0}}),
		makeBody(t, rigid.BodySpec{Mass: 1, Vel: geometry.Vec2{X: 0, Y: 4}}),
	}

	m := &LinearMomentum{}
	m.Observe(bodies, 0)

	// |(2, 4)| = sqrt(20)
	if math.Abs(m.Value()-math.Sqrt(20)) > 1e-12 {
		t.Errorf("expected %f, got %f", math.Sqrt(20), m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestAngularMomentumOrbital(t *testing.T) {
	// Unit mass at (1, 0) moving with (0, 1): L = r x p = 1.
	b := makeBody(t, rigid.BodySpec{
		Pos:  geometry.Vec2{X: 1, Y: 0},
		Vel:  geometry.Vec2{X: 0, Y: 1},
		Mass: 1,
	})

	m := &AngularMomentum{}
	m.Observe([]*rigid.Body{b}, 0)

	if math.Abs(m.Value()-1) > 1e-12 {
		t.Errorf("expected 1, got %f", m.Value())
	}
}

func TestKineticEnergy(t *testing.T) {
	b := makeBody(t, rigid.BodySpec{Mass: 2, Vel: geometry.Vec2{X: 3, Y: 0}, AngVel: 2})

	m := &KineticEnergy{}
	m.Observe([]*rigid.Body{b}, 0)

	expected := 0.5*2*9 + 0.5*b.Inertia()*4
	if math.Abs(m.Value()-expected) > 1e-12 {
		t.Errorf("expected %f, got %f", expected, m.Value())
	}
}

func TestConstraintDriftTracksWorst(t *testing.T) {
	a := makeBody(t, rigid.BodySpec{Mass: 1})
	b := makeBody(t, rigid.BodySpec{Pos: geometry.Vec2{X: 2, Y: 0}, Mass: 1})
	c := &rigid.DistanceConstraint{A: a, B: b, Length: 1} // violated by 1

	m := NewConstraintDrift([]rigid.Constraint{c})
	m.Observe(nil, 0)
	if math.Abs(m.Value()-1) > 1e-12 {
		t.Errorf("expected drift 1, got %f", m.Value())
	}

	// Bring the bodies closer; the worst observation sticks.
	b.WriteState([]float64{1.5, 0, 0, 0, 0, 0})
	m.Observe(nil, 1)
	if math.Abs(m.Value()-1) > 1e-12 {
		t.Errorf("expected the worst drift to stick, got %f", m.Value())
	}
}
