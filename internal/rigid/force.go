package rigid

import "github.com/san-kum/rigid2d/internal/geometry"

// ForceSource contributes a generalised force to one body. Implementations
// must read only the body's current state and never mutate it; the engine
// accumulates the returned (force, torque) pair on the body's behalf.
type ForceSource interface {
	Force(b *Body) (geometry.Vec2, float64)
}

// Gravity applies a constant acceleration field, F = m*g.
type Gravity struct {
	G geometry.Vec2
}

func (g Gravity) Force(b *Body) (geometry.Vec2, float64) {
	return g.G.Mult(b.Mass()), 0
}

// ConstantForce applies a fixed force and torque regardless of state.
type ConstantForce struct {
	F      geometry.Vec2
	Torque float64
}

func (c ConstantForce) Force(b *Body) (geometry.Vec2, float64) {
	return c.F, c.Torque
}

// Drag opposes linear and angular velocity proportionally.
type Drag struct {
	Linear  float64
	Angular float64
}

func (d Drag) Force(b *Body) (geometry.Vec2, float64) {
	return b.Vel().Mult(-d.Linear), -d.Angular * b.AngVel()
}

// Spring pulls the body's centroid toward a fixed world anchor with a
// Hooke force about the rest length.
type Spring struct {
	Anchor geometry.Vec2
	Rest   float64
	K      float64
}

func (s Spring) Force(b *Body) (geometry.Vec2, float64) {
	delta := s.Anchor.Sub(b.Pos())
	dist := delta.Norm()
	if dist == 0 {
		return geometry.Vec2{}, 0
	}
	return delta.Normalized().Mult(s.K * (dist - s.Rest)), 0
}
