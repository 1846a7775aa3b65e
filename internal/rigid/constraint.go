package rigid

import "github.com/san-kum/rigid2d/internal/geometry"

// Constraint is a scalar holonomic constraint C(q) = 0 over one or more
// bodies. Value, Derivative and the gradients are evaluated against the
// bodies' current poses and velocities at call time; implementations must
// not cache across substeps or mutate bodies.
type Constraint interface {
	// Bodies returns the coupled bodies. The slice defines the constraint's
	// arity and must be stable after registration.
	Bodies() []*Body

	// Value is the current C(q).
	Value() float64

	// Derivative is the current dC/dt.
	Derivative() float64

	// Gradient is dC/d(px, py, theta) for the given body. Bodies the
	// constraint does not couple have an implicit zero gradient.
	Gradient(b *Body) [PosPerBody]float64

	// GradientDot is the time derivative of Gradient.
	GradientDot(b *Body) [PosPerBody]float64
}

// DistanceConstraint keeps the centroids of two bodies at a fixed
// separation: C = |pa - pb| - length.
type DistanceConstraint struct {
	A, B   *Body
	Length float64

	pair [2]*Body // backing for Bodies, avoids a per-call allocation
}

// NewDistanceConstraint links two bodies rigidly at their current
// separation.
func NewDistanceConstraint(a, b *Body) *DistanceConstraint {
	return &DistanceConstraint{A: a, B: b, Length: a.Pos().Dist(b.Pos())}
}

func (c *DistanceConstraint) Bodies() []*Body {
	c.pair[0], c.pair[1] = c.A, c.B
	return c.pair[:]
}

func (c *DistanceConstraint) Value() float64 {
	return c.A.Pos().Dist(c.B.Pos()) - c.Length
}

func (c *DistanceConstraint) Derivative() float64 {
	n := c.A.Pos().Sub(c.B.Pos()).Normalized()
	return n.Dot(c.A.Vel().Sub(c.B.Vel()))
}

func (c *DistanceConstraint) Gradient(b *Body) [PosPerBody]float64 {
	n := c.A.Pos().Sub(c.B.Pos()).Normalized()
	switch b {
	case c.A:
		return [PosPerBody]float64{n.X, n.Y, 0}
	case c.B:
		return [PosPerBody]float64{-n.X, -n.Y, 0}
	}
	return [PosPerBody]float64{}
}

func (c *DistanceConstraint) GradientDot(b *Body) [PosPerBody]float64 {
	ndot := unitDirDot(c.A.Pos().Sub(c.B.Pos()), c.A.Vel().Sub(c.B.Vel()))
	switch b {
	case c.A:
		return [PosPerBody]float64{ndot.X, ndot.Y, 0}
	case c.B:
		return [PosPerBody]float64{-ndot.X, -ndot.Y, 0}
	}
	return [PosPerBody]float64{}
}

// AnchorConstraint keeps a body's centroid at a fixed distance from a world
// point: C = |p - anchor| - length. Length zero pins the centroid.
type AnchorConstraint struct {
	A      *Body
	Anchor geometry.Vec2
	Length float64

	single [1]*Body
}

// NewAnchorConstraint tethers the body at its current distance from the
// anchor.
func NewAnchorConstraint(a *Body, anchor geometry.Vec2) *AnchorConstraint {
	return &AnchorConstraint{A: a, Anchor: anchor, Length: a.Pos().Dist(anchor)}
}

func (c *AnchorConstraint) Bodies() []*Body {
	c.single[0] = c.A
	return c.single[:]
}

func (c *AnchorConstraint) Value() float64 {
	return c.A.Pos().Dist(c.Anchor) - c.Length
}

func (c *AnchorConstraint) Derivative() float64 {
	n := c.A.Pos().Sub(c.Anchor).Normalized()
	return n.Dot(c.A.Vel())
}

func (c *AnchorConstraint) Gradient(b *Body) [PosPerBody]float64 {
	if b != c.A {
		return [PosPerBody]float64{}
	}
	n := c.A.Pos().Sub(c.Anchor).Normalized()
	return [PosPerBody]float64{n.X, n.Y, 0}
}

func (c *AnchorConstraint) GradientDot(b *Body) [PosPerBody]float64 {
	if b != c.A {
		return [PosPerBody]float64{}
	}
	ndot := unitDirDot(c.A.Pos().Sub(c.Anchor), c.A.Vel())
	return [PosPerBody]float64{ndot.X, ndot.Y, 0}
}

// unitDirDot is the time derivative of the unit vector d/|d| given the
// relative velocity of its endpoints:
//
//	d/dt (d/|d|) = (v - n*(n.v)) / |d|
func unitDirDot(d, v geometry.Vec2) geometry.Vec2 {
	r := d.Norm()
	if r == 0 {
		return geometry.Vec2{}
	}
	n := d.Mult(1 / r)
	return v.Sub(n.Mult(n.Dot(v))).Mult(1 / r)
}
