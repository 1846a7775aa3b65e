package rigid

import (
	"fmt"

	"github.com/san-kum/rigid2d/internal/geometry"
)

// BodySpec describes a body to register with the engine.
type BodySpec struct {
	Pos      geometry.Vec2
	Vel      geometry.Vec2
	Angle    float64
	AngVel   float64
	Mass     float64
	Charge   float64
	Static   bool
	Vertices []geometry.Vec2
}

// Body is a 2D rigid body. Pose and velocity are written exclusively by the
// engine through WriteState; force sources and constraints only read.
type Body struct {
	pos    geometry.Vec2
	vel    geometry.Vec2
	angpos float64
	angvel float64

	mass       float64
	invMass    float64
	inertia    float64
	invInertia float64

	charge  float64
	dynamic bool

	polygon *geometry.Polygon
	world   []geometry.Vec2

	// accumulated generalised force, cleared each substep
	force  geometry.Vec2
	torque float64

	// position in the engine's body collection, stable within a step
	index int
}

// NewBody validates the spec and builds a body. The polygon is re-centred on
// its centroid and the moment of inertia derives from the polygon scaled by
// mass. Static bodies get zero inverse mass and inertia and carry no
// velocity.
func NewBody(spec BodySpec) (*Body, error) {
	if spec.Mass <= 0 {
		return nil, fmt.Errorf("%w: mass %g", ErrDegenerateBody, spec.Mass)
	}
	poly, err := geometry.NewPolygon(spec.Vertices)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateBody, err)
	}

	b := &Body{
		pos:     spec.Pos,
		angpos:  spec.Angle,
		mass:    spec.Mass,
		inertia: spec.Mass * poly.Inertia(),
		charge:  spec.Charge,
		dynamic: !spec.Static,
		polygon: poly,
		world:   make([]geometry.Vec2, poly.Size()),
		index:   -1,
	}
	if b.dynamic {
		b.vel = spec.Vel
		b.angvel = spec.AngVel
		b.invMass = 1 / b.mass
		b.invInertia = 1 / b.inertia
	}
	b.updateWorld()
	return b, nil
}

func (b *Body) Pos() geometry.Vec2  { return b.pos }
func (b *Body) Vel() geometry.Vec2  { return b.vel }
func (b *Body) Angle() float64      { return b.angpos }
func (b *Body) AngVel() float64     { return b.angvel }
func (b *Body) Mass() float64       { return b.mass }
func (b *Body) InvMass() float64    { return b.invMass }
func (b *Body) Inertia() float64    { return b.inertia }
func (b *Body) InvInertia() float64 { return b.invInertia }
func (b *Body) Charge() float64     { return b.charge }
func (b *Body) Dynamic() bool       { return b.dynamic }

func (b *Body) Polygon() *geometry.Polygon { return b.polygon }

// World returns the world-frame vertices as of the last pose write. The
// slice is owned by the body; callers must not retain or mutate it.
func (b *Body) World() []geometry.Vec2 { return b.world }

// Bound returns the AABB of the world-frame polygon.
func (b *Body) Bound() geometry.AABB { return geometry.Bound(b.world) }

// Index reports the body's position in the engine's collection. It is the
// column block of the body in the flat state vector and the Jacobian.
func (b *Body) Index() int { return b.index }

// SetIndex is called by the engine when the collection is (re)indexed.
func (b *Body) SetIndex(i int) { b.index = i }

// WriteState loads one 6-value segment [px, py, theta, vx, vy, omega] into
// the body and recomputes the world polygon. Static bodies take the pose
// but pin velocity to zero.
func (b *Body) WriteState(segment []float64) {
	_ = segment[VarPerBody-1]
	b.pos = geometry.Vec2{X: segment[0], Y: segment[1]}
	b.angpos = segment[2]
	if b.dynamic {
		b.vel = geometry.Vec2{X: segment[3], Y: segment[4]}
		b.angvel = segment[5]
	} else {
		b.vel = geometry.Vec2{}
		b.angvel = 0
	}
	b.updateWorld()
}

// ReadState stores the body's pose and velocity into one 6-value segment.
func (b *Body) ReadState(segment []float64) {
	_ = segment[VarPerBody-1]
	segment[0] = b.pos.X
	segment[1] = b.pos.Y
	segment[2] = b.angpos
	segment[3] = b.vel.X
	segment[4] = b.vel.Y
	segment[5] = b.angvel
}

func (b *Body) AddForce(f geometry.Vec2) { b.force = b.force.Add(f) }
func (b *Body) AddTorque(torque float64) { b.torque += torque }

func (b *Body) ResetAccumulator() {
	b.force = geometry.Vec2{}
	b.torque = 0
}

// Accel returns the unconstrained acceleration (F/m, tau/I) from the
// accumulated forces. Static bodies do not accelerate.
func (b *Body) Accel() (geometry.Vec2, float64) {
	if !b.dynamic {
		return geometry.Vec2{}, 0
	}
	return b.force.Mult(b.invMass), b.torque * b.invInertia
}

func (b *Body) updateWorld() {
	b.polygon.Transform(b.pos, b.angpos, b.world)
}
