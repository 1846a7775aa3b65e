// Package metrics observes running simulations: momentum, energy and
// constraint drift, sampled once per step.
package metrics

import (
	"math"

	"github.com/san-kum/rigid2d/internal/rigid"
)

// Metric accumulates an observation over the bodies of a simulation.
type Metric interface {
	Name() string
	Observe(bodies []*rigid.Body, t float64)
	Value() float64
	Reset()
}

// LinearMomentum tracks the magnitude of the total linear momentum at the
// latest observation.
type LinearMomentum struct {
	current float64
}

func (m *LinearMomentum) Name() string { return "momentum" }

func (m *LinearMomentum) Observe(bodies []*rigid.Body, t float64) {
	px, py := 0.0, 0.0
	for _, b := range bodies {
		px += b.Mass() * b.Vel().X
		py += b.Mass() * b.Vel().Y
	}
	m.current = math.Hypot(px, py)
}

func (m *LinearMomentum) Value() float64 { return m.current }
func (m *LinearMomentum) Reset()         { m.current = 0 }

// AngularMomentum tracks the total angular momentum about the origin,
// spin plus orbital.
type AngularMomentum struct {
	current float64
}

func (m *AngularMomentum) Name() string { return "angular_momentum" }

func (m *AngularMomentum) Observe(bodies []*rigid.Body, t float64) {
	total := 0.0
	for _, b := range bodies {
		total += b.Inertia()*b.AngVel() + b.Mass()*b.Pos().Cross(b.Vel())
	}
	m.current = total
}

func (m *AngularMomentum) Value() float64 { return m.current }
func (m *AngularMomentum) Reset()         { m.current = 0 }

// KineticEnergy tracks the total kinetic energy at the latest observation.
type KineticEnergy struct {
	current float64
}

func (m *KineticEnergy) Name() string { return "kinetic_energy" }

func (m *KineticEnergy) Observe(bodies []*rigid.Body, t float64) {
	total := 0.0
	for _, b := range bodies {
		total += 0.5*b.Mass()*b.Vel().NormSq() + 0.5*b.Inertia()*b.AngVel()*b.AngVel()
	}
	m.current = total
}

func (m *KineticEnergy) Value() float64 { return m.current }
func (m *KineticEnergy) Reset()         { m.current = 0 }

// ConstraintDrift tracks the worst |C| seen over the run for a fixed set
// of constraints.
type ConstraintDrift struct {
	constraints []rigid.Constraint
	worst       float64
}

func NewConstraintDrift(constraints []rigid.Constraint) *ConstraintDrift {
	return &ConstraintDrift{constraints: constraints}
}

func (m *ConstraintDrift) Name() string { return "constraint_drift" }

func (m *ConstraintDrift) Observe(bodies []*rigid.Body, t float64) {
	for _, c := range m.constraints {
		m.worst = math.Max(m.worst, math.Abs(c.Value()))
	}
}

func (m *ConstraintDrift) Value() float64 { return m.worst }
func (m *ConstraintDrift) Reset()         { m.worst = 0 }
