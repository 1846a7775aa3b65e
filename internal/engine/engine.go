// Package engine owns the body, force and constraint collections and
// drives the simulation one fixed or adaptive step at a time.
package engine

import (
	"fmt"
	"math"

	"github.com/san-kum/rigid2d/internal/integrators"
	"github.com/san-kum/rigid2d/internal/rigid"
	"github.com/san-kum/rigid2d/internal/solver"
	"github.com/san-kum/rigid2d/internal/tableau"
)

// Handle is a stable reference to a body. Handles survive removal of other
// bodies; a handle to a removed body fails re-validation with
// rigid.ErrHandleInvalidated.
type Handle struct {
	id uint64
}

// Scope selects which bodies a force source applies to.
type Scope struct {
	global bool
	handle Handle
}

// Global applies a force source to every body.
func Global() Scope { return Scope{global: true} }

// On applies a force source to a single body.
func On(h Handle) Scope { return Scope{handle: h} }

type forceEntry struct {
	src   rigid.ForceSource
	scope Scope
}

// Adaptive step-size controller bounds.
const (
	adaptiveSafety = 0.9
	minScale       = 0.2
	maxScale       = 10.0
)

// Engine orchestrates bodies, forces, constraints, the integrator and the
// constraint solver. All collections are engine-owned; a step is atomic
// with respect to external mutation.
type Engine struct {
	bodies []*rigid.Body
	lookup map[uint64]int
	nextID uint64

	forces []forceEntry

	solver  *solver.Solver
	stepper *integrators.Butcher

	dt    float64
	minDt float64
	maxDt float64

	t     float64
	steps int

	// per-step scratch, grown on registration and reused while stepping
	state     rigid.State
	stchanges rigid.State
	prev      rigid.State
	invMasses []float64
}

// New builds an engine stepping dt per Step call with the given tableau.
// capacity pre-sizes the collections.
func New(tab *tableau.Tableau, dt float64, capacity int) (*Engine, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %g", dt)
	}
	stepper, err := integrators.New(tab)
	if err != nil {
		return nil, err
	}
	return &Engine{
		bodies:  make([]*rigid.Body, 0, capacity),
		lookup:  make(map[uint64]int, capacity),
		forces:  make([]forceEntry, 0, capacity),
		solver:  solver.New(solver.DefaultStiffness, solver.DefaultDampening),
		stepper: stepper,
		dt:      dt,
		minDt:   dt / 1024,
		maxDt:   dt * 16,
	}, nil
}

// AddBody validates and registers a body, growing the flat state vectors.
// The engine is left unmodified on failure.
func (e *Engine) AddBody(spec rigid.BodySpec) (Handle, error) {
	b, err := rigid.NewBody(spec)
	if err != nil {
		return Handle{}, err
	}

	b.SetIndex(len(e.bodies))
	e.bodies = append(e.bodies, b)
	e.nextID++
	h := Handle{id: e.nextID}
	e.lookup[h.id] = b.Index()

	e.state = append(e.state, make(rigid.State, rigid.VarPerBody)...)
	e.stchanges = append(e.stchanges, make(rigid.State, rigid.VarPerBody)...)
	e.prev = append(e.prev, make(rigid.State, rigid.VarPerBody)...)
	e.invMasses = append(e.invMasses, b.InvMass(), b.InvMass(), b.InvInertia())
	b.ReadState(e.state[b.Index()*rigid.VarPerBody:])
	return h, nil
}

// Body re-validates a handle and returns the body it refers to.
func (e *Engine) Body(h Handle) (*rigid.Body, error) {
	i, ok := e.lookup[h.id]
	if !ok {
		return nil, rigid.ErrHandleInvalidated
	}
	return e.bodies[i], nil
}

// RemoveBody drops a body between steps. Constraints and per-body forces
// referencing it are removed with it; other handles stay valid.
func (e *Engine) RemoveBody(h Handle) error {
	i, ok := e.lookup[h.id]
	if !ok {
		return rigid.ErrHandleInvalidated
	}
	victim := e.bodies[i]
	delete(e.lookup, h.id)

	var orphaned []rigid.Constraint
	for _, c := range e.solver.Constraints() {
		for _, b := range c.Bodies() {
			if b == victim {
				orphaned = append(orphaned, c)
				break
			}
		}
	}
	for _, c := range orphaned {
		e.solver.Remove(c)
	}
	kept := e.forces[:0]
	for _, f := range e.forces {
		if !f.scope.global && f.scope.handle == h {
			continue
		}
		kept = append(kept, f)
	}
	e.forces = kept

	e.bodies = append(e.bodies[:i], e.bodies[i+1:]...)
	for j, b := range e.bodies {
		b.SetIndex(j)
	}
	for id, idx := range e.lookup {
		if idx > i {
			e.lookup[id] = idx - 1
		}
	}
	e.rebuildBuffers()
	return nil
}

func (e *Engine) rebuildBuffers() {
	n := len(e.bodies)
	e.state = make(rigid.State, rigid.VarPerBody*n)
	e.stchanges = make(rigid.State, rigid.VarPerBody*n)
	e.prev = make(rigid.State, rigid.VarPerBody*n)
	e.invMasses = make([]float64, 0, rigid.PosPerBody*n)
	for _, b := range e.bodies {
		b.ReadState(e.state[b.Index()*rigid.VarPerBody:])
		e.invMasses = append(e.invMasses, b.InvMass(), b.InvMass(), b.InvInertia())
	}
}

// AddForce registers a force source. Per-body scopes are validated against
// the handle.
func (e *Engine) AddForce(src rigid.ForceSource, scope Scope) error {
	if !scope.global {
		if _, err := e.Body(scope.handle); err != nil {
			return err
		}
	}
	e.forces = append(e.forces, forceEntry{src: src, scope: scope})
	return nil
}

// AddConstraint validates and registers a constraint. Every coupled body
// must be owned by this engine.
func (e *Engine) AddConstraint(c rigid.Constraint) error {
	coupled := c.Bodies()
	if len(coupled) == 0 {
		return fmt.Errorf("%w: constraint couples no bodies", rigid.ErrArityMismatch)
	}
	for _, b := range coupled {
		i := b.Index()
		if i < 0 || i >= len(e.bodies) || e.bodies[i] != b {
			return fmt.Errorf("%w: body not owned by this engine", rigid.ErrArityMismatch)
		}
	}
	e.solver.Add(c)
	return nil
}

// Step advances the simulation by the fixed dt. On failure bodies are
// restored to their pre-step state and a StepError is returned.
func (e *Engine) Step() error {
	e.loadState()
	copy(e.prev, e.state)

	next, err := e.stepper.Step(e.ode, e.state, e.t, e.dt)
	if err != nil {
		return e.fail(err)
	}
	if !next.IsValid() {
		return e.fail(rigid.ErrNumericBlowup)
	}

	copy(e.state, next)
	e.Retrieve(e.state)
	e.t += e.dt
	e.steps++
	return nil
}

// StepAdaptive advances by the current dt using the tableau's embedded
// error estimate and retunes dt toward the tolerance. The step is retried
// with a smaller dt when the estimate exceeds tol; rigid.ErrStepTooSmall
// is returned when dt collapses below its minimum.
func (e *Engine) StepAdaptive(tol float64) error {
	if tol <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", tol)
	}
	e.loadState()
	copy(e.prev, e.state)

	order := float64(e.stepper.Tableau().Order)
	for {
		next, errEst, err := e.stepper.StepEmbedded(e.ode, e.state, e.t, e.dt)
		if err != nil {
			return e.fail(err)
		}
		if !next.IsValid() {
			return e.fail(rigid.ErrNumericBlowup)
		}

		if errEst <= tol {
			copy(e.state, next)
			e.Retrieve(e.state)
			e.t += e.dt
			e.steps++
			if errEst > 0 {
				scale := math.Min(maxScale, adaptiveSafety*math.Pow(tol/errEst, 1/order))
				if scale > 1 {
					e.dt = math.Min(e.dt*scale, e.maxDt)
				}
			}
			return nil
		}

		scale := math.Max(minScale, adaptiveSafety*math.Pow(tol/errEst, 1/order))
		e.dt *= scale
		if e.dt < e.minDt {
			e.Retrieve(e.prev)
			return e.fail(rigid.ErrStepTooSmall)
		}
	}
}

func (e *Engine) fail(err error) error {
	e.Retrieve(e.prev)
	return &rigid.StepError{Step: e.steps, Time: e.t, Wrapped: err}
}

// loadState serialises the bodies into the flat state vector.
func (e *Engine) loadState() {
	for _, b := range e.bodies {
		b.ReadState(e.state[b.Index()*rigid.VarPerBody:])
	}
}

// Retrieve writes a flat state back into the bodies: pose, velocity and
// the derived world polygon.
func (e *Engine) Retrieve(s rigid.State) {
	for _, b := range e.bodies {
		b.WriteState(s[b.Index()*rigid.VarPerBody:])
	}
}

// ResetAccumulators zeros every body's force and torque accumulator.
func (e *Engine) ResetAccumulators() {
	for _, b := range e.bodies {
		b.ResetAccumulator()
	}
}

func (e *Engine) Bodies() []*rigid.Body { return e.bodies }

// State returns a copy of the current flat state vector.
func (e *Engine) State() rigid.State {
	e.loadState()
	return e.state.Clone()
}

func (e *Engine) Time() float64 { return e.t }
func (e *Engine) Steps() int    { return e.steps }
func (e *Engine) Dt() float64   { return e.dt }

func (e *Engine) SetDtBounds(min, max float64) {
	e.minDt = min
	e.maxDt = max
}

func (e *Engine) Stiffness() float64 { return e.solver.Stiffness() }
func (e *Engine) Dampening() float64 { return e.solver.Dampening() }

func (e *Engine) SetStiffness(stiffness float64) { e.solver.SetStiffness(stiffness) }
func (e *Engine) SetDampening(dampening float64) { e.solver.SetDampening(dampening) }

// Constraints exposes the registered constraints in registration order.
func (e *Engine) Constraints() []rigid.Constraint { return e.solver.Constraints() }

// Drift reports the largest |C| over the registered constraints.
func (e *Engine) Drift() float64 { return e.solver.MaxValue() }

// KineticEnergy sums translational and rotational kinetic energy over all
// bodies.
func (e *Engine) KineticEnergy() float64 {
	total := 0.0
	for _, b := range e.bodies {
		total += 0.5*b.Mass()*b.Vel().NormSq() + 0.5*b.Inertia()*b.AngVel()*b.AngVel()
	}
	return total
}
